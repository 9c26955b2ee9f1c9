package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TripType is the shape of a charter itinerary
type TripType string

const (
	TripOneWay    TripType = "one_way"
	TripRoundTrip TripType = "round_trip"
	TripMultiLeg  TripType = "multi_leg"
)

// Valid reports whether t is a known trip type
func (t TripType) Valid() bool {
	switch t {
	case TripOneWay, TripRoundTrip, TripMultiLeg:
		return true
	}
	return false
}

// Availability status strings reported with each candidate
const (
	StatusNoRestrictions = "Available (no restrictions)"
	StatusAvailable      = "Available"
	StatusLimited        = "Limited availability"
)

// SearchRequest is a parsed aircraft search. Codes are uppercase and the
// departure date and time are already combined.
type SearchRequest struct {
	DepartureICAO  string
	ArrivalICAO    string
	PassengerCount int
	Departure      time.Time
	TripType       TripType
	Return         *time.Time // Required for round trips
}

// CandidateResult is one ranked aircraft offer
type CandidateResult struct {
	Aircraft           *Aircraft       `json:"aircraft"`
	EstimatedHours     float64         `json:"estimated_flight_hours"`
	EstimateFallback   bool            `json:"estimate_fallback"`
	BasePrice          decimal.Decimal `json:"base_price"`
	TotalPrice         decimal.Decimal `json:"total_price"`
	CanAccommodate     bool            `json:"can_accommodate"`
	AvailabilityStatus string          `json:"availability_status"`
}
