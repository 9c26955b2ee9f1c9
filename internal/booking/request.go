package booking

import (
	"fmt"
	"strings"
	"time"

	"jet_charter/internal/charter"
	"jet_charter/internal/models"
)

// LegRequest is one requested segment of a multi-leg itinerary
type LegRequest struct {
	DepartureICAO string    `json:"departure_airport" validate:"required,len=4,alphanum"`
	ArrivalICAO   string    `json:"arrival_airport" validate:"required,len=4,alphanum"`
	Departure     time.Time `json:"departure_datetime" validate:"required"`
}

type PassengerRequest struct {
	Name           string     `json:"name" validate:"required,max=200"`
	Nationality    string     `json:"nationality" validate:"max=100"`
	DateOfBirth    *time.Time `json:"date_of_birth"`
	PassportNumber string     `json:"passport_number" validate:"max=50"`
}

// CreateRequest books one aircraft. One-way and round trips use the top-level
// route fields; multi-leg trips list their segments in Legs.
type CreateRequest struct {
	AircraftID      int64              `json:"aircraft_id" validate:"required,gt=0"`
	TripType        models.TripType    `json:"trip_type" validate:"omitempty,oneof=one_way round_trip multi_leg"`
	DepartureICAO   string             `json:"departure_airport" validate:"omitempty,len=4,alphanum"`
	ArrivalICAO     string             `json:"arrival_airport" validate:"omitempty,len=4,alphanum"`
	Departure       time.Time          `json:"departure_datetime"`
	Return          *time.Time         `json:"return_datetime"`
	Legs            []LegRequest       `json:"legs" validate:"omitempty,dive"`
	ClientName      string             `json:"client_name" validate:"required,max=200"`
	ClientEmail     string             `json:"client_email" validate:"required,email"`
	ClientPhone     string             `json:"client_phone" validate:"required,max=20"`
	CompanyName     string             `json:"company_name" validate:"max=200"`
	SpecialRequests string             `json:"special_requests"`
	CommissionRate  *float64           `json:"commission_rate" validate:"omitempty,gte=0,lte=100"`
	Passengers      []PassengerRequest `json:"passengers" validate:"required,min=1,dive"`
}

// normalize trims and uppercases airport codes and defaults the trip type
func (r *CreateRequest) normalize() {
	r.DepartureICAO = strings.ToUpper(strings.TrimSpace(r.DepartureICAO))
	r.ArrivalICAO = strings.ToUpper(strings.TrimSpace(r.ArrivalICAO))
	for i := range r.Legs {
		r.Legs[i].DepartureICAO = strings.ToUpper(strings.TrimSpace(r.Legs[i].DepartureICAO))
		r.Legs[i].ArrivalICAO = strings.ToUpper(strings.TrimSpace(r.Legs[i].ArrivalICAO))
	}
	if r.TripType == "" {
		r.TripType = models.TripOneWay
	}
}

// itinerary returns the requested segments in flying order
func (r *CreateRequest) itinerary() ([]LegRequest, error) {
	if r.TripType == models.TripMultiLeg {
		if len(r.Legs) < 2 {
			return nil, &charter.ValidationError{Field: "legs", Message: "a multi-leg trip needs at least two legs"}
		}
		for i := 1; i < len(r.Legs); i++ {
			if !r.Legs[i].Departure.After(r.Legs[i-1].Departure) {
				return nil, &charter.ValidationError{
					Field:   fmt.Sprintf("legs[%d].departure_datetime", i),
					Message: "must be after the previous leg's departure",
				}
			}
		}
		return r.Legs, nil
	}

	switch {
	case r.DepartureICAO == "":
		return nil, &charter.ValidationError{Field: "departure_airport", Message: "is required"}
	case r.ArrivalICAO == "":
		return nil, &charter.ValidationError{Field: "arrival_airport", Message: "is required"}
	case r.Departure.IsZero():
		return nil, &charter.ValidationError{Field: "departure_datetime", Message: "is required"}
	}
	outbound := LegRequest{DepartureICAO: r.DepartureICAO, ArrivalICAO: r.ArrivalICAO, Departure: r.Departure}

	if r.TripType != models.TripRoundTrip {
		return []LegRequest{outbound}, nil
	}
	if r.Return == nil {
		return nil, &charter.ValidationError{Field: "return_datetime", Message: "is required for round trips"}
	}
	if !r.Return.After(r.Departure) {
		return nil, &charter.ValidationError{Field: "return_datetime", Message: "must be after departure"}
	}
	return []LegRequest{
		outbound,
		{DepartureICAO: r.ArrivalICAO, ArrivalICAO: r.DepartureICAO, Departure: *r.Return},
	}, nil
}
