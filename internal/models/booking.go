package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingStatus tracks a booking through its lifecycle
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking is a client's charter of one aircraft
type Booking struct {
	ID              int64           `json:"id"`
	OrderCode       string          `json:"order_code"`
	AircraftID      int64           `json:"aircraft_id"`
	ClientName      string          `json:"client_name"`
	ClientEmail     string          `json:"client_email"`
	ClientPhone     string          `json:"client_phone"`
	CompanyName     string          `json:"company_name,omitempty"`
	TripType        TripType        `json:"trip_type"`
	Status          BookingStatus   `json:"status"`
	CommissionRate  float64         `json:"commission_rate"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	AgentCommission decimal.Decimal `json:"agent_commission"`
	OwnerEarnings   decimal.Decimal `json:"owner_earnings"`
	SpecialRequests string          `json:"special_requests,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Legs            []FlightLeg     `json:"flight_legs"`
	Passengers      []Passenger     `json:"passengers"`
}

// FlightLeg is one point-to-point segment of a booking
type FlightLeg struct {
	ID             int64           `json:"id"`
	BookingID      int64           `json:"booking_id"`
	Sequence       int             `json:"sequence"`
	DepartureICAO  string          `json:"departure"`
	ArrivalICAO    string          `json:"arrival"`
	Departure      time.Time       `json:"departure_time"`
	Arrival        time.Time       `json:"arrival_time"`
	FlightHours    float64         `json:"flight_hours"`
	PassengerCount int             `json:"passenger_count"`
	LegPrice       decimal.Decimal `json:"leg_price"`
}

// Passenger travelling on a booking
type Passenger struct {
	ID             int64      `json:"id"`
	BookingID      int64      `json:"booking_id"`
	Name           string     `json:"name"`
	Nationality    string     `json:"nationality,omitempty"`
	DateOfBirth    *time.Time `json:"date_of_birth,omitempty"`
	PassportNumber string     `json:"passport_number,omitempty"`
	OrderCode      string     `json:"order_code"`
}

// OwnerPayout records the owner's share of a confirmed booking
type OwnerPayout struct {
	ID                   int64           `json:"id"`
	BookingID            int64           `json:"booking_id"`
	OwnerID              int64           `json:"owner_id"`
	Amount               decimal.Decimal `json:"amount"`
	PayoutDate           time.Time       `json:"payout_date"`
	TransactionReference string          `json:"transaction_reference"`
	Status               string          `json:"status"`
}
