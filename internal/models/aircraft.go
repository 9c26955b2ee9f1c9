package models

// AircraftType describes a model of aircraft shared by many airframes
type AircraftType struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`               // e.g., Gulfstream G650
	PassengerCapacity int     `json:"passenger_capacity"` // Seats available to passengers
	SpeedKnots        float64 `json:"speed_knots"`        // Cruise speed in knots
	RangeNM           int     `json:"range_nautical_miles"`
	Category          string  `json:"category"` // jet, helicopter, propeller, ...
}

// Aircraft is an individual airframe offered for charter by an owner
type Aircraft struct {
	ID                 int64        `json:"id"`
	OwnerID            int64        `json:"owner_id"`
	Type               AircraftType `json:"aircraft_type"`
	RegistrationNumber string       `json:"registration_number"` // Unique tail number (e.g., 5Y-NJH)
	ModelName          string       `json:"model_name"`
	BaseAirport        string       `json:"base_airport"`     // ICAO code of the home base
	CurrentLocation    string       `json:"current_location"` // ICAO code, not guaranteed to resolve to an Airport
	HourlyRate         float64      `json:"hourly_rate"`
	MinimumHours       float64      `json:"minimum_hours"` // Minimum billable hours per leg
	IsActive           bool         `json:"is_active"`
}
