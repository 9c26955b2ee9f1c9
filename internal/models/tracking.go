package models

import "time"

// TrackingPoint is a position report for an aircraft
type TrackingPoint struct {
	ID         int64     `json:"id,omitempty"` // storage sequence, zero until stored
	AircraftID int64     `json:"aircraft_id"`
	Timestamp  time.Time `json:"timestamp"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Altitude   int       `json:"altitude"` // feet
	Heading    int       `json:"heading"`  // degrees
	Speed      int       `json:"speed"`    // knots
	Source     string    `json:"source"`
}

// OnGround reports whether the point looks like a parked or taxiing aircraft
func (p *TrackingPoint) OnGround() bool {
	return p.Altitude <= 500 && p.Speed <= 50
}
