package models

import "time"

// AvailabilityWindow marks an aircraft as open (IsAvailable) or blocked for a period.
// Windows may overlap; an aircraft without any windows is open by default.
type AvailabilityWindow struct {
	ID          int64
	AircraftID  int64
	Start       time.Time
	End         time.Time
	IsAvailable bool
	Notes       string
}
