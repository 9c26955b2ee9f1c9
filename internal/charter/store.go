package charter

import (
	"context"
	"time"

	"jet_charter/internal/models"
)

// AircraftQuery filters the fleet. Zero values disable a filter.
type AircraftQuery struct {
	ActiveOnly      bool
	MinCapacity     int
	Location        string // current_location equals
	ExcludeLocation string // current_location differs
	Limit           int
}

// Store is the read side of the fleet database used by the search pipeline.
// FindAirport returns an error matching ErrNotFound for unknown codes.
type Store interface {
	FindAirport(ctx context.Context, icao string) (*models.Airport, error)
	FindAircraft(ctx context.Context, q AircraftQuery) ([]*models.Aircraft, error)
	// GetBlockingWindows returns unavailable windows with start < end and end > start
	GetBlockingWindows(ctx context.Context, aircraftID int64, start, end time.Time) ([]models.AvailabilityWindow, error)
	// GetWindows returns windows of either flag with start <= end and end >= start
	GetWindows(ctx context.Context, aircraftID int64, start, end time.Time) ([]models.AvailabilityWindow, error)
}
