package database

import (
	"context"
	"time"

	"jet_charter/internal/charter"
	"jet_charter/internal/models"
)

var _ charter.Store = (*DB)(nil)

func (d *DB) FindAirport(ctx context.Context, icao string) (*models.Airport, error) {
	return d.Airports().Get(ctx, icao)
}

func (d *DB) FindAircraft(ctx context.Context, q charter.AircraftQuery) ([]*models.Aircraft, error) {
	return d.Aircraft().Find(ctx, q)
}

func (d *DB) GetBlockingWindows(ctx context.Context, aircraftID int64, start, end time.Time) ([]models.AvailabilityWindow, error) {
	return d.Availability().Blocking(ctx, aircraftID, start, end)
}

func (d *DB) GetWindows(ctx context.Context, aircraftID int64, start, end time.Time) ([]models.AvailabilityWindow, error) {
	return d.Availability().Overlapping(ctx, aircraftID, start, end)
}
