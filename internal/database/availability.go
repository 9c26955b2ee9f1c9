package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"jet_charter/internal/models"
)

type AvailabilityRepository interface {
	Insert(ctx context.Context, w *models.AvailabilityWindow) (int64, error)
	Blocking(ctx context.Context, aircraftID int64, start, end time.Time) ([]models.AvailabilityWindow, error)
	Overlapping(ctx context.Context, aircraftID int64, start, end time.Time) ([]models.AvailabilityWindow, error)
}

type availabilityRepository struct {
	db *sql.DB
}

func NewAvailabilityRepository(db *sql.DB) AvailabilityRepository {
	return &availabilityRepository{db: db}
}

func (r *availabilityRepository) Insert(ctx context.Context, w *models.AvailabilityWindow) (int64, error) {
	if !w.Start.Before(w.End) {
		return 0, fmt.Errorf("availability window must start before it ends")
	}

	res, err := r.db.ExecContext(ctx, `INSERT INTO availability
		(aircraft_id, start_datetime, end_datetime, is_available, notes)
		VALUES (?, ?, ?, ?, ?)`,
		w.AircraftID, formatTime(w.Start), formatTime(w.End), boolToInt(w.IsAvailable), w.Notes,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert availability window: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	w.ID = id
	return id, nil
}

// Blocking returns unavailable windows overlapping [start, end) with touching
// boundaries excluded
func (r *availabilityRepository) Blocking(ctx context.Context, aircraftID int64, start, end time.Time) ([]models.AvailabilityWindow, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, aircraft_id, start_datetime, end_datetime, is_available, notes
		FROM availability
		WHERE aircraft_id = ? AND is_available = 0 AND start_datetime < ? AND end_datetime > ?
		ORDER BY start_datetime`,
		aircraftID, formatTime(end), formatTime(start),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query blocking windows: %w", err)
	}
	defer rows.Close()

	return scanWindowRows(rows)
}

// Overlapping returns windows of either flag that touch or overlap [start, end]
func (r *availabilityRepository) Overlapping(ctx context.Context, aircraftID int64, start, end time.Time) ([]models.AvailabilityWindow, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, aircraft_id, start_datetime, end_datetime, is_available, notes
		FROM availability
		WHERE aircraft_id = ? AND start_datetime <= ? AND end_datetime >= ?
		ORDER BY start_datetime`,
		aircraftID, formatTime(end), formatTime(start),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query availability windows: %w", err)
	}
	defer rows.Close()

	return scanWindowRows(rows)
}

func scanWindowRows(rows *sql.Rows) ([]models.AvailabilityWindow, error) {
	windows := make([]models.AvailabilityWindow, 0)
	for rows.Next() {
		var w models.AvailabilityWindow
		var start, end string
		var available int

		if err := rows.Scan(&w.ID, &w.AircraftID, &start, &end, &available, &w.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan availability window: %w", err)
		}

		var err error
		if w.Start, err = parseTime(start); err != nil {
			return nil, err
		}
		if w.End, err = parseTime(end); err != nil {
			return nil, err
		}
		w.IsAvailable = available != 0

		windows = append(windows, w)
	}
	return windows, rows.Err()
}
