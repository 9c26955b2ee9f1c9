package database

import (
	"context"
	"database/sql"
	"fmt"

	"jet_charter/internal/models"
)

type TrackingRepository interface {
	InsertBatch(points []*models.TrackingPoint) error
	LatestPerAircraft(ctx context.Context, afterID int64) ([]*models.TrackingPoint, int64, error)
}

type trackingRepository struct {
	db *sql.DB
}

func NewTrackingRepository(db *sql.DB) TrackingRepository {
	return &trackingRepository{db: db}
}

// InsertBatch inserts tracking points in a single transaction. Duplicate
// (aircraft, timestamp) reports and reports for aircraft that do not exist
// are skipped without failing the rest of the batch.
func (r *trackingRepository) InsertBatch(points []*models.TrackingPoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO aircraft_tracking (
		aircraft_id, timestamp, latitude, longitude, altitude, heading, speed, source
	) SELECT ?, ?, ?, ?, ?, ?, ?, ?
	WHERE EXISTS (SELECT 1 FROM aircraft WHERE id = ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.Exec(
			p.AircraftID,
			formatTime(p.Timestamp),
			p.Latitude,
			p.Longitude,
			p.Altitude,
			p.Heading,
			p.Speed,
			p.Source,
			p.AircraftID,
		); err != nil {
			return fmt.Errorf("failed to insert tracking point: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// LatestPerAircraft returns the newest report of each aircraft among the
// rows stored after afterID, ordered by aircraft, and the highest row ID it
// considered. Pass that ID back on the next call to see only later rows.
func (r *trackingRepository) LatestPerAircraft(ctx context.Context, afterID int64) ([]*models.TrackingPoint, int64, error) {
	var lastID int64
	if err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM aircraft_tracking`).Scan(&lastID); err != nil {
		return nil, afterID, fmt.Errorf("failed to read tracking cursor: %w", err)
	}
	if lastID <= afterID {
		return []*models.TrackingPoint{}, afterID, nil
	}

	rows, err := r.db.QueryContext(ctx, `SELECT t.id, t.aircraft_id, t.timestamp, t.latitude, t.longitude,
			t.altitude, t.heading, t.speed, t.source
		FROM aircraft_tracking t
		WHERE t.id > ? AND t.id <= ? AND t.id = (
			SELECT n.id FROM aircraft_tracking n
			WHERE n.aircraft_id = t.aircraft_id AND n.id > ? AND n.id <= ?
			ORDER BY n.timestamp DESC, n.id DESC
			LIMIT 1
		)
		ORDER BY t.aircraft_id`,
		afterID, lastID, afterID, lastID,
	)
	if err != nil {
		return nil, afterID, fmt.Errorf("failed to query latest tracking points: %w", err)
	}
	defer rows.Close()

	points := make([]*models.TrackingPoint, 0)
	for rows.Next() {
		var p models.TrackingPoint
		var ts string
		if err := rows.Scan(&p.ID, &p.AircraftID, &ts, &p.Latitude, &p.Longitude,
			&p.Altitude, &p.Heading, &p.Speed, &p.Source); err != nil {
			return nil, afterID, fmt.Errorf("failed to scan tracking point: %w", err)
		}
		if p.Timestamp, err = parseTime(ts); err != nil {
			return nil, afterID, err
		}
		points = append(points, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, afterID, err
	}
	return points, lastID, nil
}
