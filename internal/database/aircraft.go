package database

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"jet_charter/internal/charter"
	"jet_charter/internal/models"
)

type AircraftRepository interface {
	Find(ctx context.Context, q charter.AircraftQuery) ([]*models.Aircraft, error)
	Get(ctx context.Context, id int64) (*models.Aircraft, error)
	UpsertType(ctx context.Context, t *models.AircraftType) (int64, error)
	InsertBatch(aircraft []*models.Aircraft) error
	UpdateLocation(ctx context.Context, id int64, icao string, at time.Time) (bool, error)
	SetActive(ctx context.Context, id int64, active bool) error
	LocationUpdatedAt(ctx context.Context, id int64) (time.Time, error)
	IsTablePopulated() (bool, error)
	LoadFleetFromCSV(csvPath string, batchSize int) error
}

type aircraftRepository struct {
	db *sql.DB
}

func NewAircraftRepository(db *sql.DB) AircraftRepository {
	return &aircraftRepository{db: db}
}

const aircraftSelect = `SELECT a.id, a.owner_id, a.registration_number, a.model_name, a.base_airport,
		a.current_location, a.hourly_rate, a.minimum_hours, a.is_active,
		t.id, t.name, t.passenger_capacity, t.speed_knots, t.range_nautical_miles, t.category
	FROM aircraft a
	JOIN aircraft_types t ON t.id = a.aircraft_type_id`

// Find returns aircraft matching q in id order
func (r *aircraftRepository) Find(ctx context.Context, q charter.AircraftQuery) ([]*models.Aircraft, error) {
	var where []string
	var args []any

	if q.ActiveOnly {
		where = append(where, "a.is_active = 1")
	}
	if q.MinCapacity > 0 {
		where = append(where, "t.passenger_capacity >= ?")
		args = append(args, q.MinCapacity)
	}
	if q.Location != "" {
		where = append(where, "a.current_location = ?")
		args = append(args, q.Location)
	}
	if q.ExcludeLocation != "" {
		where = append(where, "a.current_location != ?")
		args = append(args, q.ExcludeLocation)
	}

	query := aircraftSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY a.id"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query aircraft: %w", err)
	}
	defer rows.Close()

	fleet := make([]*models.Aircraft, 0)
	for rows.Next() {
		a, err := scanAircraft(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan aircraft: %w", err)
		}
		fleet = append(fleet, a)
	}
	return fleet, rows.Err()
}

// Get returns one aircraft or a *charter.NotFoundError
func (r *aircraftRepository) Get(ctx context.Context, id int64) (*models.Aircraft, error) {
	row := r.db.QueryRowContext(ctx, aircraftSelect+" WHERE a.id = ?", id)
	a, err := scanAircraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &charter.NotFoundError{Kind: "aircraft", Key: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get aircraft %d: %w", id, err)
	}
	return a, nil
}

// UpsertType inserts the aircraft type unless one with the same name exists
// and returns its id
func (r *aircraftRepository) UpsertType(ctx context.Context, t *models.AircraftType) (int64, error) {
	return upsertType(ctx, r.db, t)
}

type execQueryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func upsertType(ctx context.Context, db execQueryer, t *models.AircraftType) (int64, error) {
	if _, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO aircraft_types
		(name, passenger_capacity, speed_knots, range_nautical_miles, category)
		VALUES (?, ?, ?, ?, ?)`,
		t.Name, t.PassengerCapacity, t.SpeedKnots, t.RangeNM, t.Category,
	); err != nil {
		return 0, fmt.Errorf("failed to insert aircraft type %s: %w", t.Name, err)
	}

	var id int64
	if err := db.QueryRowContext(ctx, `SELECT id FROM aircraft_types WHERE name = ?`, t.Name).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to look up aircraft type %s: %w", t.Name, err)
	}
	t.ID = id
	return id, nil
}

// InsertBatch inserts aircraft in a single transaction, creating their types
// as needed. IDs are written back to the records.
func (r *aircraftRepository) InsertBatch(aircraft []*models.Aircraft) error {
	if len(aircraft) == 0 {
		return nil
	}

	ctx := context.Background()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO aircraft (
		owner_id, aircraft_type_id, registration_number, model_name, base_airport,
		current_location, hourly_rate, minimum_hours, is_active
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, ac := range aircraft {
		if ac.Type.ID == 0 {
			if _, err := upsertType(ctx, tx, &ac.Type); err != nil {
				return err
			}
		}

		res, err := stmt.ExecContext(ctx,
			ac.OwnerID, ac.Type.ID, ac.RegistrationNumber, ac.ModelName, ac.BaseAirport,
			ac.CurrentLocation, ac.HourlyRate, ac.MinimumHours, boolToInt(ac.IsActive),
		)
		if err != nil {
			return fmt.Errorf("failed to insert aircraft %s: %w", ac.RegistrationNumber, err)
		}
		if ac.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get last insert ID: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// UpdateLocation moves the aircraft to icao as of at. It reports false and
// leaves the row alone when a location newer than at is already recorded.
func (r *aircraftRepository) UpdateLocation(ctx context.Context, id int64, icao string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE aircraft SET current_location = ?, location_updated_at = ?
		WHERE id = ? AND (location_updated_at IS NULL OR location_updated_at <= ?)`,
		icao, formatTime(at), id, formatTime(at),
	)
	if err != nil {
		return false, fmt.Errorf("failed to update location of aircraft %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n > 0 {
		return true, nil
	}

	if _, err := r.LocationUpdatedAt(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (r *aircraftRepository) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE aircraft SET is_active = ? WHERE id = ?`, boolToInt(active), id)
	if err != nil {
		return fmt.Errorf("failed to update aircraft %d: %w", id, err)
	}
	return requireAffected(res, "aircraft", id)
}

// LocationUpdatedAt returns when the location was last set from tracking,
// or the zero time if never
func (r *aircraftRepository) LocationUpdatedAt(ctx context.Context, id int64) (time.Time, error) {
	var updated sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT location_updated_at FROM aircraft WHERE id = ?`, id).Scan(&updated)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, &charter.NotFoundError{Kind: "aircraft", Key: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read aircraft %d: %w", id, err)
	}
	if !updated.Valid {
		return time.Time{}, nil
	}
	return parseTime(updated.String)
}

func (r *aircraftRepository) IsTablePopulated() (bool, error) {
	var ignored int
	err := r.db.QueryRow("SELECT 1 FROM aircraft LIMIT 1").Scan(&ignored)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check aircraft table: %w", err)
	}
	return true, nil
}

// LoadFleetFromCSV loads aircraft (and their types) from a CSV file with a header row.
// Rows without a registration number are skipped.
func (r *aircraftRepository) LoadFleetFromCSV(csvPath string, batchSize int) error {
	file, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("failed to open CSV file %s: %w", csvPath, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header from %s: %w", csvPath, err)
	}
	headerMap := buildHeaderMap(header)

	batch := make([]*models.Aircraft, 0, batchSize)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read CSV record from %s: %w", csvPath, err)
		}

		ac := &models.Aircraft{
			OwnerID:            parseInt64(getField(record, headerMap, "owner_id")),
			RegistrationNumber: getField(record, headerMap, "registration_number"),
			ModelName:          getField(record, headerMap, "model_name"),
			BaseAirport:        strings.ToUpper(getField(record, headerMap, "base_airport")),
			CurrentLocation:    strings.ToUpper(getField(record, headerMap, "current_location")),
			HourlyRate:         parseFloat(getField(record, headerMap, "hourly_rate")),
			MinimumHours:       parseFloat(getField(record, headerMap, "minimum_hours")),
			IsActive:           getField(record, headerMap, "is_active") == "" || parseBool(getField(record, headerMap, "is_active")),
			Type: models.AircraftType{
				Name:              getField(record, headerMap, "type_name"),
				PassengerCapacity: int(parseInt64(getField(record, headerMap, "passenger_capacity"))),
				SpeedKnots:        parseFloat(getField(record, headerMap, "speed_knots")),
				RangeNM:           int(parseInt64(getField(record, headerMap, "range_nm"))),
				Category:          getField(record, headerMap, "category"),
			},
		}
		if ac.RegistrationNumber == "" || ac.Type.Name == "" {
			continue
		}
		if ac.MinimumHours == 0 {
			ac.MinimumHours = 1.0
		}

		batch = append(batch, ac)
		if len(batch) >= batchSize {
			if err := r.InsertBatch(batch); err != nil {
				return fmt.Errorf("failed to insert batch: %w", err)
			}
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := r.InsertBatch(batch); err != nil {
			return fmt.Errorf("failed to insert final batch: %w", err)
		}
	}

	return nil
}

func scanAircraft(row rowScanner) (*models.Aircraft, error) {
	var a models.Aircraft
	var active int
	if err := row.Scan(
		&a.ID, &a.OwnerID, &a.RegistrationNumber, &a.ModelName, &a.BaseAirport,
		&a.CurrentLocation, &a.HourlyRate, &a.MinimumHours, &active,
		&a.Type.ID, &a.Type.Name, &a.Type.PassengerCapacity, &a.Type.SpeedKnots, &a.Type.RangeNM, &a.Type.Category,
	); err != nil {
		return nil, err
	}
	a.IsActive = active != 0
	return &a, nil
}

func requireAffected(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return &charter.NotFoundError{Kind: kind, Key: strconv.FormatInt(id, 10)}
	}
	return nil
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseInt64(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
