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

	"jet_charter/internal/charter"
	"jet_charter/internal/models"
)

type AirportRepository interface {
	Get(ctx context.Context, icao string) (*models.Airport, error)
	Search(ctx context.Context, query string, limit int) ([]*models.Airport, error)
	WithCoordinates(ctx context.Context) ([]*models.Airport, error)
	InsertBatch(airports []*models.Airport) error
	IsTablePopulated() (bool, error)
	LoadFromCSV(csvPath string, batchSize int) error
}

type airportRepository struct {
	db *sql.DB
}

func NewAirportRepository(db *sql.DB) AirportRepository {
	return &airportRepository{db: db}
}

const airportColumns = `icao_code, iata_code, name, city, country, latitude, longitude, is_private_aviation_friendly`

// Get returns the airport with the given ICAO code or a *charter.NotFoundError
func (r *airportRepository) Get(ctx context.Context, icao string) (*models.Airport, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+airportColumns+` FROM airports WHERE icao_code = ?`, icao)
	airport, err := scanAirport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &charter.NotFoundError{Kind: "airport", Key: icao}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get airport %s: %w", icao, err)
	}
	return airport, nil
}

// Search matches name, city, ICAO or IATA code case-insensitively, ordered by name
func (r *airportRepository) Search(ctx context.Context, query string, limit int) ([]*models.Airport, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	rows, err := r.db.QueryContext(ctx, `SELECT `+airportColumns+` FROM airports
		WHERE lower(name) LIKE ? OR lower(city) LIKE ? OR lower(icao_code) LIKE ? OR lower(coalesce(iata_code, '')) LIKE ?
		ORDER BY name
		LIMIT ?`,
		pattern, pattern, pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search airports: %w", err)
	}
	defer rows.Close()

	return scanAirportRows(rows)
}

// WithCoordinates returns every airport with a known position
func (r *airportRepository) WithCoordinates(ctx context.Context) ([]*models.Airport, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+airportColumns+` FROM airports
		WHERE latitude IS NOT NULL AND longitude IS NOT NULL
		ORDER BY icao_code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list airports: %w", err)
	}
	defer rows.Close()

	return scanAirportRows(rows)
}

// InsertBatch inserts or replaces airports in a single transaction
func (r *airportRepository) InsertBatch(airports []*models.Airport) error {
	if len(airports) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO airports (` + airportColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, a := range airports {
		if _, err := stmt.Exec(
			a.ICAO, nullString(a.IATA), a.Name, a.City, a.Country,
			nullFloat(a.Latitude), nullFloat(a.Longitude), boolToInt(a.PrivateAviationFriendly),
		); err != nil {
			return fmt.Errorf("failed to insert airport %s: %w", a.ICAO, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *airportRepository) IsTablePopulated() (bool, error) {
	var ignored int
	err := r.db.QueryRow("SELECT 1 FROM airports LIMIT 1").Scan(&ignored)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check airports table: %w", err)
	}
	return true, nil
}

// LoadFromCSV loads airports from a CSV file with a header row naming the columns
// icao, iata, name, city, country, latitude, longitude, private_friendly.
// Rows without an ICAO code are skipped; unparsable coordinates are stored as NULL.
func (r *airportRepository) LoadFromCSV(csvPath string, batchSize int) error {
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

	batch := make([]*models.Airport, 0, batchSize)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read CSV record from %s: %w", csvPath, err)
		}

		airport := &models.Airport{
			ICAO:                    strings.ToUpper(getField(record, headerMap, "icao")),
			IATA:                    strings.ToUpper(getField(record, headerMap, "iata")),
			Name:                    getField(record, headerMap, "name"),
			City:                    getField(record, headerMap, "city"),
			Country:                 getField(record, headerMap, "country"),
			Latitude:                parseOptionalFloat(getField(record, headerMap, "latitude")),
			Longitude:               parseOptionalFloat(getField(record, headerMap, "longitude")),
			PrivateAviationFriendly: parseBool(getField(record, headerMap, "private_friendly")),
		}
		if airport.ICAO == "" {
			continue
		}

		batch = append(batch, airport)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAirport(row rowScanner) (*models.Airport, error) {
	var a models.Airport
	var iata sql.NullString
	var lat, lon sql.NullFloat64
	var friendly int

	if err := row.Scan(&a.ICAO, &iata, &a.Name, &a.City, &a.Country, &lat, &lon, &friendly); err != nil {
		return nil, err
	}

	a.IATA = iata.String
	if lat.Valid {
		a.Latitude = &lat.Float64
	}
	if lon.Valid {
		a.Longitude = &lon.Float64
	}
	a.PrivateAviationFriendly = friendly != 0
	return &a, nil
}

func scanAirportRows(rows *sql.Rows) ([]*models.Airport, error) {
	airports := make([]*models.Airport, 0)
	for rows.Next() {
		a, err := scanAirport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan airport: %w", err)
		}
		airports = append(airports, a)
	}
	return airports, rows.Err()
}

func buildHeaderMap(header []string) map[string]int {
	headerMap := make(map[string]int, len(header))
	for i, h := range header {
		headerMap[strings.ToLower(strings.Trim(strings.TrimSpace(h), "'\""))] = i
	}
	return headerMap
}

// getField safely retrieves a field from a CSV record by header name
func getField(record []string, headerMap map[string]int, fieldName string) string {
	if idx, ok := headerMap[fieldName]; ok && idx < len(record) {
		return strings.Trim(strings.TrimSpace(record[idx]), "'\"")
	}
	return ""
}

func parseOptionalFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "yes", "y":
		return true
	}
	b, err := strconv.ParseBool(strings.ToLower(s))
	return err == nil && b
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
