package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// timeLayout is fixed-width UTC so that stored timestamps compare correctly as text
const timeLayout = "2006-01-02T15:04:05Z"

// DB owns the SQLite connection and hands out repositories over it
type DB struct {
	db *sql.DB
}

// New creates and initializes a new database connection
func New(dbPath string) (*DB, error) {
	// foreign_keys and busy_timeout are per connection, so they go in the DSN
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := optimizeSQLite(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to optimize database: %w", err)
	}

	database := &DB{db: db}

	if err := database.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return database, nil
}

// optimizeSQLite applies connection pragmas
func optimizeSQLite(db *sql.DB) error {
	pragmas := []struct {
		stmt string
		desc string
	}{
		// WAL lets search reads proceed while bookings and tracking batches write
		{"PRAGMA journal_mode=WAL", "enable WAL mode"},
		{"PRAGMA cache_size=-64000", "set cache size"},
		{"PRAGMA synchronous=NORMAL", "set synchronous mode"},
		{"PRAGMA temp_store=MEMORY", "set temp_store"},
		{"PRAGMA busy_timeout=5000", "set busy timeout"},
		{"PRAGMA foreign_keys=ON", "enable foreign keys"},
	}

	for _, p := range pragmas {
		if _, err := db.Exec(p.stmt); err != nil {
			return fmt.Errorf("failed to %s: %w", p.desc, err)
		}
	}

	return nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

// initSchema creates the database schema if it doesn't exist
func (d *DB) initSchema() error {
	tables := []struct {
		name   string
		schema string
	}{
		{"airports", `CREATE TABLE IF NOT EXISTS airports (
			icao_code TEXT PRIMARY KEY,
			iata_code TEXT,
			name TEXT NOT NULL,
			city TEXT NOT NULL DEFAULT '',
			country TEXT NOT NULL DEFAULT '',
			latitude REAL,
			longitude REAL,
			is_private_aviation_friendly INTEGER NOT NULL DEFAULT 0
		);`},
		{"aircraft_types", `CREATE TABLE IF NOT EXISTS aircraft_types (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			passenger_capacity INTEGER NOT NULL CHECK (passenger_capacity > 0),
			speed_knots REAL NOT NULL DEFAULT 0,
			range_nautical_miles INTEGER NOT NULL DEFAULT 0,
			category TEXT NOT NULL DEFAULT 'jet'
		);`},
		{"aircraft", `CREATE TABLE IF NOT EXISTS aircraft (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_id INTEGER NOT NULL,
			aircraft_type_id INTEGER NOT NULL REFERENCES aircraft_types(id),
			registration_number TEXT NOT NULL UNIQUE,
			model_name TEXT NOT NULL,
			base_airport TEXT NOT NULL DEFAULT '',
			current_location TEXT NOT NULL DEFAULT '',
			hourly_rate REAL NOT NULL,
			minimum_hours REAL NOT NULL DEFAULT 1.0,
			is_active INTEGER NOT NULL DEFAULT 1,
			location_updated_at TEXT
		);`},
		{"availability", `CREATE TABLE IF NOT EXISTS availability (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			aircraft_id INTEGER NOT NULL REFERENCES aircraft(id) ON DELETE CASCADE,
			booking_id INTEGER REFERENCES bookings(id) ON DELETE CASCADE,
			start_datetime TEXT NOT NULL,
			end_datetime TEXT NOT NULL,
			is_available INTEGER NOT NULL DEFAULT 1,
			notes TEXT NOT NULL DEFAULT '',
			CHECK (start_datetime < end_datetime)
		);`},
		{"bookings", `CREATE TABLE IF NOT EXISTS bookings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			order_code TEXT NOT NULL UNIQUE,
			aircraft_id INTEGER NOT NULL REFERENCES aircraft(id),
			client_name TEXT NOT NULL,
			client_email TEXT NOT NULL,
			client_phone TEXT NOT NULL,
			company_name TEXT NOT NULL DEFAULT '',
			trip_type TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			commission_rate REAL NOT NULL CHECK (commission_rate >= 0),
			total_price TEXT NOT NULL,
			agent_commission TEXT NOT NULL,
			owner_earnings TEXT NOT NULL,
			special_requests TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`},
		{"flight_legs", `CREATE TABLE IF NOT EXISTS flight_legs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			booking_id INTEGER NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
			sequence INTEGER NOT NULL,
			departure_icao TEXT NOT NULL REFERENCES airports(icao_code),
			arrival_icao TEXT NOT NULL REFERENCES airports(icao_code),
			departure_datetime TEXT NOT NULL,
			arrival_datetime TEXT NOT NULL,
			flight_hours REAL NOT NULL,
			passenger_count INTEGER NOT NULL,
			leg_price TEXT NOT NULL,
			UNIQUE(booking_id, sequence)
		);`},
		{"passengers", `CREATE TABLE IF NOT EXISTS passengers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			booking_id INTEGER NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			nationality TEXT NOT NULL DEFAULT '',
			date_of_birth TEXT,
			passport_number TEXT NOT NULL DEFAULT '',
			order_code TEXT NOT NULL UNIQUE
		);`},
		{"owner_payouts", `CREATE TABLE IF NOT EXISTS owner_payouts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			booking_id INTEGER NOT NULL UNIQUE REFERENCES bookings(id),
			owner_id INTEGER NOT NULL,
			amount TEXT NOT NULL,
			payout_date TEXT NOT NULL,
			transaction_reference TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending'
		);`},
		{"aircraft_tracking", `CREATE TABLE IF NOT EXISTS aircraft_tracking (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			aircraft_id INTEGER NOT NULL REFERENCES aircraft(id) ON DELETE CASCADE,
			timestamp TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			altitude INTEGER NOT NULL DEFAULT 0,
			heading INTEGER NOT NULL DEFAULT 0,
			speed INTEGER NOT NULL DEFAULT 0,
			source TEXT NOT NULL DEFAULT '',
			UNIQUE(aircraft_id, timestamp)
		);`},
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_aircraft_location ON aircraft(current_location, is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_availability_aircraft ON availability(aircraft_id, start_datetime, end_datetime)`,
		`CREATE INDEX IF NOT EXISTS idx_availability_booking ON availability(booking_id)`,
		`CREATE INDEX IF NOT EXISTS idx_flight_legs_booking ON flight_legs(booking_id)`,
		`CREATE INDEX IF NOT EXISTS idx_passengers_booking ON passengers(booking_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tracking_aircraft_timestamp ON aircraft_tracking(aircraft_id, timestamp)`,
	}

	for _, tbl := range tables {
		if _, err := d.db.Exec(tbl.schema); err != nil {
			return fmt.Errorf("failed to create %s table: %w", tbl.name, err)
		}
	}

	for _, idx := range indexes {
		if _, err := d.db.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// Airports returns the airport repository
func (d *DB) Airports() AirportRepository {
	return NewAirportRepository(d.db)
}

// Aircraft returns the fleet repository
func (d *DB) Aircraft() AircraftRepository {
	return NewAircraftRepository(d.db)
}

// Availability returns the availability window repository
func (d *DB) Availability() AvailabilityRepository {
	return NewAvailabilityRepository(d.db)
}

// Bookings returns the booking repository
func (d *DB) Bookings() BookingRepository {
	return NewBookingRepository(d.db)
}

// Tracking returns the aircraft tracking repository
func (d *DB) Tracking() TrackingRepository {
	return NewTrackingRepository(d.db)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
