package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"jet_charter/internal/charter"
	"jet_charter/internal/models"
)

// maxOrderCodeAttempts bounds retries when a generated code hits the unique index
const maxOrderCodeAttempts = 5

type BookingRepository interface {
	Create(ctx context.Context, b *models.Booking) error
	Get(ctx context.Context, id int64) (*models.Booking, error)
	Transition(ctx context.Context, id int64, to models.BookingStatus, allowedFrom ...models.BookingStatus) error
	Payout(ctx context.Context, bookingID int64) (*models.OwnerPayout, error)
}

type bookingRepository struct {
	db      *sql.DB
	newCode func() string
}

func NewBookingRepository(db *sql.DB) BookingRepository {
	return &bookingRepository{db: db, newCode: newOrderCode}
}

// Create stores the booking, its legs and passengers, and blocks the aircraft
// for every leg, all in one transaction. A leg overlapping a window that is
// already blocked fails with charter.ErrUnavailable and nothing is stored.
// IDs, order codes and timestamps are written back to b.
func (r *bookingRepository) Create(ctx context.Context, b *models.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Truncate(time.Second)
	if b.Status == "" {
		b.Status = models.BookingPending
	}

	b.ID, b.OrderCode, err = r.insertWithCode(func(code string) (sql.Result, error) {
		return tx.ExecContext(ctx, `INSERT INTO bookings (
			order_code, aircraft_id, client_name, client_email, client_phone, company_name,
			trip_type, status, commission_rate, total_price, agent_commission, owner_earnings,
			special_requests, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			code, b.AircraftID, b.ClientName, b.ClientEmail, b.ClientPhone, b.CompanyName,
			string(b.TripType), string(b.Status), b.CommissionRate, b.TotalPrice, b.AgentCommission, b.OwnerEarnings,
			b.SpecialRequests, formatTime(now), formatTime(now),
		)
	})
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	b.CreatedAt, b.UpdatedAt = now, now

	for i := range b.Legs {
		leg := &b.Legs[i]
		leg.BookingID = b.ID
		res, err := tx.ExecContext(ctx, `INSERT INTO flight_legs (
			booking_id, sequence, departure_icao, arrival_icao, departure_datetime,
			arrival_datetime, flight_hours, passenger_count, leg_price
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, leg.Sequence, leg.DepartureICAO, leg.ArrivalICAO, formatTime(leg.Departure),
			formatTime(leg.Arrival), leg.FlightHours, leg.PassengerCount, leg.LegPrice,
		)
		if err != nil {
			return fmt.Errorf("failed to insert flight leg %d: %w", leg.Sequence, err)
		}
		if leg.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get last insert ID: %w", err)
		}

		// the window is only taken if nothing blocked overlaps it, so two
		// bookings racing for the same aircraft cannot both commit
		res, err = tx.ExecContext(ctx, `INSERT INTO availability
			(aircraft_id, booking_id, start_datetime, end_datetime, is_available, notes)
			SELECT ?, ?, ?, ?, 0, ?
			WHERE NOT EXISTS (
				SELECT 1 FROM availability
				WHERE aircraft_id = ? AND is_available = 0 AND start_datetime < ? AND end_datetime > ?
			)`,
			b.AircraftID, b.ID, formatTime(leg.Departure), formatTime(leg.Arrival),
			fmt.Sprintf("Booking %s leg %d", b.OrderCode, leg.Sequence),
			b.AircraftID, formatTime(leg.Arrival), formatTime(leg.Departure),
		)
		if err != nil {
			return fmt.Errorf("failed to block aircraft for leg %d: %w", leg.Sequence, err)
		}
		blocked, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if blocked == 0 {
			return fmt.Errorf("%w: leg %d overlaps an existing booking", charter.ErrUnavailable, leg.Sequence)
		}
	}

	for i := range b.Passengers {
		p := &b.Passengers[i]
		p.BookingID = b.ID

		var dob sql.NullString
		if p.DateOfBirth != nil {
			dob = sql.NullString{String: formatTime(*p.DateOfBirth), Valid: true}
		}

		p.ID, p.OrderCode, err = r.insertWithCode(func(code string) (sql.Result, error) {
			return tx.ExecContext(ctx, `INSERT INTO passengers
				(booking_id, name, nationality, date_of_birth, passport_number, order_code)
				VALUES (?, ?, ?, ?, ?, ?)`,
				b.ID, p.Name, p.Nationality, dob, p.PassportNumber, code,
			)
		})
		if err != nil {
			return fmt.Errorf("failed to insert passenger %s: %w", p.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// insertWithCode runs insert with fresh order codes until one is accepted by
// the unique index
func (r *bookingRepository) insertWithCode(insert func(code string) (sql.Result, error)) (int64, string, error) {
	for attempt := 0; attempt < maxOrderCodeAttempts; attempt++ {
		code := r.newCode()
		res, err := insert(code)
		if isUniqueViolation(err) {
			continue
		}
		if err != nil {
			return 0, "", err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, "", fmt.Errorf("failed to get last insert ID: %w", err)
		}
		return id, code, nil
	}
	return 0, "", fmt.Errorf("no unique order code after %d attempts", maxOrderCodeAttempts)
}

// Get returns the booking with its legs and passengers
func (r *bookingRepository) Get(ctx context.Context, id int64) (*models.Booking, error) {
	var b models.Booking
	var tripType, status, createdAt, updatedAt string

	err := r.db.QueryRowContext(ctx, `SELECT id, order_code, aircraft_id, client_name, client_email,
		client_phone, company_name, trip_type, status, commission_rate, total_price,
		agent_commission, owner_earnings, special_requests, created_at, updated_at
		FROM bookings WHERE id = ?`, id,
	).Scan(
		&b.ID, &b.OrderCode, &b.AircraftID, &b.ClientName, &b.ClientEmail,
		&b.ClientPhone, &b.CompanyName, &tripType, &status, &b.CommissionRate, &b.TotalPrice,
		&b.AgentCommission, &b.OwnerEarnings, &b.SpecialRequests, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &charter.NotFoundError{Kind: "booking", Key: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking %d: %w", id, err)
	}

	b.TripType = models.TripType(tripType)
	b.Status = models.BookingStatus(status)
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	if b.Legs, err = r.legs(ctx, id); err != nil {
		return nil, err
	}
	if b.Passengers, err = r.passengers(ctx, id); err != nil {
		return nil, err
	}

	return &b, nil
}

func (r *bookingRepository) legs(ctx context.Context, bookingID int64) ([]models.FlightLeg, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, booking_id, sequence, departure_icao, arrival_icao,
		departure_datetime, arrival_datetime, flight_hours, passenger_count, leg_price
		FROM flight_legs WHERE booking_id = ? ORDER BY sequence`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query flight legs: %w", err)
	}
	defer rows.Close()

	legs := make([]models.FlightLeg, 0)
	for rows.Next() {
		var leg models.FlightLeg
		var departure, arrival string
		if err := rows.Scan(&leg.ID, &leg.BookingID, &leg.Sequence, &leg.DepartureICAO, &leg.ArrivalICAO,
			&departure, &arrival, &leg.FlightHours, &leg.PassengerCount, &leg.LegPrice); err != nil {
			return nil, fmt.Errorf("failed to scan flight leg: %w", err)
		}
		if leg.Departure, err = parseTime(departure); err != nil {
			return nil, err
		}
		if leg.Arrival, err = parseTime(arrival); err != nil {
			return nil, err
		}
		legs = append(legs, leg)
	}
	return legs, rows.Err()
}

func (r *bookingRepository) passengers(ctx context.Context, bookingID int64) ([]models.Passenger, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, booking_id, name, nationality, date_of_birth,
		passport_number, order_code
		FROM passengers WHERE booking_id = ? ORDER BY id`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query passengers: %w", err)
	}
	defer rows.Close()

	passengers := make([]models.Passenger, 0)
	for rows.Next() {
		var p models.Passenger
		var dob sql.NullString
		if err := rows.Scan(&p.ID, &p.BookingID, &p.Name, &p.Nationality, &dob,
			&p.PassportNumber, &p.OrderCode); err != nil {
			return nil, fmt.Errorf("failed to scan passenger: %w", err)
		}
		if dob.Valid {
			t, err := parseTime(dob.String)
			if err != nil {
				return nil, err
			}
			p.DateOfBirth = &t
		}
		passengers = append(passengers, p)
	}
	return passengers, rows.Err()
}

// Transition moves the booking to status to if its current status is one of
// allowedFrom. Confirming creates the owner payout unless one exists;
// cancelling releases the aircraft's booked windows.
func (r *bookingRepository) Transition(ctx context.Context, id int64, to models.BookingStatus, allowedFrom ...models.BookingStatus) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current, orderCode string
	var ownerEarnings decimal.Decimal
	var ownerID int64
	err = tx.QueryRowContext(ctx, `SELECT b.status, b.order_code, b.owner_earnings, a.owner_id
		FROM bookings b JOIN aircraft a ON a.id = b.aircraft_id
		WHERE b.id = ?`, id,
	).Scan(&current, &orderCode, &ownerEarnings, &ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return &charter.NotFoundError{Kind: "booking", Key: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		return fmt.Errorf("failed to read booking %d: %w", id, err)
	}

	if !slices.Contains(allowedFrom, models.BookingStatus(current)) {
		return &charter.ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("cannot move booking from %s to %s", current, to),
		}
	}

	now := time.Now().UTC().Truncate(time.Second)
	if _, err := tx.ExecContext(ctx, `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`,
		string(to), formatTime(now), id); err != nil {
		return fmt.Errorf("failed to update booking %d: %w", id, err)
	}

	switch to {
	case models.BookingConfirmed:
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO owner_payouts
			(booking_id, owner_id, amount, payout_date, transaction_reference, status)
			VALUES (?, ?, ?, ?, ?, 'pending')`,
			id, ownerID, ownerEarnings, formatTime(now), "PAYOUT-"+orderCode,
		); err != nil {
			return fmt.Errorf("failed to create owner payout: %w", err)
		}
	case models.BookingCancelled:
		if _, err := tx.ExecContext(ctx, `DELETE FROM availability WHERE booking_id = ?`, id); err != nil {
			return fmt.Errorf("failed to release aircraft: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Payout returns the owner payout recorded for a booking
func (r *bookingRepository) Payout(ctx context.Context, bookingID int64) (*models.OwnerPayout, error) {
	var p models.OwnerPayout
	var payoutDate string
	err := r.db.QueryRowContext(ctx, `SELECT id, booking_id, owner_id, amount, payout_date,
		transaction_reference, status
		FROM owner_payouts WHERE booking_id = ?`, bookingID,
	).Scan(&p.ID, &p.BookingID, &p.OwnerID, &p.Amount, &payoutDate, &p.TransactionReference, &p.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &charter.NotFoundError{Kind: "payout", Key: strconv.FormatInt(bookingID, 10)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payout for booking %d: %w", bookingID, err)
	}
	if p.PayoutDate, err = parseTime(payoutDate); err != nil {
		return nil, err
	}
	return &p, nil
}

const (
	orderCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	orderCodeDigits   = "0123456789"
)

// newOrderCode returns eight uppercase alphanumerics followed by two digits,
// drawn from the random bytes of a v4 UUID
func newOrderCode() string {
	id := uuid.New()
	// bytes 6 and 8 carry the version and variant bits
	randomBytes := []byte{id[0], id[1], id[2], id[3], id[4], id[5], id[7], id[9], id[10], id[11]}

	var b strings.Builder
	b.Grow(10)
	for _, v := range randomBytes[:8] {
		b.WriteByte(orderCodeAlphabet[int(v)%len(orderCodeAlphabet)])
	}
	for _, v := range randomBytes[8:] {
		b.WriteByte(orderCodeDigits[int(v)%len(orderCodeDigits)])
	}
	return b.String()
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
