package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"jet_charter/internal/charter"
	"jet_charter/internal/models"
	"jet_charter/internal/validation"
)

// Repository persists bookings and drives their status
type Repository interface {
	Create(ctx context.Context, b *models.Booking) error
	Get(ctx context.Context, id int64) (*models.Booking, error)
	Transition(ctx context.Context, id int64, to models.BookingStatus, allowedFrom ...models.BookingStatus) error
	Payout(ctx context.Context, bookingID int64) (*models.OwnerPayout, error)
}

// Fleet looks up individual aircraft
type Fleet interface {
	Get(ctx context.Context, id int64) (*models.Aircraft, error)
}

// Service turns booking requests into priced, persisted bookings
type Service struct {
	store        charter.Store
	fleet        Fleet
	repo         Repository
	pricer       *charter.Pricer
	availability *charter.AvailabilityChecker
	validate     *validator.Validate
}

func NewService(store charter.Store, fleet Fleet, repo Repository, pricer *charter.Pricer) *Service {
	return &Service{
		store:        store,
		fleet:        fleet,
		repo:         repo,
		pricer:       pricer,
		availability: charter.NewAvailabilityChecker(store),
		validate:     validation.New("json"),
	}
}

// Create validates, prices and stores a booking. Every leg is estimated with
// the aircraft's cruise speed and billed at least the aircraft's minimum
// hours. A round trip mirrors the outbound leg's hours and price for the
// return, so its total is twice the outbound price.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Booking, error) {
	req.normalize()
	if err := s.validate.StructCtx(ctx, &req); err != nil {
		return nil, validation.Translate(err)
	}

	itinerary, err := req.itinerary()
	if err != nil {
		return nil, err
	}

	aircraft, err := s.fleet.Get(ctx, req.AircraftID)
	if err != nil {
		return nil, err
	}
	if !aircraft.IsActive {
		return nil, &charter.ValidationError{Field: "aircraft_id", Message: "aircraft is not active"}
	}
	if len(req.Passengers) > aircraft.Type.PassengerCapacity {
		return nil, &charter.ValidationError{
			Field:   "passengers",
			Message: fmt.Sprintf("aircraft seats at most %d passengers", aircraft.Type.PassengerCapacity),
		}
	}

	legs, err := s.priceLegs(ctx, aircraft, itinerary, req.TripType, len(req.Passengers))
	if err != nil {
		return nil, err
	}

	for _, leg := range legs {
		free, err := s.availability.IsAvailable(ctx, aircraft.ID, charter.Window{Start: leg.Departure, End: leg.Arrival}, nil)
		if err != nil {
			return nil, err
		}
		if !free {
			return nil, fmt.Errorf("%w: %s leg %d on %s", charter.ErrUnavailable,
				aircraft.RegistrationNumber, leg.Sequence, leg.Departure.Format(time.DateOnly))
		}
	}

	total := bookingTotal(legs, req.TripType)
	split, err := s.pricer.Split(total, req.CommissionRate)
	if err != nil {
		return nil, err
	}

	b := &models.Booking{
		AircraftID:      aircraft.ID,
		ClientName:      req.ClientName,
		ClientEmail:     req.ClientEmail,
		ClientPhone:     req.ClientPhone,
		CompanyName:     req.CompanyName,
		TripType:        req.TripType,
		Status:          models.BookingPending,
		CommissionRate:  split.CommissionRate,
		TotalPrice:      split.Total,
		AgentCommission: split.AgentCommission,
		OwnerEarnings:   split.OwnerEarnings,
		SpecialRequests: req.SpecialRequests,
		Legs:            legs,
		Passengers:      make([]models.Passenger, 0, len(req.Passengers)),
	}
	for _, p := range req.Passengers {
		b.Passengers = append(b.Passengers, models.Passenger{
			Name:           p.Name,
			Nationality:    p.Nationality,
			DateOfBirth:    p.DateOfBirth,
			PassportNumber: p.PassportNumber,
		})
	}

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to store booking: %w", err)
	}

	slog.Info("Booking created",
		"order_code", b.OrderCode,
		"aircraft", aircraft.RegistrationNumber,
		"trip_type", b.TripType,
		"legs", len(b.Legs),
		"total", b.TotalPrice)

	return b, nil
}

// priceLegs estimates and prices every leg of the itinerary
func (s *Service) priceLegs(ctx context.Context, aircraft *models.Aircraft, itinerary []LegRequest, trip models.TripType, passengers int) ([]models.FlightLeg, error) {
	airports := make(map[string]*models.Airport)
	resolve := func(icao string) (*models.Airport, error) {
		if a, ok := airports[icao]; ok {
			return a, nil
		}
		a, err := s.store.FindAirport(ctx, icao)
		if err != nil {
			return nil, err
		}
		airports[icao] = a
		return a, nil
	}

	legs := make([]models.FlightLeg, 0, len(itinerary))
	for i, seg := range itinerary {
		if seg.DepartureICAO == seg.ArrivalICAO {
			return nil, &charter.ValidationError{Field: "arrival_airport", Message: "must differ from departure"}
		}
		departure, err := resolve(seg.DepartureICAO)
		if err != nil {
			return nil, err
		}
		arrival, err := resolve(seg.ArrivalICAO)
		if err != nil {
			return nil, err
		}

		hours := charter.EstimateFlight(departure, arrival, aircraft).Hours
		price := s.pricer.Price(aircraft, hours, models.TripOneWay).BasePrice
		if trip == models.TripRoundTrip && i > 0 {
			hours, price = legs[0].FlightHours, legs[0].LegPrice
		}

		leg := models.FlightLeg{
			Sequence:       i + 1,
			DepartureICAO:  seg.DepartureICAO,
			ArrivalICAO:    seg.ArrivalICAO,
			Departure:      seg.Departure,
			Arrival:        seg.Departure.Add(time.Duration(hours * float64(time.Hour))),
			FlightHours:    hours,
			PassengerCount: passengers,
			LegPrice:       price,
		}
		if i > 0 && leg.Departure.Before(legs[i-1].Arrival) {
			return nil, &charter.ValidationError{
				Field:   "legs",
				Message: fmt.Sprintf("leg %d departs before leg %d arrives", i+1, i),
			}
		}
		legs = append(legs, leg)
	}
	return legs, nil
}

func bookingTotal(legs []models.FlightLeg, trip models.TripType) decimal.Decimal {
	if trip == models.TripRoundTrip {
		return charter.TotalPrice(legs[0].LegPrice, trip)
	}
	total := decimal.Zero
	for _, leg := range legs {
		total = total.Add(leg.LegPrice)
	}
	return total
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Booking, error) {
	return s.repo.Get(ctx, id)
}

// Confirm moves a pending booking to confirmed and returns the owner payout
// created with it
func (s *Service) Confirm(ctx context.Context, id int64) (*models.OwnerPayout, error) {
	if err := s.repo.Transition(ctx, id, models.BookingConfirmed, models.BookingPending); err != nil {
		return nil, err
	}
	payout, err := s.repo.Payout(ctx, id)
	if err != nil {
		return nil, err
	}
	slog.Info("Booking confirmed", "booking_id", id, "payout", payout.TransactionReference, "amount", payout.Amount)
	return payout, nil
}

// Cancel cancels a pending or confirmed booking and frees the aircraft
func (s *Service) Cancel(ctx context.Context, id int64) error {
	if err := s.repo.Transition(ctx, id, models.BookingCancelled, models.BookingPending, models.BookingConfirmed); err != nil {
		return err
	}
	slog.Info("Booking cancelled", "booking_id", id)
	return nil
}

// Complete marks a confirmed booking as flown
func (s *Service) Complete(ctx context.Context, id int64) error {
	if err := s.repo.Transition(ctx, id, models.BookingCompleted, models.BookingConfirmed); err != nil {
		return err
	}
	slog.Info("Booking completed", "booking_id", id)
	return nil
}
