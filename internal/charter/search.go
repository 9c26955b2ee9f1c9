package charter

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"jet_charter/internal/models"
)

// SearchConfig bounds the two-tier candidate search
type SearchConfig struct {
	PrimaryThreshold int // examine elsewhere-located aircraft when fewer than this are free at departure
	SecondaryCap     int // maximum number of elsewhere-located aircraft examined
}

// DefaultSearchConfig returns the stock search bounds
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{PrimaryThreshold: 5, SecondaryCap: 10}
}

// Searcher finds, prices and ranks aircraft for a route.
// It performs reads only and is safe for concurrent use.
type Searcher struct {
	store        Store
	availability *AvailabilityChecker
	pricer       *Pricer
	cfg          SearchConfig
}

func NewSearcher(store Store, pricer *Pricer, cfg SearchConfig) *Searcher {
	if cfg.PrimaryThreshold <= 0 {
		cfg.PrimaryThreshold = DefaultSearchConfig().PrimaryThreshold
	}
	if cfg.SecondaryCap <= 0 {
		cfg.SecondaryCap = DefaultSearchConfig().SecondaryCap
	}
	return &Searcher{
		store:        store,
		availability: NewAvailabilityChecker(store),
		pricer:       pricer,
		cfg:          cfg,
	}
}

// Search returns the ranked offers for req. An empty slice with a nil error
// means no suitable aircraft.
func (s *Searcher) Search(ctx context.Context, req models.SearchRequest) ([]models.CandidateResult, error) {
	if err := validateSearch(&req); err != nil {
		return nil, err
	}

	departure, err := s.store.FindAirport(ctx, req.DepartureICAO)
	if err != nil {
		return nil, err
	}
	arrival, err := s.store.FindAirport(ctx, req.ArrivalICAO)
	if err != nil {
		return nil, err
	}

	outbound := DayWindow(req.Departure)
	var ret *Window
	if req.TripType == models.TripRoundTrip && req.Return != nil {
		w := DayWindow(*req.Return)
		ret = &w
	}

	candidates, err := s.findCandidates(ctx, departure, req.PassengerCount, outbound, ret)
	if err != nil {
		return nil, err
	}

	results := make([]models.CandidateResult, 0, len(candidates))
	for _, aircraft := range candidates {
		estimate := EstimateFlight(departure, arrival, aircraft)
		quote := s.pricer.Price(aircraft, estimate.Hours, req.TripType)

		status, err := s.availability.Status(ctx, aircraft.ID, outbound)
		if err != nil {
			return nil, err
		}

		results = append(results, models.CandidateResult{
			Aircraft:           aircraft,
			EstimatedHours:     estimate.Hours,
			EstimateFallback:   estimate.Fallback(),
			BasePrice:          quote.BasePrice,
			TotalPrice:         quote.TotalPrice,
			CanAccommodate:     aircraft.Type.PassengerCapacity >= req.PassengerCount,
			AvailabilityStatus: status,
		})
	}

	Rank(results)

	slog.Debug("Aircraft search completed",
		"departure", departure.ICAO,
		"arrival", arrival.ICAO,
		"passengers", req.PassengerCount,
		"trip_type", req.TripType,
		"results", len(results),
	)

	return results, nil
}

// findCandidates returns free aircraft located at departure first, then, when
// fewer than PrimaryThreshold were found, free aircraft from a capped pool
// located elsewhere.
func (s *Searcher) findCandidates(ctx context.Context, departure *models.Airport, passengers int, outbound Window, ret *Window) ([]*models.Aircraft, error) {
	primary, err := s.store.FindAircraft(ctx, AircraftQuery{
		ActiveOnly:  true,
		MinCapacity: passengers,
		Location:    departure.ICAO,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find aircraft at %s: %w", departure.ICAO, err)
	}

	suitable, err := s.filterAvailable(ctx, primary, outbound, ret, nil)
	if err != nil {
		return nil, err
	}

	if len(suitable) >= s.cfg.PrimaryThreshold {
		return suitable, nil
	}

	secondary, err := s.store.FindAircraft(ctx, AircraftQuery{
		ActiveOnly:      true,
		MinCapacity:     passengers,
		ExcludeLocation: departure.ICAO,
		Limit:           s.cfg.SecondaryCap,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find aircraft away from %s: %w", departure.ICAO, err)
	}
	if len(secondary) > s.cfg.SecondaryCap {
		secondary = secondary[:s.cfg.SecondaryCap]
	}

	return s.filterAvailable(ctx, secondary, outbound, ret, suitable)
}

func (s *Searcher) filterAvailable(ctx context.Context, pool []*models.Aircraft, outbound Window, ret *Window, dst []*models.Aircraft) ([]*models.Aircraft, error) {
	for _, aircraft := range pool {
		ok, err := s.availability.IsAvailable(ctx, aircraft.ID, outbound, ret)
		if err != nil {
			return nil, err
		}
		if ok {
			dst = append(dst, aircraft)
		}
	}
	return dst, nil
}

// Rank orders results so aircraft that fit the party come first, cheapest
// first within each group. Equal keys keep their discovery order.
func Rank(results []models.CandidateResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].CanAccommodate != results[j].CanAccommodate {
			return results[i].CanAccommodate
		}
		return results[i].TotalPrice.LessThan(results[j].TotalPrice)
	})
}

// QuickQuote is a lightweight route summary without availability checks
type QuickQuote struct {
	AircraftCount  int     `json:"aircraft_count"`
	Route          string  `json:"route"`
	EstimatedHours float64 `json:"estimated_flight_time"`
}

// QuickQuote counts capacity-sufficient aircraft parked at the departure
// airport and estimates the route at DefaultCruiseKnots.
func (s *Searcher) QuickQuote(ctx context.Context, departureICAO, arrivalICAO string, passengers int) (*QuickQuote, error) {
	departureICAO = normalizeICAO(departureICAO)
	arrivalICAO = normalizeICAO(arrivalICAO)
	if departureICAO == "" {
		return nil, &ValidationError{Field: "departure", Message: "is required"}
	}
	if arrivalICAO == "" {
		return nil, &ValidationError{Field: "arrival", Message: "is required"}
	}
	if passengers < 1 {
		return nil, &ValidationError{Field: "passengers", Message: "must be at least 1"}
	}

	departure, err := s.store.FindAirport(ctx, departureICAO)
	if err != nil {
		return nil, err
	}
	arrival, err := s.store.FindAirport(ctx, arrivalICAO)
	if err != nil {
		return nil, err
	}

	aircraft, err := s.store.FindAircraft(ctx, AircraftQuery{
		ActiveOnly:  true,
		MinCapacity: passengers,
		Location:    departure.ICAO,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count aircraft at %s: %w", departure.ICAO, err)
	}

	return &QuickQuote{
		AircraftCount:  len(aircraft),
		Route:          fmt.Sprintf("%s to %s", departure.Name, arrival.Name),
		EstimatedHours: EstimateForSpeed(departure, arrival, DefaultCruiseKnots).Hours,
	}, nil
}

func normalizeICAO(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func validateSearch(req *models.SearchRequest) error {
	req.DepartureICAO = normalizeICAO(req.DepartureICAO)
	req.ArrivalICAO = normalizeICAO(req.ArrivalICAO)

	if req.DepartureICAO == "" {
		return &ValidationError{Field: "departure_airport", Message: "is required"}
	}
	if req.ArrivalICAO == "" {
		return &ValidationError{Field: "arrival_airport", Message: "is required"}
	}
	if req.PassengerCount < 1 {
		return &ValidationError{Field: "passenger_count", Message: "must be at least 1"}
	}
	if req.Departure.IsZero() {
		return &ValidationError{Field: "departure_date", Message: "is required"}
	}
	if req.TripType == "" {
		req.TripType = models.TripOneWay
	}
	if !req.TripType.Valid() {
		return &ValidationError{Field: "trip_type", Message: fmt.Sprintf("unknown trip type %q", req.TripType)}
	}
	if req.TripType == models.TripRoundTrip {
		if req.Return == nil || req.Return.IsZero() {
			return &ValidationError{Field: "return_date", Message: "is required for round trips"}
		}
		if req.Return.Before(req.Departure) {
			return &ValidationError{Field: "return_date", Message: "must not be before departure"}
		}
	}
	return nil
}
