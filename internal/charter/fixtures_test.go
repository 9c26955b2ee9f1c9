package charter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"jet_charter/internal/models"
)

// fakeStore is an in-memory Store. It returns every window it holds for an
// aircraft so the overlap filtering under test happens in the checker.
type fakeStore struct {
	airports map[string]*models.Airport
	aircraft []*models.Aircraft
	windows  map[int64][]models.AvailabilityWindow
	queries  []AircraftQuery
	err      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		airports: map[string]*models.Airport{},
		windows:  map[int64][]models.AvailabilityWindow{},
	}
}

func (f *fakeStore) addAirport(icao, name string, lat, lon float64) *models.Airport {
	a := &models.Airport{ICAO: icao, Name: name, Latitude: &lat, Longitude: &lon}
	f.airports[icao] = a
	return a
}

func (f *fakeStore) addAircraft(a *models.Aircraft) *models.Aircraft {
	if a.ID == 0 {
		a.ID = int64(len(f.aircraft) + 1)
	}
	f.aircraft = append(f.aircraft, a)
	return a
}

func (f *fakeStore) block(aircraftID int64, start, end time.Time) {
	f.windows[aircraftID] = append(f.windows[aircraftID], models.AvailabilityWindow{
		AircraftID: aircraftID, Start: start, End: end, IsAvailable: false, Notes: "booked",
	})
}

func (f *fakeStore) open(aircraftID int64, start, end time.Time) {
	f.windows[aircraftID] = append(f.windows[aircraftID], models.AvailabilityWindow{
		AircraftID: aircraftID, Start: start, End: end, IsAvailable: true,
	})
}

func (f *fakeStore) FindAirport(ctx context.Context, icao string) (*models.Airport, error) {
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.airports[icao]
	if !ok {
		return nil, &NotFoundError{Kind: "airport", Key: icao}
	}
	return a, nil
}

func (f *fakeStore) FindAircraft(ctx context.Context, q AircraftQuery) ([]*models.Aircraft, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.queries = append(f.queries, q)

	var out []*models.Aircraft
	for _, a := range f.aircraft {
		if q.ActiveOnly && !a.IsActive {
			continue
		}
		if a.Type.PassengerCapacity < q.MinCapacity {
			continue
		}
		if q.Location != "" && a.CurrentLocation != q.Location {
			continue
		}
		if q.ExcludeLocation != "" && a.CurrentLocation == q.ExcludeLocation {
			continue
		}
		out = append(out, a)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) GetBlockingWindows(ctx context.Context, aircraftID int64, start, end time.Time) ([]models.AvailabilityWindow, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.AvailabilityWindow
	for _, w := range f.windows[aircraftID] {
		if !w.IsAvailable {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeStore) GetWindows(ctx context.Context, aircraftID int64, start, end time.Time) ([]models.AvailabilityWindow, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.windows[aircraftID], nil
}

var errStoreDown = errors.New("store unavailable")

// assertMoney compares amounts by value, ignoring decimal scale
func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func jet(reg, location string, capacity int, speed, rate, minimum float64) *models.Aircraft {
	return &models.Aircraft{
		RegistrationNumber: reg,
		ModelName:          reg,
		CurrentLocation:    location,
		HourlyRate:         rate,
		MinimumHours:       minimum,
		IsActive:           true,
		Type: models.AircraftType{
			Name:              "Test Jet",
			PassengerCapacity: capacity,
			SpeedKnots:        speed,
			Category:          "jet",
		},
	}
}

func at(value string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", value)
	if err != nil {
		panic(err)
	}
	return t
}
