package charter

import (
	"math"
	"testing"

	"jet_charter/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestEstimateFlight_Computed(t *testing.T) {
	store := newFakeStore()
	nairobi := store.addAirport("HKJK", "Jomo Kenyatta", -1.319167, 36.927722)
	dubai := store.addAirport("OMDB", "Dubai International", 25.2528, 55.3644)

	est := EstimateFlight(nairobi, dubai, jet("5Y-AAA", "HKJK", 8, 450, 5000, 1.5))

	assert.Equal(t, EstimateComputed, est.Source)
	assert.False(t, est.Fallback())
	assert.InDelta(t, 1921.8, est.DistanceNM, 0.1)
	assert.Equal(t, 4.8, est.Hours)
}

func TestEstimateFlight_SameAirportIsTaxiBuffer(t *testing.T) {
	store := newFakeStore()
	nairobi := store.addAirport("HKJK", "Jomo Kenyatta", -1.319167, 36.927722)

	est := EstimateFlight(nairobi, nairobi, jet("5Y-AAA", "HKJK", 8, 450, 5000, 1.5))
	assert.Equal(t, TaxiBufferHours, est.Hours)
}

func TestEstimateFlight_Fallback(t *testing.T) {
	lat, lon := -1.319167, 36.927722
	good := &models.Airport{ICAO: "HKJK", Latitude: &lat, Longitude: &lon}
	noLat := &models.Airport{ICAO: "HKXX", Longitude: &lon}
	badLat := 95.0
	outOfRange := &models.Airport{ICAO: "HKYY", Latitude: &badLat, Longitude: &lon}
	nan := math.NaN()
	notNumeric := &models.Airport{ICAO: "HKZZ", Latitude: &nan, Longitude: &lon}

	tests := []struct {
		name     string
		dep, arr *models.Airport
		aircraft *models.Aircraft
	}{
		{"missing latitude", noLat, good, jet("A", "HKJK", 4, 400, 1000, 1)},
		{"missing arrival latitude", good, noLat, jet("A", "HKJK", 4, 400, 1000, 1)},
		{"nil airport", nil, good, jet("A", "HKJK", 4, 400, 1000, 1)},
		{"latitude out of range", outOfRange, good, jet("A", "HKJK", 4, 400, 1000, 1)},
		{"non-numeric latitude", notNumeric, good, jet("A", "HKJK", 4, 400, 1000, 1)},
		{"zero speed", good, good, jet("A", "HKJK", 4, 0, 1000, 1)},
		{"negative speed", good, good, jet("A", "HKJK", 4, -10, 1000, 1)},
		{"nil aircraft", good, good, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est := EstimateFlight(tt.dep, tt.arr, tt.aircraft)
			assert.Equal(t, 2.0, est.Hours)
			assert.True(t, est.Fallback())
			assert.Equal(t, "fallback", est.Source.String())
		})
	}
}

func TestEstimateFlight_MonotonicInDistance(t *testing.T) {
	store := newFakeStore()
	nairobi := store.addAirport("HKJK", "Jomo Kenyatta", -1.319167, 36.927722)
	mombasa := store.addAirport("HKMO", "Moi International", -4.034833, 39.594250)
	dubai := store.addAirport("OMDB", "Dubai International", 25.2528, 55.3644)
	london := store.addAirport("EGLL", "Heathrow", 51.4706, -0.461941)

	aircraft := jet("5Y-AAA", "HKJK", 8, 450, 5000, 1.5)
	near := EstimateFlight(nairobi, mombasa, aircraft)
	mid := EstimateFlight(nairobi, dubai, aircraft)
	far := EstimateFlight(nairobi, london, aircraft)

	assert.Less(t, near.DistanceNM, mid.DistanceNM)
	assert.Less(t, mid.DistanceNM, far.DistanceNM)
	assert.LessOrEqual(t, near.Hours, mid.Hours)
	assert.LessOrEqual(t, mid.Hours, far.Hours)
}

func TestEstimateForSpeed_DefaultCruise(t *testing.T) {
	store := newFakeStore()
	nairobi := store.addAirport("HKJK", "Jomo Kenyatta", -1.319167, 36.927722)
	mombasa := store.addAirport("HKMO", "Moi International", -4.034833, 39.594250)

	// 228.4 NM / 400 kt + 0.5 h
	assert.Equal(t, 1.1, EstimateForSpeed(nairobi, mombasa, DefaultCruiseKnots).Hours)
}
