package charter

import (
	"math"

	"jet_charter/internal/geo"
	"jet_charter/internal/models"
)

const (
	// FallbackHours is used whenever a route cannot be estimated from data
	FallbackHours = 2.0
	// TaxiBufferHours covers taxi, climb and approach on every leg
	TaxiBufferHours = 0.5
	// DefaultCruiseKnots is assumed when no particular aircraft is involved
	DefaultCruiseKnots = 400.0
)

// EstimateSource tells whether an estimate came from geodata or the fallback
type EstimateSource int

const (
	EstimateComputed EstimateSource = iota
	EstimateFallback
)

func (s EstimateSource) String() string {
	if s == EstimateFallback {
		return "fallback"
	}
	return "computed"
}

// Estimate is a flight duration in hours rounded to one decimal
type Estimate struct {
	Hours      float64
	DistanceNM float64
	Source     EstimateSource
}

// Fallback reports whether the estimate is the fixed default
func (e Estimate) Fallback() bool {
	return e.Source == EstimateFallback
}

func fallbackEstimate() Estimate {
	return Estimate{Hours: FallbackHours, Source: EstimateFallback}
}

// EstimateFlight estimates the block time of aircraft between two airports.
// It never fails: bad coordinates or a missing cruise speed yield FallbackHours.
func EstimateFlight(departure, arrival *models.Airport, aircraft *models.Aircraft) Estimate {
	if aircraft == nil {
		return fallbackEstimate()
	}
	return EstimateForSpeed(departure, arrival, aircraft.Type.SpeedKnots)
}

// EstimateForSpeed is EstimateFlight for a bare cruise speed in knots.
// hours = great-circle NM / speed + TaxiBufferHours
func EstimateForSpeed(departure, arrival *models.Airport, speedKnots float64) Estimate {
	lat1, lon1, ok := departure.Coordinates()
	if !ok {
		return fallbackEstimate()
	}
	lat2, lon2, ok := arrival.Coordinates()
	if !ok {
		return fallbackEstimate()
	}
	if !geo.ValidCoordinate(lat1, lon1) || !geo.ValidCoordinate(lat2, lon2) {
		return fallbackEstimate()
	}
	if math.IsNaN(speedKnots) || math.IsInf(speedKnots, 0) || speedKnots <= 0 {
		return fallbackEstimate()
	}

	distance := geo.DistanceNM(lat1, lon1, lat2, lon2)
	hours := distance/speedKnots + TaxiBufferHours

	return Estimate{
		Hours:      roundTo(hours, 1),
		DistanceNM: distance,
		Source:     EstimateComputed,
	}
}

// roundTo rounds half away from zero to the given number of decimals
func roundTo(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
