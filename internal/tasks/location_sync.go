package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"jet_charter/internal/geo"
	"jet_charter/internal/models"
)

type latestPoints interface {
	LatestPerAircraft(ctx context.Context, afterID int64) ([]*models.TrackingPoint, int64, error)
}

type airportLister interface {
	WithCoordinates(ctx context.Context) ([]*models.Airport, error)
}

type locationUpdater interface {
	UpdateLocation(ctx context.Context, id int64, icao string, at time.Time) (bool, error)
}

// LocationSync moves aircraft to the airport they were last seen parked at,
// so that searches start from where the fleet actually is
type LocationSync struct {
	tracking     latestPoints
	airports     airportLister
	fleet        locationUpdater
	interval     time.Duration
	snapRadiusNM float64
	lastID       int64 // highest tracking row already examined
}

func NewLocationSync(tracking latestPoints, airports airportLister, fleet locationUpdater, interval time.Duration, snapRadiusNM float64) *LocationSync {
	return &LocationSync{
		tracking:     tracking,
		airports:     airports,
		fleet:        fleet,
		interval:     interval,
		snapRadiusNM: snapRadiusNM,
	}
}

func (s *LocationSync) Name() string { return "location_sync" }

func (s *LocationSync) Interval() time.Duration { return s.interval }

// Run applies the newest on-ground report of each aircraft stored since the
// previous run. Reports in the air, farther than the snap radius from any
// airport, or older than the aircraft's recorded location change nothing.
func (s *LocationSync) Run(ctx context.Context) error {
	points, lastID, err := s.tracking.LatestPerAircraft(ctx, s.lastID)
	if err != nil {
		return fmt.Errorf("failed to load tracking points: %w", err)
	}
	if len(points) == 0 {
		s.lastID = lastID
		return nil
	}

	airports, err := s.airports.WithCoordinates(ctx)
	if err != nil {
		return fmt.Errorf("failed to load airports: %w", err)
	}

	moved := 0
	for _, p := range points {
		if !p.OnGround() {
			continue
		}

		airport, distance := nearestAirport(airports, p.Latitude, p.Longitude)
		if airport == nil || distance > s.snapRadiusNM {
			slog.Debug("No airport near parked aircraft", "aircraft_id", p.AircraftID, "nearest_nm", distance)
			continue
		}

		updated, err := s.fleet.UpdateLocation(ctx, p.AircraftID, airport.ICAO, p.Timestamp)
		if err != nil {
			slog.Error("Error updating aircraft location", "aircraft_id", p.AircraftID, "airport", airport.ICAO, "error", err)
			continue
		}
		if !updated {
			slog.Debug("Ignoring stale tracking report", "aircraft_id", p.AircraftID, "timestamp", p.Timestamp)
			continue
		}
		moved++
	}
	s.lastID = lastID

	slog.Info("Synced aircraft locations", "reports", len(points), "updated", moved)
	return nil
}

// nearestAirport returns the closest airport and its distance in NM, or nil
// when airports is empty
func nearestAirport(airports []*models.Airport, lat, lon float64) (*models.Airport, float64) {
	var best *models.Airport
	bestDistance := math.Inf(1)
	for _, a := range airports {
		aLat, aLon, ok := a.Coordinates()
		if !ok {
			continue
		}
		if d := geo.DistanceNM(lat, lon, aLat, aLon); d < bestDistance {
			best, bestDistance = a, d
		}
	}
	return best, bestDistance
}
