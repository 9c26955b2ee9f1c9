package tasks

import (
	"cmp"
	"context"
	"slices"
	"testing"
	"time"

	"jet_charter/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTracking numbers points in the order they were added, like the
// table's row IDs
type fakeTracking struct {
	points  []*models.TrackingPoint
	cursors []int64
	err     error
}

func (f *fakeTracking) add(points ...*models.TrackingPoint) {
	for _, p := range points {
		p.ID = int64(len(f.points) + 1)
		f.points = append(f.points, p)
	}
}

func (f *fakeTracking) LatestPerAircraft(_ context.Context, afterID int64) ([]*models.TrackingPoint, int64, error) {
	f.cursors = append(f.cursors, afterID)
	if f.err != nil {
		return nil, afterID, f.err
	}
	latest := map[int64]*models.TrackingPoint{}
	lastID := afterID
	for _, p := range f.points {
		if p.ID <= afterID {
			continue
		}
		lastID = max(lastID, p.ID)
		if cur, ok := latest[p.AircraftID]; !ok || p.Timestamp.After(cur.Timestamp) {
			latest[p.AircraftID] = p
		}
	}
	out := make([]*models.TrackingPoint, 0, len(latest))
	for _, p := range latest {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b *models.TrackingPoint) int { return cmp.Compare(a.AircraftID, b.AircraftID) })
	return out, lastID, nil
}

type fakeAirports []*models.Airport

func (f fakeAirports) WithCoordinates(context.Context) ([]*models.Airport, error) {
	return f, nil
}

type locationUpdate struct {
	id   int64
	icao string
	at   time.Time
}

// fakeFleet refuses updates older than the location it already holds
type fakeFleet struct {
	updates []locationUpdate
	seen    map[int64]time.Time
	err     error
}

func (f *fakeFleet) UpdateLocation(_ context.Context, id int64, icao string, at time.Time) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.seen == nil {
		f.seen = map[int64]time.Time{}
	}
	if prev, ok := f.seen[id]; ok && at.Before(prev) {
		return false, nil
	}
	f.seen[id] = at
	f.updates = append(f.updates, locationUpdate{id, icao, at})
	return true, nil
}

func airport(icao string, lat, lon float64) *models.Airport {
	return &models.Airport{ICAO: icao, Latitude: &lat, Longitude: &lon}
}

var testAirports = fakeAirports{
	airport("HKJK", -1.319167, 36.927722),
	airport("HKNW", -1.321719, 36.814833),
	airport("OMDB", 25.2528, 55.3644),
	{ICAO: "HKXX"},
}

func TestLocationSync_SnapsParkedAircraft(t *testing.T) {
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	tracking := &fakeTracking{}
	tracking.add(
		// parked on the Dubai apron
		&models.TrackingPoint{AircraftID: 1, Timestamp: base, Latitude: 25.25, Longitude: 55.36},
		// cruising over Ethiopia
		&models.TrackingPoint{AircraftID: 2, Timestamp: base, Latitude: 9.0, Longitude: 40.0, Altitude: 41000, Speed: 480},
		// on the ground far from any airport
		&models.TrackingPoint{AircraftID: 3, Timestamp: base, Latitude: 5.0, Longitude: 45.0},
		// parked at Wilson, nearer HKNW than HKJK
		&models.TrackingPoint{AircraftID: 4, Timestamp: base.Add(time.Minute), Latitude: -1.3215, Longitude: 36.8150, Speed: 5},
	)
	fleet := &fakeFleet{}

	task := NewLocationSync(tracking, testAirports, fleet, time.Minute, 5)
	assert.Equal(t, "location_sync", task.Name())
	assert.Equal(t, time.Minute, task.Interval())

	require.NoError(t, task.Run(context.Background()))

	require.Len(t, fleet.updates, 2)
	assert.Equal(t, locationUpdate{1, "OMDB", base}, fleet.updates[0])
	assert.Equal(t, locationUpdate{4, "HKNW", base.Add(time.Minute)}, fleet.updates[1])
}

func TestLocationSync_OnlyNewReports(t *testing.T) {
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	tracking := &fakeTracking{}
	tracking.add(&models.TrackingPoint{AircraftID: 1, Timestamp: base, Latitude: 25.25, Longitude: 55.36})
	fleet := &fakeFleet{}
	task := NewLocationSync(tracking, testAirports, fleet, time.Minute, 5)

	require.NoError(t, task.Run(context.Background()))
	require.NoError(t, task.Run(context.Background()))

	assert.Len(t, fleet.updates, 1)
	assert.Equal(t, []int64{0, 1}, tracking.cursors)
}

func TestLocationSync_LateReportWithOlderTimestamp(t *testing.T) {
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	tracking := &fakeTracking{}
	tracking.add(&models.TrackingPoint{AircraftID: 1, Timestamp: base, Latitude: 25.25, Longitude: 55.36})
	fleet := &fakeFleet{}
	task := NewLocationSync(tracking, testAirports, fleet, time.Minute, 5)

	require.NoError(t, task.Run(context.Background()))

	// another aircraft's report arrives after the run but carries an earlier
	// timestamp than anything applied so far
	tracking.add(&models.TrackingPoint{AircraftID: 2, Timestamp: base.Add(-time.Hour), Latitude: -1.32, Longitude: 36.93})
	require.NoError(t, task.Run(context.Background()))

	require.Len(t, fleet.updates, 2)
	assert.Equal(t, locationUpdate{2, "HKJK", base.Add(-time.Hour)}, fleet.updates[1])
}

func TestLocationSync_StaleReportKeepsNewerLocation(t *testing.T) {
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	tracking := &fakeTracking{}
	tracking.add(&models.TrackingPoint{AircraftID: 1, Timestamp: base, Latitude: 25.25, Longitude: 55.36})
	fleet := &fakeFleet{}
	task := NewLocationSync(tracking, testAirports, fleet, time.Minute, 5)
	require.NoError(t, task.Run(context.Background()))

	tracking.add(&models.TrackingPoint{AircraftID: 1, Timestamp: base.Add(-time.Hour), Latitude: -1.32, Longitude: 36.93})
	require.NoError(t, task.Run(context.Background()))

	require.Len(t, fleet.updates, 1)
	assert.Equal(t, "OMDB", fleet.updates[0].icao)
}

func TestLocationSync_Errors(t *testing.T) {
	tracking := &fakeTracking{err: assert.AnError}
	task := NewLocationSync(tracking, testAirports, &fakeFleet{}, time.Minute, 5)
	assert.ErrorIs(t, task.Run(context.Background()), assert.AnError)

	// a failed update is logged and does not stop the run
	tracking = &fakeTracking{}
	tracking.add(&models.TrackingPoint{AircraftID: 1, Timestamp: time.Now(), Latitude: 25.25, Longitude: 55.36})
	task = NewLocationSync(tracking, testAirports, &fakeFleet{err: assert.AnError}, time.Minute, 5)
	assert.NoError(t, task.Run(context.Background()))
}

func TestNearestAirport(t *testing.T) {
	a, d := nearestAirport(testAirports, -1.32, 36.93)
	require.NotNil(t, a)
	assert.Equal(t, "HKJK", a.ICAO)
	assert.Less(t, d, 1.0)

	a, _ = nearestAirport(nil, 0, 0)
	assert.Nil(t, a)
}
