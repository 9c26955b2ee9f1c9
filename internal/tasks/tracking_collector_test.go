package tasks

import (
	"context"
	"sync"
	"testing"
	"time"

	"jet_charter/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTrackingRepository records inserted points; errors are returned in order
type mockTrackingRepository struct {
	mu      sync.Mutex
	points  []*models.TrackingPoint
	batches int
	errors  []error
}

func (m *mockTrackingRepository) InsertBatch(points []*models.TrackingPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points = append(m.points, points...)
	m.batches++
	if len(m.errors) > 0 {
		err := m.errors[0]
		m.errors = m.errors[1:]
		return err
	}
	return nil
}

func (m *mockTrackingRepository) LatestPerAircraft(_ context.Context, afterID int64) ([]*models.TrackingPoint, int64, error) {
	return nil, afterID, nil
}

func (m *mockTrackingRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.points)
}

func point(id int64) *models.TrackingPoint {
	return &models.TrackingPoint{AircraftID: id, Timestamp: time.Now(), Latitude: -1.3, Longitude: 36.9, Source: "test"}
}

func TestNewTrackingCollector(t *testing.T) {
	repo := &mockTrackingRepository{}
	points := make(chan *models.TrackingPoint, 10)

	collector := NewTrackingCollector(repo, points)

	require.NotNil(t, collector)
	assert.Equal(t, 100, collector.batchSize)
	assert.Equal(t, 5*time.Second, collector.flushInterval)
}

func TestNewTrackingCollectorWithConfig(t *testing.T) {
	repo := &mockTrackingRepository{}
	points := make(chan *models.TrackingPoint, 10)

	collector := NewTrackingCollectorWithConfig(repo, points, 50, 500*time.Millisecond)
	assert.Equal(t, 50, collector.batchSize)
	assert.Equal(t, 500*time.Millisecond, collector.flushInterval)

	collector = NewTrackingCollectorWithConfig(repo, points, 0, 0)
	assert.Equal(t, 100, collector.batchSize)
	assert.Equal(t, 5*time.Second, collector.flushInterval)
}

func TestTrackingCollector_BatchFlush(t *testing.T) {
	repo := &mockTrackingRepository{}
	points := make(chan *models.TrackingPoint, 100)
	collector := NewTrackingCollectorWithConfig(repo, points, 5, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = collector.Start(ctx)
	}()

	for i := 0; i < 5; i++ {
		points <- point(1)
	}

	assert.Eventually(t, func() bool { return repo.count() == 5 }, time.Second, 10*time.Millisecond)
}

func TestTrackingCollector_IntervalFlush(t *testing.T) {
	repo := &mockTrackingRepository{}
	points := make(chan *models.TrackingPoint, 100)
	collector := NewTrackingCollectorWithConfig(repo, points, 10, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = collector.Start(ctx)
	}()

	// a single point never fills the batch; the ticker must commit it
	points <- point(1)

	assert.Eventually(t, func() bool { return repo.count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestTrackingCollector_DropsInvalidPoints(t *testing.T) {
	repo := &mockTrackingRepository{}
	points := make(chan *models.TrackingPoint, 100)
	collector := NewTrackingCollectorWithConfig(repo, points, 10, time.Hour)

	noTimestamp := point(2)
	noTimestamp.Timestamp = time.Time{}

	points <- nil
	points <- &models.TrackingPoint{AircraftID: 0, Latitude: 1, Longitude: 1}
	points <- &models.TrackingPoint{AircraftID: 1, Latitude: 91, Longitude: 1}
	points <- point(1)
	points <- noTimestamp
	close(points)

	require.NoError(t, collector.Start(context.Background()))
	require.Len(t, repo.points, 2)
	assert.False(t, repo.points[1].Timestamp.IsZero())
}

func TestTrackingCollector_ContextCancellation(t *testing.T) {
	repo := &mockTrackingRepository{}
	points := make(chan *models.TrackingPoint, 100)
	collector := NewTrackingCollectorWithConfig(repo, points, 10, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error)
	go func() {
		done <- collector.Start(ctx)
	}()

	points <- point(1)
	assert.Eventually(t, func() bool { return len(points) == 0 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, repo.count())
	case <-time.After(2 * time.Second):
		t.Fatal("Collector did not exit after context cancellation")
	}
}

func TestTrackingCollector_ChannelClosed(t *testing.T) {
	repo := &mockTrackingRepository{}
	points := make(chan *models.TrackingPoint, 100)
	collector := NewTrackingCollectorWithConfig(repo, points, 10, time.Hour)

	points <- point(1)
	points <- point(2)
	close(points)

	require.NoError(t, collector.Start(context.Background()))
	assert.Equal(t, 2, repo.count())
	assert.Equal(t, 1, repo.batches)
}

func TestTrackingCollector_InsertErrorKeepsRunning(t *testing.T) {
	repo := &mockTrackingRepository{errors: []error{assert.AnError}}
	points := make(chan *models.TrackingPoint, 100)
	collector := NewTrackingCollectorWithConfig(repo, points, 2, time.Hour)

	for i := 0; i < 4; i++ {
		points <- point(1)
	}
	close(points)

	require.NoError(t, collector.Start(context.Background()))
	assert.Equal(t, 4, repo.count())
	assert.Equal(t, 2, repo.batches)
}
