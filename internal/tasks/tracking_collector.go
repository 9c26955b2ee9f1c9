package tasks

import (
	"context"
	"log/slog"
	"time"

	"jet_charter/internal/database"
	"jet_charter/internal/geo"
	"jet_charter/internal/models"
)

// TrackingCollector drains position reports from a channel and commits them to
// the database in batches
type TrackingCollector struct {
	repo          database.TrackingRepository
	points        <-chan *models.TrackingPoint
	batchSize     int           // maximum number of points in a batch before committing
	flushInterval time.Duration // partial batches are committed at least this often
}

// Default batch size is 100 points and flush interval is 5 seconds
func NewTrackingCollector(repo database.TrackingRepository, points <-chan *models.TrackingPoint) *TrackingCollector {
	return NewTrackingCollectorWithConfig(repo, points, 100, 5*time.Second)
}

func NewTrackingCollectorWithConfig(repo database.TrackingRepository, points <-chan *models.TrackingPoint, batchSize int, flushInterval time.Duration) *TrackingCollector {
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}
	return &TrackingCollector{
		repo:          repo,
		points:        points,
		batchSize:     batchSize,
		flushInterval: flushInterval,
	}
}

// Start collects points until the context is cancelled or the channel is
// closed, flushing whatever is pending on the way out. Points with an
// unknown aircraft or impossible coordinates are dropped.
func (c *TrackingCollector) Start(ctx context.Context) error {
	batch := make([]*models.TrackingPoint, 0, c.batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := c.repo.InsertBatch(batch); err != nil {
			slog.Error("Error inserting tracking batch", "batch_size", len(batch), "error", err)
		} else {
			slog.Debug("Inserted tracking batch", "batch_size", len(batch))
		}
		batch = batch[:0]
	}

	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flush()
			return ctx.Err()

		case <-ticker.C:
			flush()

		case p, ok := <-c.points:
			if !ok {
				flush()
				return nil
			}
			if p == nil || p.AircraftID <= 0 || !geo.ValidCoordinate(p.Latitude, p.Longitude) {
				slog.Debug("Dropping tracking point", "point", p)
				continue
			}
			if p.Timestamp.IsZero() {
				p.Timestamp = time.Now().UTC()
			}

			batch = append(batch, p)
			if len(batch) >= c.batchSize {
				flush()
			}
		}
	}
}
