package charter

import (
	"context"
	"fmt"
	"time"

	"jet_charter/internal/models"
)

// Window is a requested time interval
type Window struct {
	Start time.Time
	End   time.Time
}

// DayWindow expands t to its calendar day, 00:00:00 to 23:59:59 in t's location
func DayWindow(t time.Time) Window {
	y, m, d := t.Date()
	return Window{
		Start: time.Date(y, m, d, 0, 0, 0, 0, t.Location()),
		End:   time.Date(y, m, d, 23, 59, 59, 0, t.Location()),
	}
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) share any instant.
// Intervals that only touch at a boundary do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// AvailabilityChecker decides whether aircraft are free over requested windows
type AvailabilityChecker struct {
	store Store
}

func NewAvailabilityChecker(store Store) *AvailabilityChecker {
	return &AvailabilityChecker{store: store}
}

// IsAvailable reports whether no blocking window overlaps outbound, nor the
// optional return window. Aircraft without any windows are available.
func (c *AvailabilityChecker) IsAvailable(ctx context.Context, aircraftID int64, outbound Window, ret *Window) (bool, error) {
	free, err := c.free(ctx, aircraftID, outbound)
	if err != nil || !free {
		return false, err
	}
	if ret == nil {
		return true, nil
	}
	return c.free(ctx, aircraftID, *ret)
}

func (c *AvailabilityChecker) free(ctx context.Context, aircraftID int64, w Window) (bool, error) {
	windows, err := c.store.GetBlockingWindows(ctx, aircraftID, w.Start, w.End)
	if err != nil {
		return false, fmt.Errorf("failed to load blocking windows for aircraft %d: %w", aircraftID, err)
	}
	for _, existing := range windows {
		if !existing.IsAvailable && Overlaps(existing.Start, existing.End, w.Start, w.End) {
			return false, nil
		}
	}
	return true, nil
}

// Status describes the aircraft's schedule over w for display
func (c *AvailabilityChecker) Status(ctx context.Context, aircraftID int64, w Window) (string, error) {
	windows, err := c.store.GetWindows(ctx, aircraftID, w.Start, w.End)
	if err != nil {
		return "", fmt.Errorf("failed to load availability for aircraft %d: %w", aircraftID, err)
	}

	touching := 0
	for _, existing := range windows {
		if existing.Start.After(w.End) || existing.End.Before(w.Start) {
			continue
		}
		touching++
		if existing.IsAvailable {
			return models.StatusAvailable, nil
		}
	}
	if touching == 0 {
		return models.StatusNoRestrictions, nil
	}
	return models.StatusLimited, nil
}
