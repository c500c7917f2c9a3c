package usecase

import (
	"context"
	"fmt"
	"time"

	"artcurator/internal/ports"
)

const lastRerunDayKey = "last_rerun_day"
const rerunDayLayout = "2006-01-02"

// RerunTracker remembers the date the counter last reset, so the reviewer
// can ask how long the current streak is.
type RerunTracker struct {
	kv ports.KeyValue
}

// NewRerunTracker wires the settings store.
func NewRerunTracker(kv ports.KeyValue) *RerunTracker {
	return &RerunTracker{kv: kv}
}

// SetLastRerunDay records the day of the most recent reset.
func (t *RerunTracker) SetLastRerunDay(ctx context.Context, day time.Time) error {
	return t.kv.SetValue(ctx, lastRerunDayKey, day.Format(rerunDayLayout))
}

// RerunInfo describes the current streak.
type RerunInfo struct {
	LastDay     time.Time
	DaysWithout int
}

// Info returns the streak relative to today. ok is false when no reset day
// has been recorded yet.
func (t *RerunTracker) Info(ctx context.Context, today time.Time) (RerunInfo, bool, error) {
	value, ok, err := t.kv.Value(ctx, lastRerunDayKey)
	if err != nil {
		return RerunInfo{}, false, fmt.Errorf("load rerun day: %w", err)
	}
	if !ok {
		return RerunInfo{}, false, nil
	}

	lastDay, err := time.Parse(rerunDayLayout, value)
	if err != nil {
		return RerunInfo{}, false, fmt.Errorf("malformed rerun day %q: %w", value, err)
	}

	days := int(today.Truncate(24*time.Hour).Sub(lastDay) / (24 * time.Hour))
	return RerunInfo{LastDay: lastDay, DaysWithout: days}, true, nil
}
