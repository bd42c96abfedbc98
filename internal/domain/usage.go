package domain

import "time"

// CounterType identifies a usage-counter tier.
type CounterType string

const (
	CounterPerMinute CounterType = "per_minute"
	CounterPerDay    CounterType = "per_day"
)

// PeriodStart truncates now to the start of the counter's current period:
// minute floor for per_minute, UTC day floor for per_day.
func (t CounterType) PeriodStart(now time.Time) time.Time {
	switch t {
	case CounterPerDay:
		u := now.UTC()
		return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	default:
		return now.UTC().Truncate(time.Minute)
	}
}

// PeriodLength returns the counter period duration.
func (t CounterType) PeriodLength() time.Duration {
	if t == CounterPerDay {
		return 24 * time.Hour
	}
	return time.Minute
}

// UsageCounter is one per-user, per-period increment counter row. Exactly one
// row exists per (user, type, period_start); rows are created lazily on first
// check and swept by the worker after they age out.
type UsageCounter struct {
	UserID      string
	CounterType CounterType
	PeriodStart time.Time
	Count       int
}
