// Package ratelimit enforces the per-user generation quotas backed by
// usage-counter rows: a rolling per-minute tier and a UTC-day tier.
package ratelimit

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/francesca-tabor-ai/commerce-pix-sub001/internal/domain"
)

// Default thresholds applied when the config leaves them unset.
const (
	DefaultPerMinute = 5
	DefaultPerDay    = 50
)

// TierState reports one counter tier's position within its current period.
type TierState struct {
	Count   int       `json:"count"`
	Limit   int       `json:"limit"`
	ResetAt time.Time `json:"reset_at"`
}

// Decision is the outcome of checking both tiers.
type Decision struct {
	Allowed   bool               `json:"allowed"`
	PerMinute TierState          `json:"per_minute"`
	PerDay    TierState          `json:"per_day"`
	BlockedBy domain.CounterType `json:"blocked_by,omitempty"`
}

// Limiter reads and bumps usage counters. Counter reads that fail do not
// block generation: the limiter fails open and logs, trading strictness for
// availability.
type Limiter struct {
	counters  domain.UsageCounterRepository
	perMinute int
	perDay    int
	logger    zerolog.Logger
	now       func() time.Time
}

func New(counters domain.UsageCounterRepository, perMinute, perDay int, logger zerolog.Logger) *Limiter {
	if perMinute <= 0 {
		perMinute = DefaultPerMinute
	}
	if perDay <= 0 {
		perDay = DefaultPerDay
	}
	return &Limiter{
		counters:  counters,
		perMinute: perMinute,
		perDay:    perDay,
		logger:    logger,
		now:       time.Now,
	}
}

// CheckAll evaluates both tiers for the user. The minute tier is checked
// before the day tier, so BlockedBy names the minute tier when both are over.
func (l *Limiter) CheckAll(ctx context.Context, userID string) Decision {
	now := l.now()
	minute := l.tier(ctx, userID, domain.CounterPerMinute, l.perMinute, now)
	day := l.tier(ctx, userID, domain.CounterPerDay, l.perDay, now)

	d := Decision{Allowed: true, PerMinute: minute, PerDay: day}
	if minute.Count >= minute.Limit {
		d.Allowed = false
		d.BlockedBy = domain.CounterPerMinute
	} else if day.Count >= day.Limit {
		d.Allowed = false
		d.BlockedBy = domain.CounterPerDay
	}
	return d
}

// Record bumps both tiers' current-period counters. Called once per
// successful generation; failed jobs must not consume quota.
func (l *Limiter) Record(ctx context.Context, userID string) {
	now := l.now()
	for _, t := range []domain.CounterType{domain.CounterPerMinute, domain.CounterPerDay} {
		if err := l.counters.Increment(ctx, userID, t, t.PeriodStart(now)); err != nil {
			l.logger.Warn().Err(err).Str("user_id", userID).Str("counter", string(t)).
				Msg("usage counter increment failed")
		}
	}
}

func (l *Limiter) tier(ctx context.Context, userID string, t domain.CounterType, limit int, now time.Time) TierState {
	start := t.PeriodStart(now)
	state := TierState{Limit: limit, ResetAt: start.Add(t.PeriodLength())}
	count, err := l.counters.Get(ctx, userID, t, start)
	if err != nil {
		// Fail open: an unavailable counter store must not take generation
		// down with it.
		l.logger.Warn().Err(err).Str("user_id", userID).Str("counter", string(t)).
			Msg("usage counter read failed, allowing request")
		return state
	}
	state.Count = count
	return state
}
