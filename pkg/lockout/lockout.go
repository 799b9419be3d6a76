// Package lockout throttles repeated failures per key (typically a client
// address) with tiered back-off: every Threshold consecutive failures lock
// the key out, doubling from Base up to Max.
package lockout

import (
	"context"
	"time"
)

// Lockout tracks failures. Implementations must be safe for concurrent use.
type Lockout interface {
	// IsLocked reports whether key is currently locked and for how long.
	IsLocked(ctx context.Context, key string) (bool, time.Duration)
	RecordFailure(ctx context.Context, key string)
	RecordSuccess(ctx context.Context, key string)
}

type Policy struct {
	Threshold int
	Base      time.Duration
	Max       time.Duration

	// Retention bounds how long an idle failure count is remembered.
	Retention time.Duration
}

var DefaultPolicy = Policy{
	Threshold: 3,
	Base:      15 * time.Minute,
	Max:       24 * time.Hour,
	Retention: 25 * time.Hour,
}

// Duration returns the lock length after failCount failures.
//
//	3 fails: 15m, 6 fails: 30m, 9 fails: 1h, ... capped at Max.
func (p Policy) Duration(failCount int) time.Duration {
	if p.Threshold <= 0 {
		return 0
	}
	tier := failCount / p.Threshold
	if tier <= 0 {
		return 0
	}
	d := p.Base
	for i := 1; i < tier; i++ {
		d *= 2
		if d >= p.Max {
			return p.Max
		}
	}
	return min(d, p.Max)
}

// trips reports whether the failure that produced count starts a new lock.
func (p Policy) trips(count int) bool {
	return p.Threshold > 0 && count >= p.Threshold && count%p.Threshold == 0
}

// Nop never locks anything out.
type Nop struct{}

func (Nop) IsLocked(context.Context, string) (bool, time.Duration) { return false, 0 }
func (Nop) RecordFailure(context.Context, string)                  {}
func (Nop) RecordSuccess(context.Context, string)                  {}
