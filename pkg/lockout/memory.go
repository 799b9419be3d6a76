package lockout

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	fails       int
	lockedUntil time.Time
	touched     time.Time
}

// Memory keeps failure counts in process. Counts are lost on restart and not
// shared between replicas; use Redis for multi-instance deployments.
type Memory struct {
	policy Policy
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

func NewMemory(p Policy) *Memory {
	return &Memory{
		policy:  p,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// WithClock overrides the time source. Tests only.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) IsLocked(_ context.Context, key string) (bool, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return false, 0
	}
	now := m.now()
	if now.Before(e.lockedUntil) {
		return true, e.lockedUntil.Sub(now)
	}
	return false, 0
}

func (m *Memory) RecordFailure(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)

	e, ok := m.entries[key]
	if !ok {
		e = &entry{}
		m.entries[key] = e
	}
	e.fails++
	e.touched = now
	if m.policy.trips(e.fails) {
		e.lockedUntil = now.Add(m.policy.Duration(e.fails))
	}
}

func (m *Memory) RecordSuccess(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

// sweep drops entries idle past the retention window. Caller holds mu.
func (m *Memory) sweep(now time.Time) {
	if m.policy.Retention <= 0 {
		return
	}
	for k, e := range m.entries {
		if now.Sub(e.touched) > m.policy.Retention && !now.Before(e.lockedUntil) {
			delete(m.entries, k)
		}
	}
}
