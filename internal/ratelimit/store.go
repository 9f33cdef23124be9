// Package ratelimit tracks failed sign-ins per account and throttles the
// login endpoint per client address.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// AttemptStore counts failures in a sliding window and holds lockouts.
type AttemptStore interface {
	// RecordFailure adds one failure for key and returns how many fall
	// inside the trailing window, the new one included.
	RecordFailure(ctx context.Context, key string, window time.Duration) (int, error)
	Lock(ctx context.Context, key string, d time.Duration) error
	// LockedFor returns the remaining lockout, zero when unlocked.
	LockedFor(ctx context.Context, key string) (time.Duration, error)
	// Reset clears failures and any lockout.
	Reset(ctx context.Context, key string) error
}

type memoryEntry struct {
	failures    []time.Time
	lockedUntil time.Time
}

// MemoryStore keeps attempts in process. It is the default when Redis is
// not configured and does not survive restarts. Recording a failure also
// drops stale keys, at most once per window.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]*memoryEntry
	now       func() time.Time
	lastPrune time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]*memoryEntry{}, now: time.Now}
}

func (m *MemoryStore) RecordFailure(_ context.Context, key string, window time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.Sub(m.lastPrune) >= window {
		m.pruneLocked(now, window)
	}
	e := m.entry(key)
	cutoff := now.Add(-window)
	kept := e.failures[:0]
	for _, at := range e.failures {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	e.failures = append(kept, now)
	return len(e.failures), nil
}

func (m *MemoryStore) Lock(_ context.Context, key string, d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.entry(key)
	e.lockedUntil = m.now().Add(d)
	e.failures = nil
	return nil
}

func (m *MemoryStore) LockedFor(_ context.Context, key string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return 0, nil
	}
	if remaining := e.lockedUntil.Sub(m.now()); remaining > 0 {
		return remaining, nil
	}
	return 0, nil
}

func (m *MemoryStore) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Prune drops entries with no recent failures and no active lockout.
func (m *MemoryStore) Prune(window time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked(m.now(), window)
}

func (m *MemoryStore) pruneLocked(now time.Time, window time.Duration) {
	m.lastPrune = now
	for key, e := range m.entries {
		recent := len(e.failures) > 0 && now.Sub(e.failures[len(e.failures)-1]) < window
		if !recent && now.After(e.lockedUntil) {
			delete(m.entries, key)
		}
	}
}

func (m *MemoryStore) entry(key string) *memoryEntry {
	e, ok := m.entries[key]
	if !ok {
		e = &memoryEntry{}
		m.entries[key] = e
	}
	return e
}
