package store

import (
	"context"
	"sync"
	"time"
)

// entry holds either an opaque record or an integer counter, with its
// expiry. Zero expiresAt means no expiry.
type entry struct {
	value     []byte
	count     int64
	expiresAt time.Time
}

// Memory is an in-process Store for single-instance deployments and
// tests. It implements Incrementer, so fixed-window counts are exact.
//
// Safe for concurrent use. An optional background goroutine sweeps
// expired entries; expiry is also enforced lazily on read, so the sweeper
// only bounds memory, not correctness.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
}

// NewMemory creates a Memory store. When cleanupInterval is positive a
// sweeper goroutine runs until ctx is done; pass 0 to disable it.
func NewMemory(ctx context.Context, cleanupInterval time.Duration) *Memory {
	m := &Memory{entries: make(map[string]entry)}
	if cleanupInterval > 0 {
		go m.runCleanup(ctx, cleanupInterval)
	}
	return m
}

// Get implements Store.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || e.expired(time.Now()) {
		return nil, nil
	}
	return e.value, nil
}

// Put implements Store.
func (m *Memory) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

// Increment implements Incrementer. The mutex makes the read-bump-write
// cycle atomic within the process.
func (m *Memory) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	e, ok := m.entries[key]
	if !ok || e.expired(now) {
		e = entry{count: 0}
		if ttl > 0 {
			e.expiresAt = now.Add(ttl)
		}
	}
	e.count++
	m.entries[key] = e
	return e.count, nil
}

// Len returns the number of live entries; used by tests and monitoring.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	n := 0
	for _, e := range m.entries {
		if !e.expired(now) {
			n++
		}
	}
	return n
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

func (m *Memory) runCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			now := time.Now()
			for key, e := range m.entries {
				if e.expired(now) {
					delete(m.entries, key)
				}
			}
			m.mu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

var (
	_ Store       = (*Memory)(nil)
	_ Incrementer = (*Memory)(nil)
)
