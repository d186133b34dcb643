package ratelimit

import (
	"context"
	"sync"
	"time"
)

// counterEntry holds the per-key counter state for every strategy. Each entry
// has its own mutex so unrelated keys never contend.
type counterEntry struct {
	mu sync.Mutex

	// fixed window
	windowStart time.Time
	count       int

	// sliding window
	hits []time.Time

	// token bucket
	tokens     float64
	lastRefill time.Time

	// expiresAt is refreshed on every access; the janitor evicts entries past it.
	expiresAt time.Time
}

// MemoryStore is a process-local Store backed by a map with per-key locking.
// Idle counters are evicted by a background janitor once their TTL (twice the
// policy window) elapses without activity.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*counterEntry

	stopOnce sync.Once
	stop     chan struct{}
}

// NewMemoryStore creates a MemoryStore and starts its cleanup goroutine.
// Call Close when the store is no longer needed.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}

	s := &MemoryStore{
		entries: make(map[string]*counterEntry),
		stop:    make(chan struct{}),
	}
	go s.cleanupStale(cleanupInterval)
	return s
}

// Close stops the cleanup goroutine.
func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// IncrFixedWindow implements Store.
func (s *MemoryStore) IncrFixedWindow(
	_ context.Context,
	key string,
	windowStart time.Time,
	ttl time.Duration,
	cost int,
) (int, error) {
	entry := s.getEntry(key)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	// A new window resets the counter; older windows never carry over.
	if !entry.windowStart.Equal(windowStart) {
		entry.windowStart = windowStart
		entry.count = 0
	}
	entry.count += cost
	entry.expiresAt = time.Now().Add(ttl)

	return entry.count, nil
}

// IncrSlidingWindow implements Store.
func (s *MemoryStore) IncrSlidingWindow(
	_ context.Context,
	key string,
	now time.Time,
	window time.Duration,
	ttl time.Duration,
	cost int,
) (int, error) {
	entry := s.getEntry(key)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	// Evict hits that rolled out of the window, then record the new hits.
	cutoff := now.Add(-window)
	kept := entry.hits[:0]
	for _, ts := range entry.hits {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	entry.hits = kept

	for i := 0; i < cost; i++ {
		entry.hits = append(entry.hits, now)
	}
	entry.expiresAt = time.Now().Add(ttl)

	return len(entry.hits), nil
}

// TakeTokens implements Store.
func (s *MemoryStore) TakeTokens(
	_ context.Context,
	key string,
	now time.Time,
	rate int,
	interval time.Duration,
	capacity int,
	cost int,
) (float64, time.Time, bool, error) {
	entry := s.getEntry(key)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	// First hit starts with a full bucket.
	if entry.lastRefill.IsZero() {
		entry.tokens = float64(capacity)
		entry.lastRefill = now
	}

	// Refill in whole-interval steps of rate tokens, capped at capacity.
	// A partial interval grants nothing.
	if steps := int64(now.Sub(entry.lastRefill) / interval); steps > 0 {
		entry.tokens += float64(steps * int64(rate))
		if entry.tokens > float64(capacity) {
			entry.tokens = float64(capacity)
		}
		entry.lastRefill = entry.lastRefill.Add(time.Duration(steps) * interval)
	}
	entry.expiresAt = time.Now().Add(interval * 2)
	nextRefill := entry.lastRefill.Add(interval)

	if entry.tokens < float64(cost) {
		return entry.tokens, nextRefill, false, nil
	}

	entry.tokens -= float64(cost)
	return entry.tokens, nextRefill, true, nil
}

// getEntry retrieves or creates the counter entry for a key.
func (s *MemoryStore) getEntry(key string) *counterEntry {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if ok {
		return entry
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok = s.entries[key]; ok {
		return entry
	}
	entry = &counterEntry{}
	s.entries[key] = entry
	return entry
}

// cleanupStale periodically removes expired counters to prevent unbounded
// memory growth from key churn.
func (s *MemoryStore) cleanupStale(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for key, entry := range s.entries {
				entry.mu.Lock()
				expired := !entry.expiresAt.IsZero() && entry.expiresAt.Before(now)
				entry.mu.Unlock()
				if expired {
					delete(s.entries, key)
				}
			}
			s.mu.Unlock()
		}
	}
}
