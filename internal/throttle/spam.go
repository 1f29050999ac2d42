package throttle

import (
	"sync"
	"time"
)

const (
	DefaultSpamWindow  = 60 * time.Second
	DefaultSpamCeiling = 5
)

// SpamGuard counts repeats of the same canonical query inside a sliding
// window.
type SpamGuard struct {
	window  time.Duration
	ceiling int
	now     func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time
}

// NewSpamGuard returns a guard. Non-positive arguments use the defaults and
// a nil clock uses time.Now.
func NewSpamGuard(window time.Duration, ceiling int, now func() time.Time) *SpamGuard {
	if window <= 0 {
		window = DefaultSpamWindow
	}
	if ceiling <= 0 {
		ceiling = DefaultSpamCeiling
	}
	if now == nil {
		now = time.Now
	}
	return &SpamGuard{
		window:  window,
		ceiling: ceiling,
		now:     now,
		hits:    make(map[string][]time.Time),
	}
}

// Hit records one occurrence of key and reports whether the key has now
// been seen ceiling times within the window.
func (g *SpamGuard) Hit(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	cutoff := now.Add(-g.window)
	kept := g.hits[key][:0]
	for _, ts := range g.hits[key] {
		if !ts.Before(cutoff) {
			kept = append(kept, ts)
		}
	}
	kept = append(kept, now)
	g.hits[key] = kept
	return len(kept) >= g.ceiling
}

// Count returns how many hits of key are inside the window.
func (g *SpamGuard) Count(key string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	cutoff := g.now().Add(-g.window)
	n := 0
	for _, ts := range g.hits[key] {
		if !ts.Before(cutoff) {
			n++
		}
	}
	return n
}

// Reset forgets every key.
func (g *SpamGuard) Reset() {
	g.mu.Lock()
	g.hits = make(map[string][]time.Time)
	g.mu.Unlock()
}
