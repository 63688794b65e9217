// Package ratelimit implements a per-peer sliding-window admission limiter
// with a block-out penalty, the way RateLimitMiddleware keeps a timestamp
// list and a blocked_until instant per client IP.
package ratelimit

import (
	"sync"
	"time"
)

// Config mirrors the REQUESTS_PER_SECOND / REQUEST_INTERVAL / BLOCK_DURATION
// environment triple.
type Config struct {
	Capacity int           // REQUESTS_PER_SECOND
	Window   time.Duration // REQUEST_INTERVAL
	Block    time.Duration // BLOCK_DURATION
}

type entry struct {
	mu           sync.Mutex
	timestamps   []time.Time
	blockedUntil time.Time
}

// Limiter is a process-local, in-memory sliding-window limiter keyed by
// client IP. All mutation of a single client's entry is serialized by that
// entry's own mutex; the table mutex only guards map membership.
type Limiter struct {
	cfg     Config
	mu      sync.Mutex
	clients map[string]*entry

	stop chan struct{}
}

// New builds a Limiter and starts its background table-eviction loop.
func New(cfg Config) *Limiter {
	l := &Limiter{
		cfg:     cfg,
		clients: make(map[string]*entry),
		stop:    make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Close stops the background eviction loop.
func (l *Limiter) Close() {
	close(l.stop)
}

func (l *Limiter) getEntry(clientIP string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.clients[clientIP]
	if !ok {
		e = &entry{}
		l.clients[clientIP] = e
	}
	return e
}

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Allow implements spec §4.1's four-step algorithm exactly: check the
// existing block, evict stale timestamps, compare the remaining count
// against capacity (pre-append, so admissions per window equal capacity),
// then either block or admit.
func (l *Limiter) Allow(clientIP string) Decision {
	e := l.getEntry(clientIP)

	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()

	if !e.blockedUntil.IsZero() && e.blockedUntil.After(now) {
		return Decision{Allowed: false, RetryAfter: ceilDuration(e.blockedUntil.Sub(now))}
	}

	cutoff := now.Add(-l.cfg.Window)
	kept := e.timestamps[:0]
	for _, ts := range e.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	e.timestamps = kept

	if len(e.timestamps) >= l.cfg.Capacity {
		e.blockedUntil = now.Add(l.cfg.Block)
		return Decision{Allowed: false, RetryAfter: l.cfg.Block}
	}

	e.timestamps = append(e.timestamps, now)
	return Decision{Allowed: true}
}

func ceilDuration(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	if rem := d % time.Second; rem != 0 {
		return d - rem + time.Second
	}
	return d
}

// cleanupLoop bounds table growth (spec §9's "rate limiter table growth"
// note): entries whose last-seen timestamp is older than BLOCK_DURATION are
// dropped entirely, the way the teacher's own RateLimiter.cleanupLoop evicts
// buckets idle past an hour.
func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.cfg.Block)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.evictStale()
		}
	}
}

func (l *Limiter) evictStale() {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, e := range l.clients {
		e.mu.Lock()
		lastSeen := e.blockedUntil
		if len(e.timestamps) > 0 {
			last := e.timestamps[len(e.timestamps)-1]
			if last.After(lastSeen) {
				lastSeen = last
			}
		}
		stale := lastSeen.IsZero() || now.Sub(lastSeen) > l.cfg.Block
		e.mu.Unlock()
		if stale {
			delete(l.clients, ip)
		}
	}
}
