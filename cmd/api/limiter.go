package main

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ipLimiter keeps one token bucket per client address. Clients idle for
// longer than idle are forgotten, checked at most once per sweepInterval
// while requests come in.
type ipLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	buckets map[string]*bucket

	idle          time.Duration
	sweepInterval time.Duration
	lastSweep     time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(limit rate.Limit, burst int, sweepInterval, idle time.Duration) *ipLimiter {
	return &ipLimiter{
		limit:         limit,
		burst:         burst,
		buckets:       make(map[string]*bucket),
		idle:          idle,
		sweepInterval: sweepInterval,
	}
}

// allow reports whether ip may make a request at now and consumes a token
// when it may.
func (l *ipLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.lastSweep.IsZero() {
		l.lastSweep = now
	} else if now.Sub(l.lastSweep) >= l.sweepInterval {
		l.sweep(now)
	}

	b, ok := l.buckets[ip]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[ip] = b
	}
	b.lastSeen = now

	return b.limiter.AllowN(now, 1)
}

// sweep forgets idle clients. Callers must hold the lock.
func (l *ipLimiter) sweep(now time.Time) {
	for ip, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idle {
			delete(l.buckets, ip)
		}
	}
	l.lastSweep = now
}
