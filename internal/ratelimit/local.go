package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultLimit  = 5
	defaultWindow = time.Minute
)

func normalize(limit int, window time.Duration) (int, time.Duration) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if window <= 0 {
		window = defaultWindow
	}
	return limit, window
}

// LocalLimiter keeps one token bucket per key in process memory. Each bucket
// holds Limit tokens and refills them over Window. Idle buckets are dropped
// lazily.
type LocalLimiter struct {
	Limit  int
	Window time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewLocalLimiter(limit int, window time.Duration) *LocalLimiter {
	return &LocalLimiter{Limit: limit, Window: window}
}

func (l *LocalLimiter) clock() time.Time {
	if l.now != nil {
		return l.now()
	}
	return time.Now()
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	limit, window := normalize(l.Limit, l.Window)
	now := l.clock()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.buckets == nil {
		l.buckets = make(map[string]*bucket)
	}
	l.sweep(now, window)

	b, ok := l.buckets[key]
	if !ok {
		every := rate.Every(window / time.Duration(limit))
		b = &bucket{lim: rate.NewLimiter(every, limit)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	r := b.lim.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay, nil
	}
	return true, 0, nil
}

// sweep drops buckets idle for longer than a window; they would be full again.
func (l *LocalLimiter) sweep(now time.Time, window time.Duration) {
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) > window {
			delete(l.buckets, k)
		}
	}
}
