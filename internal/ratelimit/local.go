package ratelimit

import (
	"sync"
	"time"
)

type localBucket struct {
	windowStart time.Time
	count       int64
	lastSeen    time.Time
}

// localWindow is the in-process fallback counter. Best effort: it only sees
// the traffic of one running instance.
type localWindow struct {
	mu      sync.Mutex
	window  time.Duration
	ttl     time.Duration
	buckets map[string]*localBucket
}

func newLocalWindow(window time.Duration) *localWindow {
	return &localWindow{
		window:  window,
		ttl:     10 * window,
		buckets: make(map[string]*localBucket),
	}
}

// incr bumps the key's counter in the current window and returns the new
// count plus the window's reset time. Stale buckets are swept on the way.
func (w *localWindow) incr(key string, now time.Time) (int64, time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for k, b := range w.buckets {
		if now.Sub(b.lastSeen) > w.ttl {
			delete(w.buckets, k)
		}
	}

	start := now.Truncate(w.window)
	b, ok := w.buckets[key]
	if !ok || b.windowStart.Before(start) {
		b = &localBucket{windowStart: start}
		w.buckets[key] = b
	}
	b.count++
	b.lastSeen = now

	return b.count, start.Add(w.window)
}
