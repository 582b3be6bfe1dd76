package github

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// rateLimitTracker records the limit state from response headers and
// blocks requests once the window is exhausted.
type rateLimitTracker struct {
	mu        sync.Mutex
	remaining int
	reset     time.Time
	known     bool

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

func newRateLimitTracker() *rateLimitTracker {
	return &rateLimitTracker{now: time.Now, after: time.After}
}

func (t *rateLimitTracker) update(header http.Header) {
	remainingStr := header.Get("X-RateLimit-Remaining")
	resetStr := header.Get("X-RateLimit-Reset")
	if remainingStr == "" || resetStr == "" {
		return
	}

	remaining, err := strconv.Atoi(remainingStr)
	if err != nil {
		return
	}
	resetUnix, err := strconv.ParseInt(resetStr, 10, 64)
	if err != nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.remaining = remaining
	t.reset = time.Unix(resetUnix, 0)
	t.known = true
}

// wait returns immediately unless the window is known to be exhausted.
func (t *rateLimitTracker) wait(ctx context.Context) error {
	t.mu.Lock()
	if !t.known || t.remaining > 0 {
		t.mu.Unlock()
		return nil
	}
	sleep := t.reset.Sub(t.now())
	t.mu.Unlock()

	if sleep <= 0 {
		return nil
	}
	select {
	case <-t.after(sleep):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// retryAfter prefers Retry-After (secondary limits) over X-RateLimit-Reset.
func (t *rateLimitTracker) retryAfter(header http.Header) time.Duration {
	if retryStr := header.Get("Retry-After"); retryStr != "" {
		if seconds, err := strconv.Atoi(retryStr); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	if resetStr := header.Get("X-RateLimit-Reset"); resetStr != "" {
		if resetUnix, err := strconv.ParseInt(resetStr, 10, 64); err == nil {
			if d := time.Unix(resetUnix, 0).Sub(t.now()); d > 0 {
				return d
			}
		}
	}
	return 0
}
