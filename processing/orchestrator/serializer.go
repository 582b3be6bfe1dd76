package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"daomerge/internal/models"
)

// MergeSectionKey names the process-wide critical section every
// orchestration runs in.
const MergeSectionKey = "merge"

// Serializer runs bodies one at a time per key, in arrival order.
// A held section has no timeout.
type Serializer struct {
	mu       sync.Mutex
	sections map[string]*section
}

type section struct {
	held    bool
	waiters []chan struct{} // FIFO; closing a channel hands the section over
}

// NewSerializer creates an empty Serializer.
func NewSerializer() *Serializer {
	return &Serializer{sections: make(map[string]*section)}
}

// RunExclusive waits for the section named key, runs body and releases the
// section. If ctx is cancelled while waiting the caller leaves the queue and
// gets a failure outcome; a running body is never interrupted.
func (s *Serializer) RunExclusive(ctx context.Context, key string, body func() models.MergeOutcome) models.MergeOutcome {
	if err := s.acquire(ctx, key); err != nil {
		return models.Failed(err)
	}
	defer s.release(key)
	return body()
}

func (s *Serializer) acquire(ctx context.Context, key string) error {
	s.mu.Lock()
	sec, ok := s.sections[key]
	if !ok {
		sec = &section{}
		s.sections[key] = sec
	}
	if !sec.held {
		sec.held = true
		s.mu.Unlock()
		return nil
	}
	ticket := make(chan struct{})
	sec.waiters = append(sec.waiters, ticket)
	s.mu.Unlock()

	select {
	case <-ticket:
		return nil
	case <-ctx.Done():
	}

	s.mu.Lock()
	for i, w := range sec.waiters {
		if w == ticket {
			sec.waiters = append(sec.waiters[:i], sec.waiters[i+1:]...)
			s.mu.Unlock()
			return fmt.Errorf("gave up waiting for %q section: %w", key, ctx.Err())
		}
	}
	s.mu.Unlock()

	// Handed over at the same moment ctx ended: pass it on.
	s.release(key)
	return fmt.Errorf("gave up waiting for %q section: %w", key, ctx.Err())
}

func (s *Serializer) release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sec := s.sections[key]
	if len(sec.waiters) == 0 {
		sec.held = false
		return
	}
	next := sec.waiters[0]
	sec.waiters = sec.waiters[1:]
	close(next)
}

// queued reports how many callers wait on key. Used by tests.
func (s *Serializer) queued(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sec, ok := s.sections[key]; ok {
		return len(sec.waiters)
	}
	return 0
}
