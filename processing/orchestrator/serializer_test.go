package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"daomerge/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForQueue(t *testing.T, s *Serializer, key string, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return s.queued(key) == n }, time.Second, time.Millisecond)
}

func TestSerializer_FIFOOrder(t *testing.T) {
	s := NewSerializer()
	release := make(chan struct{})
	holderDone := make(chan struct{})

	go func() {
		defer close(holderDone)
		s.RunExclusive(context.Background(), MergeSectionKey, func() models.MergeOutcome {
			<-release
			return models.Succeeded()
		})
	}()
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		sec, ok := s.sections[MergeSectionKey]
		return ok && sec.held
	}, time.Second, time.Millisecond)

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s.RunExclusive(context.Background(), MergeSectionKey, func() models.MergeOutcome {
				mu.Lock()
				order = append(order, id)
				mu.Unlock()
				return models.Succeeded()
			})
		}(i)
		waitForQueue(t, s, MergeSectionKey, i+1)
	}

	close(release)
	wg.Wait()
	<-holderDone
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestSerializer_MutualExclusion(t *testing.T) {
	s := NewSerializer()
	var active, maxActive atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.RunExclusive(context.Background(), MergeSectionKey, func() models.MergeOutcome {
				n := active.Add(1)
				for {
					m := maxActive.Load()
					if n <= m || maxActive.CompareAndSwap(m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				active.Add(-1)
				return models.Succeeded()
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxActive.Load())
}

func TestSerializer_CancelledWaiterLeavesQueue(t *testing.T) {
	s := NewSerializer()
	release := make(chan struct{})
	go s.RunExclusive(context.Background(), MergeSectionKey, func() models.MergeOutcome {
		<-release
		return models.Succeeded()
	})
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		sec, ok := s.sections[MergeSectionKey]
		return ok && sec.held
	}, time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan models.MergeOutcome, 1)
	var ran atomic.Bool
	go func() {
		result <- s.RunExclusive(ctx, MergeSectionKey, func() models.MergeOutcome {
			ran.Store(true)
			return models.Succeeded()
		})
	}()
	waitForQueue(t, s, MergeSectionKey, 1)

	cancel()
	outcome := <-result
	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.FailureReason, "context canceled")
	assert.False(t, ran.Load())
	assert.Equal(t, 0, s.queued(MergeSectionKey))

	close(release)
	// The section is free again once the holder finishes.
	require.Eventually(t, func() bool {
		done := make(chan struct{})
		go func() {
			s.RunExclusive(context.Background(), MergeSectionKey, func() models.MergeOutcome { return models.Succeeded() })
			close(done)
		}()
		select {
		case <-done:
			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestSerializer_KeysAreIndependent(t *testing.T) {
	s := NewSerializer()
	release := make(chan struct{})
	go s.RunExclusive(context.Background(), "a", func() models.MergeOutcome {
		<-release
		return models.Succeeded()
	})
	defer close(release)

	done := make(chan struct{})
	go func() {
		s.RunExclusive(context.Background(), "b", func() models.MergeOutcome { return models.Succeeded() })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("section b blocked behind section a")
	}
}
