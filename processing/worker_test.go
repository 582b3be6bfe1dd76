package worker

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"daomerge/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu      sync.Mutex
	handled []string
	onEvent func(models.AuthorizationEvent)
}

func (h *recordingHandler) Handle(_ context.Context, event models.AuthorizationEvent) models.MergeOutcome {
	if h.onEvent != nil {
		h.onEvent(event)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event.Ref.PullNumber)
	return models.Succeeded()
}

func (h *recordingHandler) numbers() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.handled...)
}

func event(n string) models.AuthorizationEvent {
	return models.AuthorizationEvent{Ref: models.PullRequestRef{Owner: "acme", Repo: "widgets", PullNumber: n}}
}

func discard() *log.Logger { return log.New(io.Discard, "", 0) }

func TestWorker_HandlesBatchesInOrderAndAcks(t *testing.T) {
	h := &recordingHandler{}
	w := New(h, discard())

	var acks []bool
	ack := func(ok bool) { acks = append(acks, ok) }

	batches := make(chan models.EventBatch, 2)
	batches <- models.EventBatch{Events: []models.AuthorizationEvent{event("1"), event("2")}, Ack: ack}
	batches <- models.EventBatch{Events: []models.AuthorizationEvent{event("3")}, Ack: ack}
	close(batches)

	w.Run(context.Background(), batches)

	assert.Equal(t, []string{"1", "2", "3"}, h.numbers())
	assert.Equal(t, []bool{true, true}, acks)
}

func TestWorker_CancelMidBatchNacks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := &recordingHandler{onEvent: func(models.AuthorizationEvent) { cancel() }}
	w := New(h, discard())

	var acks []bool
	batches := make(chan models.EventBatch, 2)
	batches <- models.EventBatch{
		Events: []models.AuthorizationEvent{event("1"), event("2")},
		Ack:    func(ok bool) { acks = append(acks, ok) },
	}

	w.Run(ctx, batches)

	assert.Equal(t, []string{"1"}, h.numbers(), "the in-flight event finishes, the next one does not start")
	assert.Equal(t, []bool{false}, acks)
}

func TestWorker_NacksBufferedBatchesOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var nacked int
	batches := make(chan models.EventBatch, 2)
	batches <- models.EventBatch{Events: []models.AuthorizationEvent{event("1")}, Ack: func(ok bool) {
		if !ok {
			nacked++
		}
	}}

	h := &recordingHandler{}
	New(h, discard()).Run(ctx, batches)
	assert.Empty(t, h.numbers())
	assert.Equal(t, 1, nacked)
}

type flakySource struct {
	calls atomic.Int32
}

func (s *flakySource) WatchAuthorizations(ctx context.Context, out chan<- models.EventBatch) error {
	if s.calls.Add(1) == 1 {
		return errors.New("rpc down")
	}
	out <- models.EventBatch{Events: []models.AuthorizationEvent{event("7")}}
	<-ctx.Done()
	return ctx.Err()
}

func TestRunSource_RestartsAfterFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &flakySource{}
	out := make(chan models.EventBatch, 1)

	done := make(chan struct{})
	go func() {
		RunSource(ctx, src, out, time.Millisecond, discard())
		close(done)
	}()

	select {
	case batch := <-out:
		require.Len(t, batch.Events, 1)
		assert.Equal(t, "7", batch.Events[0].Ref.PullNumber)
	case <-time.After(time.Second):
		t.Fatal("source was not restarted")
	}
	assert.Equal(t, int32(2), src.calls.Load())

	cancel()
	<-done
	_, open := <-out
	assert.False(t, open, "out is closed once the source stops")
}
