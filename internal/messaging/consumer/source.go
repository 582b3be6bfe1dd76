package consumer

import (
	"context"
	"errors"
	"log"
	"time"

	"daomerge/internal/models"
)

// Source groups consumed events into batches for the worker. It satisfies
// the ingress EventSource contract.
type Source struct {
	consumer     Consumer
	batchSize    int
	batchTimeout time.Duration
	retryDelay   time.Duration
	logger       *log.Logger
}

// NewSource wraps c. batchSize and batchTimeout bound how long an event
// waits before it is handed on.
func NewSource(c Consumer, batchSize int, batchTimeout, retryDelay time.Duration, logger *log.Logger) *Source {
	if batchSize <= 0 {
		batchSize = 10
	}
	if batchTimeout <= 0 {
		batchTimeout = time.Second
	}
	if retryDelay <= 0 {
		retryDelay = 5 * time.Second
	}
	return &Source{consumer: c, batchSize: batchSize, batchTimeout: batchTimeout, retryDelay: retryDelay, logger: logger}
}

// WatchAuthorizations consumes until ctx is cancelled, pushing batches onto out.
func (s *Source) WatchAuthorizations(ctx context.Context, out chan<- models.EventBatch) error {
	events := make([]models.AuthorizationEvent, 0, s.batchSize)
	acks := make([]func(success bool), 0, s.batchSize)
	batchTimer := time.NewTimer(0)
	if !batchTimer.Stop() {
		select {
		case <-batchTimer.C:
		default:
		}
	}
	defer batchTimer.Stop()

	nackAll := func() {
		for _, ack := range acks {
			ack(false)
		}
	}

	flush := func() bool {
		if len(events) == 0 {
			return true
		}
		if !batchTimer.Stop() {
			select {
			case <-batchTimer.C:
			default:
			}
		}

		pending := acks
		batch := models.EventBatch{
			Events: events,
			Ack: func(handled bool) {
				for _, ack := range pending {
					ack(handled)
				}
			},
		}
		select {
		case out <- batch:
		case <-ctx.Done():
			nackAll()
			return false
		}
		events = make([]models.AuthorizationEvent, 0, s.batchSize)
		acks = make([]func(success bool), 0, s.batchSize)
		return true
	}

	for {
		select {
		case <-ctx.Done():
			nackAll()
			return ctx.Err()
		case <-batchTimer.C:
			if !flush() {
				return ctx.Err()
			}
			continue
		default:
		}

		consumeCtx, consumeCancel := context.WithTimeout(ctx, 100*time.Millisecond)
		ev, ack, err := s.consumer.Consume(consumeCtx)
		consumeCancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				continue
			}
			s.logger.Printf("Relay consumer error: %v", err)
			select {
			case <-time.After(s.retryDelay):
			case <-ctx.Done():
			}
			continue
		}
		if ev == nil {
			continue
		}

		if len(events) == 0 {
			batchTimer.Reset(s.batchTimeout)
		}
		events = append(events, *ev)
		if ack == nil {
			ack = func(bool) {}
		}
		acks = append(acks, ack)

		if len(events) >= s.batchSize {
			if !flush() {
				return ctx.Err()
			}
		}
	}
}

// Close closes the underlying consumer.
func (s *Source) Close() error {
	return s.consumer.Close()
}

// Config returns nil; the relay has no chain-specific configuration.
func (s *Source) Config() any { return nil }
