// Package worker drains ingress batches into the merge orchestrator.
package worker

import (
	"context"
	"errors"
	"log"
	"time"

	"daomerge/internal/models"
)

// Handler executes one authorization. The orchestrator satisfies it.
type Handler interface {
	Handle(ctx context.Context, event models.AuthorizationEvent) models.MergeOutcome
}

// Source produces event batches until ctx ends or it fails.
type Source interface {
	WatchAuthorizations(ctx context.Context, out chan<- models.EventBatch) error
}

// Worker handles batches strictly in arrival order.
type Worker struct {
	handler Handler
	logger  *log.Logger
}

// New creates a new Worker instance
func New(h Handler, logger *log.Logger) *Worker {
	return &Worker{handler: h, logger: logger}
}

// Run consumes batches until ctx is cancelled or batches is closed.
// A batch that is already being handled is finished event by event until
// ctx ends; the remaining events are nacked.
func (w *Worker) Run(ctx context.Context, batches <-chan models.EventBatch) {
	w.logger.Println("Worker started")
	defer w.logger.Println("Worker stopped.")

	for {
		select {
		case <-ctx.Done():
			w.nackPending(batches)
			return
		case batch, ok := <-batches:
			if !ok {
				return
			}
			w.processBatch(ctx, batch)
		}
	}
}

func (w *Worker) processBatch(ctx context.Context, batch models.EventBatch) {
	handled := 0
	for _, event := range batch.Events {
		if ctx.Err() != nil {
			break
		}
		outcome := w.handler.Handle(ctx, event)
		if !outcome.Skipped && !outcome.Success {
			w.logger.Printf("Event from tx %s finished with failure", event.TransactionHash)
		}
		handled++
	}

	complete := handled == len(batch.Events)
	if !complete {
		w.logger.Printf("Stopped after %d of %d events; remaining events will be redelivered", handled, len(batch.Events))
	}
	if batch.Ack != nil {
		batch.Ack(complete)
	}
}

// nackPending releases batches that were buffered but never started.
func (w *Worker) nackPending(batches <-chan models.EventBatch) {
	for {
		select {
		case batch, ok := <-batches:
			if !ok {
				return
			}
			if batch.Ack != nil {
				batch.Ack(false)
			}
		default:
			return
		}
	}
}

// RunSource keeps src running until ctx ends, restarting it after
// retryDelay whenever it returns an error. out is closed on return.
func RunSource(ctx context.Context, src Source, out chan<- models.EventBatch, retryDelay time.Duration, logger *log.Logger) {
	defer close(out)

	for {
		err := src.WatchAuthorizations(ctx, out)
		if ctx.Err() != nil {
			return
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Printf("Event source error: %v (restarting in %s)", err, retryDelay)
		} else {
			logger.Printf("Event source stopped, restarting in %s", retryDelay)
		}

		timer := time.NewTimer(retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
