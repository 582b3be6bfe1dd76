package blockchain

import (
	"context"

	"daomerge/internal/models"
)

// EventSource watches for MergePullRequest authorizations.
// Implementations exist for EVM chains, ChainMaker and a Kafka relay.
type EventSource interface {
	// WatchAuthorizations blocks, pushing batches of decoded events onto
	// out in the order they were emitted, until ctx is cancelled or the
	// source fails. Batches within one call are never reordered.
	WatchAuthorizations(ctx context.Context, out chan<- models.EventBatch) error

	// Close closes the source and releases resources
	Close() error

	// Config returns the configuration associated with the source
	Config() any // Return any to accommodate different config types
}
