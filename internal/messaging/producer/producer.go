package producer

import (
	"context"

	"daomerge/internal/models"
)

// Producer defines the interface for the outcome stream producer
type Producer interface {
	// Publish sends a single outcome record
	Publish(ctx context.Context, msg models.OutcomeMessage) error

	// Close flushes buffered records and closes the connection
	Close() error
}
