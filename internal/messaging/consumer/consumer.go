package consumer

import (
	"context"

	"daomerge/internal/models"
)

// Consumer defines the interface for message queue consumers carrying
// relayed authorization events.
type Consumer interface {
	// Consume blocks until a message is received or the context is cancelled.
	// It returns the event, an acknowledgement callback, and any error that occurred.
	// The ack callback: ack(true) once the event was handled (offset is committed);
	// ack(false) if the agent stopped first (message will be redelivered).
	Consume(ctx context.Context) (event *models.AuthorizationEvent, ack func(success bool), err error)

	// Close gracefully shuts down the consumer connection.
	Close() error
}
