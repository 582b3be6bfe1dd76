package consumer

import (
	"context"
	"errors"
	"log"

	"daomerge/internal/models"
)

// MockConsumer replays a fixed set of events. Used for local dry runs
// against a sandbox repository.
type MockConsumer struct {
	logger *log.Logger
	events chan *models.AuthorizationEvent
}

// PredefinedEvents is replayed when no events are given to NewMockConsumer.
// The ciphertexts are placeholders and fail decryption, so a dry run
// exercises the reporting path without merging anything.
var PredefinedEvents = []models.AuthorizationEvent{
	{
		Ref:                models.PullRequestRef{Owner: "mock-org", Repo: "sandbox", PullNumber: "1"},
		EncryptedCommitSHA: "00",
		SourceAddress:      "0x0000000000000000000000000000000000000000",
		TransactionHash:    "0xmock0001",
	},
	{
		// Same ref as the first: exercises the dedup path.
		Ref:                models.PullRequestRef{Owner: "mock-org", Repo: "sandbox", PullNumber: "1"},
		EncryptedCommitSHA: "00",
		SourceAddress:      "0x0000000000000000000000000000000000000000",
		TransactionHash:    "0xmock0002",
	},
}

// NewMockConsumer creates a MockConsumer loaded with events, or with
// PredefinedEvents when events is empty.
func NewMockConsumer(events []models.AuthorizationEvent, logger *log.Logger) *MockConsumer {
	if len(events) == 0 {
		events = PredefinedEvents
	}
	mc := &MockConsumer{
		logger: logger,
		events: make(chan *models.AuthorizationEvent, len(events)+5),
	}
	for i := range events {
		ev := events[i]
		mc.events <- &ev
	}
	logger.Printf("[MockConsumer] Loaded %d predefined events", len(events))
	return mc
}

// Consume reads predefined events from the channel.
func (m *MockConsumer) Consume(ctx context.Context) (*models.AuthorizationEvent, func(success bool), error) {
	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case ev, ok := <-m.events:
		if !ok {
			return nil, nil, errors.New("message channel closed")
		}
		m.logger.Printf("[MockConsumer] Consumed event for %s (tx %s)", ev.Ref, ev.TransactionHash)

		ackCallback := func(success bool) {
			if success {
				return
			}
			m.logger.Printf("[MockConsumer] NACK for %s. Re-queueing (mock)", ev.Ref)
			select {
			case m.events <- ev:
			default:
				m.logger.Printf("[MockConsumer] Warning: Failed to re-queue event (channel full?): %s", ev.Ref)
			}
		}
		return ev, ackCallback, nil
	}
}

// Close closes the event channel.
func (m *MockConsumer) Close() error {
	m.logger.Println("[MockConsumer] Closing...")
	close(m.events)
	return nil
}

var _ Consumer = (*MockConsumer)(nil)
