package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"daomerge/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *log.Logger { return log.New(io.Discard, "", 0) }

type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []int64
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if len(f.msgs) > 0 {
		m := f.msgs[0]
		f.msgs = f.msgs[1:]
		f.mu.Unlock()
		return m, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error { return nil }

func encode(t *testing.T, ev models.AuthorizationEvent) []byte {
	t.Helper()
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	return b
}

var relayed = models.AuthorizationEvent{
	Ref:                models.PullRequestRef{Owner: "acme", Repo: "widgets", PullNumber: "42"},
	EncryptedCommitSHA: "cafe",
	SourceAddress:      "0xDAO",
	TransactionHash:    "0xabc",
	BlockNumber:        7,
}

func TestKafkaConsumer_DecodesAndCommitsOnAck(t *testing.T) {
	reader := &fakeReader{msgs: []kafka.Message{{Offset: 3, Value: encode(t, relayed)}}}
	c := &KafkaConsumer{reader: reader, logger: discardLogger()}

	ev, ack, err := c.Consume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, relayed, *ev)
	assert.Empty(t, reader.committed, "not committed before handling")

	ack(true)
	assert.Equal(t, []int64{3}, reader.committed)
}

func TestKafkaConsumer_NackLeavesOffset(t *testing.T) {
	reader := &fakeReader{msgs: []kafka.Message{{Offset: 3, Value: encode(t, relayed)}}}
	c := &KafkaConsumer{reader: reader, logger: discardLogger()}

	_, ack, err := c.Consume(context.Background())
	require.NoError(t, err)
	ack(false)
	assert.Empty(t, reader.committed)
}

func TestKafkaConsumer_DiscardsBadMessages(t *testing.T) {
	incomplete := relayed
	incomplete.Ref.PullNumber = ""
	reader := &fakeReader{msgs: []kafka.Message{
		{Offset: 1, Value: []byte("{not json")},
		{Offset: 2, Value: encode(t, incomplete)},
	}}
	c := &KafkaConsumer{reader: reader, logger: discardLogger()}

	_, _, err := c.Consume(context.Background())
	assert.Error(t, err)
	_, _, err = c.Consume(context.Background())
	assert.Error(t, err)
	assert.Equal(t, []int64{1, 2}, reader.committed, "poison messages are skipped")
}

func TestMockConsumer_ReplaysAndRequeuesOnNack(t *testing.T) {
	m := NewMockConsumer([]models.AuthorizationEvent{relayed}, discardLogger())

	ev, ack, err := m.Consume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, relayed.Ref, ev.Ref)
	ack(false)

	again, _, err := m.Consume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ev, again)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = m.Consume(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockConsumer_DefaultsToPredefinedEvents(t *testing.T) {
	m := NewMockConsumer(nil, discardLogger())
	for range PredefinedEvents {
		_, _, err := m.Consume(context.Background())
		require.NoError(t, err)
	}
	require.NoError(t, m.Close())
	_, _, err := m.Consume(context.Background())
	assert.Error(t, err)
}

func TestSource_BatchesBySizeAndAcksAfterHandling(t *testing.T) {
	events := make([]models.AuthorizationEvent, 5)
	for i := range events {
		events[i] = relayed
		events[i].TransactionHash = string(rune('a' + i))
	}
	reader := &fakeReader{}
	for i, ev := range events {
		reader.msgs = append(reader.msgs, kafka.Message{Offset: int64(i), Value: encode(t, ev)})
	}
	c := &KafkaConsumer{reader: reader, logger: discardLogger()}
	src := NewSource(c, 2, 50*time.Millisecond, time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := make(chan models.EventBatch, 4)
	done := make(chan error, 1)
	go func() { done <- src.WatchAuthorizations(ctx, out) }()

	var got []string
	for len(got) < 5 {
		select {
		case batch := <-out:
			assert.LessOrEqual(t, len(batch.Events), 2)
			for _, ev := range batch.Events {
				got = append(got, ev.TransactionHash)
			}
			batch.Ack(true)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d events", len(got))
		}
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, got, "order is preserved")

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	reader.mu.Lock()
	assert.Len(t, reader.committed, 5)
	reader.mu.Unlock()
}

type erroringConsumer struct{ calls int }

func (e *erroringConsumer) Consume(ctx context.Context) (*models.AuthorizationEvent, func(bool), error) {
	e.calls++
	return nil, nil, errors.New("broker down")
}

func (e *erroringConsumer) Close() error { return nil }

func TestSource_StopsOnCancelDuringErrors(t *testing.T) {
	src := NewSource(&erroringConsumer{}, 1, time.Second, time.Hour, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.WatchAuthorizations(ctx, make(chan models.EventBatch)) }()

	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("source did not stop")
	}
}
