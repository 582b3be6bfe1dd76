package producer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"daomerge/config"
	"daomerge/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestNewKafkaProducer_RequiresBrokersAndTopic(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	_, err := NewKafkaProducer(config.KafkaProducerConfig{Topic: "outcomes"}, logger)
	assert.Error(t, err)

	p, err := NewKafkaProducer(config.KafkaProducerConfig{Brokers: []string{"localhost:9092"}, Topic: "outcomes"}, logger)
	require.NoError(t, err)
	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "outcomes", w.Topic)
	assert.Equal(t, kafka.RequireOne, w.RequiredAcks)
}

func TestPublish_KeyedByDedupKey(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaProducer{writer: w, logger: log.New(io.Discard, "", 0), topic: "outcomes"}

	ref := models.PullRequestRef{Owner: "acme", Repo: "widgets", PullNumber: "42"}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	msg := models.NewOutcomeMessage(ref, models.Failed(errors.New("dirty")), models.ReportContext{RunID: "r1", TransactionHash: "0xabc"}, at)

	require.NoError(t, p.Publish(context.Background(), msg))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "acme/widgets#42", string(w.msgs[0].Key))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, "r1", decoded["run_id"])
	assert.Equal(t, "42", decoded["pull_number"])
	assert.Equal(t, false, decoded["success"])
	assert.Equal(t, "dirty", decoded["failure_reason"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublish_WriteError(t *testing.T) {
	boom := errors.New("broker unavailable")
	p := &KafkaProducer{writer: &fakeWriter{err: boom}, logger: log.New(io.Discard, "", 0)}
	assert.ErrorIs(t, p.Publish(context.Background(), models.OutcomeMessage{Key: "k"}), boom)
}
