package blockchain

import (
	"io"
	"log"
	"testing"
	"time"

	"daomerge/config"
	"daomerge/internal/messaging/consumer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventSource(t *testing.T) {
	logger := log.New(io.Discard, "", 0)

	src, err := NewEventSource(&config.BlockchainConfig{Source: "mock"}, time.Second, logger)
	require.NoError(t, err)
	assert.IsType(t, &consumer.Source{}, src)
	require.NoError(t, src.Close())

	_, err = NewEventSource(&config.BlockchainConfig{Source: "solana"}, time.Second, logger)
	assert.ErrorContains(t, err, "unsupported event source")

	_, err = NewEventSource(&config.BlockchainConfig{Source: "kafka"}, time.Second, logger)
	assert.Error(t, err, "relay needs brokers")

	_, err = NewEventSource(&config.BlockchainConfig{Source: "ethereum", ContractAddress: "bogus"}, time.Second, logger)
	assert.True(t, config.IsConfigurationError(err))
}
