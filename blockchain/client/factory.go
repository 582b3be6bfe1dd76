package blockchain

import (
	"fmt"
	"log"
	"time"

	"daomerge/blockchain/client/chainmaker"
	"daomerge/blockchain/client/ethereum"
	"daomerge/config"
	"daomerge/internal/messaging/consumer"
)

// SourceType represents the type of event source
type SourceType string

const (
	Ethereum   SourceType = "ethereum"
	ChainMaker SourceType = "chainmaker"
	KafkaRelay SourceType = "kafka"
	Mock       SourceType = "mock"
)

// LoadChainSpecificConfig loads chain-specific configuration based on source type
func LoadChainSpecificConfig(cfg *config.BlockchainConfig) (any, error) {
	switch SourceType(cfg.Source) {
	case ChainMaker:
		return chainmaker.LoadChainMakerConfig(cfg.ChainMakerConfigPath)
	case Ethereum, "":
		return ethereum.ConfigFrom(cfg)
	default:
		return nil, nil
	}
}

// NewEventSource creates the event source selected by the configuration
func NewEventSource(cfg *config.BlockchainConfig, retryDelay time.Duration, logger *log.Logger) (EventSource, error) {
	switch SourceType(cfg.Source) {
	case Ethereum, "":
		return ethereum.NewEthereumClient(cfg, logger)
	case ChainMaker:
		if cfg.ChainSpecific == nil {
			chainSpecific, err := LoadChainSpecificConfig(cfg)
			if err != nil {
				return nil, fmt.Errorf("failed to load chain-specific config: %w", err)
			}
			cfg.ChainSpecific = chainSpecific
		}
		return chainmaker.NewChainMakerClient(cfg, logger)
	case KafkaRelay:
		c, err := consumer.NewKafkaConsumer(cfg.Relay, logger)
		if err != nil {
			return nil, err
		}
		batchTimeout, err := time.ParseDuration(cfg.Relay.BatchTimeout)
		if err != nil {
			batchTimeout = time.Second
		}
		return consumer.NewSource(c, cfg.Relay.BatchSize, batchTimeout, retryDelay, logger), nil
	case Mock:
		return consumer.NewSource(consumer.NewMockConsumer(nil, logger), 1, 10*time.Millisecond, retryDelay, logger), nil
	default:
		return nil, fmt.Errorf("unsupported event source: %s", cfg.Source)
	}
}

var (
	_ EventSource = (*ethereum.Client)(nil)
	_ EventSource = (*chainmaker.Client)(nil)
	_ EventSource = (*consumer.Source)(nil)
)
