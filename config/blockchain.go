package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// NetworkProduction selects the production chain; any other value watches the testnet.
const NetworkProduction = "production"

// BlockchainConfig stores the ingress configuration across all source types
type BlockchainConfig struct {
	// --- Source Selection ---
	Source string `yaml:"source"` // "ethereum", "chainmaker", "kafka" or "mock"

	// --- Event Location ---
	Network         string `yaml:"network"`          // "production" watches Polygon, anything else Mumbai
	ContractAddress string `yaml:"contract_address"` // Usually provided through CONTRACT_ADDRESS
	RPCURL          string `yaml:"rpc_url"`          // Overrides the network's default endpoint

	// --- Common Behavior Configuration ---
	PollInterval   string `yaml:"poll_interval"`
	StartBlock     uint64 `yaml:"start_block"`   // 0 starts from the current head
	Confirmations  uint64 `yaml:"confirmations"` // Blocks to wait before reading a log
	RetryLimit     int    `yaml:"retry_limit"`
	RetryInterval  int    `yaml:"retry_interval"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`

	// --- Source-specific Configuration ---
	ChainMakerConfigPath string              `yaml:"chainmaker_config_path"`
	Relay                KafkaConsumerConfig `yaml:"relay"`

	// Loaded separately based on source type
	ChainSpecific any `yaml:"-"`
}

// SetDefaults sets reasonable default values for the blockchain configuration
func (c *BlockchainConfig) SetDefaults() {
	if c.Source == "" {
		c.Source = "ethereum"
		fmt.Printf("Warning: blockchain.source not set, defaulting to %s\n", c.Source)
	}
	if c.PollInterval == "" {
		c.PollInterval = "4s"
		fmt.Printf("Warning: blockchain.poll_interval not set, defaulting to %s\n", c.PollInterval)
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 15
	}
	if c.ChainMakerConfigPath == "" {
		c.ChainMakerConfigPath = "./config/clients/chainmaker.yml"
	}
	if c.Source == "kafka" {
		c.Relay.SetDefaults()
	}
}

// Validate validates the blockchain configuration
func (c *BlockchainConfig) Validate() error {
	switch c.Source {
	case "ethereum", "chainmaker":
		if c.ContractAddress == "" {
			return &ConfigurationError{Field: EnvContractAddress, Reason: "is not set"}
		}
	case "kafka":
		if len(c.Relay.Brokers) == 0 || c.Relay.Topic == "" || c.Relay.GroupID == "" {
			return &ConfigurationError{Field: "blockchain.relay", Reason: "requires brokers, topic and group_id"}
		}
	case "mock":
	default:
		return &ConfigurationError{Field: "blockchain.source", Reason: fmt.Sprintf("is unsupported: %s", c.Source)}
	}
	return nil
}

// IsProduction reports whether the production network is selected.
func (c *BlockchainConfig) IsProduction() bool {
	return c.Network == NetworkProduction
}

// LoadYAML reads a YAML file into out. Used for the source-specific files.
func LoadYAML(path string, out any) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("unable to get absolute path of config file: %w", err)
	}

	fmt.Printf("Loading configuration from '%s'...\n", absPath)

	data, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("failed to read config file '%s': %w", absPath, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse YAML config file: %w", err)
	}
	return nil
}
