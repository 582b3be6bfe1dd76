package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

// Environment variables that override values from the config file. These
// match the variables the agent has always been deployed with.
const (
	EnvGitHubToken     = "GITHUB_TOKEN"
	EnvEncryptionKey   = "ENCRYPTION_KEY"
	EnvContractAddress = "CONTRACT_ADDRESS"
	EnvNetwork         = "NODE_ENV"
	EnvPort            = "PORT"
)

// ConfigurationError is fatal at startup: the agent must not enter its
// serving loop with an incomplete configuration.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s %s", e.Field, e.Reason)
}

// IsConfigurationError reports whether err is, or wraps, a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// Config represents the complete agent configuration
type Config struct {
	Agent         AgentConfig         `yaml:"agent"`
	GitHub        GitHubConfig        `yaml:"github"`
	Codec         CodecConfig         `yaml:"codec"`
	Blockchain    BlockchainConfig    `yaml:"blockchain"`
	Ledger        LedgerConfig        `yaml:"ledger"`
	Reporter      ReporterConfig      `yaml:"reporter"`
	OutcomeStream KafkaProducerConfig `yaml:"outcome_stream"`
	HashService   HashServiceConfig   `yaml:"hash_service"`
	Health        HealthConfig        `yaml:"health"`
}

// LoadConfig loads the agent configuration from the specified YAML file path,
// applies environment overrides and defaults, then validates the result.
// An empty path skips the file and relies on the environment alone.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("unable to get absolute path of config file: %w", err)
		}

		fmt.Printf("Loading agent configuration from '%s'...\n", absPath)

		data, err := os.ReadFile(absPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", absPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config file: %w", err)
		}
	}

	cfg.ApplyEnv(os.Getenv)
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	fmt.Println("Agent configuration loaded successfully.")
	return &cfg, nil
}

// ApplyEnv overrides file values with non-empty environment values.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvGitHubToken); v != "" {
		c.GitHub.Token = v
	}
	if v := getenv(EnvEncryptionKey); v != "" {
		c.Codec.Key = v
	}
	if v := getenv(EnvContractAddress); v != "" {
		c.Blockchain.ContractAddress = v
	}
	if v := getenv(EnvNetwork); v != "" {
		c.Blockchain.Network = v
	}
	if v := getenv(EnvPort); v != "" {
		c.HashService.ListenAddr = ":" + strings.TrimPrefix(v, ":")
	}
}

// SetDefaults sets default values for every section
func (c *Config) SetDefaults() {
	c.Agent.SetDefaults()
	c.GitHub.SetDefaults()
	c.Codec.SetDefaults()
	c.Blockchain.SetDefaults()
	c.Ledger.SetDefaults()
	c.Reporter.SetDefaults()
	c.HashService.SetDefaults()
	if len(c.OutcomeStream.Brokers) > 0 {
		c.OutcomeStream.SetDefaults()
	}
}

// Validate checks the values the agent cannot start without
func (c *Config) Validate() error {
	if c.Codec.Key == "" {
		return &ConfigurationError{Field: EnvEncryptionKey, Reason: "is not set"}
	}
	if c.GitHub.Token == "" {
		return &ConfigurationError{Field: EnvGitHubToken, Reason: "is not set"}
	}
	if err := c.Blockchain.Validate(); err != nil {
		return err
	}
	if err := c.Ledger.Validate(); err != nil {
		return err
	}
	if err := c.GitHub.Validate(); err != nil {
		return err
	}
	return nil
}
