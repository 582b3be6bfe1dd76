package chainmaker

import (
	"fmt"

	"daomerge/config"
)

// NodeConfig stores detailed configuration for a single ChainMaker node
type NodeConfig struct {
	Address     string   `yaml:"address"`
	ConnCount   int      `yaml:"conn_count"`
	UseTLS      bool     `yaml:"use_tls"`
	TLSHostName string   `yaml:"tls_host_name"`
	CaPaths     []string `yaml:"ca_paths"`
}

// ChainMakerConfig stores ChainMaker-specific configuration
type ChainMakerConfig struct {
	// --- SDK Connection Required ---
	ChainID string `yaml:"chain_id"`
	OrgID   string `yaml:"org_id"`

	// TLS Connection Credentials
	UserKeyPath  string `yaml:"user_key_path"`
	UserCertPath string `yaml:"user_cert_path"`

	// Signing Credentials
	UserSignKeyPath  string `yaml:"user_sign_key_path"`
	UserSignCertPath string `yaml:"user_sign_cert_path"`

	Nodes []NodeConfig `yaml:"nodes"`

	// --- Event Subscription ---
	// ContractName defaults to blockchain.contract_address.
	ContractName string `yaml:"contract_name"`
	// EventTopic defaults to MergePullRequest.
	EventTopic string `yaml:"event_topic"`
	// StartBlock of -1 subscribes from the latest block.
	StartBlock int64 `yaml:"start_block"`
}

// LoadChainMakerConfig loads ChainMaker configuration from the specified YAML file path
func LoadChainMakerConfig(path string) (*ChainMakerConfig, error) {
	var cfg ChainMakerConfig
	if err := config.LoadYAML(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load ChainMaker config: %w", err)
	}
	fmt.Println("ChainMaker configuration loaded successfully.")
	return &cfg, nil
}
