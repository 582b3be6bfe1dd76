package config

import "fmt"

// AgentConfig defines configuration for the event worker
type AgentConfig struct {
	BatchBuffer  int    `yaml:"batch_buffer"`  // Capacity of the channel between ingress and worker, in batches
	RetryDelay   string `yaml:"retry_delay"`   // Delay before restarting a failed ingress source
	DrainTimeout string `yaml:"drain_timeout"` // Maximum wait for pending PR comments on shutdown
}

// SetDefaults sets reasonable default values for the agent configuration
func (c *AgentConfig) SetDefaults() {
	if c.BatchBuffer <= 0 {
		c.BatchBuffer = 16
		fmt.Printf("Warning: agent.batch_buffer not set or invalid, defaulting to %d\n", c.BatchBuffer)
	}
	if c.RetryDelay == "" {
		c.RetryDelay = "5s"
		fmt.Printf("Warning: agent.retry_delay not set, defaulting to %s\n", c.RetryDelay)
	}
	if c.DrainTimeout == "" {
		c.DrainTimeout = "15s"
		fmt.Printf("Warning: agent.drain_timeout not set, defaulting to %s\n", c.DrainTimeout)
	}
}

// GitHubConfig defines the hosting API client configuration
type GitHubConfig struct {
	BaseURL     string `yaml:"base_url"`
	Token       string `yaml:"token"` // Usually provided through GITHUB_TOKEN
	UserAgent   string `yaml:"user_agent"`
	MergeMethod string `yaml:"merge_method"` // merge, squash or rebase
}

// SetDefaults sets reasonable default values for the GitHub configuration
func (c *GitHubConfig) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.github.com"
	}
	if c.UserAgent == "" {
		c.UserAgent = "SecureSECOPullRequestMerger"
	}
	if c.MergeMethod == "" {
		c.MergeMethod = "merge"
	}
}

// Validate validates the GitHub configuration
func (c *GitHubConfig) Validate() error {
	switch c.MergeMethod {
	case "merge", "squash", "rebase":
		return nil
	default:
		return &ConfigurationError{Field: "github.merge_method", Reason: fmt.Sprintf("must be merge, squash or rebase (got %q)", c.MergeMethod)}
	}
}

// CodecConfig selects the commit hash cipher
type CodecConfig struct {
	Scheme string `yaml:"scheme"` // cryptr or age
	Key    string `yaml:"key"`    // Usually provided through ENCRYPTION_KEY
}

// SetDefaults sets reasonable default values for the codec configuration
func (c *CodecConfig) SetDefaults() {
	if c.Scheme == "" {
		c.Scheme = "cryptr"
	}
}

// ReporterConfig defines the pull request comment wording
type ReporterConfig struct {
	DAOName string `yaml:"dao_name"`
	DAOURL  string `yaml:"dao_url"`
}

// SetDefaults sets reasonable default values for the reporter configuration
func (c *ReporterConfig) SetDefaults() {
	if c.DAOName == "" {
		c.DAOName = "SecureSECO DAO"
	}
	if c.DAOURL == "" {
		c.DAOURL = "https://dao.secureseco.org/"
	}
}
