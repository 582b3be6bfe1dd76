package config

import (
	"fmt"
	"time"
)

// KafkaConsumerConfig defines configuration for the relay consumer
type KafkaConsumerConfig struct {
	Brokers           []string `yaml:"brokers"`             // e.g., ["kafka1:9092", "kafka2:9092"]
	Topic             string   `yaml:"topic"`               // Topic carrying relayed authorization events
	GroupID           string   `yaml:"group_id"`            // Consumer group ID
	BatchSize         int      `yaml:"batch_size"`          // Events forwarded to the worker per batch
	BatchTimeout      string   `yaml:"batch_timeout"`       // Maximum wait before forwarding a partial batch
	SessionTimeout    string   `yaml:"session_timeout"`     // Kafka session timeout
	HeartbeatInterval string   `yaml:"heartbeat_interval"`  // Kafka heartbeat interval
	MaxProcessingTime string   `yaml:"max_processing_time"` // Maximum time for processing a message
	AutoOffsetReset   string   `yaml:"auto_offset_reset"`   // earliest/latest
}

// SetDefaults sets reasonable default values for Kafka consumer configuration
func (c *KafkaConsumerConfig) SetDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 10
		fmt.Printf("Warning: relay.batch_size not set or invalid, defaulting to %d\n", c.BatchSize)
	}
	if c.BatchTimeout == "" {
		c.BatchTimeout = "1s"
		fmt.Printf("Warning: relay.batch_timeout not set, defaulting to %s\n", c.BatchTimeout)
	}
	if c.SessionTimeout == "" {
		c.SessionTimeout = "30s"
		fmt.Printf("Warning: relay.session_timeout not set, defaulting to %s\n", c.SessionTimeout)
	}
	if c.HeartbeatInterval == "" {
		c.HeartbeatInterval = "3s"
		fmt.Printf("Warning: relay.heartbeat_interval not set, defaulting to %s\n", c.HeartbeatInterval)
	}
	if c.MaxProcessingTime == "" {
		c.MaxProcessingTime = "5m"
		fmt.Printf("Warning: relay.max_processing_time not set, defaulting to %s\n", c.MaxProcessingTime)
	}
	if c.AutoOffsetReset == "" {
		c.AutoOffsetReset = "earliest"
		fmt.Printf("Warning: relay.auto_offset_reset not set, defaulting to %s\n", c.AutoOffsetReset)
	}
}

// KafkaProducerConfig defines configuration for the outcome stream producer
type KafkaProducerConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`

	// Batch processing settings
	BatchSize    int           `yaml:"batch_size"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
	BatchBytes   int           `yaml:"batch_bytes"`

	// Reliability settings
	RequiredAcks string `yaml:"required_acks"`
	Async        bool   `yaml:"async"`

	// Performance settings
	WriteTimeout time.Duration `yaml:"write_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
}

// Enabled reports whether an outcome stream is configured.
func (c *KafkaProducerConfig) Enabled() bool {
	return len(c.Brokers) > 0 && c.Topic != ""
}

// SetDefaults sets reasonable default values for the producer configuration
func (c *KafkaProducerConfig) SetDefaults() {
	if c.BatchSize == 0 {
		c.BatchSize = 100
	}
	if c.BatchTimeout == 0 {
		c.BatchTimeout = 100 * time.Millisecond
	}
	if c.RequiredAcks == "" {
		c.RequiredAcks = "one"
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
}
