package config

import (
	"fmt"
	"time"
)

// HttpServerConfig defines HTTP server configuration
type HttpServerConfig struct {
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
}

// RateLimitConfig defines the per-client request limit
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// HashServiceConfig defines the latest-commit lookup endpoint
type HashServiceConfig struct {
	Enabled    bool             `yaml:"enabled"`
	ListenAddr string           `yaml:"listen_addr"` // Overridden by PORT
	HttpServer HttpServerConfig `yaml:"http_server"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
}

// SetDefaults sets reasonable default values for the hash service configuration
func (c *HashServiceConfig) SetDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":5252"
		fmt.Printf("Warning: hash_service.listen_addr not set, defaulting to %s\n", c.ListenAddr)
	}
	if c.HttpServer.ReadTimeout == 0 {
		c.HttpServer.ReadTimeout = 10 * time.Second
	}
	if c.HttpServer.WriteTimeout == 0 {
		c.HttpServer.WriteTimeout = 30 * time.Second
	}
	if c.HttpServer.IdleTimeout == 0 {
		c.HttpServer.IdleTimeout = 60 * time.Second
	}
	if c.HttpServer.MaxHeaderBytes == 0 {
		c.HttpServer.MaxHeaderBytes = 1 << 20
	}
	if c.RateLimit.RequestsPerSecond <= 0 {
		c.RateLimit.RequestsPerSecond = 2
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 10
	}
}

// HealthConfig defines the gRPC health endpoint. An empty address disables it.
type HealthConfig struct {
	GrpcListenAddr string `yaml:"grpc_listen_addr"`
}
