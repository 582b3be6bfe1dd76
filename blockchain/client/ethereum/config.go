package ethereum

import (
	"fmt"
	"time"

	"daomerge/config"

	"github.com/ethereum/go-ethereum/common"
)

// Network is an EVM chain the agent can watch.
type Network struct {
	Name          string
	ChainID       int64
	DefaultRPCURL string
}

var (
	Polygon = Network{Name: "polygon", ChainID: 137, DefaultRPCURL: "https://polygon-rpc.com"}
	Mumbai  = Network{Name: "polygon-mumbai", ChainID: 80001, DefaultRPCURL: "https://rpc-mumbai.maticvigil.com"}
)

// NetworkFor maps the network selector to a chain: "production" watches
// Polygon, anything else the Mumbai testnet.
func NetworkFor(selector string) Network {
	if selector == config.NetworkProduction {
		return Polygon
	}
	return Mumbai
}

// defaultMaxBlockRange caps a single eth_getLogs request.
const defaultMaxBlockRange = 2000

// Config stores the resolved EVM watcher configuration
type Config struct {
	Network         Network
	RPCURL          string
	ContractAddress common.Address
	PollInterval    time.Duration
	StartBlock      uint64 // 0 starts after the current safe head
	Confirmations   uint64
	MaxBlockRange   uint64
	DialTimeout     time.Duration
}

// ConfigFrom resolves the common blockchain configuration for an EVM chain.
func ConfigFrom(cfg *config.BlockchainConfig) (*Config, error) {
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, &config.ConfigurationError{Field: config.EnvContractAddress, Reason: fmt.Sprintf("is not a valid address: %q", cfg.ContractAddress)}
	}

	network := NetworkFor(cfg.Network)
	rpcURL := cfg.RPCURL
	if rpcURL == "" {
		rpcURL = network.DefaultRPCURL
	}

	pollInterval, err := time.ParseDuration(cfg.PollInterval)
	if err != nil || pollInterval <= 0 {
		pollInterval = 4 * time.Second
	}

	return &Config{
		Network:         network,
		RPCURL:          rpcURL,
		ContractAddress: common.HexToAddress(cfg.ContractAddress),
		PollInterval:    pollInterval,
		StartBlock:      cfg.StartBlock,
		Confirmations:   cfg.Confirmations,
		MaxBlockRange:   defaultMaxBlockRange,
		DialTimeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
	}, nil
}
