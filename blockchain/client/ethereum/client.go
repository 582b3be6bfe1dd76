package ethereum

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"time"

	"daomerge/blockchain/types"
	"daomerge/config"
	"daomerge/internal/models"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// logFilterer is the subset of *ethclient.Client the watcher uses.
type logFilterer interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q goethereum.FilterQuery) ([]gethtypes.Log, error)
	Close()
}

// Client polls an EVM chain for MergePullRequest logs of one contract.
type Client struct {
	rpc    logFilterer
	cfg    *Config
	abi    abi.ABI
	topic  common.Hash
	logger *log.Logger

	// next is the first block not yet read; kept across restarts of WatchAuthorizations.
	next uint64
}

// NewEthereumClient dials the configured RPC endpoint and checks that it
// serves the selected network.
func NewEthereumClient(cfg *config.BlockchainConfig, logger *log.Logger) (*Client, error) {
	ethCfg, err := ConfigFrom(cfg)
	if err != nil {
		return nil, err
	}

	logger.Printf("Connecting to %s (chain %d) via %s...", ethCfg.Network.Name, ethCfg.Network.ChainID, ethCfg.RPCURL)

	dialTimeout := ethCfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	rpc, err := ethclient.DialContext(ctx, ethCfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", ethCfg.RPCURL, err)
	}

	chainID, err := rpc.ChainID(ctx)
	if err != nil {
		rpc.Close()
		return nil, fmt.Errorf("failed to read chain id from %s: %w", ethCfg.RPCURL, err)
	}
	if chainID.Int64() != ethCfg.Network.ChainID {
		rpc.Close()
		return nil, fmt.Errorf("rpc endpoint %s serves chain %s, expected %s (%d)",
			ethCfg.RPCURL, chainID, ethCfg.Network.Name, ethCfg.Network.ChainID)
	}

	client, err := newClient(rpc, ethCfg, logger)
	if err != nil {
		rpc.Close()
		return nil, err
	}
	logger.Printf("Watching contract %s on %s.", ethCfg.ContractAddress.Hex(), ethCfg.Network.Name)
	return client, nil
}

func newClient(rpc logFilterer, cfg *Config, logger *log.Logger) (*Client, error) {
	parsed, err := parseEventABI()
	if err != nil {
		return nil, err
	}
	if cfg.MaxBlockRange == 0 {
		cfg.MaxBlockRange = defaultMaxBlockRange
	}
	return &Client{
		rpc:    rpc,
		cfg:    cfg,
		abi:    parsed,
		topic:  parsed.Events[types.MergePullRequestEvent].ID,
		logger: logger,
	}, nil
}

// WatchAuthorizations polls for new logs every PollInterval. RPC failures
// are logged and retried on the next tick.
func (c *Client) WatchAuthorizations(ctx context.Context, out chan<- models.EventBatch) error {
	next := c.next
	if next == 0 {
		next = c.cfg.StartBlock
	}
	if next == 0 {
		head, err := c.safeHead(ctx)
		if err != nil {
			return fmt.Errorf("failed to read chain head: %w", err)
		}
		next = head + 1
	}
	c.logger.Printf("Polling for %s events from block %d every %s.", types.MergePullRequestEvent, next, c.cfg.PollInterval)

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		n, err := c.poll(ctx, next, out)
		if err != nil && ctx.Err() == nil {
			c.logger.Printf("Polling logs from block %d failed: %v", next, err)
		}
		next = n
		c.next = n

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) safeHead(ctx context.Context) (uint64, error) {
	head, err := c.rpc.BlockNumber(ctx)
	if err != nil {
		return 0, err
	}
	if head < c.cfg.Confirmations {
		return 0, nil
	}
	return head - c.cfg.Confirmations, nil
}

// poll reads every range from next up to the safe head and returns the
// first block not yet read.
func (c *Client) poll(ctx context.Context, next uint64, out chan<- models.EventBatch) (uint64, error) {
	safe, err := c.safeHead(ctx)
	if err != nil {
		return next, err
	}

	for next <= safe {
		to := next + c.cfg.MaxBlockRange - 1
		if to > safe {
			to = safe
		}

		logs, err := c.rpc.FilterLogs(ctx, goethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(next),
			ToBlock:   new(big.Int).SetUint64(to),
			Addresses: []common.Address{c.cfg.ContractAddress},
			Topics:    [][]common.Hash{{c.topic}},
		})
		if err != nil {
			return next, err
		}

		events := c.decode(logs)
		if len(events) > 0 {
			select {
			case out <- models.EventBatch{Events: events}:
			case <-ctx.Done():
				return next, ctx.Err()
			}
		}
		next = to + 1
	}
	return next, nil
}

func (c *Client) decode(logs []gethtypes.Log) []models.AuthorizationEvent {
	events := make([]models.AuthorizationEvent, 0, len(logs))
	for _, lg := range logs {
		if lg.Removed {
			continue
		}
		ev, err := decodeLog(c.abi, lg)
		if err != nil {
			c.logger.Printf("Skipping undecodable log: %v", err)
			continue
		}
		events = append(events, ev)
	}
	return events
}

// Config returns the resolved EVM configuration.
func (c *Client) Config() any {
	return c.cfg
}

// Close closes the RPC connection
func (c *Client) Close() error {
	c.logger.Println("Closing Ethereum RPC client...")
	c.rpc.Close()
	return nil
}
