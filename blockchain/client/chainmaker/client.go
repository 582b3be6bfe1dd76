package chainmaker

import (
	"context"
	"fmt"
	"log"

	"daomerge/blockchain/types"
	"daomerge/config"
	"daomerge/internal/models"

	"chainmaker.org/chainmaker/pb-go/v2/common"
	sdk "chainmaker.org/chainmaker/sdk-go/v2"
)

// eventSubscriber is the subset of *sdk.ChainClient the watcher uses.
type eventSubscriber interface {
	SubscribeContractEvent(ctx context.Context, startBlock, endBlock int64, contractName, topic string) (<-chan interface{}, error)
	Stop() error
}

// Client subscribes to MergePullRequest events of a ChainMaker contract.
type Client struct {
	sdkClient eventSubscriber
	cfg       *config.BlockchainConfig
	chainCfg  *ChainMakerConfig
	logger    *log.Logger
}

// NewChainMakerClient initializes the ChainMaker SDK client with the combined configuration
func NewChainMakerClient(cfg *config.BlockchainConfig, logger *log.Logger) (*Client, error) {
	logger.Println("Initializing ChainMaker SDK client using builder pattern...")

	chainmakerCfg, ok := cfg.ChainSpecific.(*ChainMakerConfig)
	if !ok {
		return nil, fmt.Errorf("invalid ChainMaker configuration type")
	}

	var clientOptions []sdk.ChainClientOption
	clientOptions = append(clientOptions, sdk.WithChainClientOrgId(chainmakerCfg.OrgID))
	clientOptions = append(clientOptions, sdk.WithChainClientChainId(chainmakerCfg.ChainID))
	clientOptions = append(clientOptions, sdk.WithUserKeyFilePath(chainmakerCfg.UserKeyPath))
	clientOptions = append(clientOptions, sdk.WithUserCrtFilePath(chainmakerCfg.UserCertPath))
	clientOptions = append(clientOptions, sdk.WithUserSignKeyFilePath(chainmakerCfg.UserSignKeyPath))
	clientOptions = append(clientOptions, sdk.WithUserSignCrtFilePath(chainmakerCfg.UserSignCertPath))

	if len(chainmakerCfg.Nodes) == 0 {
		return nil, fmt.Errorf("no node configurations provided in config")
	}
	for _, nodeCfg := range chainmakerCfg.Nodes {
		if nodeCfg.UseTLS && len(nodeCfg.CaPaths) == 0 {
			return nil, fmt.Errorf("node %s has TLS enabled but no CaPaths provided", nodeCfg.Address)
		}
		sdkNodeConfig := sdk.NewNodeConfig(
			sdk.WithNodeAddr(nodeCfg.Address),
			sdk.WithNodeConnCnt(nodeCfg.ConnCount),
			sdk.WithNodeUseTLS(nodeCfg.UseTLS),
			sdk.WithNodeCAPaths(nodeCfg.CaPaths),
			sdk.WithNodeTLSHostName(nodeCfg.TLSHostName),
		)
		clientOptions = append(clientOptions, sdk.AddChainClientNodeConfig(sdkNodeConfig))
	}

	if cfg.RetryLimit > 0 {
		clientOptions = append(clientOptions, sdk.WithRetryLimit(cfg.RetryLimit))
	}
	if cfg.RetryInterval > 0 {
		clientOptions = append(clientOptions, sdk.WithRetryInterval(cfg.RetryInterval))
	}

	client, err := sdk.NewChainClient(clientOptions...)
	if err != nil {
		logger.Printf("Failed to build ChainMaker SDK client: %v\n", err)
		return nil, err
	}

	if err := client.EnableCertHash(); err != nil {
		logger.Printf("Warning: Failed to enable cert hash: %v\n", err)
	}

	logger.Println("ChainMaker SDK client initialized successfully.")
	return newClient(client, cfg, chainmakerCfg, logger), nil
}

func newClient(sub eventSubscriber, cfg *config.BlockchainConfig, chainCfg *ChainMakerConfig, logger *log.Logger) *Client {
	if chainCfg.ContractName == "" {
		chainCfg.ContractName = cfg.ContractAddress
	}
	if chainCfg.EventTopic == "" {
		chainCfg.EventTopic = types.MergePullRequestEvent
	}
	if chainCfg.StartBlock == 0 {
		chainCfg.StartBlock = -1
	}
	return &Client{sdkClient: sub, cfg: cfg, chainCfg: chainCfg, logger: logger}
}

// WatchAuthorizations subscribes to the contract's event topic and forwards
// each event as its own batch. The subscription ends with ctx.
func (c *Client) WatchAuthorizations(ctx context.Context, out chan<- models.EventBatch) error {
	c.logger.Printf("Subscribing to topic '%s' of contract '%s' from block %d...",
		c.chainCfg.EventTopic, c.chainCfg.ContractName, c.chainCfg.StartBlock)

	// endBlock -1 keeps the subscription open.
	events, err := c.sdkClient.SubscribeContractEvent(ctx, c.chainCfg.StartBlock, -1, c.chainCfg.ContractName, c.chainCfg.EventTopic)
	if err != nil {
		return fmt.Errorf("SDK subscribe failed: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("ChainMaker event subscription closed")
			}
			info, ok := raw.(*common.ContractEventInfo)
			if !ok {
				c.logger.Printf("Skipping unexpected subscription payload %T", raw)
				continue
			}
			ev, err := c.decode(info)
			if err != nil {
				c.logger.Printf("Skipping undecodable event: %v", err)
				continue
			}
			// Resume after this block if the subscription is re-established.
			c.chainCfg.StartBlock = int64(info.BlockHeight)
			select {
			case out <- models.EventBatch{Events: []models.AuthorizationEvent{ev}}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (c *Client) decode(info *common.ContractEventInfo) (models.AuthorizationEvent, error) {
	args, err := types.ArgsFromFields(info.EventData)
	if err != nil {
		return models.AuthorizationEvent{}, fmt.Errorf("tx %s: %w", info.TxId, err)
	}
	return args.Event(info.ContractName, info.TxId, info.BlockHeight)
}

// Config returns the ChainMaker-specific configuration.
func (c *Client) Config() any {
	return c.chainCfg
}

// Close stops the SDK client
func (c *Client) Close() error {
	c.logger.Println("Closing ChainMaker SDK client...")
	if err := c.sdkClient.Stop(); err != nil {
		c.logger.Printf("Error stopping ChainMaker SDK client: %v", err)
		return fmt.Errorf("failed to stop ChainMaker SDK client: %w", err)
	}
	return nil
}
