package ledger

import (
	"context"
	"fmt"
	"log"
	"time"

	"daomerge/config"
	"daomerge/internal/models"

	"github.com/redis/go-redis/v9"
)

// redisCmdable is the subset of *redis.Client the ledger uses.
type redisCmdable interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// Redis is a durable ledger storing one key per merged pull request.
type Redis struct {
	rdb    redisCmdable
	client *redis.Client
	prefix string
	logger *log.Logger
}

// NewRedis connects to cfg.Addr and verifies the connection.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *log.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	logger.Printf("Redis merge ledger ready (addr: %s, prefix: %s).", cfg.Addr, cfg.KeyPrefix)
	return &Redis{rdb: client, client: client, prefix: cfg.KeyPrefix, logger: logger}, nil
}

func (r *Redis) key(ref models.PullRequestRef) string {
	return r.prefix + ref.Key()
}

// IsMerged reports whether the key for ref exists.
func (r *Redis) IsMerged(ctx context.Context, ref models.PullRequestRef) (bool, error) {
	n, err := r.rdb.Exists(ctx, r.key(ref)).Result()
	if err != nil {
		return false, fmt.Errorf("ledger lookup for %s failed: %w", ref.Key(), err)
	}
	return n > 0, nil
}

// MarkMerged sets the key for ref without expiry. An existing key is kept.
func (r *Redis) MarkMerged(ctx context.Context, ref models.PullRequestRef) error {
	if err := r.rdb.SetNX(ctx, r.key(ref), time.Now().UTC().Format(time.RFC3339), 0).Err(); err != nil {
		return fmt.Errorf("ledger write for %s failed: %w", ref.Key(), err)
	}
	return nil
}

// Close closes the redis client.
func (r *Redis) Close() error {
	if r.client == nil {
		return nil
	}
	r.logger.Println("Closing Redis merge ledger...")
	return r.client.Close()
}

var _ Ledger = (*Redis)(nil)
