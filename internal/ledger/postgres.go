package ledger

import (
	"context"
	"fmt"
	"log"
	"time"

	"daomerge/config"
	"daomerge/internal/models"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const createMergedTableSQL = `
CREATE TABLE IF NOT EXISTS merged_pull_requests (
	dedup_key  TEXT PRIMARY KEY,
	owner      TEXT NOT NULL,
	repo       TEXT NOT NULL,
	pull_number TEXT NOT NULL,
	merged_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// pgxQuerier is the subset of *pgxpool.Pool the ledger uses.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Postgres is a durable ledger keyed by dedup key.
type Postgres struct {
	db     pgxQuerier
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgres connects to cfg.DSN and ensures the ledger table exists.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig, logger *log.Logger) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConnections)
	poolCfg.MinConns = int32(cfg.MinConnections)
	if d, err := time.ParseDuration(cfg.MaxIdleTime); err == nil {
		poolCfg.MaxConnIdleTime = d
	} else {
		logger.Printf("Warning: Invalid max_idle_time '%s', using pool default", cfg.MaxIdleTime)
	}
	if d, err := time.ParseDuration(cfg.MaxLifetime); err == nil {
		poolCfg.MaxConnLifetime = d
	} else {
		logger.Printf("Warning: Invalid max_lifetime '%s', using pool default", cfg.MaxLifetime)
	}

	pool, err := pgxpool.ConnectConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	p := &Postgres{db: pool, pool: pool, logger: logger}
	if err := p.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	logger.Println("Postgres merge ledger ready.")
	return p, nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, createMergedTableSQL); err != nil {
		return fmt.Errorf("failed to create merged_pull_requests table: %w", err)
	}
	return nil
}

// IsMerged reports whether a row exists for ref.
func (p *Postgres) IsMerged(ctx context.Context, ref models.PullRequestRef) (bool, error) {
	var exists bool
	err := p.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM merged_pull_requests WHERE dedup_key = $1)`,
		ref.Key(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ledger lookup for %s failed: %w", ref.Key(), err)
	}
	return exists, nil
}

// MarkMerged inserts ref; a second insert for the same key is a no-op.
func (p *Postgres) MarkMerged(ctx context.Context, ref models.PullRequestRef) error {
	_, err := p.db.Exec(ctx, `
		INSERT INTO merged_pull_requests (dedup_key, owner, repo, pull_number)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (dedup_key) DO NOTHING`,
		ref.Key(), ref.Owner, ref.Repo, ref.PullNumber,
	)
	if err != nil {
		return fmt.Errorf("ledger write for %s failed: %w", ref.Key(), err)
	}
	return nil
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	if p.pool != nil {
		p.logger.Println("Closing Postgres merge ledger...")
		p.pool.Close()
	}
	return nil
}

var _ Ledger = (*Postgres)(nil)
