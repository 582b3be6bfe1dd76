// Package ledger records which pull requests have already been merged.
//
// The ledger is the single source of truth for "has this authorization
// already been handled". Only definitive successes are written; a failed
// attempt leaves no entry, so a later event for the same pull request is
// processed again from scratch.
package ledger

import (
	"context"
	"fmt"
	"log"

	"daomerge/config"
	"daomerge/internal/models"
)

// Ledger is the DedupLedger contract. Implementations must be safe for
// concurrent use; a true result from IsMerged is authoritative.
type Ledger interface {
	IsMerged(ctx context.Context, ref models.PullRequestRef) (bool, error)
	MarkMerged(ctx context.Context, ref models.PullRequestRef) error
	Close() error
}

// Backend names accepted in config.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// New creates the ledger selected by cfg.Backend.
func New(ctx context.Context, cfg config.LedgerConfig, logger *log.Logger) (Ledger, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		logger.Println("Using in-memory merge ledger (state is lost on restart).")
		return NewMemory(), nil
	case BackendPostgres:
		return NewPostgres(ctx, cfg.Database, logger)
	case BackendRedis:
		return NewRedis(ctx, cfg.Redis, logger)
	default:
		return nil, fmt.Errorf("unsupported ledger backend: %s", cfg.Backend)
	}
}
