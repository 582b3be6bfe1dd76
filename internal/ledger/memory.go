package ledger

import (
	"context"
	"sync"

	"daomerge/internal/models"
)

// Memory is the process-lifetime ledger. Entries are never evicted.
type Memory struct {
	mu     sync.RWMutex
	merged map[string]bool
}

// NewMemory returns an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{merged: make(map[string]bool)}
}

// IsMerged reports whether ref was marked merged.
func (m *Memory) IsMerged(_ context.Context, ref models.PullRequestRef) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.merged[ref.Key()], nil
}

// MarkMerged records ref as merged.
func (m *Memory) MarkMerged(_ context.Context, ref models.PullRequestRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.merged[ref.Key()] = true
	return nil
}

// Len returns the number of merged entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.merged)
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }

var _ Ledger = (*Memory)(nil)
