package github

import (
	"context"
	"fmt"
)

// GetBranch retrieves a branch and its head commit.
func (c *Client) GetBranch(ctx context.Context, owner, repo, branch string) (*Branch, error) {
	var result Branch
	if err := c.get(ctx, repoPath(owner, repo, "branches", branch), &result); err != nil {
		return nil, fmt.Errorf("getting branch %s/%s@%s: %w", owner, repo, branch, err)
	}
	return &result, nil
}
