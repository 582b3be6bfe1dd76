package github

import (
	"context"
	"fmt"
	"net/http"
)

// Merge methods accepted by the merge endpoint.
const (
	MergeMethodMerge  = "merge"
	MergeMethodSquash = "squash"
	MergeMethodRebase = "rebase"
)

// MergePullRequestRequest is the body of the merge endpoint. SHA, when set,
// makes GitHub refuse the merge if the head has moved.
type MergePullRequestRequest struct {
	SHA         string `json:"sha,omitempty"`
	MergeMethod string `json:"merge_method,omitempty"`
}

// GetPullRequest retrieves a single pull request. The number is used as given.
func (c *Client) GetPullRequest(ctx context.Context, owner, repo, number string) (*PullRequest, error) {
	var pullRequest PullRequest
	if err := c.get(ctx, repoPath(owner, repo, "pulls", number), &pullRequest); err != nil {
		return nil, fmt.Errorf("getting PR %s/%s#%s: %w", owner, repo, number, err)
	}
	return &pullRequest, nil
}

// MergePullRequest merges a pull request.
func (c *Client) MergePullRequest(ctx context.Context, owner, repo, number string, request MergePullRequestRequest) (*MergeResult, error) {
	var result MergeResult
	if err := c.send(ctx, http.MethodPut, repoPath(owner, repo, "pulls", number, "merge"), request, &result); err != nil {
		return nil, fmt.Errorf("merging PR %s/%s#%s: %w", owner, repo, number, err)
	}
	return &result, nil
}
