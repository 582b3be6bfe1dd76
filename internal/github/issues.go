package github

import (
	"context"
	"fmt"
	"net/http"
)

// CreateIssueComment posts a comment on an issue or pull request.
func (c *Client) CreateIssueComment(ctx context.Context, owner, repo, number, body string) (*Comment, error) {
	var comment Comment
	request := struct {
		Body string `json:"body"`
	}{Body: body}
	if err := c.send(ctx, http.MethodPost, repoPath(owner, repo, "issues", number, "comments"), request, &comment); err != nil {
		return nil, fmt.Errorf("commenting on %s/%s#%s: %w", owner, repo, number, err)
	}
	return &comment, nil
}
