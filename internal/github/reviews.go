package github

import (
	"context"
	"fmt"
	"net/http"
)

// Review events and the resulting states the agent cares about.
const (
	ReviewEventApprove  = "APPROVE"
	ReviewStateApproved = "APPROVED"
)

// CreateReviewRequest contains the fields for submitting a review.
type CreateReviewRequest struct {
	Body  string `json:"body,omitempty"`
	Event string `json:"event"`
}

// CreateReview submits a review on a pull request.
func (c *Client) CreateReview(ctx context.Context, owner, repo, number string, request CreateReviewRequest) (*Review, error) {
	var review Review
	if err := c.send(ctx, http.MethodPost, repoPath(owner, repo, "pulls", number, "reviews"), request, &review); err != nil {
		return nil, fmt.Errorf("creating review on %s/%s#%s: %w", owner, repo, number, err)
	}
	return &review, nil
}
