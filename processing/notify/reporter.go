// Package notify posts merge outcomes back to the pull request and, when
// configured, onto the outcome stream.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"daomerge/internal/github"
	"daomerge/internal/models"
)

const defaultPostTimeout = 30 * time.Second

// Commenter posts an issue comment.
type Commenter interface {
	CreateIssueComment(ctx context.Context, owner, repo, number, body string) (*github.Comment, error)
}

// Publisher writes an outcome record to a stream.
type Publisher interface {
	Publish(ctx context.Context, msg models.OutcomeMessage) error
}

// ReportingError reports a comment that could not be posted. It is only
// ever logged.
type ReportingError struct {
	Ref models.PullRequestRef
	Err error
}

func (e *ReportingError) Error() string {
	return fmt.Sprintf("could not comment on pull request %s: %v", e.Ref, e.Err)
}

func (e *ReportingError) Unwrap() error { return e.Err }

// Options configures a Reporter.
type Options struct {
	DAOName string
	DAOURL  string

	// Publisher is optional.
	Publisher Publisher

	// PostTimeout bounds a single comment post.
	PostTimeout time.Duration
}

// Reporter posts outcome comments asynchronously.
type Reporter struct {
	commenter Commenter
	opts      Options
	logger    *log.Logger
	now       func() time.Time

	wg sync.WaitGroup
}

// NewReporter creates a Reporter.
func NewReporter(c Commenter, opts Options, logger *log.Logger) *Reporter {
	if opts.PostTimeout <= 0 {
		opts.PostTimeout = defaultPostTimeout
	}
	return &Reporter{commenter: c, opts: opts, logger: logger, now: time.Now}
}

// Report posts the outcome without blocking the caller. Failures are
// logged and never change the outcome.
func (r *Reporter) Report(ref models.PullRequestRef, outcome models.MergeOutcome, rc models.ReportContext) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.deliver(ref, outcome, rc)
	}()
}

func (r *Reporter) deliver(ref models.PullRequestRef, outcome models.MergeOutcome, rc models.ReportContext) {
	ctx, cancel := context.WithTimeout(context.Background(), r.opts.PostTimeout)
	defer cancel()

	if r.opts.Publisher != nil {
		msg := models.NewOutcomeMessage(ref, outcome, rc, r.now())
		if err := r.opts.Publisher.Publish(ctx, msg); err != nil {
			r.logger.Printf("[%s] Could not publish outcome for %s: %v", rc.RunID, ref, err)
		}
	}

	body := r.CommentBody(outcome, rc)
	if _, err := r.commenter.CreateIssueComment(ctx, ref.Owner, ref.Repo, ref.PullNumber, body); err != nil {
		r.logger.Printf("[%s] %v", rc.RunID, &ReportingError{Ref: ref, Err: err})
	}
}

// CommentBody renders the comment posted for an outcome.
func (r *Reporter) CommentBody(outcome models.MergeOutcome, rc models.ReportContext) string {
	if outcome.Success {
		return fmt.Sprintf("This pull request has been merged by the [%s](%s).\n\nExecuted by: `%s`\nTransaction hash: `%s`",
			r.opts.DAOName, r.opts.DAOURL, rc.SourceAddress, rc.TransactionHash)
	}
	return fmt.Sprintf("This pull request could **not** be merged.\n\nExecuted by: `%s`\nTransaction hash: `%s`\n\nError: ```%s```",
		rc.SourceAddress, rc.TransactionHash, outcome.FailureReason)
}

// Wait blocks until every pending report is delivered or ctx ends.
func (r *Reporter) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("pending reports not delivered"), ctx.Err())
	}
}
