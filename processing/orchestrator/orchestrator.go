// Package orchestrator turns an authorization event into a verified merge.
//
// Every run happens inside the process-wide MergeSectionKey section. A run
// validates the pull request, checks that its head is the commit bound in
// the event's ciphertext, approves, re-checks against a fresh read and only
// then merges with the verified head pinned.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"

	"daomerge/internal/codec"
	"daomerge/internal/github"
	"daomerge/internal/ledger"
	"daomerge/internal/models"

	"github.com/google/uuid"
)

// mergeableStates are the mergeable_state values GitHub will merge.
var mergeableStates = map[string]bool{
	"clean":     true,
	"has_hooks": true,
	"unstable":  true,
}

// HostingAPI is the subset of the GitHub client the orchestrator calls.
type HostingAPI interface {
	GetPullRequest(ctx context.Context, owner, repo, number string) (*github.PullRequest, error)
	CreateReview(ctx context.Context, owner, repo, number string, request github.CreateReviewRequest) (*github.Review, error)
	MergePullRequest(ctx context.Context, owner, repo, number string, request github.MergePullRequestRequest) (*github.MergeResult, error)
}

// Reporter receives every determined outcome. Report must not block.
type Reporter interface {
	Report(ref models.PullRequestRef, outcome models.MergeOutcome, rc models.ReportContext)
}

// Orchestrator executes merge authorizations.
type Orchestrator struct {
	api         HostingAPI
	codec       codec.Codec
	ledger      ledger.Ledger
	serializer  *Serializer
	reporter    Reporter
	mergeMethod string
	logger      *log.Logger
}

// New creates an Orchestrator. A nil serializer gets a private one; share
// one Serializer between orchestrators that must not interleave.
func New(api HostingAPI, c codec.Codec, l ledger.Ledger, s *Serializer, r Reporter, mergeMethod string, logger *log.Logger) *Orchestrator {
	if s == nil {
		s = NewSerializer()
	}
	if mergeMethod == "" {
		mergeMethod = github.MergeMethodMerge
	}
	return &Orchestrator{
		api:         api,
		codec:       c,
		ledger:      l,
		serializer:  s,
		reporter:    r,
		mergeMethod: mergeMethod,
		logger:      logger,
	}
}

// Handle processes one event and returns its outcome. It never returns an
// error or panics; every failure becomes a failure outcome and is reported.
// ctx bounds only the wait for the merge section. Hosting calls run on a
// context detached from cancellation so a started merge is finished.
func (o *Orchestrator) Handle(ctx context.Context, event models.AuthorizationEvent) models.MergeOutcome {
	ref := event.Ref
	rc := models.ReportContext{
		RunID:           uuid.NewString(),
		SourceAddress:   event.SourceAddress,
		TransactionHash: event.TransactionHash,
	}

	if merged, err := o.ledger.IsMerged(ctx, ref); err == nil && merged {
		o.logger.Printf("Pull request already merged: %s", ref)
		return models.AlreadyMerged()
	}

	runCtx := context.WithoutCancel(ctx)
	outcome := o.serializer.RunExclusive(ctx, MergeSectionKey, func() models.MergeOutcome {
		return o.runSafely(runCtx, event, rc.RunID)
	})

	if outcome.Skipped {
		return outcome
	}
	if outcome.Success {
		o.logger.Printf("[%s] Merge of %s completed.", rc.RunID, ref)
	} else {
		o.logger.Printf("[%s] Could not merge pull request %s: %s", rc.RunID, ref, outcome.FailureReason)
	}
	if o.reporter != nil {
		o.reporter.Report(ref, outcome, rc)
	}
	return outcome
}

func (o *Orchestrator) runSafely(ctx context.Context, event models.AuthorizationEvent, runID string) (outcome models.MergeOutcome) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Printf("[%s] PANIC while handling %s: %v\n%s", runID, event.Ref, r, debug.Stack())
			outcome = models.Failed(fmt.Errorf("internal error: %v", r))
		}
	}()
	return o.run(ctx, event, runID)
}

// run performs the merge workflow. Callers hold the merge section.
func (o *Orchestrator) run(ctx context.Context, event models.AuthorizationEvent, runID string) models.MergeOutcome {
	ref := event.Ref

	merged, err := o.ledger.IsMerged(ctx, ref)
	if err != nil {
		return models.Failed(fmt.Errorf("merge ledger unavailable for %s: %w", ref, err))
	}
	if merged {
		o.logger.Printf("Pull request already merged: %s", ref)
		return models.AlreadyMerged()
	}
	if err := ref.Validate(); err != nil {
		return models.Failed(err)
	}

	o.logger.Printf("[%s] Merging pull request: %s", runID, ref)

	pr, err := o.fetchMergeable(ctx, ref)
	if err != nil {
		return models.Failed(err)
	}
	if err := o.verifyCommit(ref, pr, event.EncryptedCommitSHA); err != nil {
		return models.Failed(err)
	}

	if err := o.approve(ctx, ref); err != nil {
		return models.Failed(err)
	}

	// The head may have moved while approving.
	pr, err = o.fetchMergeable(ctx, ref)
	if err != nil {
		return models.Failed(err)
	}
	if err := o.verifyCommit(ref, pr, event.EncryptedCommitSHA); err != nil {
		return models.Failed(err)
	}

	if err := o.merge(ctx, ref, pr.Head.SHA); err != nil {
		return models.Failed(err)
	}

	if err := o.ledger.MarkMerged(ctx, ref); err != nil {
		o.logger.Printf("[%s] CRITICAL: %s was merged but could not be recorded: %v", runID, ref, err)
	}
	return models.Succeeded()
}

func (o *Orchestrator) fetchMergeable(ctx context.Context, ref models.PullRequestRef) (*github.PullRequest, error) {
	pr, err := o.api.GetPullRequest(ctx, ref.Owner, ref.Repo, ref.PullNumber)
	if err != nil {
		return nil, &NotMergeableError{Ref: ref, Err: err}
	}
	if pr == nil {
		return nil, &NotMergeableError{Ref: ref, Err: fmt.Errorf("empty response")}
	}
	if pr.Mergeable == nil || !*pr.Mergeable || !mergeableStates[pr.MergeableState] {
		return nil, &NotMergeableError{Ref: ref, Mergeable: pr.Mergeable, State: pr.MergeableState}
	}
	o.logger.Printf("Pull request is mergeable: %s", ref)
	return pr, nil
}

func (o *Orchestrator) verifyCommit(ref models.PullRequestRef, pr *github.PullRequest, ciphertext string) error {
	decrypted, err := o.codec.Decrypt(ciphertext)
	if err != nil {
		return fmt.Errorf("commit hash for %s could not be decrypted: %w", ref, err)
	}
	if decrypted != pr.Head.SHA {
		return &CommitHashMismatchError{Ref: ref, Expected: pr.Head.SHA, Actual: decrypted}
	}
	o.logger.Printf("Pull request commit hash matches: %s", pr.Head.SHA)
	return nil
}

func (o *Orchestrator) approve(ctx context.Context, ref models.PullRequestRef) error {
	review, err := o.api.CreateReview(ctx, ref.Owner, ref.Repo, ref.PullNumber,
		github.CreateReviewRequest{Event: github.ReviewEventApprove})
	if err != nil {
		return &ApprovalFailedError{Ref: ref, Err: err}
	}
	if review == nil || review.State != github.ReviewStateApproved {
		state := ""
		if review != nil {
			state = review.State
		}
		return &ApprovalFailedError{Ref: ref, State: state}
	}
	o.logger.Printf("Pull request approved successfully: %s", ref)
	return nil
}

func (o *Orchestrator) merge(ctx context.Context, ref models.PullRequestRef, headSHA string) error {
	result, err := o.api.MergePullRequest(ctx, ref.Owner, ref.Repo, ref.PullNumber,
		github.MergePullRequestRequest{SHA: headSHA, MergeMethod: o.mergeMethod})
	if err != nil {
		return &MergeFailedError{Ref: ref, Err: err}
	}
	if result == nil || !result.Merged {
		message := ""
		if result != nil {
			message = result.Message
		}
		return &MergeFailedError{Ref: ref, Message: message}
	}
	o.logger.Printf("Pull request merged successfully: %s", ref)
	return nil
}
