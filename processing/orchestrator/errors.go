package orchestrator

import (
	"fmt"

	"daomerge/internal/models"
)

// NotMergeableError reports a pull request the hosting API will not merge,
// or one whose state could not be fetched (Err set).
type NotMergeableError struct {
	Ref       models.PullRequestRef
	Mergeable *bool
	State     string
	Err       error
}

func (e *NotMergeableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Pull request state could not be fetched: %s. %v", e.Ref, e.Err)
	}
	mergeable := "null"
	if e.Mergeable != nil {
		mergeable = fmt.Sprint(*e.Mergeable)
	}
	return fmt.Sprintf("Pull request is not mergeable: %s. Mergeable = %s, State = %s", e.Ref, mergeable, e.State)
}

func (e *NotMergeableError) Unwrap() error { return e.Err }

// CommitHashMismatchError reports that the head commit differs from the
// commit the proposal was approved for.
type CommitHashMismatchError struct {
	Ref      models.PullRequestRef
	Expected string // Current head of the pull request
	Actual   string // Decrypted from the event
}

func (e *CommitHashMismatchError) Error() string {
	return fmt.Sprintf("Pull request commit hash does not match: %s. "+
		"You should not push anything else after submitting the pull request along with the proposal. "+
		"Expected: %s, Actual: %s", e.Ref, e.Expected, e.Actual)
}

// ApprovalFailedError reports a review that did not end in the APPROVED state.
type ApprovalFailedError struct {
	Ref   models.PullRequestRef
	State string
	Err   error
}

func (e *ApprovalFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Pull request could not be approved: %s. %v", e.Ref, e.Err)
	}
	return fmt.Sprintf("Pull request could not be approved: %s. State = %s", e.Ref, e.State)
}

func (e *ApprovalFailedError) Unwrap() error { return e.Err }

// MergeFailedError reports a merge call that failed or returned merged=false.
type MergeFailedError struct {
	Ref     models.PullRequestRef
	Merged  bool
	Message string
	Err     error
}

func (e *MergeFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Pull request could not be merged: %s. %v", e.Ref, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("Pull request could not be merged: %s. Merged = %t (%s)", e.Ref, e.Merged, e.Message)
	}
	return fmt.Sprintf("Pull request could not be merged: %s. Merged = %t", e.Ref, e.Merged)
}

func (e *MergeFailedError) Unwrap() error { return e.Err }
