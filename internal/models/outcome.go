package models

import "time"

// MergeOutcome is the result of one orchestration run.
type MergeOutcome struct {
	Success       bool   `json:"success"`
	FailureReason string `json:"failure_reason,omitempty"`

	// Skipped marks the silent dedup short-circuit: nothing was attempted.
	Skipped bool `json:"skipped,omitempty"`
}

// Succeeded returns the outcome of a completed merge.
func Succeeded() MergeOutcome {
	return MergeOutcome{Success: true}
}

// Failed returns a failure outcome carrying err's message verbatim.
func Failed(err error) MergeOutcome {
	reason := "unknown error"
	if err != nil {
		reason = err.Error()
	}
	return MergeOutcome{Success: false, FailureReason: reason}
}

// AlreadyMerged returns the outcome for an event whose ref is already in the ledger.
func AlreadyMerged() MergeOutcome {
	return MergeOutcome{Success: true, Skipped: true}
}

// OutcomeMessage is the record published on the outcome stream.
type OutcomeMessage struct {
	RunID           string    `json:"run_id"`
	Key             string    `json:"key"`
	Owner           string    `json:"owner"`
	Repo            string    `json:"repo"`
	PullNumber      string    `json:"pull_number"`
	Success         bool      `json:"success"`
	FailureReason   string    `json:"failure_reason,omitempty"`
	TransactionHash string    `json:"transaction_hash,omitempty"`
	SourceAddress   string    `json:"source_address,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// ReportContext carries the event provenance a report needs.
type ReportContext struct {
	RunID           string
	SourceAddress   string
	TransactionHash string
}

// NewOutcomeMessage builds the outcome stream record for one run.
func NewOutcomeMessage(ref PullRequestRef, outcome MergeOutcome, rc ReportContext, at time.Time) OutcomeMessage {
	return OutcomeMessage{
		RunID:           rc.RunID,
		Key:             ref.Key(),
		Owner:           ref.Owner,
		Repo:            ref.Repo,
		PullNumber:      ref.PullNumber,
		Success:         outcome.Success,
		FailureReason:   outcome.FailureReason,
		TransactionHash: rc.TransactionHash,
		SourceAddress:   rc.SourceAddress,
		Timestamp:       at.UTC(),
	}
}
