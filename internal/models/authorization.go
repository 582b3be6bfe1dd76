package models

import "fmt"

// PullRequestRef identifies a merge target. Fields are forwarded to the
// hosting API exactly as they were emitted on chain.
type PullRequestRef struct {
	Owner      string `json:"owner"`
	Repo       string `json:"repo"`
	PullNumber string `json:"pull_number"`
}

// Key returns the dedup key "owner/repo#pullNumber". No normalization is
// applied, so refs differing only in case produce different keys.
func (r PullRequestRef) Key() string {
	return fmt.Sprintf("%s/%s#%s", r.Owner, r.Repo, r.PullNumber)
}

// String renders the ref the way it appears in log lines.
func (r PullRequestRef) String() string {
	return "(" + r.Key() + ")"
}

// Validate reports whether every field of the ref is present.
func (r PullRequestRef) Validate() error {
	switch {
	case r.Owner == "":
		return fmt.Errorf("pull request ref is missing owner")
	case r.Repo == "":
		return fmt.Errorf("pull request ref is missing repo")
	case r.PullNumber == "":
		return fmt.Errorf("pull request ref is missing pull_number")
	}
	return nil
}

// AuthorizationEvent is one decoded MergePullRequest log entry.
// Used across the chain clients, the relay consumer and the orchestrator.
type AuthorizationEvent struct {
	Ref                PullRequestRef `json:"ref"`
	EncryptedCommitSHA string         `json:"sha"`              // Ciphertext produced by the hash endpoint
	SourceAddress      string         `json:"source_address"`   // Contract (or ChainMaker contract name) that emitted the event
	TransactionHash    string         `json:"transaction_hash"` // Transaction that carried the event
	BlockNumber        uint64         `json:"block_number"`
}

// EventBatch is the unit the ingress hands to the worker. Ack, when set, is
// called once after the worker stops with the batch; handled is false if
// it stopped before every event was processed.
type EventBatch struct {
	Events []AuthorizationEvent
	Ack    func(handled bool)
}
