package types

import (
	"fmt"

	"daomerge/internal/models"
)

// MergePullRequestEvent is the name of the event the DAO contract emits when
// an accepted proposal authorizes a merge.
const MergePullRequestEvent = "MergePullRequest"

// MergePullRequestFields lists the event's fields in emission order. Every
// field is a string; pull_number is not parsed.
var MergePullRequestFields = []string{"owner", "repo", "pull_number", "sha"}

// MergePullRequestArgs is the decoded payload of one MergePullRequest event.
type MergePullRequestArgs struct {
	Owner      string
	Repo       string
	PullNumber string
	Sha        string // Encrypted commit hash
}

// ArgsFromFields decodes the positional field list used by chains that emit
// event data as string arrays.
func ArgsFromFields(fields []string) (MergePullRequestArgs, error) {
	if len(fields) != len(MergePullRequestFields) {
		return MergePullRequestArgs{}, fmt.Errorf("malformed %s event: expected %d fields, got %d",
			MergePullRequestEvent, len(MergePullRequestFields), len(fields))
	}
	return MergePullRequestArgs{
		Owner:      fields[0],
		Repo:       fields[1],
		PullNumber: fields[2],
		Sha:        fields[3],
	}, nil
}

// Event converts the payload into an AuthorizationEvent.
func (a MergePullRequestArgs) Event(sourceAddress, txHash string, blockNumber uint64) (models.AuthorizationEvent, error) {
	ev := models.AuthorizationEvent{
		Ref: models.PullRequestRef{
			Owner:      a.Owner,
			Repo:       a.Repo,
			PullNumber: a.PullNumber,
		},
		EncryptedCommitSHA: a.Sha,
		SourceAddress:      sourceAddress,
		TransactionHash:    txHash,
		BlockNumber:        blockNumber,
	}
	if err := ev.Ref.Validate(); err != nil {
		return models.AuthorizationEvent{}, fmt.Errorf("malformed %s event in tx %s: %w", MergePullRequestEvent, txHash, err)
	}
	return ev, nil
}
