package ethereum

import (
	"fmt"
	"strings"

	"daomerge/blockchain/types"
	"daomerge/internal/models"

	"github.com/ethereum/go-ethereum/accounts/abi"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
)

// mergePullRequestABI is the event fragment of the DAO's GitHub pull
// request facet.
const mergePullRequestABI = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "string", "name": "owner", "type": "string"},
      {"indexed": false, "internalType": "string", "name": "repo", "type": "string"},
      {"indexed": false, "internalType": "string", "name": "pull_number", "type": "string"},
      {"indexed": false, "internalType": "string", "name": "sha", "type": "string"}
    ],
    "name": "MergePullRequest",
    "type": "event"
  }
]`

func parseEventABI() (abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(mergePullRequestABI))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse %s ABI: %w", types.MergePullRequestEvent, err)
	}
	return parsed, nil
}

// decodeLog decodes one MergePullRequest log into an AuthorizationEvent.
func decodeLog(parsed abi.ABI, lg gethtypes.Log) (models.AuthorizationEvent, error) {
	values, err := parsed.Unpack(types.MergePullRequestEvent, lg.Data)
	if err != nil {
		return models.AuthorizationEvent{}, fmt.Errorf("failed to unpack log %s/%d: %w", lg.TxHash.Hex(), lg.Index, err)
	}

	fields := make([]string, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			return models.AuthorizationEvent{}, fmt.Errorf("log %s/%d: field %d is %T, not string", lg.TxHash.Hex(), lg.Index, i, v)
		}
		fields = append(fields, s)
	}

	args, err := types.ArgsFromFields(fields)
	if err != nil {
		return models.AuthorizationEvent{}, err
	}
	return args.Event(lg.Address.Hex(), lg.TxHash.Hex(), lg.BlockNumber)
}
