// Package serialization converts checkpoints to and from the JSON payload stored by the
// persistent checkpoint repositories.
package serialization

import (
	"encoding/json"

	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
	"github.com/tigerroll/idbatch/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/idbatch/pkg/batch/support/util/logger"
)

const module = "serialization"

// MarshalCheckpoint serializes a checkpoint into a JSON byte slice.
func MarshalCheckpoint(cp *model.Checkpoint) ([]byte, error) {
	if cp == nil {
		return nil, exception.NewBatchError(module, "cannot serialize a nil checkpoint", nil)
	}
	data, err := json.Marshal(cp)
	if err != nil {
		logger.Errorf("Failed to serialize checkpoint of job %s: %v", cp.JobID, err)
		return nil, exception.NewBatchError(module, "failed to serialize checkpoint", err)
	}
	return data, nil
}

// UnmarshalCheckpoint deserializes a JSON byte slice into a checkpoint.
// A missing run context or ledger is replaced by an empty one.
func UnmarshalCheckpoint(data []byte) (*model.Checkpoint, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, exception.NewBatchError(module, "empty checkpoint payload", nil)
	}
	var cp model.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		logger.Errorf("Failed to deserialize checkpoint: %v", err)
		return nil, exception.NewBatchError(module, "failed to deserialize checkpoint", err)
	}
	if cp.RunContext == nil {
		cp.RunContext = model.NewRunContext()
	}
	if cp.Ledger == nil {
		cp.Ledger = model.NewOutcomeLedger()
	}
	return &cp, nil
}
