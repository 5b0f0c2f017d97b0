// Package inmemory provides an in-memory implementation of the CheckpointRepository interface.
// Checkpoints live in a map for the lifetime of the process, which suits tests and hosts that
// drive a job to completion within one process.
package inmemory

import (
	"context"
	"sort"
	"sync"

	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
	repository "github.com/tigerroll/idbatch/pkg/batch/core/domain/repository"
)

// InMemoryCheckpointRepository is an in-memory implementation of the CheckpointRepository interface.
type InMemoryCheckpointRepository struct {
	checkpoints map[string]*model.Checkpoint
	mu          sync.RWMutex // Mutex to protect concurrent access to the map.
}

// NewInMemoryCheckpointRepository creates and initializes a new instance of InMemoryCheckpointRepository.
func NewInMemoryCheckpointRepository() *InMemoryCheckpointRepository {
	return &InMemoryCheckpointRepository{
		checkpoints: make(map[string]*model.Checkpoint),
	}
}

// SaveCheckpoint stores a deep copy of cp, replacing any previous checkpoint of the job.
func (r *InMemoryCheckpointRepository) SaveCheckpoint(ctx context.Context, cp *model.Checkpoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkpoints[cp.JobID] = cp.Clone()
	return nil
}

// FindCheckpoint returns a deep copy of the checkpoint of jobID.
func (r *InMemoryCheckpointRepository) FindCheckpoint(ctx context.Context, jobID string) (*model.Checkpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp, ok := r.checkpoints[jobID]
	if !ok {
		return nil, repository.ErrCheckpointNotFound
	}
	return cp.Clone(), nil
}

// DeleteCheckpoint removes the checkpoint of jobID.
func (r *InMemoryCheckpointRepository) DeleteCheckpoint(ctx context.Context, jobID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.checkpoints, jobID)
	return nil
}

// JobIDs returns the ids of all stored checkpoints, sorted.
func (r *InMemoryCheckpointRepository) JobIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.checkpoints))
	for id := range r.checkpoints {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close releases resources used by the repository.
// As an in-memory repository, it holds no external resources, so this method always returns nil.
func (r *InMemoryCheckpointRepository) Close() error {
	return nil
}

var _ repository.CheckpointRepository = (*InMemoryCheckpointRepository)(nil)
