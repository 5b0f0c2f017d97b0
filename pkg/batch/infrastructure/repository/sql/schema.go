package sql

import "time"

// CheckpointEntity is the persisted form of a checkpoint. The indexed columns mirror the
// fields an operator queries; Payload carries the full checkpoint as JSON.
type CheckpointEntity struct {
	JobID          string `gorm:"primaryKey;size:64"`
	JobName        string `gorm:"size:255;index"`
	State          string `gorm:"size:32"`
	NextChunkIndex int
	Payload        []byte
	UpdatedAt      time.Time
}

// TableName returns the checkpoint table name.
func (CheckpointEntity) TableName() string {
	return "idbatch_checkpoint"
}
