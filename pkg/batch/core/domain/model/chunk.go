package model

import (
	"encoding/json"
	"fmt"
)

// Chunk is an ordered slice of identifiers processed as one resumable step.
// Chunks are produced by the partitioner and must not be modified afterwards.
type Chunk struct {
	// IDs holds the identifiers of this chunk in processing order.
	IDs []Identifier `json:"ids"`
	// Index is the 1-based position of this chunk among all chunks of the job.
	Index int `json:"chunk_index"`
	// TotalItems is the identifier count across the whole job.
	TotalItems int `json:"total_items"`
}

// Len returns the number of identifiers in the chunk.
func (c Chunk) Len() int { return len(c.IDs) }

// Arguments returns the chunk parameters as reported when the chunk halts a job.
func (c Chunk) Arguments() map[string]interface{} {
	return map[string]interface{}{
		"ids":         identifierStrings(c.IDs),
		"chunk_index": c.Index,
		"total_items": c.TotalItems,
	}
}

// String renders the chunk parameters as JSON.
func (c Chunk) String() string {
	data, err := json.Marshal(c.Arguments())
	if err != nil {
		return fmt.Sprintf("chunk %d/%d", c.Index, c.TotalItems)
	}
	return string(data)
}
