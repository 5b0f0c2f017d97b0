// Package partition splits an ordered identifier sequence into fixed-size chunks.
package partition

import (
	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
)

// EffectiveChunkSize returns size, or model.DefaultChunkSize when size is not positive.
func EffectiveChunkSize(size int) int {
	if size <= 0 {
		return model.DefaultChunkSize
	}
	return size
}

// Partition splits ids into chunks of chunkSize identifiers, preserving order.
//
// A positive limit truncates ids to its first limit elements before chunking.
// A non-positive chunkSize falls back to model.DefaultChunkSize. The last chunk may be
// smaller than chunkSize and zero identifiers yield zero chunks. Every chunk holds its
// own copy of the identifiers, so later changes to ids do not affect it.
func Partition(ids []model.Identifier, limit, chunkSize int) []model.Chunk {
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	if len(ids) == 0 {
		return []model.Chunk{}
	}

	size := EffectiveChunkSize(chunkSize)
	total := len(ids)
	chunks := make([]model.Chunk, 0, (total+size-1)/size)
	for start := 0; start < total; start += size {
		end := start + size
		if end > total {
			end = total
		}
		part := make([]model.Identifier, end-start)
		copy(part, ids[start:end])
		chunks = append(chunks, model.Chunk{
			IDs:        part,
			Index:      len(chunks) + 1,
			TotalItems: total,
		})
	}
	return chunks
}

// Partitioner is the injectable form of Partition.
type Partitioner struct{}

// NewPartitioner creates a new Partitioner.
func NewPartitioner() *Partitioner {
	return &Partitioner{}
}

// Partition applies the job arguments' limit and chunk size to ids.
func (p *Partitioner) Partition(ids []model.Identifier, args model.JobArguments) []model.Chunk {
	return Partition(ids, args.Limit, args.ChunkSize)
}
