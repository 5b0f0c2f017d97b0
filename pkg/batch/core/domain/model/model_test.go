package model_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
	"github.com/tigerroll/idbatch/pkg/batch/support/util/exception"
)

func TestParseJobArguments(t *testing.T) {
	t.Run("all fields empty", func(t *testing.T) {
		args, err := model.ParseJobArguments("", "", "")
		require.NoError(t, err)
		assert.False(t, args.HasExplicitIDs())
		assert.Equal(t, 0, args.Limit)
		assert.Equal(t, 0, args.ChunkSize)
	})

	t.Run("comma delimited ids are trimmed", func(t *testing.T) {
		args, err := model.ParseJobArguments(" 1, 2,,3 ,", "2", "3")
		require.NoError(t, err)
		assert.Equal(t, model.Identifiers("1", "2", "3"), args.IDs)
		assert.Equal(t, 2, args.Limit)
		assert.Equal(t, 3, args.ChunkSize)
	})

	t.Run("only separators means no explicit ids", func(t *testing.T) {
		args, err := model.ParseJobArguments(" , ,", "", "")
		require.NoError(t, err)
		assert.Nil(t, args.IDs)
	})

	t.Run("non-positive chunk size is kept for defaulting", func(t *testing.T) {
		args, err := model.ParseJobArguments("", "", "-3")
		require.NoError(t, err)
		assert.Equal(t, -3, args.ChunkSize)
	})

	t.Run("field errors are reported together", func(t *testing.T) {
		_, err := model.ParseJobArguments("1", "ten", "big")
		require.Error(t, err)
		assert.ErrorIs(t, err, exception.ErrInvalidArguments)
		assert.Contains(t, err.Error(), `limit "ten" is not an integer`)
		assert.Contains(t, err.Error(), `chunk size "big" is not an integer`)
	})

	t.Run("negative limit is rejected", func(t *testing.T) {
		_, err := model.ParseJobArguments("", "-1", "")
		assert.ErrorIs(t, err, exception.ErrInvalidArguments)
	})
}

func TestRunContextLazyInit(t *testing.T) {
	rc := model.NewRunContext()
	assert.False(t, rc.Initialized())

	assert.True(t, rc.Init(7))
	assert.False(t, rc.Init(99), "second Init must be a no-op")
	assert.Equal(t, 7, rc.Total())
	assert.Equal(t, 0, rc.Progress())
}

func TestRunContextAdvance(t *testing.T) {
	rc := model.NewRunContext()
	rc.Init(4)

	rc.Advance(1, "a")
	rc.Advance(2, "c")
	assert.Equal(t, 3, rc.Progress())
	assert.Equal(t, model.Identifier("c"), rc.LastProcessed())
	assert.InDelta(t, 75.0, rc.Percent(), 0.001)

	rc.Advance(-5, "x")
	rc.Advance(0, "y")
	assert.Equal(t, 3, rc.Progress(), "progress never decreases")
	assert.Equal(t, model.Identifier("c"), rc.LastProcessed())

	rc.Advance(10, "d")
	assert.Equal(t, 4, rc.Progress(), "progress never exceeds total")
	assert.True(t, rc.Done())
}

func TestRunContextJSON(t *testing.T) {
	rc := model.NewRunContext()
	rc.Init(3)
	rc.Advance(2, "b")
	rc.Values.Put("cursor", 42)

	data, err := json.Marshal(rc)
	require.NoError(t, err)

	restored := model.NewRunContext()
	require.NoError(t, json.Unmarshal(data, restored))
	assert.True(t, restored.Initialized())
	assert.Equal(t, 2, restored.Progress())
	assert.Equal(t, 3, restored.Total())
	assert.Equal(t, model.Identifier("b"), restored.LastProcessed())
	cursor, ok := restored.Values.GetInt("cursor")
	assert.True(t, ok)
	assert.Equal(t, 42, cursor)
}

func TestClassifyResult(t *testing.T) {
	assert.Equal(t, model.OutcomeSucceeded, model.ClassifyResult("updated"))
	assert.Equal(t, model.OutcomeIgnored, model.ClassifyResult("ignored"))
	assert.Equal(t, model.OutcomeIgnored, model.ClassifyResult("UPDATED"))
	assert.Equal(t, model.OutcomeIgnored, model.ClassifyResult(""))
}

func TestOutcomeLedger(t *testing.T) {
	l := model.NewOutcomeLedger()
	require.NoError(t, l.Record("1", model.OutcomeSucceeded))
	require.NoError(t, l.Record("2", model.OutcomeIgnored))
	require.NoError(t, l.Record("3", model.OutcomeSucceeded))
	require.NoError(t, l.Record("4", model.OutcomeFailed))
	assert.Error(t, l.Record("5", model.Outcome("lost")))

	assert.Equal(t, model.Identifiers("1", "3"), l.Succeeded)
	assert.Equal(t, model.Identifiers("2"), l.Ignored)
	assert.Equal(t, model.Identifiers("4"), l.Failed)
	assert.Equal(t, model.Identifiers("1", "2", "3", "4"), l.AllProcessed)
	assert.Equal(t, model.LedgerCounts{Succeeded: 2, Ignored: 1, Failed: 1, Total: 4}, l.Counts())
	assert.True(t, l.Consistent())

	outcome, ok := l.OutcomeOf("4")
	assert.True(t, ok)
	assert.Equal(t, model.OutcomeFailed, outcome)

	clone := l.Clone()
	clone.Succeeded[0] = "changed"
	assert.Equal(t, model.Identifier("1"), l.Succeeded[0])
}

func TestJobArgumentsJSONKeepsExplicitEmptyIDs(t *testing.T) {
	for name, args := range map[string]model.JobArguments{
		"full source":  {ChunkSize: 2},
		"explicit ids": {IDs: []model.Identifier{}, ChunkSize: 2},
	} {
		t.Run(name, func(t *testing.T) {
			data, err := json.Marshal(args)
			require.NoError(t, err)

			var restored model.JobArguments
			require.NoError(t, json.Unmarshal(data, &restored))
			assert.Equal(t, args.HasExplicitIDs(), restored.HasExplicitIDs())
			assert.Equal(t, args.ChunkSize, restored.ChunkSize)
		})
	}
}

func TestOutcomeLedgerJSONKeys(t *testing.T) {
	data, err := json.Marshal(model.NewOutcomeLedger())
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":[],"ignored":[],"failed":[],"total":[]}`, string(data))
}

func TestJobStateTransitions(t *testing.T) {
	s := model.JobStateInit
	var err error
	for _, next := range []model.JobState{
		model.JobStateSourceResolved,
		model.JobStatePartitioned,
		model.JobStateExecuting,
		model.JobStateFinished,
	} {
		s, err = s.TransitionTo(next)
		require.NoError(t, err)
	}
	assert.True(t, s.IsFinished())

	_, err = model.JobStateFinished.TransitionTo(model.JobStateFinished)
	assert.ErrorIs(t, err, exception.ErrInvalidTransition)

	_, err = model.JobStateInit.TransitionTo(model.JobStateExecuting)
	assert.ErrorIs(t, err, exception.ErrInvalidTransition)

	_, err = model.JobStateInit.TransitionTo(model.JobStateFinished)
	assert.NoError(t, err, "a source error finishes straight from INIT")
}

func TestFailedOperation(t *testing.T) {
	chunk := model.Chunk{IDs: model.Identifiers("4", "5"), Index: 2, TotalItems: 5}
	f := model.NewFailedOperation("ChunkExecutor.Execute", chunk.Arguments(), errors.New("ctx done"))

	assert.Equal(t, "ctx done", f.Message)
	assert.JSONEq(t, `{"ids":["4","5"],"chunk_index":2,"total_items":5}`, f.ArgumentsString())
}

func TestCheckpointClone(t *testing.T) {
	rc := model.NewRunContext()
	rc.Init(2)
	cp := &model.Checkpoint{
		JobID:      "job-1",
		Arguments:  model.JobArguments{IDs: []model.Identifier{}},
		RunContext: rc,
		Ledger:     model.NewOutcomeLedger(),
	}

	clone := cp.Clone()
	clone.RunContext.Advance(1, "a")
	clone.Ledger.Record("a", model.OutcomeSucceeded)

	assert.Equal(t, 0, cp.RunContext.Progress())
	assert.Equal(t, 0, cp.Ledger.Len())
	assert.True(t, clone.Arguments.HasExplicitIDs())
}
