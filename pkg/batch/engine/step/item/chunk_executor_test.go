package item_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	port "github.com/tigerroll/idbatch/pkg/batch/core/application/port"
	model "github.com/tigerroll/idbatch/pkg/batch/core/domain/model"
	"github.com/tigerroll/idbatch/pkg/batch/engine/step/item"
	"github.com/tigerroll/idbatch/pkg/batch/support/util/exception"
)

// MockItemProcessor is a mock implementation of port.ItemProcessor.
type MockItemProcessor struct {
	mock.Mock
}

func (m *MockItemProcessor) ExecuteOperation(ctx context.Context, id model.Identifier, rc *model.RunContext) (string, error) {
	args := m.Called(ctx, id, rc)
	return args.String(0), args.Error(1)
}

// recordingItemListener captures AfterItem calls.
type recordingItemListener struct {
	ids      []model.Identifier
	outcomes []model.Outcome
	errs     []error
}

func (l *recordingItemListener) AfterItem(ctx context.Context, id model.Identifier, outcome model.Outcome, err error) {
	l.ids = append(l.ids, id)
	l.outcomes = append(l.outcomes, outcome)
	l.errs = append(l.errs, err)
}

func TestExecuteScenarioD(t *testing.T) {
	proc := new(MockItemProcessor)
	proc.On("ExecuteOperation", mock.Anything, model.Identifier("1"), mock.Anything).Return("updated", nil)
	proc.On("ExecuteOperation", mock.Anything, model.Identifier("2"), mock.Anything).Return("ignored", nil)
	proc.On("ExecuteOperation", mock.Anything, model.Identifier("3"), mock.Anything).Return("updated", nil)
	proc.On("ExecuteOperation", mock.Anything, model.Identifier("4"), mock.Anything).Return("", errors.New("boom"))

	listener := &recordingItemListener{}
	exec := item.NewChunkExecutor(proc, item.WithItemListeners(listener))
	rc := model.NewRunContext()
	ledger := model.NewOutcomeLedger()
	chunk := model.Chunk{IDs: model.Identifiers("1", "2", "3", "4"), Index: 1, TotalItems: 4}

	require.NoError(t, exec.Execute(context.Background(), chunk, rc, ledger))

	assert.Equal(t, model.Identifiers("1", "3"), ledger.Succeeded)
	assert.Equal(t, model.Identifiers("2"), ledger.Ignored)
	assert.Equal(t, model.Identifiers("4"), ledger.Failed)
	assert.Equal(t, model.Identifiers("1", "2", "3", "4"), ledger.AllProcessed)
	assert.Equal(t, 4, rc.Progress())
	assert.Equal(t, 4, rc.Total())
	assert.Equal(t, model.Identifier("4"), rc.LastProcessed())

	assert.Equal(t, []model.Outcome{model.OutcomeSucceeded, model.OutcomeIgnored, model.OutcomeSucceeded, model.OutcomeFailed}, listener.outcomes)
	assert.True(t, exception.IsItemError(listener.errs[3]))
	proc.AssertExpectations(t)
}

func TestExecuteUnknownResultIsIgnored(t *testing.T) {
	exec := item.NewChunkExecutor(port.ItemProcessorFunc(func(ctx context.Context, id model.Identifier, rc *model.RunContext) (string, error) {
		return "skipped-by-rule", nil
	}))
	ledger := model.NewOutcomeLedger()

	require.NoError(t, exec.Execute(context.Background(), model.Chunk{IDs: model.Identifiers("a"), Index: 1, TotalItems: 1}, model.NewRunContext(), ledger))
	assert.Equal(t, model.Identifiers("a"), ledger.Ignored)
}

func TestExecuteRecoversPanics(t *testing.T) {
	exec := item.NewChunkExecutor(port.ItemProcessorFunc(func(ctx context.Context, id model.Identifier, rc *model.RunContext) (string, error) {
		if id == "b" {
			panic("nil map")
		}
		return "updated", nil
	}))
	ledger := model.NewOutcomeLedger()
	rc := model.NewRunContext()

	err := exec.Execute(context.Background(), model.Chunk{IDs: model.Identifiers("a", "b", "c"), Index: 1, TotalItems: 3}, rc, ledger)

	require.NoError(t, err)
	assert.Equal(t, model.Identifiers("a", "c"), ledger.Succeeded)
	assert.Equal(t, model.Identifiers("b"), ledger.Failed)
	assert.Equal(t, 3, rc.Progress())
}

func TestExecuteKeepsRunContextAcrossChunks(t *testing.T) {
	exec := item.NewChunkExecutor(port.ItemProcessorFunc(func(ctx context.Context, id model.Identifier, rc *model.RunContext) (string, error) {
		n, _ := rc.Values.GetInt("seen")
		rc.Values.Put("seen", n+1)
		return "updated", nil
	}))
	rc := model.NewRunContext()
	ledger := model.NewOutcomeLedger()

	require.NoError(t, exec.Execute(context.Background(), model.Chunk{IDs: model.Identifiers("1", "2"), Index: 1, TotalItems: 3}, rc, ledger))
	assert.Equal(t, 2, rc.Progress())
	require.NoError(t, exec.Execute(context.Background(), model.Chunk{IDs: model.Identifiers("3"), Index: 2, TotalItems: 99}, rc, ledger))

	assert.Equal(t, 3, rc.Total(), "total is set once, from the first chunk")
	assert.Equal(t, 3, rc.Progress())
	seen, _ := rc.Values.GetInt("seen")
	assert.Equal(t, 3, seen)
}

func TestExecuteStepErrors(t *testing.T) {
	proc := new(MockItemProcessor)
	exec := item.NewChunkExecutor(proc)
	chunk := model.Chunk{IDs: model.Identifiers("1"), Index: 3, TotalItems: 1}

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		rc := model.NewRunContext()
		ledger := model.NewOutcomeLedger()

		err := exec.Execute(ctx, chunk, rc, ledger)

		assert.True(t, exception.IsStepError(err))
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, rc.Initialized())
		assert.Equal(t, 0, ledger.Len())
	})

	t.Run("missing ledger", func(t *testing.T) {
		err := exec.Execute(context.Background(), chunk, model.NewRunContext(), nil)
		assert.True(t, exception.IsStepError(err))
	})

	t.Run("missing processor", func(t *testing.T) {
		err := item.NewChunkExecutor(nil).Execute(context.Background(), chunk, model.NewRunContext(), model.NewOutcomeLedger())
		assert.True(t, exception.IsStepError(err))
	})

	proc.AssertNotCalled(t, "ExecuteOperation", mock.Anything, mock.Anything, mock.Anything)
}
