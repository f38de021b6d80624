package river

import (
	"context"
	"errors"
	"testing"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ascend/internal/payout/models"
	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
)

type fakeExecutor struct {
	result  *models.Request
	err     error
	failed  []string
	execute int
}

func (f *fakeExecutor) ExecutePayout(context.Context, domain.PayoutRequestID) (*models.Request, error) {
	f.execute++
	return f.result, f.err
}

func (f *fakeExecutor) FailPayout(_ context.Context, _ domain.PayoutRequestID, reason string) (*models.Request, error) {
	f.failed = append(f.failed, reason)
	return &models.Request{Status: models.StatusFailed}, nil
}

func job(attempt, maxAttempts int) *river.Job[ExecuteArgs] {
	return &river.Job[ExecuteArgs]{
		JobRow: &rivertype.JobRow{Attempt: attempt, MaxAttempts: maxAttempts},
		Args:   ExecuteArgs{RequestID: domain.NewPayoutRequestID()},
	}
}

func TestExecuteWorker(t *testing.T) {
	unavailable := dErrors.Wrap(models.ErrGatewayUnavailable, dErrors.CodeTransferFailed, "transfer gateway unavailable")

	t.Run("completed transfer", func(t *testing.T) {
		exec := &fakeExecutor{result: &models.Request{Status: models.StatusCompleted}}
		require.NoError(t, NewExecuteWorker(exec, nil).Work(context.Background(), job(1, 8)))
		assert.Equal(t, 1, exec.execute)
	})

	t.Run("rejected transfer is not retried", func(t *testing.T) {
		exec := &fakeExecutor{
			result: &models.Request{Status: models.StatusFailed},
			err:    dErrors.New(dErrors.CodeTransferFailed, "transfer rejected"),
		}
		assert.NoError(t, NewExecuteWorker(exec, nil).Work(context.Background(), job(1, 8)))
		assert.Empty(t, exec.failed)
	})

	t.Run("unavailable gateway is retried", func(t *testing.T) {
		exec := &fakeExecutor{result: &models.Request{Status: models.StatusProcessing}, err: unavailable}
		err := NewExecuteWorker(exec, nil).Work(context.Background(), job(2, 8))
		assert.ErrorIs(t, err, models.ErrGatewayUnavailable)
		assert.Empty(t, exec.failed)
	})

	t.Run("final attempt fails the payout", func(t *testing.T) {
		exec := &fakeExecutor{result: &models.Request{Status: models.StatusProcessing}, err: unavailable}
		err := NewExecuteWorker(exec, nil).Work(context.Background(), job(8, 8))
		require.Error(t, err)
		require.Len(t, exec.failed, 1)
		assert.Contains(t, exec.failed[0], "after retries")
	})
}

type fakeInserter struct {
	args []river.JobArgs
	err  error
}

func (f *fakeInserter) Insert(_ context.Context, args river.JobArgs, _ *river.InsertOpts) (*rivertype.JobInsertResult, error) {
	f.args = append(f.args, args)
	return &rivertype.JobInsertResult{}, f.err
}

func TestEnqueuer(t *testing.T) {
	client := &fakeInserter{}
	id := domain.NewPayoutRequestID()

	require.NoError(t, NewEnqueuer(client).EnqueueExecution(context.Background(), id))
	require.Len(t, client.args, 1)
	assert.Equal(t, ExecuteArgs{RequestID: id}, client.args[0])
	assert.Equal(t, "payout_execute", client.args[0].Kind())

	client.err = errors.New("queue unavailable")
	assert.Error(t, NewEnqueuer(client).EnqueueExecution(context.Background(), id))
}
