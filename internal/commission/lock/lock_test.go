package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "ascend/pkg/domain-errors"
)

func TestLocal_SerializesSameKey(t *testing.T) {
	l := NewLocal()
	var (
		active  atomic.Int32
		overlap atomic.Bool
		wg      sync.WaitGroup
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), "sale-1")
			require.NoError(t, err)
			defer release()
			if active.Add(1) > 1 {
				overlap.Store(true)
			}
			time.Sleep(time.Millisecond)
			active.Add(-1)
		}()
	}
	wg.Wait()
	assert.False(t, overlap.Load())
}

func TestLocal_TimesOut(t *testing.T) {
	l := NewLocal()
	release, err := l.Acquire(context.Background(), "sale-1")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, "sale-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
}

func TestLocal_ReleaseIsIdempotent(t *testing.T) {
	l := NewLocal()
	release, err := l.Acquire(context.Background(), "sale-1")
	require.NoError(t, err)
	release()
	release()

	again, err := l.Acquire(context.Background(), "sale-1")
	require.NoError(t, err)
	again()
}
