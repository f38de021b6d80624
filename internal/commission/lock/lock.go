// Package lock serializes commission work per sale. Local is enough for a
// single process; Redis coordinates several instances.
package lock

import (
	"context"
	"errors"
	"hash/fnv"

	dErrors "ascend/pkg/domain-errors"
)

// ErrTimeout is returned when the context ends before the lock is granted.
var ErrTimeout = errors.New("lock wait timed out")

// Release gives the lock back. It is safe to call more than once.
type Release func()

const shards = 64

// Local is a sharded in-process lock. Keys hashing to the same shard share
// one lock.
type Local struct {
	slots [shards]chan struct{}
}

func NewLocal() *Local {
	l := &Local{}
	for i := range l.slots {
		l.slots[i] = make(chan struct{}, 1)
	}
	return l
}

// Acquire blocks until the key's shard is free or ctx ends.
func (l *Local) Acquire(ctx context.Context, key string) (Release, error) {
	slot := l.slots[shardOf(key)]
	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return nil, timeout(key, ctx.Err())
	}
	released := false
	return func() {
		if !released {
			released = true
			<-slot
		}
	}, nil
}

func shardOf(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % shards
}

func timeout(key string, cause error) error {
	return dErrors.Wrap(errors.Join(ErrTimeout, cause), dErrors.CodeTimeout, "timed out waiting for sale lock").
		WithDetail("key", key)
}
