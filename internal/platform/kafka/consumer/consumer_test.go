package consumer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProcess_RetriesTransientFailures(t *testing.T) {
	calls := 0
	h := HandlerFunc(func(context.Context, *Message) error {
		calls++
		if calls < 3 {
			return errors.New("db unavailable")
		}
		return nil
	})
	c := New(nil, h, testLogger(), WithBackoff(time.Millisecond), WithMaxRetries(5))

	assert.True(t, c.Process(context.Background(), &Message{Topic: "t"}))
	assert.Equal(t, 3, calls)
}

func TestProcess_PermanentFailureIsCommitted(t *testing.T) {
	calls := 0
	h := HandlerFunc(func(context.Context, *Message) error {
		calls++
		return fmt.Errorf("decode: %w", ErrPermanent)
	})
	c := New(nil, h, testLogger(), WithBackoff(time.Millisecond))

	assert.True(t, c.Process(context.Background(), &Message{Topic: "t"}))
	assert.Equal(t, 1, calls)
}

func TestProcess_ExhaustedRetriesAreNotCommitted(t *testing.T) {
	h := HandlerFunc(func(context.Context, *Message) error {
		return errors.New("still down")
	})
	c := New(nil, h, testLogger(), WithBackoff(time.Millisecond), WithMaxRetries(2))

	assert.False(t, c.Process(context.Background(), &Message{Topic: "t"}))
}

func TestRouter(t *testing.T) {
	var got []string
	r := NewRouter(testLogger())
	r.Register("sales", HandlerFunc(func(_ context.Context, m *Message) error {
		got = append(got, "sales:"+string(m.Key))
		return nil
	}))

	assert.NoError(t, r.Handle(context.Background(), &Message{Topic: "sales", Key: []byte("s1")}))
	assert.NoError(t, r.Handle(context.Background(), &Message{Topic: "unknown", Key: []byte("x")}))
	assert.Equal(t, []string{"sales:s1"}, got)
	assert.Equal(t, []string{"sales"}, r.Topics())

	r.Register("activity", HandlerFunc(func(context.Context, *Message) error { return nil }))
	assert.Equal(t, []string{"activity", "sales"}, r.Topics())
}

func record(topic string, partition int32, offset int64, key string) *kgo.Record {
	return &kgo.Record{Topic: topic, Partition: partition, Offset: offset, LeaderEpoch: 3, Key: []byte(key)}
}

func TestSettle_FailedRecordStallsOnlyItsPartition(t *testing.T) {
	var handled []string
	h := HandlerFunc(func(_ context.Context, m *Message) error {
		handled = append(handled, string(m.Key))
		if string(m.Key) == "sale-bad" {
			return errors.New("db unavailable")
		}
		return nil
	})
	c := New(nil, h, testLogger(), WithBackoff(time.Millisecond), WithMaxRetries(0))

	done, rewind := c.settle(context.Background(), []*kgo.Record{
		record("sales", 0, 10, "sale-bad"),
		record("sales", 0, 11, "sale-good"),
		record("sales", 1, 4, "sale-other"),
	})

	assert.Equal(t, []string{"sale-bad", "sale-other"}, handled, "records after the failure in partition 0 wait")
	require.Len(t, done, 1)
	assert.Equal(t, int32(1), done[0].Partition)
	assert.Equal(t, map[string]map[int32]kgo.EpochOffset{
		"sales": {0: {Epoch: 3, Offset: 10}},
	}, rewind)
}

func TestSettle_AllCommittedWhenHandled(t *testing.T) {
	c := New(nil, HandlerFunc(func(context.Context, *Message) error { return nil }), testLogger())

	done, rewind := c.settle(context.Background(), []*kgo.Record{
		record("sales", 0, 1, "a"),
		record("sales", 0, 2, "b"),
	})

	assert.Len(t, done, 2)
	assert.Empty(t, rewind)
}
