// Package consumer runs an at-least-once consumer group loop: records are
// committed only after their handler returns.
package consumer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Message is the transport-neutral view of a consumed record.
type Message struct {
	Topic     string
	Key       []byte
	Value     []byte
	Partition int32
	Offset    int64
	Timestamp time.Time
	Headers   map[string]string
}

// Handler processes one message. A returned error is retried with backoff.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg *Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg *Message) error { return f(ctx, msg) }

// ErrPermanent marks a failure retrying cannot fix (malformed payload). The
// message is logged and committed.
var ErrPermanent = errors.New("permanent message failure")

type Consumer struct {
	client     *kgo.Client
	handler    Handler
	logger     *slog.Logger
	maxRetries int
	backoff    time.Duration
}

type Option func(*Consumer)

func WithMaxRetries(n int) Option {
	return func(c *Consumer) { c.maxRetries = n }
}

func WithBackoff(d time.Duration) Option {
	return func(c *Consumer) { c.backoff = d }
}

// New wraps a client that was built with a consumer group, the topics to
// consume, and kgo.DisableAutoCommit.
func New(client *kgo.Client, handler Handler, logger *slog.Logger, opts ...Option) *Consumer {
	c := &Consumer{
		client:     client,
		handler:    handler,
		logger:     logger,
		maxRetries: 5,
		backoff:    200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run polls until ctx is cancelled or the client is closed.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.ErrorContext(ctx, "kafka fetch error", "topic", topic, "partition", partition, "error", err)
		})

		done, rewind := c.settle(ctx, fetches.Records())
		if len(done) > 0 {
			if err := c.client.CommitRecords(ctx, done...); err != nil {
				c.logger.ErrorContext(ctx, "kafka commit failed", "records", len(done), "error", err)
			}
		}
		if len(rewind) > 0 {
			c.client.SetOffsets(rewind)
		}
	}
}

// settle processes one poll's records in order. The first record of a
// partition that cannot be committed stops that partition: later records of
// the partition are neither handled nor committed, and the returned rewind
// offsets point back at the failed record so it is fetched again.
func (c *Consumer) settle(ctx context.Context, records []*kgo.Record) ([]*kgo.Record, map[string]map[int32]kgo.EpochOffset) {
	var done []*kgo.Record
	rewind := map[string]map[int32]kgo.EpochOffset{}
	for _, rec := range records {
		if ctx.Err() != nil {
			break
		}
		if _, stalled := rewind[rec.Topic][rec.Partition]; stalled {
			continue
		}
		if c.Process(ctx, toMessage(rec)) {
			done = append(done, rec)
			continue
		}
		if rewind[rec.Topic] == nil {
			rewind[rec.Topic] = map[int32]kgo.EpochOffset{}
		}
		rewind[rec.Topic][rec.Partition] = kgo.EpochOffset{Epoch: rec.LeaderEpoch, Offset: rec.Offset}
		c.logger.WarnContext(ctx, "partition stalled on failed message, rewinding",
			"topic", rec.Topic, "partition", rec.Partition, "offset", rec.Offset)
	}
	return done, rewind
}

// Process runs the handler with retries and reports whether the message may
// be committed. When transient failures exhaust the retries, Run rewinds the
// partition to the record and commits nothing past it.
func (c *Consumer) Process(ctx context.Context, msg *Message) bool {
	wait := c.backoff
	for attempt := 0; ; attempt++ {
		err := c.handler.Handle(ctx, msg)
		if err == nil {
			return true
		}
		if errors.Is(err, ErrPermanent) {
			c.logger.ErrorContext(ctx, "dropping unprocessable message",
				"topic", msg.Topic, "key", string(msg.Key), "offset", msg.Offset, "error", err)
			return true
		}
		if attempt >= c.maxRetries {
			c.logger.ErrorContext(ctx, "message handling failed after retries",
				"topic", msg.Topic, "key", string(msg.Key), "offset", msg.Offset, "error", err)
			return false
		}
		c.logger.WarnContext(ctx, "message handling failed, retrying",
			"topic", msg.Topic, "attempt", attempt+1, "error", err)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(wait):
		}
		wait *= 2
	}
}

func toMessage(rec *kgo.Record) *Message {
	headers := make(map[string]string, len(rec.Headers))
	for _, h := range rec.Headers {
		headers[h.Key] = string(h.Value)
	}
	return &Message{
		Topic:     rec.Topic,
		Key:       rec.Key,
		Value:     rec.Value,
		Partition: rec.Partition,
		Offset:    rec.Offset,
		Timestamp: rec.Timestamp,
		Headers:   headers,
	}
}
