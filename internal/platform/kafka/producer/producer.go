// Package producer publishes JSON payloads to Kafka.
package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"ascend/pkg/requestcontext"
)

type Producer struct {
	client *kgo.Client
	logger *slog.Logger
}

func New(client *kgo.Client, logger *slog.Logger) *Producer {
	return &Producer{client: client, logger: logger}
}

// RequestIDHeader carries the originating request id to consumers.
const RequestIDHeader = "request_id"

func record(ctx context.Context, topic, key string, payload any) (*kgo.Record, error) {
	value, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", topic, err)
	}
	rec := &kgo.Record{Topic: topic, Key: []byte(key), Value: value}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		rec.Headers = append(rec.Headers, kgo.RecordHeader{Key: RequestIDHeader, Value: []byte(requestID)})
	}
	return rec, nil
}

// PublishJSON produces synchronously and returns once the broker acknowledged.
func (p *Producer) PublishJSON(ctx context.Context, topic, key string, payload any) error {
	rec, err := record(ctx, topic, key, payload)
	if err != nil {
		return err
	}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", topic, err)
	}
	return nil
}

// PublishJSONAsync produces without waiting. Failures are logged only.
func (p *Producer) PublishJSONAsync(ctx context.Context, topic, key string, payload any) {
	rec, err := record(ctx, topic, key, payload)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to encode kafka payload", "topic", topic, "error", err)
		return
	}
	p.client.Produce(context.WithoutCancel(ctx), rec, func(r *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("async kafka produce failed", "topic", r.Topic, "key", string(r.Key), "error", err)
		}
	})
}

// Flush waits for buffered async records.
func (p *Producer) Flush(ctx context.Context) error {
	return p.client.Flush(ctx)
}
