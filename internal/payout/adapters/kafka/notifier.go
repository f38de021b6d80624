// Package kafka publishes settled payouts to the token service.
package kafka

import (
	"context"

	"ascend/internal/payout/models"
)

// Publisher produces without waiting for the broker.
type Publisher interface {
	PublishJSONAsync(ctx context.Context, topic, key string, payload any)
}

// TokenNotifier announces settled payouts on a topic keyed by payee, so one
// payee's notifications stay ordered.
type TokenNotifier struct {
	publisher Publisher
	topic     string
}

func NewTokenNotifier(publisher Publisher, topic string) *TokenNotifier {
	return &TokenNotifier{publisher: publisher, topic: topic}
}

func (n *TokenNotifier) NotifyPaid(ctx context.Context, paid models.PaidNotification) {
	n.publisher.PublishJSONAsync(ctx, n.topic, paid.PayeeID.String(), paid)
}
