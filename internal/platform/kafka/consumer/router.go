package consumer

import (
	"context"
	"log/slog"
	"slices"
)

// Router fans messages out by topic. Messages on a topic nobody registered
// are logged and committed so they do not block the partition.
type Router struct {
	routes map[string]Handler
	logger *slog.Logger
}

func NewRouter(logger *slog.Logger) *Router {
	return &Router{routes: map[string]Handler{}, logger: logger}
}

// Register binds a topic to its handler, replacing any earlier binding.
func (r *Router) Register(topic string, h Handler) {
	r.routes[topic] = h
}

// Topics returns the registered topics in sorted order, ready for
// kgo.ConsumeTopics.
func (r *Router) Topics() []string {
	topics := make([]string, 0, len(r.routes))
	for topic := range r.routes {
		topics = append(topics, topic)
	}
	slices.Sort(topics)
	return topics
}

func (r *Router) Handle(ctx context.Context, msg *Message) error {
	if h, ok := r.routes[msg.Topic]; ok {
		return h.Handle(ctx, msg)
	}
	r.logger.WarnContext(ctx, "unrouted kafka message committed",
		"topic", msg.Topic,
		"partition", msg.Partition,
		"key", string(msg.Key),
	)
	return nil
}
