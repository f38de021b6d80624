// Package requestcontext carries request-scoped values from middleware to
// services without importing net/http. Workers and Kafka consumers use the
// same accessors. Getters return zero values when nothing was set, except Now.
package requestcontext

import (
	"context"
	"time"

	"ascend/pkg/domain"
)

type (
	participantIDKey struct{}
	actorIDKey       struct{}
	clientIPKey      struct{}
	userAgentKey     struct{}
	requestIDKey     struct{}
	requestTimeKey   struct{}
)

// Exported keys let tests seed a context with context.WithValue.
var (
	ContextKeyParticipantID = participantIDKey{}
	ContextKeyActorID       = actorIDKey{}
	ContextKeyClientIP      = clientIPKey{}
	ContextKeyUserAgent     = userAgentKey{}
	ContextKeyRequestID     = requestIDKey{}
	ContextKeyRequestTime   = requestTimeKey{}
)

// ParticipantID retrieves the authenticated participant from the context.
// Returns the zero value (nil UUID) if not set.
func ParticipantID(ctx context.Context) domain.ParticipantID {
	if pid, ok := ctx.Value(ContextKeyParticipantID).(domain.ParticipantID); ok {
		return pid
	}
	return domain.ParticipantID{}
}

// WithParticipantID injects the authenticated participant into the context.
func WithParticipantID(ctx context.Context, participantID domain.ParticipantID) context.Context {
	return context.WithValue(ctx, ContextKeyParticipantID, participantID)
}

// ActorID names who performed an action: "admin", a worker name, or a participant id.
func ActorID(ctx context.Context) string {
	if actor, ok := ctx.Value(ContextKeyActorID).(string); ok {
		return actor
	}
	if pid := ParticipantID(ctx); !pid.IsNil() {
		return pid.String()
	}
	return ""
}

func WithActorID(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ContextKeyActorID, actor)
}

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

// UserAgent retrieves the User-Agent from the context.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(ContextKeyUserAgent).(string); ok {
		return ua
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent into a context.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyClientIP, clientIP)
	ctx = context.WithValue(ctx, ContextKeyUserAgent, userAgent)
	return ctx
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (workers, consumers, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
// Workers use it to keep one timestamp across a batch.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
