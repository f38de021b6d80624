package testutil

import (
	"context"
	"net/http"

	"ascend/pkg/domain"
	"ascend/pkg/requestcontext"
)

// WithParticipant adds an authenticated participant to the request context.
// This simulates what the auth middleware would do for authenticated requests.
// If participantID is not a valid UUID, it will not be added to the context.
func WithParticipant(req *http.Request, participantID string) *http.Request {
	if pid, err := domain.ParseParticipantID(participantID); err == nil {
		return req.WithContext(requestcontext.WithParticipantID(req.Context(), pid))
	}
	return req
}

// WithActor marks the request as performed by the given actor (e.g. "admin").
func WithActor(req *http.Request, actor string) *http.Request {
	return req.WithContext(requestcontext.WithActorID(req.Context(), actor))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
