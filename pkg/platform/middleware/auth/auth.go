package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
	"ascend/pkg/requestcontext"
)

// JWTValidator defines the interface for validating bearer tokens issued by
// the external identity service.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we rely on from a validated token.
type JWTClaims struct {
	ParticipantID string
	JTI           string
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth validates the bearer token and stores the participant id in the
// request context.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			participantID, err := domain.ParseParticipantID(claims.ParticipantID)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - token subject is not a participant",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid token subject")
				return
			}

			ctx = requestcontext.WithParticipantID(ctx, participantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSelf reports whether the authenticated participant may act on id.
// Participants only see their own network and ledger.
func RequireSelf(ctx context.Context, id domain.ParticipantID) error {
	caller := requestcontext.ParticipantID(ctx)
	if caller.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if caller != id {
		return dErrors.New(dErrors.CodeForbidden, "participants may only access their own records").
			WithDetail("participant_id", id.String())
	}
	return nil
}
