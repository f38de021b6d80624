package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
	"ascend/pkg/requestcontext"
)

type validatorFunc func(string) (*JWTClaims, error)

func (f validatorFunc) ValidateToken(token string) (*JWTClaims, error) { return f(token) }

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	participant := domain.NewParticipantID()
	validator := validatorFunc(func(token string) (*JWTClaims, error) {
		switch token {
		case "good":
			return &JWTClaims{ParticipantID: participant.String()}, nil
		case "not-a-participant":
			return &JWTClaims{ParticipantID: "svc-batch"}, nil
		default:
			return nil, errors.New("bad signature")
		}
	})

	var seen domain.ParticipantID
	h := RequireAuth(validator, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.ParticipantID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	serve := func(header string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	t.Run("valid token sets the participant", func(t *testing.T) {
		w := serve("Bearer good")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, participant, seen)
	})

	for name, header := range map[string]string{
		"missing header":        "",
		"wrong scheme":          "Basic good",
		"invalid token":         "Bearer forged",
		"non participant token": "Bearer not-a-participant",
	} {
		t.Run(name, func(t *testing.T) {
			w := serve(header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"unauthorized"`)
		})
	}
}

func TestRequireSelf(t *testing.T) {
	self := domain.NewParticipantID()

	t.Run("own records", func(t *testing.T) {
		ctx := requestcontext.WithParticipantID(context.Background(), self)
		require.NoError(t, RequireSelf(ctx, self))
	})

	t.Run("someone else's records", func(t *testing.T) {
		ctx := requestcontext.WithParticipantID(context.Background(), self)
		err := RequireSelf(ctx, domain.NewParticipantID())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("anonymous", func(t *testing.T) {
		err := RequireSelf(context.Background(), self)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
