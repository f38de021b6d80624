// Package admin guards operator routes (plan publication, sale intake, line
// approval, payout settlement) behind a shared static token.
package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	dErrors "ascend/pkg/domain-errors"
	"ascend/pkg/platform/httputil"
	"ascend/pkg/requestcontext"
)

// HeaderAdminToken carries the operator token.
const HeaderAdminToken = "X-Admin-Token"

// ActorAdmin is recorded as the actor on audit events for admin routes.
const ActorAdmin = "admin"

var errAdminToken = dErrors.New(dErrors.CodeUnauthorized, "admin token required")

// RequireAdminToken rejects requests whose token does not match. An empty
// configured token closes the admin surface entirely.
func RequireAdminToken(token string, logger *slog.Logger) func(http.Handler) http.Handler {
	want := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get(HeaderAdminToken))
			if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
				logger.WarnContext(r.Context(), "admin route rejected",
					"path", r.URL.Path,
					"token_present", len(got) > 0,
					"request_id", requestcontext.RequestID(r.Context()),
				)
				httputil.WriteError(w, errAdminToken)
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithActorID(r.Context(), ActorAdmin)))
		})
	}
}
