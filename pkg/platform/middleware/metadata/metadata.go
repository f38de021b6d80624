// Package metadata records who is calling: the client address used for rate
// limiting and the user agent written to the access log.
package metadata

import (
	"net"
	"net/http"
	"strings"

	"ascend/pkg/requestcontext"
)

const unknownClient = "unknown"

// ClientMetadata stores the client IP and User-Agent on the request context.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r), r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIPFromRequest prefers the proxy headers, taking the left-most
// forwarded hop, then falls back to the socket peer. Header values that do
// not parse as an IP are ignored.
func ClientIPFromRequest(r *http.Request) string {
	if hop, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); validIP(hop) {
		return strings.TrimSpace(hop)
	}
	if xri := r.Header.Get("X-Real-IP"); validIP(xri) {
		return strings.TrimSpace(xri)
	}
	if r.RemoteAddr == "" {
		return unknownClient
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func validIP(s string) bool {
	return net.ParseIP(strings.TrimSpace(s)) != nil
}
