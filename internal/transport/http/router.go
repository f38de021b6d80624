package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"ascend/internal/platform/metrics"
	"ascend/pkg/platform/httputil"
	"ascend/pkg/platform/middleware/admin"
	"ascend/pkg/platform/middleware/auth"
	"ascend/pkg/platform/middleware/metadata"
	"ascend/pkg/platform/middleware/request"
	"ascend/pkg/platform/middleware/requesttime"
)

// AdminPrefix is where every operator route is mounted.
const AdminPrefix = "/admin"

// Module is a domain handler. It may additionally implement PublicModule or
// AdminModule to expose routes outside the participant group.
type Module interface {
	Register(r chi.Router)
}

// PublicModule mounts routes that need no credentials.
type PublicModule interface {
	RegisterPublic(r chi.Router)
}

// AdminModule mounts operator routes behind the admin token.
type AdminModule interface {
	RegisterAdmin(r chi.Router)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Options configures the router. Zero values disable the matching concern.
type Options struct {
	Logger         *slog.Logger
	Validator      auth.JWTValidator
	AdminToken     string
	CORSOrigins    []string
	RequestTimeout time.Duration
	RateLimiter    *request.RateLimiter
	Metrics        *metrics.Metrics
	HealthChecks   map[string]HealthCheck
}

// NewRouter wires the middleware chain and mounts every module in three
// groups: public, participant (bearer token) and admin (admin token).
func NewRouter(opts Options, modules ...Module) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(logger))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(logger))
	r.Use(opts.Metrics.Middleware)
	if opts.RequestTimeout > 0 {
		r.Use(request.Timeout(opts.RequestTimeout))
	}

	r.Get("/healthz", healthHandler(opts.HealthChecks))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if opts.RateLimiter != nil {
			r.Use(opts.RateLimiter.Middleware)
		}

		for _, m := range modules {
			if p, ok := m.(PublicModule); ok {
				p.RegisterPublic(r)
			}
		}

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(opts.Validator, logger))
			for _, m := range modules {
				m.Register(r)
			}
		})
	})

	r.Route(AdminPrefix, func(r chi.Router) {
		r.Use(admin.RequireAdminToken(opts.AdminToken, logger))
		for _, m := range modules {
			if a, ok := m.(AdminModule); ok {
				a.RegisterAdmin(r)
			}
		}
	})

	if len(opts.CORSOrigins) == 0 {
		return r
	}
	return cors.New(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", request.HeaderRequestID},
		ExposedHeaders:   []string{request.HeaderRequestID},
		AllowCredentials: true,
	}).Handler(r)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(names) > 0 {
			resp.Checks = make(map[string]string, len(names))
		}
		for _, name := range names {
			if err := checks[name](r.Context()); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
