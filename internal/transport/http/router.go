// Package httptransport wires every feature handler into one router. The
// transport layer stays thin: handlers delegate to domain services and hold
// no business logic of their own.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"proofgate/internal/platform/health"
	"proofgate/internal/platform/middleware"
)

// Registrar is implemented by every feature handler.
type Registrar interface {
	Register(r chi.Router)
}

// Options carries the router's dependencies.
type Options struct {
	Logger       *slog.Logger
	Health       *health.Handler
	MaxBodyBytes int64

	// Handlers are mounted in order under the shared middleware stack.
	Handlers []Registrar
}

// NewRouter wires all public endpoints with middleware.
func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(opts.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(opts.Logger))
	r.Use(middleware.Timeout(30 * time.Second))

	if opts.Health != nil {
		opts.Health.Register(r)
	}
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		if opts.MaxBodyBytes > 0 {
			r.Use(middleware.BodyLimit(opts.MaxBodyBytes))
		}
		for _, h := range opts.Handlers {
			h.Register(r)
		}
	})

	return r
}
