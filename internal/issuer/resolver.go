package issuer

import (
	"context"
	"log/slog"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	dErrors "proofgate/pkg/domain-errors"
	"proofgate/internal/platform/metrics"
)

// Lookuper is the remote-registry dependency of the resolver.
type Lookuper interface {
	Lookup(ctx context.Context, did string) (*Info, error)
}

// Resolver resolves issuer DIDs: seed table first, then a memoized remote
// lookup. At most one remote attempt is made per resolution call.
type Resolver struct {
	remote  Lookuper
	cache   *gocache.Cache
	seed    map[string]Info
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures the Resolver.
type Option func(*Resolver)

// WithLogger sets the logger for the resolver.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// WithMetrics sets the metrics collector for the resolver.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// NewResolver creates a resolver over the given remote client. A nil remote
// disables registry lookups; only the seed table answers.
func NewResolver(remote Lookuper, cacheTTL time.Duration, opts ...Option) *Resolver {
	seed := make(map[string]Info)
	for _, info := range Seed() {
		seed[strings.ToLower(info.DID)] = info
	}

	r := &Resolver{
		remote: remote,
		cache:  gocache.New(cacheTTL, cacheTTL/2),
		seed:   seed,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns trust information for the issuer DID. CodeNotFound means no
// issuer is known anywhere; CodeUnavailable means the registry could not be
// consulted (callers downgrade, not fail).
func (r *Resolver) Resolve(ctx context.Context, did string) (*Info, error) {
	if did == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "empty issuer did")
	}

	if info, ok := r.seed[strings.ToLower(did)]; ok {
		r.count("seed")
		return &info, nil
	}

	if cached, ok := r.cache.Get(did); ok {
		r.count("cache")
		info := cached.(Info)
		return &info, nil
	}
	if cached, ok := r.cache.Get(strings.ToLower(did)); ok {
		r.count("cache")
		info := cached.(Info)
		return &info, nil
	}

	if r.remote == nil {
		r.count("miss")
		return nil, dErrors.New(dErrors.CodeNotFound, "issuer not in local registry")
	}

	info, err := r.remote.Lookup(ctx, did)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			r.count("miss")
		} else {
			r.logger.WarnContext(ctx, "issuer registry lookup failed", "did", did, "error", err)
		}
		return nil, err
	}

	// Memoize under both the raw DID and its lowercase form so later
	// lookups hit regardless of caller casing.
	r.cache.SetDefault(did, *info)
	r.cache.SetDefault(strings.ToLower(did), *info)
	r.count("remote")
	return info, nil
}

func (r *Resolver) count(source string) {
	if r.metrics != nil {
		r.metrics.IssuerLookupsTotal.WithLabelValues(source).Inc()
	}
}
