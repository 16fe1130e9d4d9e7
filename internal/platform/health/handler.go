// Package health exposes liveness and readiness probes for the service.
package health

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"proofgate/pkg/platform/httputil"
)

// Version is set at build time via ldflags.
var Version = "dev"

// CheckFunc probes one dependency. Nil means healthy.
type CheckFunc func() error

// Handler answers health probes. Liveness is unconditional; readiness folds
// in every registered dependency check, and the top-level status endpoint
// reports identity facts a dashboard wants: version, network, uptime.
type Handler struct {
	startedAt time.Time
	network   string

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// New creates a health handler reporting against the given chain network.
func New(network string) *Handler {
	return &Handler{
		startedAt: time.Now(),
		network:   network,
		checks:    make(map[string]CheckFunc),
	}
}

// RegisterCheck adds a named dependency probe to the readiness endpoint.
func (h *Handler) RegisterCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Register mounts the probe routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/healthz", h.handleStatus)
	r.Get("/healthz/live", h.handleLiveness)
	r.Get("/healthz/ready", h.handleReadiness)
}

func (h *Handler) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// DependencyState is one readiness probe outcome.
type DependencyState struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ReadinessResponse aggregates all dependency probes.
type ReadinessResponse struct {
	Status       string            `json:"status"`
	Dependencies []DependencyState `json:"dependencies,omitempty"`
}

func (h *Handler) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	names := make([]string, 0, len(h.checks))
	checks := make(map[string]CheckFunc, len(h.checks))
	for name, check := range h.checks {
		names = append(names, name)
		checks[name] = check
	}
	h.mu.RUnlock()
	sort.Strings(names)

	resp := ReadinessResponse{Status: "ready"}
	status := http.StatusOK
	for _, name := range names {
		state := DependencyState{Name: name, Status: "up"}
		if err := checks[name](); err != nil {
			state.Status = "down"
			state.Error = err.Error()
			resp.Status = "not_ready"
			status = http.StatusServiceUnavailable
		}
		resp.Dependencies = append(resp.Dependencies, state)
	}

	httputil.WriteJSON(w, status, resp)
}

// StatusResponse identifies the running instance.
type StatusResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	ChainNetwork  string `json:"chain_network"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Timestamp     string `json:"timestamp"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, StatusResponse{
		Status:        "healthy",
		Version:       Version,
		ChainNetwork:  h.network,
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	})
}
