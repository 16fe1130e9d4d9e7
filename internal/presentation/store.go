package presentation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"proofgate/internal/persistence"
)

const snapshotSection = "presentation_requests"

// RequestStore holds open presentation requests. All mutations flow through
// the store so the persisted snapshot always reflects the in-memory state.
type RequestStore struct {
	mu       sync.RWMutex
	requests map[string]*Request
	hydrated bool

	repo   *persistence.Store
	logger *slog.Logger
}

// StoreOption configures the RequestStore.
type StoreOption func(*RequestStore)

// WithStoreLogger sets the logger for the store.
func WithStoreLogger(l *slog.Logger) StoreOption {
	return func(s *RequestStore) {
		s.logger = l
	}
}

// NewRequestStore creates a request store. repo may be nil, in which case
// requests live in memory only.
func NewRequestStore(repo *persistence.Store, opts ...StoreOption) *RequestStore {
	s := &RequestStore{
		requests: make(map[string]*Request),
		repo:     repo,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hydrate loads persisted requests, once. Later calls are no-ops.
func (s *RequestStore) Hydrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hydrated || s.repo == nil {
		s.hydrated = true
		return nil
	}

	snap, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	restored := make(map[string]*Request)
	if _, err := snap.Section(snapshotSection, &restored); err != nil {
		return err
	}
	for id, req := range restored {
		s.requests[id] = req
	}
	s.hydrated = true
	return nil
}

// Put stores an open request.
func (s *RequestStore) Put(ctx context.Context, req *Request) error {
	s.mu.Lock()
	s.requests[req.ID] = req
	s.mu.Unlock()
	return s.persist(ctx)
}

// Get returns an open request by ID.
func (s *RequestStore) Get(id string) (*Request, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	return req, ok
}

// Delete removes a request. Consumption and expiry both end here.
func (s *RequestStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.requests, id)
	s.mu.Unlock()
	return s.persist(ctx)
}

// PruneExpired removes every request older than the TTL and returns how many
// were dropped.
func (s *RequestStore) PruneExpired(ctx context.Context, ttl time.Duration, now time.Time) int {
	s.mu.Lock()
	pruned := 0
	for id, req := range s.requests {
		if req.Expired(ttl, now) {
			delete(s.requests, id)
			pruned++
		}
	}
	s.mu.Unlock()

	if pruned > 0 {
		if err := s.persist(ctx); err != nil {
			s.logger.WarnContext(ctx, "failed to persist after prune", "error", err)
		}
	}
	return pruned
}

// Len returns the number of open requests.
func (s *RequestStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.requests)
}

func (s *RequestStore) persist(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	s.mu.RLock()
	copied := make(map[string]*Request, len(s.requests))
	for id, req := range s.requests {
		copied[id] = req
	}
	s.mu.RUnlock()
	return s.repo.Save(ctx, snapshotSection, copied)
}
