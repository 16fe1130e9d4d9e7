package verification

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// ResultStore caches verification results and bulk job records by ID.
// It is an explicitly constructed, injectable object owned by the service;
// lifetime and test isolation are the caller's choice, not a process global.
type ResultStore struct {
	results *gocache.Cache
	bulk    *gocache.Cache
}

// NewResultStore creates a result store with the given retention TTL.
func NewResultStore(ttl time.Duration) *ResultStore {
	cleanup := ttl / 2
	if cleanup <= 0 {
		cleanup = time.Minute
	}
	return &ResultStore{
		results: gocache.New(ttl, cleanup),
		bulk:    gocache.New(ttl, cleanup),
	}
}

// PutResult caches a result under its verification ID.
func (s *ResultStore) PutResult(r *Result) {
	s.results.SetDefault(r.VerificationID, r)
}

// GetResult returns a cached result by verification ID.
func (s *ResultStore) GetResult(id string) (*Result, bool) {
	v, ok := s.results.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*Result), true
}

// PutBulk caches a bulk job record under its job ID.
func (s *ResultStore) PutBulk(b *BulkResult) {
	s.bulk.SetDefault(b.ID, b)
}

// GetBulk returns a cached bulk job record by job ID.
func (s *ResultStore) GetBulk(id string) (*BulkResult, bool) {
	v, ok := s.bulk.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*BulkResult), true
}
