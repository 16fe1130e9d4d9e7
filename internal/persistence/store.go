// Package persistence offers a snapshot store for component state.
//
// Writes are serialized through a single writer goroutine fed by a channel,
// so concurrent save triggers can never interleave partial writes. Loads go
// through singleflight: state is read from disk exactly once, and concurrent
// early callers share the in-flight read instead of issuing duplicates.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"

	dErrors "proofgate/pkg/domain-errors"
)

// Snapshot is the on-disk document: one JSON section per component.
type Snapshot map[string]json.RawMessage

// Section decodes a named section into v. A missing section leaves v
// untouched and returns false.
func (s Snapshot) Section(name string, v any) (bool, error) {
	raw, ok := s[name]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode snapshot section %q: %w", name, err)
	}
	return true, nil
}

type saveRequest struct {
	section string
	data    json.RawMessage
	done    chan error
}

// Store persists component state snapshots to a single JSON file.
type Store struct {
	path   string
	logger *slog.Logger

	loadGroup singleflight.Group
	mu        sync.Mutex
	loaded    bool
	current   Snapshot

	saves    chan saveRequest
	stopOnce sync.Once
	stopped  chan struct{}
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// NewStore creates a snapshot store writing to path and starts its writer.
func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path:    path,
		logger:  slog.Default(),
		current: Snapshot{},
		saves:   make(chan saveRequest, 64),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.writer()
	return s
}

// Load reads the snapshot from disk, once. Later calls return a copy of the
// cached in-memory snapshot, detached from the map the writer keeps current,
// so callers can hold or iterate it while saves continue.
func (s *Store) Load(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if s.loaded {
		snap := maps.Clone(s.current)
		s.mu.Unlock()
		return snap, nil
	}
	s.mu.Unlock()

	v, err, _ := s.loadGroup.Do("load", func() (any, error) {
		snap, err := s.readFile()
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.current = snap
		s.loaded = true
		s.mu.Unlock()
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return maps.Clone(v.(Snapshot)), nil
}

// Save serializes a component's state into its section and queues the write.
// It blocks until the write completes so callers observe durability errors.
func (s *Store) Save(ctx context.Context, section string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "encode snapshot section")
	}

	// Reject before queueing once closed; the writer's final drain only
	// covers requests that were queued before Close.
	select {
	case <-s.stopped:
		return dErrors.New(dErrors.CodeUnavailable, "snapshot store closed")
	default:
	}

	req := saveRequest{section: section, data: raw, done: make(chan error, 1)}
	select {
	case s.saves <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopped:
		return dErrors.New(dErrors.CodeUnavailable, "snapshot store closed")
	}

	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the writer after draining queued saves.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stopped) })
}

func (s *Store) writer() {
	for {
		select {
		case req := <-s.saves:
			req.done <- s.apply(req)
		case <-s.stopped:
			// Drain whatever was queued before shutdown.
			for {
				select {
				case req := <-s.saves:
					req.done <- s.apply(req)
				default:
					return
				}
			}
		}
	}
}

func (s *Store) apply(req saveRequest) error {
	s.mu.Lock()
	s.current[req.section] = req.data
	snap := make(Snapshot, len(s.current))
	for k, v := range s.current {
		snap[k] = v
	}
	s.loaded = true
	s.mu.Unlock()

	if err := s.writeFile(snap); err != nil {
		s.logger.Error("snapshot write failed", "section", req.section, "error", err)
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "persist snapshot")
	}
	return nil
}

func (s *Store) readFile() (Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// First run: empty state, not an error.
			return Snapshot{}, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "read snapshot")
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "decode snapshot")
	}
	if snap == nil {
		snap = Snapshot{}
	}
	return snap, nil
}

// writeFile writes atomically via a temp file rename so a crash mid-write
// never leaves a truncated snapshot.
func (s *Store) writeFile(snap Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
