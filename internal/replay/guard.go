// Package replay rejects duplicate proof submissions. A fingerprint derived
// from the submission context is held for a short TTL; a second submission
// with the same fingerprint inside that window is a replay.
//
// Only proofs carrying a challenge or domain are fingerprinted. A raw
// credential check has no session-binding context, so replaying it proves
// nothing.
package replay

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"
)

// Fingerprint identifies a specific proof submission context.
type Fingerprint struct {
	Format    string
	Challenge string
	Domain    string
	// ProofDigest is the sha256 hex of the proof bytes or canonical digest.
	ProofDigest string
}

// NewFingerprint derives a fingerprint from submission fields and raw proof
// bytes.
func NewFingerprint(format, challenge, domain string, proofBytes []byte) Fingerprint {
	sum := sha256.Sum256(proofBytes)
	return Fingerprint{
		Format:      format,
		Challenge:   challenge,
		Domain:      domain,
		ProofDigest: hex.EncodeToString(sum[:]),
	}
}

// Guarded reports whether this submission is subject to replay protection.
func (f Fingerprint) Guarded() bool {
	return f.Challenge != "" || f.Domain != ""
}

func (f Fingerprint) key() string {
	return f.Format + "|" + f.Challenge + "|" + f.Domain + "|" + f.ProofDigest
}

// Guard is the TTL fingerprint cache. Entries are pruned opportunistically on
// every insert attempt and periodically by a background sweep.
type Guard struct {
	ttl    time.Duration
	sweep  time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]time.Time
	stop    chan struct{}
	stopped sync.Once

	// now is replaceable in tests.
	now func() time.Time
}

// Option configures the Guard.
type Option func(*Guard)

// WithLogger sets the logger for the guard.
func WithLogger(l *slog.Logger) Option {
	return func(g *Guard) {
		g.logger = l
	}
}

// WithClock overrides the time source (for testing TTL expiry).
func WithClock(now func() time.Time) Option {
	return func(g *Guard) {
		g.now = now
	}
}

// NewGuard creates a replay guard with the given fingerprint TTL.
func NewGuard(ttl time.Duration, opts ...Option) *Guard {
	g := &Guard{
		ttl:     ttl,
		sweep:   ttl / 2,
		logger:  slog.Default(),
		entries: make(map[string]time.Time),
		stop:    make(chan struct{}),
		now:     time.Now,
	}
	if g.sweep <= 0 {
		g.sweep = time.Minute
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// MarkIfFirstSeen records the fingerprint if it has not been seen inside the
// TTL window. Returns true when the submission is accepted as first-seen,
// false when it is a replay. Unguarded fingerprints are always accepted.
func (g *Guard) MarkIfFirstSeen(fp Fingerprint) bool {
	if !fp.Guarded() {
		return true
	}

	key := fp.key()
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	g.pruneLocked(now)

	if expiry, ok := g.entries[key]; ok && expiry.After(now) {
		return false
	}
	g.entries[key] = now.Add(g.ttl)
	return true
}

// Len returns the number of live fingerprints.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

// Start launches the background sweep. It runs until ctx is done or Stop is
// called.
func (g *Guard) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(g.sweep)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-g.stop:
				return
			case <-ticker.C:
				g.mu.Lock()
				removed := g.pruneLocked(g.now())
				g.mu.Unlock()
				if removed > 0 {
					g.logger.Debug("replay guard sweep", "removed", removed)
				}
			}
		}
	}()
}

// Stop halts the background sweep.
func (g *Guard) Stop() {
	g.stopped.Do(func() { close(g.stop) })
}

func (g *Guard) pruneLocked(now time.Time) int {
	removed := 0
	for key, expiry := range g.entries {
		if !expiry.After(now) {
			delete(g.entries, key)
			removed++
		}
	}
	return removed
}
