package issuer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "proofgate/pkg/domain-errors"
)

type countingLookuper struct {
	calls atomic.Int32
	info  *Info
	err   error
}

func (c *countingLookuper) Lookup(_ context.Context, _ string) (*Info, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return c.info, nil
}

func TestResolveSeedIssuer(t *testing.T) {
	remote := &countingLookuper{err: dErrors.New(dErrors.CodeUnavailable, "should not be called")}
	r := NewResolver(remote, time.Minute)

	info, err := r.Resolve(context.Background(), "did:web:registry.gov.example")
	require.NoError(t, err)
	assert.True(t, info.Verified)
	assert.Equal(t, "high", info.TrustLevel)
	assert.Zero(t, remote.calls.Load())
}

func TestResolveSeedIsCaseInsensitive(t *testing.T) {
	r := NewResolver(nil, time.Minute)

	info, err := r.Resolve(context.Background(), "did:web:Registry.GOV.example")
	require.NoError(t, err)
	assert.True(t, info.Verified)
}

func TestResolveRemoteMemoized(t *testing.T) {
	remote := &countingLookuper{info: &Info{
		DID:        "did:web:partner.example",
		Name:       "Partner",
		TrustLevel: "medium",
		Verified:   true,
	}}
	r := NewResolver(remote, time.Minute)

	first, err := r.Resolve(context.Background(), "did:web:Partner.example")
	require.NoError(t, err)
	assert.True(t, first.Verified)
	require.EqualValues(t, 1, remote.calls.Load())

	// Cache hit, both original and lowercase forms.
	_, err = r.Resolve(context.Background(), "did:web:Partner.example")
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), "did:web:partner.example")
	require.NoError(t, err)
	assert.EqualValues(t, 1, remote.calls.Load())
}

func TestResolveUnknownIssuer(t *testing.T) {
	remote := &countingLookuper{err: dErrors.New(dErrors.CodeNotFound, "issuer not in registry")}
	r := NewResolver(remote, time.Minute)

	_, err := r.Resolve(context.Background(), "did:web:nobody.example")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestResolveNilRemote(t *testing.T) {
	r := NewResolver(nil, time.Minute)

	_, err := r.Resolve(context.Background(), "did:web:nobody.example")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestResolveEmptyDID(t *testing.T) {
	r := NewResolver(nil, time.Minute)

	_, err := r.Resolve(context.Background(), "")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestRegistryClientLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/registry/issuers/did/did:web:trusted.example":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"did":"did:web:trusted.example","name":"Trusted","trustStatus":"trusted","trustLevel":"high"}`))
		case "/registry/issuers/did/did:web:pending.example":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"did":"did:web:pending.example","name":"Pending","trustStatus":"pending"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewRegistryClient(srv.URL, 5*time.Second, WithHTTPClient(srv.Client()))

	trusted, err := client.Lookup(context.Background(), "did:web:trusted.example")
	require.NoError(t, err)
	assert.True(t, trusted.Verified)

	pending, err := client.Lookup(context.Background(), "did:web:pending.example")
	require.NoError(t, err)
	assert.False(t, pending.Verified)

	_, err = client.Lookup(context.Background(), "did:web:absent.example")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestRegistryClientUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	srv.Close() // immediately unreachable

	client := NewRegistryClient(srv.URL, time.Second)

	_, err := client.Lookup(context.Background(), "did:web:any.example")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}
