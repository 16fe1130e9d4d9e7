package issuer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	dErrors "proofgate/pkg/domain-errors"
)

// RegistryClient calls the external issuer trust registry over HTTP.
// Retries and backoff live in the transport; callers see one outcome.
type RegistryClient struct {
	baseURL    string
	httpClient *http.Client
}

// RegistryClientOption configures the RegistryClient.
type RegistryClientOption func(*RegistryClient)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(c *http.Client) RegistryClientOption {
	return func(rc *RegistryClient) {
		rc.httpClient = c
	}
}

// NewRegistryClient creates a registry client with retrying transport.
func NewRegistryClient(baseURL string, timeout time.Duration, opts ...RegistryClientOption) *RegistryClient {
	retry := retryablehttp.NewClient()
	retry.RetryMax = 2
	retry.Logger = nil

	rc := &RegistryClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: &retryablehttp.RoundTripper{Client: retry},
		},
	}
	for _, opt := range opts {
		opt(rc)
	}
	return rc
}

// registryResponse is the wire shape of a registry lookup.
type registryResponse struct {
	DID         string `json:"did"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	TrustLevel  string `json:"trustLevel"`
	TrustStatus string `json:"trustStatus"`
	Verified    bool   `json:"verified"`
}

// Lookup fetches trust information for a DID. A 404 maps to CodeNotFound so
// the resolver can distinguish unknown issuers from registry outages.
func (c *RegistryClient) Lookup(ctx context.Context, did string) (*Info, error) {
	endpoint := fmt.Sprintf("%s/registry/issuers/did/%s", c.baseURL, url.PathEscape(did))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "build registry request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "issuer registry unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "read registry response")
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, dErrors.New(dErrors.CodeNotFound, "issuer not in registry")
	default:
		return nil, dErrors.New(dErrors.CodeUnavailable,
			fmt.Sprintf("issuer registry returned %d", resp.StatusCode))
	}

	var rr registryResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "malformed registry response")
	}

	info := &Info{
		DID:        rr.DID,
		Name:       rr.Name,
		Type:       rr.Type,
		TrustLevel: rr.TrustLevel,
		Verified:   rr.Verified || rr.TrustStatus == "trusted",
	}
	if info.DID == "" {
		info.DID = did
	}
	return info, nil
}
