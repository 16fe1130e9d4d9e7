// Package revocation queries the issuer's credential status endpoint.
// Outcomes are data for the pipeline, not errors: only transport-level
// surprises surface as Go errors, and even those map to warning checks.
package revocation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Outcome classifies a status lookup for the pipeline.
type Outcome string

const (
	// OutcomeActive means the issuer confirms the credential is not revoked.
	OutcomeActive Outcome = "active"
	// OutcomeRevoked means the issuer explicitly flags the credential revoked.
	OutcomeRevoked Outcome = "revoked"
	// OutcomeUnknown means the issuer does not know the credential (404).
	OutcomeUnknown Outcome = "unknown"
	// OutcomeForbidden means the status endpoint denied access (401/403).
	OutcomeForbidden Outcome = "forbidden"
	// OutcomeUnreachable means the endpoint could not be consulted.
	OutcomeUnreachable Outcome = "unreachable"
)

// Status is the result of a credential status lookup.
type Status struct {
	Outcome Outcome
	Detail  string
}

// Client calls GET {base}/credentials/{id}/status.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// NewClient creates a status client with retrying transport.
func NewClient(baseURL string, timeout time.Duration, opts ...ClientOption) *Client {
	retry := retryablehttp.NewClient()
	retry.RetryMax = 2
	retry.Logger = nil

	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: &retryablehttp.RoundTripper{Client: retry},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// statusResponse is the wire shape of the issuer status endpoint.
type statusResponse struct {
	Revoked *bool `json:"revoked,omitempty"`
	Valid   *bool `json:"valid,omitempty"`
}

// Status looks up the revocation state of a credential by its ID.
// Every reachable-endpoint case maps to an Outcome; the error return is
// reserved for request construction failures.
func (c *Client) Status(ctx context.Context, credentialID string) (Status, error) {
	endpoint := fmt.Sprintf("%s/credentials/%s/status", c.baseURL, url.PathEscape(credentialID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return Status{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Status{Outcome: OutcomeUnreachable, Detail: err.Error()}, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Status{Outcome: OutcomeUnreachable, Detail: err.Error()}, nil
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return Status{Outcome: OutcomeUnknown, Detail: "credential unknown to issuer"}, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return Status{Outcome: OutcomeForbidden, Detail: "status endpoint denied access"}, nil
	default:
		return Status{
			Outcome: OutcomeUnreachable,
			Detail:  fmt.Sprintf("status endpoint returned %d", resp.StatusCode),
		}, nil
	}

	var sr statusResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return Status{Outcome: OutcomeUnreachable, Detail: "malformed status response"}, nil
	}

	if sr.Revoked != nil && *sr.Revoked {
		return Status{Outcome: OutcomeRevoked, Detail: "issuer reports credential revoked"}, nil
	}
	if sr.Valid != nil && !*sr.Valid {
		return Status{Outcome: OutcomeRevoked, Detail: "issuer reports credential invalid"}, nil
	}
	return Status{Outcome: OutcomeActive}, nil
}
