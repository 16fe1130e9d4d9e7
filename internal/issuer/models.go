// Package issuer resolves issuer DIDs to trust information, first against a
// local seed table, then against the external issuer trust registry. Results
// are memoized under both the raw DID and its lowercase form.
package issuer

// Info is the cached trust record for an issuer DID.
type Info struct {
	DID        string `json:"did"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	TrustLevel string `json:"trustLevel"`
	Verified   bool   `json:"verified"`
}

// Seed returns the built-in issuer table. These are the issuers the service
// trusts without a registry round trip.
func Seed() []Info {
	return []Info{
		{
			DID:        "did:web:registry.gov.example",
			Name:       "National Credential Registry",
			Type:       "government",
			TrustLevel: "high",
			Verified:   true,
		},
		{
			DID:        "did:web:university.example",
			Name:       "Example University",
			Type:       "education",
			TrustLevel: "high",
			Verified:   true,
		},
		{
			DID:        "did:web:issuer.sandbox.example",
			Name:       "Sandbox Issuer",
			Type:       "sandbox",
			TrustLevel: "low",
			Verified:   false,
		},
	}
}
