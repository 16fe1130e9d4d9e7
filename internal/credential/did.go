package credential

import "strings"

// Supported DID methods for local resolution. Other syntactically valid DIDs
// pass signature checks but downgrade the DID resolution check to a warning.
var supportedDIDMethods = map[string]bool{
	"key": true,
	"web": true,
}

// ValidDID reports whether s is a syntactically valid DID:
// did:<method>:<method-specific-id> with a lowercase alphanumeric method.
func ValidDID(s string) bool {
	if !strings.HasPrefix(s, "did:") {
		return false
	}
	rest := s[len("did:"):]
	method, id, found := strings.Cut(rest, ":")
	if !found || method == "" || id == "" {
		return false
	}
	for _, r := range method {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// SupportedDIDMethod reports whether the DID uses a method this service can
// resolve locally.
func SupportedDIDMethod(s string) bool {
	if !ValidDID(s) {
		return false
	}
	method, _, _ := strings.Cut(s[len("did:"):], ":")
	return supportedDIDMethods[method]
}
