package credential

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidDID(t *testing.T) {
	tests := []struct {
		did  string
		want bool
	}{
		{did: "did:key:z6MkHaXU2", want: true},
		{did: "did:web:issuer.example", want: true},
		{did: "did:ion:EiClkZMDxPK", want: true},
		{did: "", want: false},
		{did: "did:", want: false},
		{did: "did:key", want: false},
		{did: "did:key:", want: false},
		{did: "did:KEY:abc", want: false},
		{did: "https://issuer.example", want: false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidDID(tt.did), "did=%q", tt.did)
	}
}

func TestSupportedDIDMethod(t *testing.T) {
	assert.True(t, SupportedDIDMethod("did:key:z6Mk"))
	assert.True(t, SupportedDIDMethod("did:web:issuer.example"))
	assert.False(t, SupportedDIDMethod("did:ion:EiClkZMDxPK"))
	assert.False(t, SupportedDIDMethod("not-a-did"))
}
