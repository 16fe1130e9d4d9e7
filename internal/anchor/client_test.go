package anchor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUnconfiguredClientStartsDeferred(t *testing.T) {
	c := NewClient(context.Background(), Config{})

	assert.Equal(t, ModeDeferred, c.Mode())
}

func TestDeferredVerifyIsStructured(t *testing.T) {
	c := NewClient(context.Background(), Config{})

	res := c.Verify(context.Background(), "deadbeef")
	assert.False(t, res.Configured)
	assert.False(t, res.Exists)
}

func TestDeferredAnchorIsStructured(t *testing.T) {
	c := NewClient(context.Background(), Config{})

	res := c.Anchor(context.Background(), "deadbeef")
	assert.False(t, res.Success)
	assert.True(t, res.NotConfigured)
	assert.NotEmpty(t, res.Error)
}

func TestDeferredIsRevoked(t *testing.T) {
	c := NewClient(context.Background(), Config{})

	revoked, ok := c.IsRevoked(context.Background(), "deadbeef")
	assert.False(t, revoked)
	assert.False(t, ok)
}

func TestWritePolicy(t *testing.T) {
	// Test key from the go-ethereum book examples; carries no real funds.
	const testKey = "fad9c8855b740a0b7ed4c221dbad0f33a83a49cad6b3fe8d5817ac83d38b6a19"

	tests := []struct {
		name    string
		cfg     Config
		allowed bool
	}{
		{
			name:    "no key disables writes",
			cfg:     Config{RPCURL: "http://localhost:0", ContractAddress: "0x1", Network: "sepolia"},
			allowed: false,
		},
		{
			name: "testnet with key",
			cfg: Config{
				RPCURL: "http://localhost:0", ContractAddress: "0x1",
				Network: "sepolia", PrivateKeyHex: testKey,
			},
			allowed: true,
		},
		{
			name: "mainnet blocked without flag",
			cfg: Config{
				RPCURL: "http://localhost:0", ContractAddress: "0x1",
				Network: "mainnet", PrivateKeyHex: testKey,
			},
			allowed: false,
		},
		{
			name: "mainnet with explicit enablement",
			cfg: Config{
				RPCURL: "http://localhost:0", ContractAddress: "0x1",
				Network: "mainnet", PrivateKeyHex: testKey, EnableMainnetWrites: true,
			},
			allowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			tt.cfg.CallTimeout = 50 * time.Millisecond

			c := NewClient(ctx, tt.cfg)
			assert.Equal(t, tt.allowed, c.WritesAllowed())
		})
	}
}
