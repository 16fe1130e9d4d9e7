// Package anchor wraps the on-chain credential registry contract.
//
// The client is deliberately non-fatal: a missing contract address, absent
// bytecode, or an unreachable RPC endpoint puts it into deferred mode where
// every call returns a structured "not configured" result. Chain
// unavailability degrades verification confidence; it never crashes a call.
package anchor

import (
	"context"
	"crypto/ecdsa"
	"log/slog"
	"math/big"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"proofgate/internal/platform/metrics"
)

// registryABI is the external surface of the credential registry contract.
// Only these three methods are consumed; the contract's internals are out of
// scope.
const registryABI = `[
	{"name":"anchorCredential","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"credentialHash","type":"bytes32"}],"outputs":[]},
	{"name":"verifyCredential","type":"function","stateMutability":"view",
	 "inputs":[{"name":"credentialHash","type":"bytes32"}],
	 "outputs":[{"name":"exists","type":"bool"},{"name":"isValid","type":"bool"},
	            {"name":"issuer","type":"address"},{"name":"anchoredAt","type":"uint256"},
	            {"name":"isRevoked","type":"bool"}]},
	{"name":"isRevoked","type":"function","stateMutability":"view",
	 "inputs":[{"name":"credentialHash","type":"bytes32"}],
	 "outputs":[{"name":"","type":"bool"}]}
]`

// Mode is the client's operational state.
type Mode int32

const (
	// ModeProbing means the startup bytecode check has not completed yet.
	ModeProbing Mode = iota
	// ModeReady means the contract is deployed and callable.
	ModeReady
	// ModeDeferred means no usable contract; calls return NotConfigured.
	ModeDeferred
)

// Config captures chain-level settings for the anchor client.
type Config struct {
	RPCURL          string
	ContractAddress string
	Network         string
	// EnableMainnetWrites gates writes to mainnet independently of whether a
	// contract address is configured.
	EnableMainnetWrites bool
	CallTimeout         time.Duration
	// PrivateKeyHex signs anchor transactions. Empty disables writes.
	PrivateKeyHex string
}

// AnchorResult is the structured outcome of a write.
type AnchorResult struct {
	Success       bool   `json:"success"`
	TxHash        string `json:"txHash,omitempty"`
	Error         string `json:"error,omitempty"`
	NotConfigured bool   `json:"notConfigured,omitempty"`
}

// VerifyResult is the structured outcome of a hash lookup.
type VerifyResult struct {
	Configured bool       `json:"configured"`
	Exists     bool       `json:"exists"`
	IsValid    bool       `json:"isValid"`
	Issuer     string     `json:"issuer,omitempty"`
	AnchoredAt *time.Time `json:"anchoredAt,omitempty"`
	IsRevoked  bool       `json:"isRevoked,omitempty"`
}

// Client talks to the on-chain registry.
type Client struct {
	cfg      Config
	eth      *ethclient.Client
	contract *bind.BoundContract
	address  common.Address
	key      *ecdsa.PrivateKey
	chainID  *big.Int
	mode     atomic.Int32
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets the logger for the client.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMetrics sets the metrics collector for the client.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds the anchor client and kicks off the asynchronous contract
// probe. Construction never fails on chain problems; those only steer the
// client into deferred mode.
func NewClient(ctx context.Context, cfg Config, opts ...Option) *Client {
	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = 10 * time.Second
	}

	c := &Client{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}

	if cfg.RPCURL == "" || cfg.ContractAddress == "" {
		c.logger.Info("anchor client starting in deferred mode",
			"rpc_configured", cfg.RPCURL != "",
			"contract_configured", cfg.ContractAddress != "",
		)
		c.mode.Store(int32(ModeDeferred))
		return c
	}

	if cfg.PrivateKeyHex != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKeyHex, "0x"))
		if err != nil {
			c.logger.Warn("invalid anchor private key, writes disabled", "error", err)
		} else {
			c.key = key
		}
	}

	c.address = common.HexToAddress(cfg.ContractAddress)
	go c.probeContract(ctx)
	return c
}

// Mode returns the current operational mode.
func (c *Client) Mode() Mode {
	return Mode(c.mode.Load())
}

// probeContract dials the RPC endpoint and checks for deployed bytecode at
// the configured address. Any failure parks the client in deferred mode.
func (c *Client) probeContract(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	eth, err := ethclient.DialContext(ctx, c.cfg.RPCURL)
	if err != nil {
		c.logger.Warn("anchor rpc unreachable, deferring chain checks",
			"rpc", c.cfg.RPCURL, "error", err)
		c.mode.Store(int32(ModeDeferred))
		return
	}

	code, err := eth.CodeAt(ctx, c.address, nil)
	if err != nil || len(code) == 0 {
		c.logger.Warn("no contract bytecode at configured address, deferring chain checks",
			"address", c.address.Hex(), "error", err)
		c.mode.Store(int32(ModeDeferred))
		return
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		c.logger.Warn("chain id lookup failed, deferring chain checks", "error", err)
		c.mode.Store(int32(ModeDeferred))
		return
	}

	parsed, err := abi.JSON(strings.NewReader(registryABI))
	if err != nil {
		// Static ABI string; failure here is a programming error, but the
		// client still degrades instead of crashing the process.
		c.logger.Error("registry abi parse failed", "error", err)
		c.mode.Store(int32(ModeDeferred))
		return
	}

	c.eth = eth
	c.chainID = chainID
	c.contract = bind.NewBoundContract(c.address, parsed, eth, eth, eth)
	c.mode.Store(int32(ModeReady))
	c.logger.Info("anchor contract ready",
		"address", c.address.Hex(), "network", c.cfg.Network, "chain_id", chainID.String())
}

// WritesAllowed applies the per-network write policy. Mainnet writes require
// the explicit enablement flag regardless of contract configuration.
func (c *Client) WritesAllowed() bool {
	if strings.EqualFold(c.cfg.Network, "mainnet") && !c.cfg.EnableMainnetWrites {
		return false
	}
	return c.key != nil
}

// Anchor writes a credential hash to the registry. The hash must be a 32-byte
// keccak-256 digest in hex form.
func (c *Client) Anchor(ctx context.Context, hash string) AnchorResult {
	if c.Mode() != ModeReady {
		c.count("anchor", "not_configured")
		return AnchorResult{NotConfigured: true, Error: "anchor registry not configured"}
	}
	if !c.WritesAllowed() {
		c.count("anchor", "policy_blocked")
		return AnchorResult{Error: "writes disabled for network " + c.cfg.Network}
	}

	auth, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		c.count("anchor", "error")
		return AnchorResult{Error: err.Error()}
	}
	auth.Context = ctx
	auth.Value = big.NewInt(0)

	tx, err := c.contract.Transact(auth, "anchorCredential", toBytes32(hash))
	if err != nil {
		c.count("anchor", "error")
		c.logger.WarnContext(ctx, "anchor transaction failed", "error", err)
		return AnchorResult{Error: err.Error()}
	}

	c.count("anchor", "ok")
	return AnchorResult{Success: true, TxHash: tx.Hash().Hex()}
}

// Verify looks up a credential hash on the registry. In deferred mode the
// result carries Configured=false and the pipeline treats it as a warning.
func (c *Client) Verify(ctx context.Context, hash string) VerifyResult {
	if c.Mode() != ModeReady {
		c.count("verify", "not_configured")
		return VerifyResult{Configured: false}
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	var out []any
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "verifyCredential", toBytes32(hash))
	if err != nil {
		c.count("verify", "error")
		c.logger.WarnContext(ctx, "anchor lookup failed", "error", err)
		return VerifyResult{Configured: false}
	}

	result := VerifyResult{Configured: true}
	if len(out) == 5 {
		result.Exists, _ = out[0].(bool)
		result.IsValid, _ = out[1].(bool)
		if addr, ok := out[2].(common.Address); ok && addr != (common.Address{}) {
			result.Issuer = addr.Hex()
		}
		if ts, ok := out[3].(*big.Int); ok && ts.Sign() > 0 {
			t := time.Unix(ts.Int64(), 0).UTC()
			result.AnchoredAt = &t
		}
		result.IsRevoked, _ = out[4].(bool)
	}
	c.count("verify", "ok")
	return result
}

// IsRevoked checks the on-chain revocation flag for a hash.
func (c *Client) IsRevoked(ctx context.Context, hash string) (bool, bool) {
	if c.Mode() != ModeReady {
		return false, false
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	var out []any
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "isRevoked", toBytes32(hash)); err != nil {
		return false, false
	}
	if len(out) != 1 {
		return false, false
	}
	revoked, _ := out[0].(bool)
	return revoked, true
}

func (c *Client) count(op, outcome string) {
	if c.metrics != nil {
		c.metrics.AnchorCallsTotal.WithLabelValues(op, outcome).Inc()
	}
}

func toBytes32(hexHash string) [32]byte {
	return common.HexToHash(hexHash)
}
