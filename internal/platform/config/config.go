package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration for the verification service.
type Server struct {
	Addr string

	// External collaborators.
	IssuerRegistryURL string
	StatusBaseURL     string

	// Chain / anchor configuration.
	ChainRPCURL      string
	ContractAddress  string
	ChainNetwork     string
	MainnetWritesOn  bool
	ChainCallTimeout time.Duration
	AnchorPrivateKey string

	// Protocol TTLs.
	PresentationTTL time.Duration
	ReplayTTL       time.Duration
	ResultCacheTTL  time.Duration
	IssuerCacheTTL  time.Duration

	// Persistence.
	SnapshotPath string

	// Limits.
	MaxBulkSize  int
	MaxBodyBytes int64
}

// Defaults for TTLs and limits. Overridable through the environment so
// operators can tune retention without a rebuild.
const (
	DefaultPresentationTTL = 5 * time.Minute
	DefaultReplayTTL       = 10 * time.Minute
	DefaultResultCacheTTL  = 60 * time.Minute
	DefaultIssuerCacheTTL  = 15 * time.Minute

	DefaultMaxBulkSize  = 100
	DefaultMaxBodyBytes = 1 << 20
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:              envOr("PROOFGATE_ADDR", ":8080"),
		IssuerRegistryURL: envOr("ISSUER_REGISTRY_URL", "http://localhost:9090"),
		StatusBaseURL:     os.Getenv("CREDENTIAL_STATUS_URL"),
		ChainRPCURL:       os.Getenv("CHAIN_RPC_URL"),
		ContractAddress:   os.Getenv("REGISTRY_CONTRACT_ADDRESS"),
		ChainNetwork:      envOr("CHAIN_NETWORK", "sepolia"),
		MainnetWritesOn:   os.Getenv("ENABLE_MAINNET_WRITES") == "true",
		ChainCallTimeout:  durationOr("CHAIN_CALL_TIMEOUT", 10*time.Second),
		AnchorPrivateKey:  os.Getenv("ANCHOR_PRIVATE_KEY"),
		PresentationTTL:   durationOr("PRESENTATION_REQUEST_TTL", DefaultPresentationTTL),
		ReplayTTL:         durationOr("PROOF_REPLAY_TTL", DefaultReplayTTL),
		ResultCacheTTL:    durationOr("RESULT_CACHE_TTL", DefaultResultCacheTTL),
		IssuerCacheTTL:    durationOr("ISSUER_CACHE_TTL", DefaultIssuerCacheTTL),
		SnapshotPath:      envOr("SNAPSHOT_PATH", "./data/proofgate.json"),
		MaxBulkSize:       intOr("MAX_BULK_SIZE", DefaultMaxBulkSize),
		MaxBodyBytes:      DefaultMaxBodyBytes,
	}
	if cfg.StatusBaseURL == "" {
		cfg.StatusBaseURL = cfg.IssuerRegistryURL
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func intOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
