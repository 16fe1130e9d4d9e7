// Package canonical derives deterministic hashes of credential objects.
//
// Two canonicalization schemes coexist: the strict RFC 8785 form used for new
// anchors, and a coarser legacy form over top-level fields only, retained so
// anchors written before the strict scheme was introduced stay verifiable.
// Both schemes are deterministic functions of the same data; a credential is
// considered equivalent to an anchor when either hash matches.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Algorithm selects the digest function.
type Algorithm string

const (
	// SHA256 is the default for off-chain proof metadata.
	SHA256 Algorithm = "sha256"
	// Keccak256 is required for on-chain lookups; the registry contract
	// stores keccak-256 32-byte hashes.
	Keccak256 Algorithm = "keccak256"
)

// Scheme selects the canonicalization rule applied before hashing.
type Scheme string

const (
	// Strict is the RFC 8785 canonical form of the credential with its
	// proof sub-object removed. The proof may embed the expected hash, so
	// hashing it would be circular.
	Strict Scheme = "strict"
	// Legacy is the pre-strict top-level form. Pinned; do not change, or
	// existing on-chain anchors become unverifiable.
	Legacy Scheme = "legacy"
)

// ParseAlgorithm validates a caller-supplied algorithm name, defaulting to
// sha256 when empty.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "", string(SHA256):
		return SHA256, nil
	case string(Keccak256):
		return Keccak256, nil
	default:
		return "", fmt.Errorf("unsupported hash algorithm %q", s)
	}
}

// Hash canonicalizes value under the given scheme and returns the hex digest
// under the given algorithm. Pure and deterministic: the same logical object
// always yields the same hash regardless of key insertion order.
func Hash(value map[string]any, alg Algorithm, scheme Scheme) (string, error) {
	var (
		data []byte
		err  error
	)
	switch scheme {
	case Strict:
		data, err = Marshal(withoutProof(value))
	case Legacy:
		data, err = legacyBytes(value)
	default:
		return "", fmt.Errorf("unsupported canonicalization scheme %q", scheme)
	}
	if err != nil {
		return "", err
	}
	return Digest(data, alg)
}

// Digest hashes raw bytes under the given algorithm and returns lowercase hex.
func Digest(data []byte, alg Algorithm) (string, error) {
	switch alg {
	case SHA256:
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:]), nil
	case Keccak256:
		h := sha3.NewLegacyKeccak256()
		h.Write(data)
		return hex.EncodeToString(h.Sum(nil)), nil
	default:
		return "", fmt.Errorf("unsupported hash algorithm %q", alg)
	}
}

// CredentialHashes computes the strict and legacy hashes of a credential under
// one algorithm. Anchor lookups try both; a match against either counts as
// equivalence.
func CredentialHashes(value map[string]any, alg Algorithm) (strict, legacy string, err error) {
	strict, err = Hash(value, alg, Strict)
	if err != nil {
		return "", "", err
	}
	legacy, err = Hash(value, alg, Legacy)
	if err != nil {
		return "", "", err
	}
	return strict, legacy, nil
}

// withoutProof returns a shallow copy of the object with the proof sub-object
// removed.
func withoutProof(value map[string]any) map[string]any {
	if _, ok := value["proof"]; !ok {
		return value
	}
	out := make(map[string]any, len(value))
	for k, v := range value {
		if k == "proof" {
			continue
		}
		out[k] = v
	}
	return out
}

// legacyBytes renders the pinned legacy canonical form: top-level keys sorted,
// each value compact-JSON encoded, pairs joined as key=value with '|'.
// The proof sub-object is excluded, matching the strict scheme's circularity
// rule. Field order and separators are frozen against existing anchors.
func legacyBytes(value map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(value))
	for k := range value {
		if k == "proof" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		encoded, err := json.Marshal(value[k])
		if err != nil {
			return nil, fmt.Errorf("legacy canonicalization of %q: %w", k, err)
		}
		parts = append(parts, k+"="+string(encoded))
	}
	return []byte(strings.Join(parts, "|")), nil
}
