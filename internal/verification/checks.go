package verification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"proofgate/internal/canonical"
	"proofgate/internal/credential"
	"proofgate/internal/revocation"
	dErrors "proofgate/pkg/domain-errors"
)

// formatCheck records which payload form decoded successfully. Total parse
// failures never reach this point; they return a terminal result instead.
func formatCheck(form credential.Form) (Check, []string) {
	return Check{
		Name:    CheckNameFormat,
		Status:  CheckPassed,
		Message: fmt.Sprintf("decoded %s credential", form),
	}, nil
}

// signatureCheck passes only when the credential carries recognizable
// signature material and its issuer identifier is a syntactically valid DID.
// Either absence is a hard failure: an unsigned or issuerless credential can
// never verify.
func signatureCheck(cred *credential.Credential) (Check, []string) {
	switch {
	case !cred.HasSignature:
		return Check{
			Name:    CheckNameSignature,
			Status:  CheckFailed,
			Message: "credential carries no proof or signature",
		}, []string{FlagInvalidSignature}
	case !credential.ValidDID(cred.IssuerDID):
		return Check{
			Name:    CheckNameSignature,
			Status:  CheckFailed,
			Message: "issuer identifier is not a valid DID",
			Details: map[string]any{"issuer": cred.IssuerDID},
		}, []string{FlagInvalidSignature}
	default:
		return Check{
			Name:    CheckNameSignature,
			Status:  CheckPassed,
			Message: "signature material present, issuer DID well-formed",
		}, nil
	}
}

// issuerCheck resolves the issuer against the local seed table, then one
// remote registry lookup. Registry unavailability downgrades trust; it never
// fails the credential outright.
func (s *Service) issuerCheck(ctx context.Context, cred *credential.Credential) (Check, []string) {
	if cred.IssuerDID == "" {
		return Check{
			Name:    CheckNameIssuer,
			Status:  CheckWarning,
			Message: "credential names no issuer",
		}, []string{FlagUnknownIssuer}
	}
	if s.issuers == nil {
		return Check{
			Name:    CheckNameIssuer,
			Status:  CheckWarning,
			Message: "issuer registry not configured",
		}, []string{FlagUnknownIssuer}
	}

	info, err := s.issuers.Resolve(ctx, cred.IssuerDID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return Check{
				Name:    CheckNameIssuer,
				Status:  CheckWarning,
				Message: "issuer not found in any registry",
				Details: map[string]any{"issuer": cred.IssuerDID},
			}, []string{FlagUnknownIssuer}
		}
		return Check{
			Name:    CheckNameIssuer,
			Status:  CheckWarning,
			Message: "issuer registry could not be consulted",
			Details: map[string]any{"error": err.Error()},
		}, []string{FlagUnknownIssuer}
	}

	if !info.Verified {
		return Check{
			Name:    CheckNameIssuer,
			Status:  CheckWarning,
			Message: "issuer known but not verified",
			Details: map[string]any{"issuer": info.DID, "trustLevel": info.TrustLevel},
		}, []string{FlagUnverifiedIssuer}
	}

	return Check{
		Name:    CheckNameIssuer,
		Status:  CheckPassed,
		Message: fmt.Sprintf("issuer %s verified (%s trust)", info.Name, info.TrustLevel),
		Details: map[string]any{"issuer": info.DID},
	}, nil
}

// expirationCheck compares an expiry, when present, against wall-clock time.
// Absence of an expiry is valid: the credential never expires.
func expirationCheck(cred *credential.Credential, now time.Time) (Check, []string) {
	if cred.ExpirationDate == nil {
		return Check{
			Name:    CheckNameExpiration,
			Status:  CheckPassed,
			Message: "credential has no expiry",
		}, nil
	}
	if cred.Expired(now) {
		return Check{
			Name:    CheckNameExpiration,
			Status:  CheckFailed,
			Message: "credential expired",
			Details: map[string]any{"expirationDate": cred.ExpirationDate},
		}, []string{FlagExpiredCredential}
	}
	return Check{
		Name:    CheckNameExpiration,
		Status:  CheckPassed,
		Message: "credential not expired",
		Details: map[string]any{"expirationDate": cred.ExpirationDate},
	}, nil
}

// revocationCheck queries the issuer status endpoint by credential ID.
// A missing ID means the check cannot run, which is a warning, not a failure.
func (s *Service) revocationCheck(ctx context.Context, cred *credential.Credential) (Check, []string) {
	if cred.ID == "" {
		return Check{
			Name:    CheckNameRevocation,
			Status:  CheckWarning,
			Message: "credential has no ID; revocation cannot be checked",
		}, nil
	}
	if s.status == nil {
		return Check{
			Name:    CheckNameRevocation,
			Status:  CheckWarning,
			Message: "status endpoint not configured",
		}, nil
	}

	status, err := s.status.Status(ctx, cred.ID)
	if err != nil {
		return Check{
			Name:    CheckNameRevocation,
			Status:  CheckWarning,
			Message: "revocation check could not run",
			Details: map[string]any{"error": err.Error()},
		}, nil
	}

	switch status.Outcome {
	case revocation.OutcomeRevoked:
		return Check{
			Name:    CheckNameRevocation,
			Status:  CheckFailed,
			Message: status.Detail,
		}, []string{FlagRevokedCredential}
	case revocation.OutcomeUnknown:
		return Check{
			Name:    CheckNameRevocation,
			Status:  CheckFailed,
			Message: "credential unknown to issuer",
		}, nil
	case revocation.OutcomeForbidden:
		return Check{
			Name:    CheckNameRevocation,
			Status:  CheckWarning,
			Message: "status endpoint denied access",
		}, nil
	case revocation.OutcomeUnreachable:
		return Check{
			Name:    CheckNameRevocation,
			Status:  CheckWarning,
			Message: "status endpoint unreachable",
			Details: map[string]any{"detail": status.Detail},
		}, nil
	default:
		return Check{
			Name:    CheckNameRevocation,
			Status:  CheckPassed,
			Message: "issuer reports credential active",
		}, nil
	}
}

// anchorCheck computes the strict and legacy canonical hashes, validates any
// in-proof expected hash against them, then looks both up on the registry.
// A tampered expected hash is a hard failure; a merely unanchored credential
// is a warning, since anchoring may still be pending.
func (s *Service) anchorCheck(ctx context.Context, cred *credential.Credential) (Check, []string) {
	hashes, err := computeHashSet(cred.Claims)
	if err != nil {
		return Check{
			Name:    CheckNameAnchor,
			Status:  CheckWarning,
			Message: "credential could not be canonicalized for anchoring",
			Details: map[string]any{"error": err.Error()},
		}, []string{FlagNoAnchor}
	}

	if expected := cred.Proof.ExpectedHash(); expected != "" {
		if !hashes.matches(expected) {
			return Check{
				Name:    CheckNameAnchor,
				Status:  CheckFailed,
				Message: "proof-embedded hash matches neither strict nor legacy canonical hash",
				Details: map[string]any{"expected": expected},
			}, []string{FlagProofHashMismatch}
		}
	}

	if s.anchors == nil {
		return Check{
			Name:    CheckNameAnchor,
			Status:  CheckWarning,
			Message: "anchor registry not configured",
		}, []string{FlagNoAnchor}
	}

	// Anchors created under the strict scheme are checked first; legacy
	// covers commitments written before the strict scheme existed.
	for _, h := range []string{hashes.strictKeccak, hashes.legacyKeccak} {
		res := s.anchors.Verify(ctx, h)
		if !res.Configured {
			return Check{
				Name:    CheckNameAnchor,
				Status:  CheckWarning,
				Message: "anchor registry unavailable",
			}, []string{FlagNoAnchor}
		}
		if res.Exists {
			if res.IsRevoked {
				return Check{
					Name:    CheckNameAnchor,
					Status:  CheckFailed,
					Message: "on-chain anchor is revoked",
					Details: map[string]any{"hash": h, "issuer": res.Issuer},
				}, []string{FlagRevokedCredential}
			}
			return Check{
				Name:    CheckNameAnchor,
				Status:  CheckPassed,
				Message: "credential hash anchored on-chain",
				Details: map[string]any{"hash": h, "anchoredAt": res.AnchoredAt},
			}, nil
		}
	}

	return Check{
		Name:    CheckNameAnchor,
		Status:  CheckWarning,
		Message: "no on-chain anchor for either canonical hash",
	}, []string{FlagNoAnchor}
}

// didCheck validates the subject or issuer DID against supported methods.
func didCheck(cred *credential.Credential) (Check, []string) {
	did := cred.SubjectDID
	if did == "" {
		did = cred.IssuerDID
	}
	if did == "" {
		return Check{
			Name:    CheckNameDID,
			Status:  CheckSkipped,
			Message: "credential carries no DID",
		}, nil
	}
	if credential.SupportedDIDMethod(did) {
		return Check{
			Name:    CheckNameDID,
			Status:  CheckPassed,
			Message: "DID method supported",
			Details: map[string]any{"did": did},
		}, nil
	}
	return Check{
		Name:    CheckNameDID,
		Status:  CheckWarning,
		Message: "DID method not supported for resolution",
		Details: map[string]any{"did": did},
	}, []string{FlagDIDResolution}
}

// hashSet holds the four canonical digests of one credential: strict and
// legacy under each supported algorithm.
type hashSet struct {
	strictSHA    string
	legacySHA    string
	strictKeccak string
	legacyKeccak string
}

func computeHashSet(claims map[string]any) (hashSet, error) {
	var hs hashSet
	var err error
	if hs.strictSHA, hs.legacySHA, err = canonical.CredentialHashes(claims, canonical.SHA256); err != nil {
		return hashSet{}, err
	}
	if hs.strictKeccak, hs.legacyKeccak, err = canonical.CredentialHashes(claims, canonical.Keccak256); err != nil {
		return hashSet{}, err
	}
	return hs, nil
}

// matches compares a caller-supplied hash against any of the four digests,
// ignoring case and a leading 0x.
func (hs hashSet) matches(expected string) bool {
	normalized := strings.ToLower(strings.TrimPrefix(expected, "0x"))
	return normalized == hs.strictSHA ||
		normalized == hs.legacySHA ||
		normalized == hs.strictKeccak ||
		normalized == hs.legacyKeccak
}
