package verification

// Risk scoring is a monotone, idempotent function of the check outcomes:
// re-running verification over unchanged credential and external state
// reproduces the same score.

const (
	weightFailedCheck  = 25
	weightWarningCheck = 10
	weightUnknownFlag  = 5

	riskFailedThreshold     = 70
	riskSuspiciousThreshold = 40
	maxRiskScore            = 100
)

// flagWeights is the fixed per-flag contribution to the risk score.
// Flags not listed here contribute weightUnknownFlag.
var flagWeights = map[string]int{
	FlagInvalidSignature:  30,
	FlagRevokedCredential: 50,
	FlagProofHashMismatch: 30,
	FlagExpiredCredential: 25,
	FlagUnknownIssuer:     20,
	FlagDIDResolution:     15,
	FlagUnverifiedIssuer:  10,
	FlagNoAnchor:          5,
}

// scoreRisk sums check-status weights and flag weights, clamped to [0,100].
func scoreRisk(checks []Check, flags []string) int {
	score := 0
	for _, c := range checks {
		switch c.Status {
		case CheckFailed:
			score += weightFailedCheck
		case CheckWarning:
			score += weightWarningCheck
		}
	}
	for _, f := range flags {
		if w, ok := flagWeights[f]; ok {
			score += w
		} else {
			score += weightUnknownFlag
		}
	}
	if score > maxRiskScore {
		return maxRiskScore
	}
	return score
}

// deriveStatus combines what the checks implied with risk-score escalation.
// A hard check failure implies failed outright; an unknown issuer escalates
// to suspicious; beyond that the score thresholds take over.
func deriveStatus(checks []Check, flags []string, riskScore int) Status {
	implied := StatusVerified
	for _, c := range checks {
		if c.Status == CheckFailed {
			implied = StatusFailed
			break
		}
	}
	if implied == StatusVerified && contains(flags, FlagUnknownIssuer) {
		implied = StatusSuspicious
	}

	if riskScore > riskFailedThreshold {
		return StatusFailed
	}
	if riskScore > riskSuspiciousThreshold && implied == StatusVerified {
		return StatusSuspicious
	}
	return implied
}

func contains(flags []string, flag string) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}
