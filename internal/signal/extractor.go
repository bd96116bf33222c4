// Package signal pulls fraud-detection, biometric, and document-consistency
// measurements out of the verification bundles. Nil fields mean the signal was
// absent or disabled; the classifier must not conflate that with
// "measured and passing".
package signal

import "veriflow/internal/verification"

// Signals is the flattened measurement set for one submission.
type Signals struct {
	ScreenDetectionScore *float64
	PrintDetectionScore  *float64
	PhotoTamperingScore  *float64

	BiometricMatchType  string
	BiometricMatchLevel *int
	LivenessConfidence  *float64

	MRZChecksumValid *bool

	// DataConsistency maps field name to MATCH / MATCH_PARTIALLY / NO_MATCH.
	DataConsistency map[string]string

	PassiveAuthentication *bool
	ChipAuthentication    *bool
	ActiveAuthentication  *bool
}

// Extract flattens the verification bundles into Signals. Disabled blocks are
// skipped entirely; when several bundles carry the same signal, the first
// enabled occurrence wins.
func Extract(verifications []verification.Verification) Signals {
	var sig Signals

	for _, v := range verifications {
		if c := v.IDScreenDetection; c != nil && c.Enabled && sig.ScreenDetectionScore == nil {
			sig.ScreenDetectionScore = c.Score
		}
		if c := v.IDPrintDetection; c != nil && c.Enabled && sig.PrintDetectionScore == nil {
			sig.PrintDetectionScore = c.Score
		}
		if c := v.IDPhotoTamperingDetection; c != nil && c.Enabled && sig.PhotoTamperingScore == nil {
			sig.PhotoTamperingScore = c.Score
		}
		if b := v.Biometric; b != nil && b.Enabled && sig.BiometricMatchLevel == nil {
			sig.BiometricMatchType = b.MatchType
			sig.BiometricMatchLevel = b.MatchLevel
		}
		if l := v.Liveness; l != nil && l.Enabled && sig.LivenessConfidence == nil {
			sig.LivenessConfidence = l.Confidence
		}
		if m := v.MRZ; m != nil && m.Enabled && sig.MRZChecksumValid == nil {
			sig.MRZChecksumValid = m.ChecksumValid
		}
		if d := v.DataConsistency; d != nil && d.Enabled && sig.DataConsistency == nil && len(d.Fields) > 0 {
			sig.DataConsistency = d.Fields
		}
		if r := v.Reading; r != nil && r.Enabled {
			if sig.PassiveAuthentication == nil {
				sig.PassiveAuthentication = r.PassiveAuthentication
			}
			if sig.ChipAuthentication == nil {
				sig.ChipAuthentication = r.ChipAuthentication
			}
			if sig.ActiveAuthentication == nil {
				sig.ActiveAuthentication = r.ActiveAuthentication
			}
		}
	}

	return sig
}

// Empty reports whether no signal at all was measured. The pipeline uses this
// together with an empty trace to decide when synthetic events are needed.
func (s Signals) Empty() bool {
	return s.ScreenDetectionScore == nil &&
		s.PrintDetectionScore == nil &&
		s.PhotoTamperingScore == nil &&
		s.BiometricMatchLevel == nil &&
		s.LivenessConfidence == nil &&
		s.MRZChecksumValid == nil &&
		len(s.DataConsistency) == 0 &&
		s.PassiveAuthentication == nil &&
		s.ChipAuthentication == nil &&
		s.ActiveAuthentication == nil
}
