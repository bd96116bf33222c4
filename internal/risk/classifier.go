// Package risk applies the ordered threshold rules that turn extracted
// signals into a verdict. This is pure domain logic - no I/O, no side
// effects.
package risk

import (
	"fmt"
	"sort"

	"veriflow/internal/signal"
	"veriflow/internal/verification"
)

// Status is the submission verdict.
type Status string

const (
	StatusApproved     Status = "approved"
	StatusManualReview Status = "manual_review"
	StatusRejected     Status = "rejected"
)

// Severity ranks issues for the review queue.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
)

// Issue type constants. These are stable identifiers surfaced in responses,
// alerts, and audit entries.
const (
	IssueScreenDetection = "ID_SCREEN_DETECTION"
	IssuePrintDetection  = "ID_PRINT_DETECTION"
	IssuePhotoTampering  = "ID_PHOTO_TAMPERING"
	IssueBiometricMatch  = "BIOMETRIC_MATCH_LEVEL"
	IssueMRZChecksum     = "MRZ_CHECKSUM"
	IssueDataConsistency = "DATA_CONSISTENCY"
	IssuePassiveAuth     = "PASSIVE_AUTHENTICATION"
)

// Issue is one rule hit with its numeric evidence.
type Issue struct {
	Type     string   `json:"type"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Score    *float64 `json:"score,omitempty"`
	Field    string   `json:"field,omitempty"`
}

// Verdict is the classification result. Issues are hard failures; warnings
// are soft failures that need review. Any issue forces rejected; warnings
// alone elevate approved to manual_review, never to rejected.
type Verdict struct {
	Status   Status  `json:"status"`
	Issues   []Issue `json:"issues"`
	Warnings []Issue `json:"warnings"`
}

// Classify evaluates every rule against the signals. Transitions are
// monotonic-worsening: rejected is sticky within one pass, and the rule order
// below only affects issue ordering in the output, never the final status.
// All rules are evaluated even after a reject so the verdict carries the
// complete evidence set.
func Classify(sig signal.Signals, t Thresholds) Verdict {
	v := Verdict{
		Status:   StatusApproved,
		Issues:   []Issue{},
		Warnings: []Issue{},
	}

	v.scoredRule(sig.ScreenDetectionScore, t.ScreenReject, t.ScreenWarn,
		IssueScreenDetection, SeverityHigh, SeverityHigh, "screen replay detected on document capture")
	v.scoredRule(sig.PrintDetectionScore, t.PrintReject, t.PrintWarn,
		IssuePrintDetection, SeverityHigh, SeverityHigh, "printed copy detected on document capture")
	v.scoredRule(sig.PhotoTamperingScore, t.TamperingReject, t.TamperingWarn,
		IssuePhotoTampering, SeverityCritical, SeverityHigh, "document photo shows signs of tampering")

	if level := sig.BiometricMatchLevel; level != nil && *level < t.BiometricMinLevel {
		score := float64(*level)
		v.reject(Issue{
			Type:     IssueBiometricMatch,
			Severity: SeverityHigh,
			Message:  fmt.Sprintf("biometric match level %d below required %d", *level, t.BiometricMinLevel),
			Score:    &score,
		})
	}

	if valid := sig.MRZChecksumValid; valid != nil && !*valid {
		v.reject(Issue{
			Type:     IssueMRZChecksum,
			Severity: SeverityHigh,
			Message:  "machine readable zone checksum is invalid",
		})
	}

	// Field names sorted so repeated classification of the same payload
	// yields identical issue ordering.
	for _, field := range sortedFields(sig.DataConsistency) {
		switch sig.DataConsistency[field] {
		case verification.FieldNoMatch:
			v.reject(Issue{
				Type:     IssueDataConsistency,
				Severity: SeverityHigh,
				Message:  fmt.Sprintf("field %q does not match across capture methods", field),
				Field:    field,
			})
		case verification.FieldMatchPartially:
			v.warn(Issue{
				Type:     IssueDataConsistency,
				Severity: SeverityMedium,
				Message:  fmt.Sprintf("field %q only partially matches across capture methods", field),
				Field:    field,
			})
		}
	}

	if pa := sig.PassiveAuthentication; pa != nil && !*pa {
		v.warn(Issue{
			Type:     IssuePassiveAuth,
			Severity: SeverityMedium,
			Message:  "chip passive authentication failed",
		})
	}

	return v
}

// scoredRule applies the "reject above X, warn above Y" pattern shared by the
// three fraud-detection scores. Exactly-at-threshold passes.
func (v *Verdict) scoredRule(score *float64, rejectAbove, warnAbove float64, issueType string, rejectSev, warnSev Severity, message string) {
	if score == nil {
		return
	}
	switch {
	case *score > rejectAbove:
		v.reject(Issue{Type: issueType, Severity: rejectSev, Message: message, Score: score})
	case *score > warnAbove:
		v.warn(Issue{Type: issueType, Severity: warnSev, Message: message, Score: score})
	}
}

func (v *Verdict) reject(issue Issue) {
	v.Issues = append(v.Issues, issue)
	v.Status = StatusRejected
}

func (v *Verdict) warn(issue Issue) {
	v.Warnings = append(v.Warnings, issue)
	if v.Status == StatusApproved {
		v.Status = StatusManualReview
	}
}

func sortedFields(fields map[string]string) []string {
	if len(fields) == 0 {
		return nil
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
