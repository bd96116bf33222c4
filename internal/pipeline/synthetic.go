package pipeline

import (
	"time"

	"veriflow/internal/signal"
	"veriflow/internal/trace"
)

// syntheticEvents reconstructs a minimal timeline from measured signals for
// submissions whose producers sent no trace at all. Durations are unknown and
// stay zero; the review UI marks these events as derived.
func syntheticEvents(sig signal.Signals, at time.Time) []trace.Event {
	events := make([]trace.Event, 0, 4)

	add := func(name string, failed bool) {
		status := trace.StatusSuccess
		if failed {
			status = trace.StatusFailure
		}
		events = append(events, trace.Event{
			Name:      name,
			Category:  "derived",
			Status:    status,
			Timestamp: at,
			Raw:       map[string]any{"synthetic": true},
		})
	}

	if sig.ScreenDetectionScore != nil || sig.PrintDetectionScore != nil || sig.PhotoTamperingScore != nil {
		add("document_checks", false)
	}
	if sig.BiometricMatchLevel != nil || sig.LivenessConfidence != nil {
		add("biometric_checks", false)
	}
	if sig.MRZChecksumValid != nil {
		add("mrz_check", !*sig.MRZChecksumValid)
	}
	if sig.PassiveAuthentication != nil || sig.ChipAuthentication != nil || sig.ActiveAuthentication != nil {
		failed := sig.PassiveAuthentication != nil && !*sig.PassiveAuthentication
		add("chip_read", failed)
	}

	return events
}
