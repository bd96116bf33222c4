package risk

import "veriflow/internal/platform/config"

// Thresholds is the single authoritative copy of every numeric decision rule.
// The historical back office carried divergent hard-coded copies of these
// values in different code paths; centralizing them here treats that
// divergence as the bug it was.
//
// Scores strictly greater than a reject/warn bound trip the rule; a score
// exactly at the bound passes.
type Thresholds struct {
	ScreenReject float64
	ScreenWarn   float64

	PrintReject float64
	PrintWarn   float64

	TamperingReject float64
	TamperingWarn   float64

	// BiometricMinLevel is the lowest acceptable match level (0-5 ordinal);
	// levels below it reject.
	BiometricMinLevel int
}

// DefaultThresholds returns the production rule set.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ScreenReject:      50,
		ScreenWarn:        30,
		PrintReject:       50,
		PrintWarn:         30,
		TamperingReject:   70,
		TamperingWarn:     40,
		BiometricMinLevel: 3,
	}
}

// ThresholdsFromConfig applies env overrides on top of the defaults. Zero
// values in cfg mean "keep the default".
func ThresholdsFromConfig(cfg config.Risk) Thresholds {
	t := DefaultThresholds()
	if cfg.ScreenRejectScore > 0 {
		t.ScreenReject = cfg.ScreenRejectScore
	}
	if cfg.ScreenWarnScore > 0 {
		t.ScreenWarn = cfg.ScreenWarnScore
	}
	if cfg.PrintRejectScore > 0 {
		t.PrintReject = cfg.PrintRejectScore
	}
	if cfg.PrintWarnScore > 0 {
		t.PrintWarn = cfg.PrintWarnScore
	}
	if cfg.TamperingRejectScore > 0 {
		t.TamperingReject = cfg.TamperingRejectScore
	}
	if cfg.TamperingWarnScore > 0 {
		t.TamperingWarn = cfg.TamperingWarnScore
	}
	if cfg.BiometricMinLevel > 0 {
		t.BiometricMinLevel = cfg.BiometricMinLevel
	}
	return t
}
