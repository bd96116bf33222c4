// Package account owns the subject's durable identity record and the
// reconciliation rules that keep it to one row per identity.
package account

import (
	"time"

	"veriflow/internal/signal"
	"veriflow/internal/trace"
	"veriflow/internal/verification"
	"veriflow/pkg/domain"
)

// KeySource records which attribute keyed the account. Synthetic keys come
// from selfie-only flows and carry an explicitly weaker identity guarantee.
type KeySource string

const (
	KeySourceDocument  KeySource = "document"
	KeySourceSession   KeySource = "session"
	KeySourceSynthetic KeySource = "synthetic"
)

// Status is the account's identity verification state.
type Status string

const (
	StatusPending      Status = "pending"
	StatusManualReview Status = "manual_review"
	StatusVerified     Status = "verified"
	StatusRejected     Status = "rejected"
)

// statusRank orders statuses by strength for merge decisions. A later
// submission never downgrades the account below what an earlier one
// established; a rejecting verdict outranks everything because fraud evidence
// must not be papered over by a cleaner retry.
var statusRank = map[Status]int{
	StatusPending:      0,
	StatusManualReview: 1,
	StatusVerified:     2,
	StatusRejected:     3,
}

// mergeStatus keeps the stronger of the two statuses.
func mergeStatus(current, incoming Status) Status {
	if statusRank[incoming] > statusRank[current] {
		return incoming
	}
	return current
}

// AMLStatus tracks watchlist screening state.
type AMLStatus string

const (
	AMLStatusClear   AMLStatus = "clear"
	AMLStatusFlagged AMLStatus = "flagged"
)

// Account is the durable identity record. SDK artifacts (source, trace,
// signals) are overwritten by each new submission; identity fields and status
// follow the merge rules above.
type Account struct {
	ID          domain.AccountID
	TenantID    domain.TenantID
	IdentityKey string
	KeySource   KeySource

	Status    Status
	AMLStatus AMLStatus

	FullName        string
	DocumentNumber  string
	DocumentCountry string
	DateOfBirth     string
	SessionID       string

	Source  verification.SourceInfo
	Trace   []trace.Event
	Signals signal.Signals

	// Optional provider enrichment; empty when the image retrieval side
	// channel was unreachable.
	FaceImageRef     string
	DocumentImageRef string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// merge folds a new submission's state into the existing record. Artifacts
// are replaced wholesale; identity fields are only filled, never blanked;
// status never weakens.
func (a *Account) merge(incoming *Account, now time.Time) {
	a.Status = mergeStatus(a.Status, incoming.Status)
	if a.AMLStatus != AMLStatusFlagged {
		a.AMLStatus = incoming.AMLStatus
	}

	if incoming.FullName != "" {
		a.FullName = incoming.FullName
	}
	if incoming.DocumentNumber != "" {
		a.DocumentNumber = incoming.DocumentNumber
	}
	if incoming.DocumentCountry != "" {
		a.DocumentCountry = incoming.DocumentCountry
	}
	if incoming.DateOfBirth != "" {
		a.DateOfBirth = incoming.DateOfBirth
	}
	if incoming.SessionID != "" {
		a.SessionID = incoming.SessionID
	}

	a.Source = incoming.Source
	a.Trace = incoming.Trace
	a.Signals = incoming.Signals

	if incoming.FaceImageRef != "" {
		a.FaceImageRef = incoming.FaceImageRef
	}
	if incoming.DocumentImageRef != "" {
		a.DocumentImageRef = incoming.DocumentImageRef
	}

	a.UpdatedAt = now
}
