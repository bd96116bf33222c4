// Package workitem derives the review queue's Alert and Case records from
// rejecting issues and watchlist match batches, with at-most-one open item
// per (account, trigger kind).
package workitem

import (
	"time"

	"veriflow/internal/risk"
	"veriflow/internal/watchlist"
	"veriflow/pkg/domain"
)

// WorkStatus is the open/closed lifecycle of an alert.
type WorkStatus string

const (
	WorkStatusOpen   WorkStatus = "open"
	WorkStatusClosed WorkStatus = "closed"
)

// ResolutionStatus is the investigation outcome of a case.
type ResolutionStatus string

const (
	ResolutionUnsolved ResolutionStatus = "unsolved"
	ResolutionFalse    ResolutionStatus = "false"
	ResolutionPositive ResolutionStatus = "positive"
)

// KindWatchlist is the trigger kind for watchlist-driven work items. Issue
// alerts use the issue type as their kind (ID_PHOTO_TAMPERING etc).
const KindWatchlist = "WATCHLIST_MATCH"

// Alert is a short-lived actionable flag tied to one triggering issue or
// match batch.
type Alert struct {
	ID        domain.AlertID
	AccountID domain.AccountID
	TenantID  domain.TenantID
	Kind      string
	Severity  risk.Severity
	Message   string
	Score     *float64
	Status    WorkStatus
	CreatedAt time.Time
}

// Case is an investigation record aggregating watchlist evidence for one
// account.
type Case struct {
	ID         domain.CaseID
	AccountID  domain.AccountID
	TenantID   domain.TenantID
	Reference  string
	Kind       string
	Priority   watchlist.Priority
	Action     watchlist.Action
	Resolution ResolutionStatus
	Entities   []watchlist.MatchedEntity
	CreatedAt  time.Time
}
