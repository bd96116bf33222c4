package workitem

import (
	"context"
	"errors"
	"log/slog"

	"veriflow/internal/account"
	"veriflow/internal/audit"
	"veriflow/internal/risk"
	"veriflow/internal/watchlist"
	"veriflow/pkg/domain"
	dErrors "veriflow/pkg/domain-errors"
	"veriflow/pkg/platform/sentinel"
	"veriflow/pkg/requestcontext"
)

// Store is the work-item repository. Implementations must enforce at-most-one
// open item per (account, kind) and return sentinel.ErrConflict when an
// insert would create a second one.
type Store interface {
	FindOpenAlert(ctx context.Context, accountID domain.AccountID, kind string) (*Alert, error)
	InsertAlert(ctx context.Context, a *Alert) error
	FindOpenCase(ctx context.Context, accountID domain.AccountID, kind string) (*Case, error)
	InsertCase(ctx context.Context, c *Case) error
}

// Factory creates alerts and cases from classifier issues and watchlist
// matches. The find-before-insert check plus the store's uniqueness
// constraint together make duplicate deliveries produce no duplicate items;
// neither alone suffices under concurrency.
type Factory struct {
	store  Store
	audits *audit.Service
	logger *slog.Logger
}

// NewFactory constructs a work-item factory.
func NewFactory(store Store, audits *audit.Service, logger *slog.Logger) *Factory {
	return &Factory{store: store, audits: audits, logger: logger}
}

// IssueAlerts opens one alert per reject-tier issue kind that has no open
// alert for the account yet. Returns how many alerts were newly created.
func (f *Factory) IssueAlerts(ctx context.Context, acct *account.Account, issues []risk.Issue) (int, error) {
	created := 0
	seen := make(map[string]bool, len(issues))

	for _, issue := range issues {
		if seen[issue.Type] {
			// Several data-consistency fields can raise the same issue
			// type; one alert covers the batch.
			continue
		}
		seen[issue.Type] = true

		alert := &Alert{
			ID:        domain.NewAlertID(),
			AccountID: acct.ID,
			TenantID:  acct.TenantID,
			Kind:      issue.Type,
			Severity:  issue.Severity,
			Message:   issue.Message,
			Score:     issue.Score,
			Status:    WorkStatusOpen,
			CreatedAt: requestcontext.Now(ctx),
		}

		ok, err := f.createAlert(ctx, acct, alert)
		if err != nil {
			return created, err
		}
		if ok {
			created++
		}
	}

	return created, nil
}

// WatchlistCase opens one case (and its companion alert) for a match batch
// unless the account already has an open watchlist case. Returns the open
// case, whether this call created it, and whether an alert was created.
func (f *Factory) WatchlistCase(ctx context.Context, acct *account.Account, match *watchlist.Match) (*Case, bool, bool, error) {
	existing, err := f.store.FindOpenCase(ctx, acct.ID, KindWatchlist)
	switch {
	case err == nil:
		return existing, false, false, nil
	case errors.Is(err, sentinel.ErrNotFound):
		// fall through to insert
	default:
		return nil, false, false, dErrors.Wrap(err, dErrors.CodeInternal, "case lookup failed")
	}

	c := &Case{
		ID:         domain.NewCaseID(),
		AccountID:  acct.ID,
		TenantID:   acct.TenantID,
		Reference:  match.CaseRef,
		Kind:       KindWatchlist,
		Priority:   match.Priority,
		Action:     match.Action,
		Resolution: ResolutionUnsolved,
		Entities:   match.Entities,
		CreatedAt:  requestcontext.Now(ctx),
	}

	if err := f.store.InsertCase(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Concurrent duplicate delivery opened it first.
			won, ferr := f.store.FindOpenCase(ctx, acct.ID, KindWatchlist)
			if ferr != nil {
				return nil, false, false, dErrors.Wrap(ferr, dErrors.CodeInternal, "case fetch after conflict failed")
			}
			return won, false, false, nil
		}
		return nil, false, false, dErrors.Wrap(err, dErrors.CodeInternal, "case insert failed")
	}

	f.emitAudit(ctx, acct, audit.ActionCaseCreated, map[string]string{
		"case_id":   c.ID.String(),
		"reference": c.Reference,
		"priority":  string(c.Priority),
		"action":    string(c.Action),
	})

	alert := &Alert{
		ID:        domain.NewAlertID(),
		AccountID: acct.ID,
		TenantID:  acct.TenantID,
		Kind:      KindWatchlist,
		Severity:  severityForPriority(match.Priority),
		Message:   "watchlist screening matched " + c.Reference,
		Status:    WorkStatusOpen,
		CreatedAt: c.CreatedAt,
	}
	alertCreated, err := f.createAlert(ctx, acct, alert)
	if err != nil {
		return c, true, false, err
	}

	return c, true, alertCreated, nil
}

// createAlert inserts an alert unless an open one of the same kind exists.
func (f *Factory) createAlert(ctx context.Context, acct *account.Account, alert *Alert) (bool, error) {
	_, err := f.store.FindOpenAlert(ctx, alert.AccountID, alert.Kind)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, sentinel.ErrNotFound):
		// fall through to insert
	default:
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "alert lookup failed")
	}

	if err := f.store.InsertAlert(ctx, alert); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "alert insert failed")
	}

	f.emitAudit(ctx, acct, audit.ActionAlertCreated, map[string]string{
		"alert_id": alert.ID.String(),
		"kind":     alert.Kind,
		"severity": string(alert.Severity),
	})
	return true, nil
}

// emitAudit records the creation; audit failure is logged and never rolls
// back the work-item write.
func (f *Factory) emitAudit(ctx context.Context, acct *account.Account, action string, detail map[string]string) {
	entry := audit.Entry{Action: action, Detail: detail}
	if acct != nil {
		entry.TenantID = acct.TenantID
		entry.AccountID = acct.ID.String()
		entry.Subject = acct.IdentityKey
	}
	if err := f.audits.Emit(ctx, entry); err != nil {
		f.logger.WarnContext(ctx, "audit emit failed",
			"action", action,
			"error", err,
		)
	}
}

func severityForPriority(p watchlist.Priority) risk.Severity {
	switch p {
	case watchlist.PriorityCritical:
		return risk.SeverityCritical
	case watchlist.PriorityHigh:
		return risk.SeverityHigh
	default:
		return risk.SeverityMedium
	}
}
