package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"veriflow/internal/risk"
	"veriflow/internal/signal"
	"veriflow/internal/trace"
	"veriflow/internal/verification"
	"veriflow/pkg/domain"
	dErrors "veriflow/pkg/domain-errors"
	"veriflow/pkg/platform/sentinel"
)

// Store is the persistence interface the reconciler needs. Implementations
// must enforce uniqueness on (tenant, identity key) and return
// sentinel.ErrConflict from Insert on violation.
type Store interface {
	FindByIdentityKey(ctx context.Context, tenant domain.TenantID, identityKey string) (*Account, error)
	Insert(ctx context.Context, a *Account) error
	Update(ctx context.Context, a *Account) error
}

// Reconciler finds-or-creates the subject's account and merges new SDK
// artifacts into it, enforcing at-most-one record per identity.
type Reconciler struct {
	store  Store
	logger *slog.Logger
}

// NewReconciler constructs a reconciler over the given store.
func NewReconciler(store Store, logger *slog.Logger) *Reconciler {
	return &Reconciler{store: store, logger: logger}
}

// Submission is the decisioned input to reconciliation.
type Submission struct {
	Tenant    domain.TenantID
	Payload   *verification.Payload
	Source    verification.SourceInfo
	Trace     []trace.Event
	Signals   signal.Signals
	Verdict   risk.Verdict
	Timestamp time.Time
}

// Result reports whether reconciliation created a fresh account.
type Result struct {
	Account *Account
	Created bool
}

// Reconcile upserts the account for a submission.
//
// The lookup-then-insert sequence is not atomic against a concurrent
// duplicate delivery for the same new identity. The storage layer's unique
// constraint closes that gap: a conflicting insert is retried as
// fetch-and-merge rather than treated as fatal.
func (r *Reconciler) Reconcile(ctx context.Context, sub Submission) (*Result, error) {
	identityKey, keySource := IdentityKey(sub.Payload, sub.Timestamp)
	incoming := newFromSubmission(sub, identityKey, keySource)

	existing, err := r.store.FindByIdentityKey(ctx, sub.Tenant, identityKey)
	switch {
	case err == nil:
		return r.mergeAndUpdate(ctx, existing, incoming, sub.Timestamp)
	case errors.Is(err, sentinel.ErrNotFound):
		// fall through to insert
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "account lookup failed")
	}

	if err := r.store.Insert(ctx, incoming); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// A concurrent delivery won the race; fetch its row and merge.
			r.logger.InfoContext(ctx, "account insert conflict, merging",
				"tenant", sub.Tenant,
				"key_source", keySource,
			)
			won, ferr := r.store.FindByIdentityKey(ctx, sub.Tenant, identityKey)
			if ferr != nil {
				return nil, dErrors.Wrap(ferr, dErrors.CodeInternal, "account fetch after conflict failed")
			}
			return r.mergeAndUpdate(ctx, won, incoming, sub.Timestamp)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "account insert failed")
	}

	return &Result{Account: incoming, Created: true}, nil
}

// FlagAML marks the account as watchlist-flagged. Called by the pipeline once
// matching has run; flagged is sticky across submissions.
func (r *Reconciler) FlagAML(ctx context.Context, a *Account, now time.Time) error {
	if a.AMLStatus == AMLStatusFlagged {
		return nil
	}
	a.AMLStatus = AMLStatusFlagged
	a.UpdatedAt = now
	if err := r.store.Update(ctx, a); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "account AML update failed")
	}
	return nil
}

// SaveImageRefs persists provider-retrieved image references. No-op when the
// account already carries both refs.
func (r *Reconciler) SaveImageRefs(ctx context.Context, a *Account, faceRef, documentRef string, now time.Time) error {
	if a.FaceImageRef == faceRef && a.DocumentImageRef == documentRef {
		return nil
	}
	a.FaceImageRef = faceRef
	a.DocumentImageRef = documentRef
	a.UpdatedAt = now
	if err := r.store.Update(ctx, a); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "account image ref update failed")
	}
	return nil
}

func (r *Reconciler) mergeAndUpdate(ctx context.Context, existing, incoming *Account, now time.Time) (*Result, error) {
	existing.merge(incoming, now)
	if err := r.store.Update(ctx, existing); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "account update failed")
	}
	return &Result{Account: existing, Created: false}, nil
}

// IdentityKey selects the strongest available identity attribute: a
// government document number, then the producer session ID, then a key
// synthesized from submission time. The synthetic case is the selfie-only
// flow and carries an explicitly weaker identity guarantee.
func IdentityKey(p *verification.Payload, now time.Time) (string, KeySource) {
	for _, doc := range p.Documents {
		if doc.Number != "" {
			return "doc:" + doc.Country + ":" + doc.Number, KeySourceDocument
		}
	}
	if p.Source.SessionID != "" {
		return "session:" + p.Source.SessionID, KeySourceSession
	}
	return fmt.Sprintf("selfie:%d", now.UnixNano()), KeySourceSynthetic
}

func newFromSubmission(sub Submission, identityKey string, keySource KeySource) *Account {
	a := &Account{
		ID:          domain.NewAccountID(),
		TenantID:    sub.Tenant,
		IdentityKey: identityKey,
		KeySource:   keySource,
		Status:      statusFromVerdict(sub.Verdict.Status),
		AMLStatus:   AMLStatusClear,
		SessionID:   sub.Payload.Source.SessionID,
		Source:      sub.Source,
		Trace:       sub.Trace,
		Signals:     sub.Signals,
		CreatedAt:   sub.Timestamp,
		UpdatedAt:   sub.Timestamp,
	}

	for _, doc := range sub.Payload.Documents {
		if a.FullName == "" {
			a.FullName = doc.FullName
		}
		if a.DocumentNumber == "" {
			a.DocumentNumber = doc.Number
			a.DocumentCountry = doc.Country
		}
		if a.DateOfBirth == "" {
			a.DateOfBirth = doc.DateOfBirth
		}
	}

	return a
}

func statusFromVerdict(status risk.Status) Status {
	switch status {
	case risk.StatusApproved:
		return StatusVerified
	case risk.StatusRejected:
		return StatusRejected
	case risk.StatusManualReview:
		return StatusManualReview
	default:
		return StatusPending
	}
}
