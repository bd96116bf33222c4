// Package pipeline sequences the verification decisioning stages: decode,
// normalize, extract, classify, reconcile, match, open work items. Stages are
// strictly ordered because each depends on the previous one's output; the
// only concurrency concern is duplicate deliveries, which the storage layer's
// uniqueness constraints absorb.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	oteltrace "go.opentelemetry.io/otel/trace"

	"veriflow/internal/account"
	"veriflow/internal/audit"
	"veriflow/internal/pipeline/metrics"
	"veriflow/internal/provider"
	"veriflow/internal/risk"
	"veriflow/internal/signal"
	"veriflow/internal/trace"
	"veriflow/internal/verification"
	"veriflow/internal/watchlist"
	"veriflow/internal/workitem"
	"veriflow/pkg/domain"
	dErrors "veriflow/pkg/domain-errors"
	"veriflow/pkg/requestcontext"
)

// infoTimeout bounds the best-effort image retrieval so a slow provider
// cannot hold the webhook response hostage.
const infoTimeout = 5 * time.Second

// Service orchestrates one delivery end to end.
type Service struct {
	thresholds risk.Thresholds
	accounts   *account.Reconciler
	workitems  *workitem.Factory
	audits     *audit.Service
	provider   *provider.Client
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     oteltrace.Tracer
}

// New constructs the pipeline service. provider may be nil (side channel not
// configured); metrics may be nil in tests.
func New(thresholds risk.Thresholds, accounts *account.Reconciler, workitems *workitem.Factory, audits *audit.Service, providerClient *provider.Client, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		thresholds: thresholds,
		accounts:   accounts,
		workitems:  workitems,
		audits:     audits,
		provider:   providerClient,
		metrics:    m,
		logger:     logger,
		tracer:     otel.Tracer("veriflow/pipeline"),
	}
}

// Result is everything the webhook response is assembled from.
type Result struct {
	Verdict        risk.Verdict
	Account        *account.Account
	AccountCreated bool

	Match                 *watchlist.Match
	Case                  *workitem.Case
	CaseCreated           bool
	WatchlistAlertCreated bool
	IssueAlertsCreated    int

	Source verification.SourceInfo
	Trace  []trace.Event
}

// Process runs the pipeline for one signed delivery token.
//
// Error policy: decoding failures abort with a 4xx-coded error. Once a
// verdict exists, per-step persistence failures downstream of the account
// write are caught and logged so the verdict and account state still reach
// the caller; the upstream webhook retries on missing responses, and every
// write path is idempotent.
func (s *Service) Process(ctx context.Context, token string) (*Result, error) {
	now := requestcontext.Now(ctx)
	tenant := requestcontext.TenantID(ctx)

	payload, err := s.decode(ctx, token)
	if err != nil {
		s.metrics.IncDelivery("malformed")
		return nil, err
	}

	events, sig := s.normalizeAndExtract(ctx, payload, now)

	verdict, err := s.classify(ctx, payload, sig)
	if err != nil {
		s.metrics.IncDelivery("failed")
		return nil, err
	}
	s.metrics.IncVerdict(string(verdict.Status))

	source := verification.EnrichSource(payload.Source)
	source.Variant = trace.DetectVariant(payload.Source.Variant, payload.Trace)

	rec, err := s.reconcile(ctx, account.Submission{
		Tenant:    tenant,
		Payload:   payload,
		Source:    source,
		Trace:     events,
		Signals:   sig,
		Verdict:   verdict,
		Timestamp: now,
	})
	if err != nil {
		s.metrics.IncDelivery("failed")
		return nil, err
	}

	result := &Result{
		Verdict:        verdict,
		Account:        rec.Account,
		AccountCreated: rec.Created,
		Source:         source,
		Trace:          events,
	}

	s.recordVerdictAudit(ctx, rec, verdict)
	s.runWatchlist(ctx, payload, result, tenant, now)
	s.openIssueAlerts(ctx, result)
	s.enrichImages(ctx, payload, result)

	s.metrics.IncDelivery("processed")
	return result, nil
}

func (s *Service) decode(ctx context.Context, token string) (*verification.Payload, error) {
	_, span := s.tracer.Start(ctx, "pipeline.decode")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.ObserveStage("decode", time.Since(start)) }()

	return verification.Decode(token)
}

func (s *Service) normalizeAndExtract(ctx context.Context, payload *verification.Payload, now time.Time) ([]trace.Event, signal.Signals) {
	_, span := s.tracer.Start(ctx, "pipeline.normalize")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.ObserveStage("normalize", time.Since(start)) }()

	events := trace.Normalize(payload.Trace)
	sig := signal.Extract(payload.Verifications)

	// No trace and empty trace are the same thing; reconstruct a minimal
	// timeline from the signals when there is nothing else.
	if len(events) == 0 && !sig.Empty() {
		events = syntheticEvents(sig, now)
	}

	return events, sig
}

// classify wraps the pure classifier so a contract violation surfaces as a
// diagnosable internal error instead of a crashed delivery. The full payload
// is logged because these failures are not reproducible from the verdict
// alone.
func (s *Service) classify(ctx context.Context, payload *verification.Payload, sig signal.Signals) (verdict risk.Verdict, err error) {
	_, span := s.tracer.Start(ctx, "pipeline.classify")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.ObserveStage("classify", time.Since(start)) }()

	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "classification panicked",
				"panic", r,
				"payload", payload,
			)
			err = dErrors.New(dErrors.CodeInternal, "classification failed")
		}
	}()

	verdict = risk.Classify(sig, s.thresholds)
	return verdict, nil
}

func (s *Service) reconcile(ctx context.Context, sub account.Submission) (*account.Result, error) {
	_, span := s.tracer.Start(ctx, "pipeline.reconcile")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.ObserveStage("reconcile", time.Since(start)) }()

	return s.accounts.Reconcile(ctx, sub)
}

func (s *Service) recordVerdictAudit(ctx context.Context, rec *account.Result, verdict risk.Verdict) {
	action := audit.ActionAccountUpdated
	if rec.Created {
		action = audit.ActionAccountCreated
	}
	entry := audit.Entry{
		TenantID:  rec.Account.TenantID,
		AccountID: rec.Account.ID.String(),
		Subject:   rec.Account.IdentityKey,
		Action:    action,
		Detail: map[string]string{
			"verdict":  string(verdict.Status),
			"issues":   fmt.Sprintf("%d", len(verdict.Issues)),
			"warnings": fmt.Sprintf("%d", len(verdict.Warnings)),
		},
	}
	if err := s.audits.Emit(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "verdict audit failed", "error", err)
	}
}

func (s *Service) runWatchlist(ctx context.Context, payload *verification.Payload, result *Result, tenant domain.TenantID, now time.Time) {
	_, span := s.tracer.Start(ctx, "pipeline.watchlist")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.ObserveStage("watchlist", time.Since(start)) }()

	match := watchlist.Evaluate(payload.BackgroundCheck, tenant, result.Account.ID, now)
	if match == nil {
		return
	}
	result.Match = match

	if err := s.accounts.FlagAML(ctx, result.Account, now); err != nil {
		s.logger.ErrorContext(ctx, "AML flag write failed", "error", err)
	}

	c, caseCreated, alertCreated, err := s.workitems.WatchlistCase(ctx, result.Account, match)
	if err != nil {
		s.logger.ErrorContext(ctx, "watchlist case creation failed", "error", err)
		return
	}
	result.Case = c
	result.CaseCreated = caseCreated
	result.WatchlistAlertCreated = alertCreated
}

func (s *Service) openIssueAlerts(ctx context.Context, result *Result) {
	if len(result.Verdict.Issues) == 0 {
		return
	}
	_, span := s.tracer.Start(ctx, "pipeline.alerts")
	defer span.End()

	created, err := s.workitems.IssueAlerts(ctx, result.Account, result.Verdict.Issues)
	if err != nil {
		s.logger.ErrorContext(ctx, "issue alert creation failed", "error", err)
	}
	result.IssueAlertsCreated = created
}

// enrichImages is the best-effort provider side channel: any failure is
// logged and counted, never propagated.
func (s *Service) enrichImages(ctx context.Context, payload *verification.Payload, result *Result) {
	if !s.provider.Enabled() || payload.Source.SessionID == "" {
		return
	}
	_, span := s.tracer.Start(ctx, "pipeline.enrich")
	defer span.End()

	infoCtx, cancel := context.WithTimeout(ctx, infoTimeout)
	defer cancel()

	info, err := s.provider.Info(infoCtx, payload.Source.SessionID)
	if err != nil {
		s.metrics.IncProviderFailure()
		s.logger.WarnContext(ctx, "image retrieval failed, continuing without enrichment",
			"session_id", payload.Source.SessionID,
			"error", err,
		)
		return
	}

	if err := s.accounts.SaveImageRefs(ctx, result.Account, info.FaceImageRef, info.DocumentImageRef, requestcontext.Now(ctx)); err != nil {
		s.logger.WarnContext(ctx, "image ref persist failed", "error", err)
	}
}
