package audit

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"veriflow/pkg/requestcontext"
)

// Sink receives audit entries. Implementations: in-memory store, Kafka
// publisher.
type Sink interface {
	Append(ctx context.Context, entry Entry) error
}

// Service fans entries out to every configured sink. A sink failure is
// reported to the caller for logging but does not stop delivery to the
// remaining sinks.
type Service struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewService constructs an audit service over the given sinks.
func NewService(logger *slog.Logger, sinks ...Sink) *Service {
	return &Service{sinks: sinks, logger: logger}
}

// Emit stamps and delivers an entry. The returned error aggregates sink
// failures; callers on the decisioning path log it and continue.
func (s *Service) Emit(ctx context.Context, entry Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = requestcontext.Now(ctx)
	}
	if entry.RequestID == "" {
		entry.RequestID = requestcontext.RequestID(ctx)
	}
	if entry.TenantID == "" {
		entry.TenantID = requestcontext.TenantID(ctx)
	}

	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Append(ctx, entry); err != nil {
			s.logger.WarnContext(ctx, "audit sink append failed",
				"action", entry.Action,
				"error", err,
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
