package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"veriflow/internal/risk"
	"veriflow/internal/watchlist"
	"veriflow/internal/workitem"
	"veriflow/pkg/domain"
	"veriflow/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// Postgres persists alerts and cases. Partial unique indexes on open items
// back the dedup invariant under concurrent duplicate deliveries.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed work-item store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) FindOpenAlert(ctx context.Context, accountID domain.AccountID, kind string) (*workitem.Alert, error) {
	query := `
		SELECT id, account_id, tenant_id, kind, severity, message, score, status, created_at
		FROM alerts
		WHERE account_id = $1 AND kind = $2 AND status = 'open'
	`
	row := s.db.QueryRowContext(ctx, query, uuid.UUID(accountID), kind)

	var (
		a        workitem.Alert
		id       uuid.UUID
		acctID   uuid.UUID
		score    sql.NullFloat64
		severity string
		status   string
	)
	err := row.Scan(&id, &acctID, &a.TenantID, &a.Kind, &severity, &a.Message, &score, &status, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find open alert: %w", err)
	}

	a.ID = domain.AlertID(id)
	a.AccountID = domain.AccountID(acctID)
	a.Severity = risk.Severity(severity)
	a.Status = workitem.WorkStatus(status)
	if score.Valid {
		a.Score = &score.Float64
	}
	return &a, nil
}

func (s *Postgres) InsertAlert(ctx context.Context, a *workitem.Alert) error {
	query := `
		INSERT INTO alerts (id, account_id, tenant_id, kind, severity, message, score, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	var score sql.NullFloat64
	if a.Score != nil {
		score = sql.NullFloat64{Float64: *a.Score, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(a.ID),
		uuid.UUID(a.AccountID),
		string(a.TenantID),
		a.Kind,
		string(a.Severity),
		a.Message,
		score,
		string(a.Status),
		a.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (s *Postgres) FindOpenCase(ctx context.Context, accountID domain.AccountID, kind string) (*workitem.Case, error) {
	query := `
		SELECT id, account_id, tenant_id, reference, kind, priority, action, resolution, entities, created_at
		FROM cases
		WHERE account_id = $1 AND kind = $2 AND resolution = 'unsolved'
	`
	row := s.db.QueryRowContext(ctx, query, uuid.UUID(accountID), kind)

	var (
		c        workitem.Case
		id       uuid.UUID
		acctID   uuid.UUID
		priority string
		action   string
		res      string
		blob     []byte
	)
	err := row.Scan(&id, &acctID, &c.TenantID, &c.Reference, &c.Kind, &priority, &action, &res, &blob, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find open case: %w", err)
	}

	c.ID = domain.CaseID(id)
	c.AccountID = domain.AccountID(acctID)
	c.Priority = watchlist.Priority(priority)
	c.Action = watchlist.Action(action)
	c.Resolution = workitem.ResolutionStatus(res)
	if len(blob) > 0 {
		if err := json.Unmarshal(blob, &c.Entities); err != nil {
			return nil, fmt.Errorf("decode case entities: %w", err)
		}
	}
	return &c, nil
}

func (s *Postgres) InsertCase(ctx context.Context, c *workitem.Case) error {
	blob, err := json.Marshal(c.Entities)
	if err != nil {
		return fmt.Errorf("encode case entities: %w", err)
	}

	query := `
		INSERT INTO cases (id, account_id, tenant_id, reference, kind, priority, action, resolution, entities, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(c.ID),
		uuid.UUID(c.AccountID),
		string(c.TenantID),
		c.Reference,
		c.Kind,
		string(c.Priority),
		string(c.Action),
		string(c.Resolution),
		blob,
		c.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert case: %w", err)
	}
	return nil
}
