package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"veriflow/internal/account"
	"veriflow/internal/signal"
	"veriflow/internal/trace"
	"veriflow/internal/verification"
	"veriflow/pkg/domain"
	"veriflow/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// Postgres persists accounts. The accounts table carries a unique constraint
// on (tenant_id, identity_key); see migrations/001_init.sql. That constraint,
// not any in-process lock, is what guarantees at-most-one row per identity
// under concurrent duplicate deliveries.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed account store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// artifacts is the JSON blob holding per-submission SDK state.
type artifacts struct {
	Source  verification.SourceInfo `json:"source"`
	Trace   []trace.Event           `json:"trace"`
	Signals signal.Signals          `json:"signals"`
}

func (s *Postgres) FindByIdentityKey(ctx context.Context, tenant domain.TenantID, identityKey string) (*account.Account, error) {
	query := `
		SELECT id, tenant_id, identity_key, key_source, status, aml_status,
		       full_name, document_number, document_country, date_of_birth,
		       session_id, artifacts, face_image_ref, document_image_ref,
		       created_at, updated_at
		FROM accounts
		WHERE tenant_id = $1 AND identity_key = $2
	`
	row := s.db.QueryRowContext(ctx, query, string(tenant), identityKey)

	var (
		a    account.Account
		id   uuid.UUID
		blob []byte
	)
	err := row.Scan(
		&id,
		&a.TenantID,
		&a.IdentityKey,
		&a.KeySource,
		&a.Status,
		&a.AMLStatus,
		&a.FullName,
		&a.DocumentNumber,
		&a.DocumentCountry,
		&a.DateOfBirth,
		&a.SessionID,
		&blob,
		&a.FaceImageRef,
		&a.DocumentImageRef,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	a.ID = domain.AccountID(id)

	var art artifacts
	if len(blob) > 0 {
		if err := json.Unmarshal(blob, &art); err != nil {
			return nil, fmt.Errorf("decode account artifacts: %w", err)
		}
	}
	a.Source = art.Source
	a.Trace = art.Trace
	a.Signals = art.Signals

	return &a, nil
}

func (s *Postgres) Insert(ctx context.Context, a *account.Account) error {
	blob, err := json.Marshal(artifacts{Source: a.Source, Trace: a.Trace, Signals: a.Signals})
	if err != nil {
		return fmt.Errorf("encode account artifacts: %w", err)
	}

	query := `
		INSERT INTO accounts (
			id, tenant_id, identity_key, key_source, status, aml_status,
			full_name, document_number, document_country, date_of_birth,
			session_id, artifacts, face_image_ref, document_image_ref,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(a.ID),
		string(a.TenantID),
		a.IdentityKey,
		string(a.KeySource),
		string(a.Status),
		string(a.AMLStatus),
		a.FullName,
		a.DocumentNumber,
		a.DocumentCountry,
		a.DateOfBirth,
		a.SessionID,
		blob,
		a.FaceImageRef,
		a.DocumentImageRef,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, a *account.Account) error {
	blob, err := json.Marshal(artifacts{Source: a.Source, Trace: a.Trace, Signals: a.Signals})
	if err != nil {
		return fmt.Errorf("encode account artifacts: %w", err)
	}

	query := `
		UPDATE accounts
		SET status = $1, aml_status = $2, full_name = $3, document_number = $4,
		    document_country = $5, date_of_birth = $6, session_id = $7,
		    artifacts = $8, face_image_ref = $9, document_image_ref = $10,
		    updated_at = $11
		WHERE id = $12
	`
	res, err := s.db.ExecContext(ctx, query,
		string(a.Status),
		string(a.AMLStatus),
		a.FullName,
		a.DocumentNumber,
		a.DocumentCountry,
		a.DateOfBirth,
		a.SessionID,
		blob,
		a.FaceImageRef,
		a.DocumentImageRef,
		a.UpdatedAt,
		uuid.UUID(a.ID),
	)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
