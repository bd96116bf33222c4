// Package domain defines the typed identifiers shared across modules.
// Wrapping uuid.UUID keeps IDs from being mixed up at call sites.
package domain

import "github.com/google/uuid"

// TenantID scopes every durable record. Deployments that do not partition by
// tenant use the default tenant.
type TenantID string

// DefaultTenant is used when the webhook carries no tenant header.
const DefaultTenant TenantID = "default"

func (t TenantID) String() string { return string(t) }

// AccountID identifies a subject's durable identity record.
type AccountID uuid.UUID

func NewAccountID() AccountID { return AccountID(uuid.New()) }

func (a AccountID) String() string { return uuid.UUID(a).String() }

func (a AccountID) IsNil() bool { return uuid.UUID(a) == uuid.Nil }

// ParseAccountID parses the string form of an AccountID.
func ParseAccountID(s string) (AccountID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return AccountID{}, err
	}
	return AccountID(u), nil
}

// AlertID identifies a single actionable work item.
type AlertID uuid.UUID

func NewAlertID() AlertID { return AlertID(uuid.New()) }

func (a AlertID) String() string { return uuid.UUID(a).String() }

func (a AlertID) IsNil() bool { return uuid.UUID(a) == uuid.Nil }

// CaseID identifies an investigation record.
type CaseID uuid.UUID

func NewCaseID() CaseID { return CaseID(uuid.New()) }

func (c CaseID) String() string { return uuid.UUID(c).String() }

func (c CaseID) IsNil() bool { return uuid.UUID(c) == uuid.Nil }
