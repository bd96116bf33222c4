// Package audit captures structured audit entries for every work-item and
// account mutation. Persistence is an external sink: entries are handed to
// one or more sinks and failures are surfaced to callers to log, never to
// roll back.
package audit

import (
	"time"

	"github.com/google/uuid"

	"veriflow/pkg/domain"
)

// Action identifies what happened.
const (
	ActionAccountCreated  = "account.created"
	ActionAccountUpdated  = "account.updated"
	ActionAccountFlagged  = "account.aml_flagged"
	ActionAlertCreated    = "alert.created"
	ActionCaseCreated     = "case.created"
	ActionVerdictRecorded = "verdict.recorded"
)

// Entry is one append-only audit record.
type Entry struct {
	ID        uuid.UUID         `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	TenantID  domain.TenantID   `json:"tenant_id"`
	AccountID string            `json:"account_id,omitempty"`
	Action    string            `json:"action"`
	Subject   string            `json:"subject,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Detail    map[string]string `json:"detail,omitempty"`
}
