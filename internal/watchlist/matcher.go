// Package watchlist turns the background-check block of a submission into
// case-worthy match records with severity and a recommended action.
package watchlist

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"veriflow/internal/verification"
	"veriflow/pkg/domain"
)

// Priority ranks a match batch for the review queue.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
)

// Action is the recommended follow-up for a match batch.
type Action string

const (
	ActionEscalate Action = "ESCALATE"
	ActionReview   Action = "REVIEW"
)

// Priority and action bounds on the max entity risk score.
const (
	criticalRiskScore = 90
	highRiskScore     = 70
)

// MatchedEntity is one watchlist hit, with its supporting evidence preserved
// verbatim for later display.
type MatchedEntity struct {
	Name          string            `json:"name,omitempty"`
	EntityType    string            `json:"entity_type,omitempty"`
	MatchScore    float64           `json:"match_score"`
	RiskScore     float64           `json:"risk_score"`
	Events        []json.RawMessage `json:"events,omitempty"`
	Sources       []json.RawMessage `json:"sources,omitempty"`
	Relationships []json.RawMessage `json:"relationships,omitempty"`
}

// Match is the evaluated batch for one submission.
type Match struct {
	Priority     Priority        `json:"priority"`
	Action       Action          `json:"action"`
	MaxRiskScore float64         `json:"max_risk_score"`
	CaseRef      string          `json:"case_ref"`
	Entities     []MatchedEntity `json:"entities"`
}

// Evaluate computes severity and priority for a background-check result.
// Returns nil when there is nothing case-worthy: no block, or a block with no
// match entities (even if its match flag is set, an empty entity list opens
// no case).
func Evaluate(bc *verification.BackgroundCheck, tenant domain.TenantID, accountID domain.AccountID, now time.Time) *Match {
	if bc == nil || len(bc.Entities) == 0 {
		return nil
	}

	m := &Match{
		Entities: make([]MatchedEntity, 0, len(bc.Entities)),
		CaseRef:  caseRef(tenant, accountID, now),
	}

	for _, e := range bc.Entities {
		if e.RiskScore > m.MaxRiskScore {
			m.MaxRiskScore = e.RiskScore
		}
		m.Entities = append(m.Entities, MatchedEntity{
			Name:          e.Name,
			EntityType:    e.EntityType,
			MatchScore:    e.MatchScore,
			RiskScore:     e.RiskScore,
			Events:        e.Events,
			Sources:       e.Sources,
			Relationships: e.Relationships,
		})
	}

	switch {
	case m.MaxRiskScore >= criticalRiskScore:
		m.Priority = PriorityCritical
		m.Action = ActionEscalate
	case m.MaxRiskScore >= highRiskScore:
		m.Priority = PriorityHigh
		m.Action = ActionReview
	default:
		m.Priority = PriorityMedium
		m.Action = ActionReview
	}

	return m
}

// caseRef builds a collision-resistant human-readable case reference: UTC
// time prefix, tenant/account suffix, random tail. Two near-simultaneous
// batches for the same account still get distinct references.
func caseRef(tenant domain.TenantID, accountID domain.AccountID, now time.Time) string {
	tail := uuid.NewString()[:8]
	return fmt.Sprintf("WL-%s-%s-%s-%s",
		now.UTC().Format("20060102T150405Z"),
		tenant,
		shortAccount(accountID),
		tail,
	)
}

func shortAccount(accountID domain.AccountID) string {
	s := accountID.String()
	if len(s) >= 8 {
		return s[:8]
	}
	return s
}
