package watchlist

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veriflow/internal/verification"
	"veriflow/pkg/domain"
)

func TestEvaluate(t *testing.T) {
	tenant := domain.TenantID("acme")
	accountID := domain.NewAccountID()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("nil background check yields no match", func(t *testing.T) {
		assert.Nil(t, Evaluate(nil, tenant, accountID, now))
	})

	t.Run("empty entity list yields no match even when flagged", func(t *testing.T) {
		bc := &verification.BackgroundCheck{Match: true}
		assert.Nil(t, Evaluate(bc, tenant, accountID, now))
	})

	t.Run("risk score 89 maps to high priority and REVIEW", func(t *testing.T) {
		m := Evaluate(&verification.BackgroundCheck{
			Match:    true,
			Entities: []verification.MatchEntity{{Name: "J Doe", RiskScore: 89}},
		}, tenant, accountID, now)

		require.NotNil(t, m)
		assert.Equal(t, PriorityHigh, m.Priority)
		assert.Equal(t, ActionReview, m.Action)
		assert.Equal(t, float64(89), m.MaxRiskScore)
	})

	t.Run("risk score 90 maps to critical priority and ESCALATE", func(t *testing.T) {
		m := Evaluate(&verification.BackgroundCheck{
			Match:    true,
			Entities: []verification.MatchEntity{{Name: "J Doe", RiskScore: 90}},
		}, tenant, accountID, now)

		require.NotNil(t, m)
		assert.Equal(t, PriorityCritical, m.Priority)
		assert.Equal(t, ActionEscalate, m.Action)
	})

	t.Run("risk score below 70 maps to medium priority", func(t *testing.T) {
		m := Evaluate(&verification.BackgroundCheck{
			Match:    true,
			Entities: []verification.MatchEntity{{RiskScore: 40}},
		}, tenant, accountID, now)

		require.NotNil(t, m)
		assert.Equal(t, PriorityMedium, m.Priority)
		assert.Equal(t, ActionReview, m.Action)
	})

	t.Run("priority follows the highest-risk entity", func(t *testing.T) {
		m := Evaluate(&verification.BackgroundCheck{
			Match: true,
			Entities: []verification.MatchEntity{
				{Name: "low", RiskScore: 20},
				{Name: "peak", RiskScore: 95},
				{Name: "mid", RiskScore: 72},
			},
		}, tenant, accountID, now)

		require.NotNil(t, m)
		assert.Equal(t, float64(95), m.MaxRiskScore)
		assert.Equal(t, PriorityCritical, m.Priority)
		require.Len(t, m.Entities, 3, "every entity is preserved regardless of score")
	})

	t.Run("entity evidence survives evaluation", func(t *testing.T) {
		m := Evaluate(&verification.BackgroundCheck{
			Match: true,
			Entities: []verification.MatchEntity{{
				Name:       "J Doe",
				EntityType: "person",
				MatchScore: 0.92,
				RiskScore:  75,
			}},
		}, tenant, accountID, now)

		require.NotNil(t, m)
		require.Len(t, m.Entities, 1)
		assert.Equal(t, "J Doe", m.Entities[0].Name)
		assert.Equal(t, "person", m.Entities[0].EntityType)
		assert.Equal(t, 0.92, m.Entities[0].MatchScore)
	})
}

func TestCaseRef(t *testing.T) {
	tenant := domain.TenantID("acme")
	accountID := domain.NewAccountID()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	evaluate := func() *Match {
		return Evaluate(&verification.BackgroundCheck{
			Match:    true,
			Entities: []verification.MatchEntity{{RiskScore: 50}},
		}, tenant, accountID, now)
	}

	t.Run("reference carries time, tenant, and account prefix", func(t *testing.T) {
		m := evaluate()
		require.NotNil(t, m)
		assert.True(t, strings.HasPrefix(m.CaseRef, "WL-20260301T120000Z-acme-"), m.CaseRef)
		assert.Contains(t, m.CaseRef, accountID.String()[:8])
	})

	t.Run("simultaneous batches get distinct references", func(t *testing.T) {
		a, b := evaluate(), evaluate()
		require.NotNil(t, a)
		require.NotNil(t, b)
		assert.NotEqual(t, a.CaseRef, b.CaseRef)
	})
}
