package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAccountID(t *testing.T) {
	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseAccountID("not-a-uuid")
		require.Error(t, err)
	})

	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseAccountID("")
		require.Error(t, err)
	})

	t.Run("round-trips a valid ID", func(t *testing.T) {
		id := NewAccountID()
		parsed, err := ParseAccountID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	})
}

func TestIDNilChecks(t *testing.T) {
	assert.True(t, AccountID(uuid.Nil).IsNil())
	assert.False(t, NewAccountID().IsNil())
	assert.True(t, AlertID{}.IsNil())
	assert.False(t, NewAlertID().IsNil())
	assert.True(t, CaseID{}.IsNil())
	assert.False(t, NewCaseID().IsNil())
}

func TestTenantDefault(t *testing.T) {
	assert.Equal(t, "default", DefaultTenant.String())
}
