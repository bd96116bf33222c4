package verification

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "veriflow/pkg/domain-errors"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func TestDecode(t *testing.T) {
	t.Run("decodes a well-formed token", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{
			"data": map[string]any{
				"source": map[string]any{
					"variant":   "webSdk",
					"sessionId": "sess-1",
				},
				"documents": []any{
					map[string]any{"number": "C01X00T47", "country": "DE", "fullName": "Jane Doe"},
				},
				"verifications": []any{
					map[string]any{"mrz": map[string]any{"enabled": true, "checksumValid": true}},
				},
				"backgroundCheck": map[string]any{
					"match":    true,
					"entities": []any{map[string]any{"name": "J Doe", "riskScore": 80.0}},
				},
			},
		})

		payload, err := Decode(token)
		require.NoError(t, err)
		assert.Equal(t, "webSdk", payload.Source.Variant)
		assert.Equal(t, "sess-1", payload.Source.SessionID)
		require.Len(t, payload.Documents, 1)
		assert.Equal(t, "C01X00T47", payload.Documents[0].Number)
		require.Len(t, payload.Verifications, 1)
		require.NotNil(t, payload.Verifications[0].MRZ)
		assert.True(t, payload.Verifications[0].MRZ.Enabled)
		require.NotNil(t, payload.BackgroundCheck)
		require.Len(t, payload.BackgroundCheck.Entities, 1)
		assert.Equal(t, float64(80), payload.BackgroundCheck.Entities[0].RiskScore)
	})

	t.Run("signature is not verified", func(t *testing.T) {
		// Tokens signed with an arbitrary key still decode; signature
		// verification is a known gap, not an enforced contract.
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"data": map[string]any{"source": map[string]any{"variant": "mobileSdk"}},
		}).SignedString([]byte("some-other-key"))
		require.NoError(t, err)

		payload, err := Decode(token)
		require.NoError(t, err)
		assert.Equal(t, "mobileSdk", payload.Source.Variant)
	})

	t.Run("malformed token is a bad request", func(t *testing.T) {
		_, err := Decode("not.a.token")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("empty token is a bad request", func(t *testing.T) {
		_, err := Decode("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("missing data claim is a bad request", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{"other": "stuff"})
		_, err := Decode(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("null data claim is a bad request", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{"data": nil})
		_, err := Decode(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func TestEnrichSource(t *testing.T) {
	t.Run("parses web user agent", func(t *testing.T) {
		info := EnrichSource(Source{
			Variant:   "webSdk",
			SessionID: "sess-1",
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		})

		assert.Equal(t, "webSdk", info.Variant)
		assert.Contains(t, info.Browser, "Chrome")
		assert.NotEmpty(t, info.OS)
		assert.False(t, info.Mobile)
	})

	t.Run("mobile submissions pass platform through", func(t *testing.T) {
		info := EnrichSource(Source{Variant: "mobileSdk", Platform: "iOS", SDKVer: "4.2.0"})
		assert.Equal(t, "iOS", info.Platform)
		assert.Equal(t, "4.2.0", info.SDKVer)
		assert.Empty(t, info.Browser)
	})
}
