package handler_test

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"

	"veriflow/internal/account"
	accountstore "veriflow/internal/account/store"
	"veriflow/internal/audit"
	"veriflow/internal/pipeline"
	"veriflow/internal/platform/middleware"
	"veriflow/internal/risk"
	"veriflow/internal/webhook/handler"
	"veriflow/internal/workitem"
	workitemstore "veriflow/internal/workitem/store"
	"veriflow/pkg/testutil"
)

type webhookEnvelope struct {
	Success bool `json:"success"`
	Data    struct {
		Verification struct {
			Status   string           `json:"status"`
			Issues   []map[string]any `json:"issues"`
			Warnings []map[string]any `json:"warnings"`
		} `json:"verification"`
		BackgroundCheck struct {
			Match        bool           `json:"match"`
			CaseCreated  bool           `json:"case_created"`
			AlertCreated bool           `json:"alert_created"`
			CaseData     map[string]any `json:"case_data"`
		} `json:"backgroundCheck"`
		Account struct {
			AccountID      string `json:"account_id"`
			AccountCreated bool   `json:"account_created"`
			AMLStatus      string `json:"aml_status"`
		} `json:"account"`
		Source map[string]any `json:"source"`
	} `json:"data"`
	Message string `json:"message"`
}

type WebhookHandlerSuite struct {
	suite.Suite
	router *chi.Mux
}

func TestWebhookHandlerSuite(t *testing.T) {
	suite.Run(t, new(WebhookHandlerSuite))
}

func (s *WebhookHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	audits := audit.NewService(logger, audit.NewMemoryStore())

	svc := pipeline.New(
		risk.DefaultThresholds(),
		account.NewReconciler(accountstore.NewInMemory(), logger),
		workitem.NewFactory(workitemstore.NewInMemory(), audits, logger),
		audits,
		nil,
		nil,
		logger,
	)

	s.router = chi.NewRouter()
	s.router.Use(middleware.RequestMeta)
	handler.New(svc, logger).Register(s.router)
}

func (s *WebhookHandlerSuite) token(data map[string]any) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"data": data}).
		SignedString([]byte("test-key"))
	s.Require().NoError(err)
	return token
}

func (s *WebhookHandlerSuite) TestMalformedInput() {
	s.Run("invalid JSON body is 400", func() {
		req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/webhooks/verification", `{not json`)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
		testutil.AssertErrorCode(s.T(), rr, "bad_request")
	})

	s.Run("missing token field is 400", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/webhooks/verification", map[string]any{})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})

	s.Run("undecodable token is 400", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/webhooks/verification",
			map[string]any{"token": "garbage"})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})
}

func (s *WebhookHandlerSuite) TestBusinessRejectionIs200() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/webhooks/verification", map[string]any{
		"token": s.token(map[string]any{
			"source": map[string]any{"variant": "webSdk", "sessionId": "sess-1"},
			"verifications": []any{
				map[string]any{
					"idPhotoTamperingDetection": map[string]any{"enabled": true, "score": 90.0},
				},
			},
		}),
	})

	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	resp := testutil.UnmarshalResponse[webhookEnvelope](s.T(), rr)
	s.True(resp.Success, "a rejected verification is still a processed delivery")
	s.Equal("rejected", resp.Data.Verification.Status)
	s.Len(resp.Data.Verification.Issues, 1)
	s.Equal("verification rejected", resp.Message)
	s.NotEmpty(resp.Data.Account.AccountID)
	s.True(resp.Data.Account.AccountCreated)
}

func (s *WebhookHandlerSuite) TestApprovedSubmission() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/webhooks/verification", map[string]any{
		"token": s.token(map[string]any{
			"source": map[string]any{"variant": "mobileSdk", "sessionId": "sess-2"},
			"verifications": []any{
				map[string]any{"mrz": map[string]any{"enabled": true, "checksumValid": true}},
			},
		}),
	})

	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	resp := testutil.UnmarshalResponse[webhookEnvelope](s.T(), rr)
	s.True(resp.Success)
	s.Equal("approved", resp.Data.Verification.Status)
	s.Empty(resp.Data.Verification.Issues)
	s.Equal("clear", resp.Data.Account.AMLStatus)
	s.False(resp.Data.BackgroundCheck.Match)
}

func (s *WebhookHandlerSuite) TestWatchlistEnvelope() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/webhooks/verification", map[string]any{
		"token": s.token(map[string]any{
			"source": map[string]any{"variant": "webSdk", "sessionId": "sess-3"},
			"verifications": []any{
				map[string]any{"mrz": map[string]any{"enabled": true, "checksumValid": true}},
			},
			"backgroundCheck": map[string]any{
				"match": true,
				"entities": []any{
					map[string]any{"name": "J Doe", "riskScore": 95.0},
				},
			},
		}),
	})

	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	resp := testutil.UnmarshalResponse[webhookEnvelope](s.T(), rr)
	s.True(resp.Data.BackgroundCheck.Match)
	s.True(resp.Data.BackgroundCheck.CaseCreated)
	s.True(resp.Data.BackgroundCheck.AlertCreated)
	s.Require().NotNil(resp.Data.BackgroundCheck.CaseData)
	s.Equal("critical", resp.Data.BackgroundCheck.CaseData["priority"])
	s.Equal("flagged", resp.Data.Account.AMLStatus)
}

func (s *WebhookHandlerSuite) TestTenantHeader() {
	body := map[string]any{
		"token": s.token(map[string]any{
			"source": map[string]any{"variant": "webSdk", "sessionId": "sess-4"},
			"verifications": []any{
				map[string]any{"mrz": map[string]any{"enabled": true, "checksumValid": true}},
			},
		}),
	}

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/webhooks/verification", body)
	req.Header.Set("X-Tenant-ID", "acme")
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	// Same session under another tenant creates a separate account.
	req = testutil.NewJSONRequest(s.T(), http.MethodPost, "/webhooks/verification", body)
	rr2 := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr2, http.StatusOK)

	first := testutil.UnmarshalResponse[webhookEnvelope](s.T(), rr)
	second := testutil.UnmarshalResponse[webhookEnvelope](s.T(), rr2)
	s.True(first.Data.Account.AccountCreated)
	s.True(second.Data.Account.AccountCreated)
	s.NotEqual(first.Data.Account.AccountID, second.Data.Account.AccountID)
}
