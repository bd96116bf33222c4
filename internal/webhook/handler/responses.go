package handler

import (
	"veriflow/internal/pipeline"
	"veriflow/internal/risk"
	"veriflow/internal/verification"
	"veriflow/internal/watchlist"
)

// envelope is the webhook response body. success reflects processing, not the
// verdict: a rejected submission is still a successful delivery.
type envelope struct {
	Success bool         `json:"success"`
	Data    envelopeData `json:"data"`
	Message string       `json:"message"`
}

type envelopeData struct {
	Verification    verificationData        `json:"verification"`
	BackgroundCheck backgroundCheckData     `json:"backgroundCheck"`
	Account         accountData             `json:"account"`
	Source          verification.SourceInfo `json:"source"`
}

type verificationData struct {
	Status   risk.Status  `json:"status"`
	Issues   []risk.Issue `json:"issues"`
	Warnings []risk.Issue `json:"warnings"`
}

type backgroundCheckData struct {
	Match        bool      `json:"match"`
	CaseCreated  bool      `json:"case_created"`
	AlertCreated bool      `json:"alert_created"`
	CaseData     *caseData `json:"case_data,omitempty"`
}

type caseData struct {
	Reference    string                    `json:"reference"`
	Priority     watchlist.Priority        `json:"priority"`
	Action       watchlist.Action          `json:"action"`
	MaxRiskScore float64                   `json:"max_risk_score"`
	Entities     []watchlist.MatchedEntity `json:"entities"`
}

type accountData struct {
	AccountID      string `json:"account_id"`
	AccountCreated bool   `json:"account_created"`
	AMLStatus      string `json:"aml_status"`
}

func buildEnvelope(result *pipeline.Result) envelope {
	data := envelopeData{
		Verification: verificationData{
			Status:   result.Verdict.Status,
			Issues:   result.Verdict.Issues,
			Warnings: result.Verdict.Warnings,
		},
		Account: accountData{
			AccountID:      result.Account.ID.String(),
			AccountCreated: result.AccountCreated,
			AMLStatus:      string(result.Account.AMLStatus),
		},
		Source: result.Source,
	}

	if result.Match != nil {
		data.BackgroundCheck = backgroundCheckData{
			Match:        true,
			CaseCreated:  result.CaseCreated,
			AlertCreated: result.WatchlistAlertCreated,
		}
		if result.Case != nil {
			data.BackgroundCheck.CaseData = &caseData{
				Reference:    result.Case.Reference,
				Priority:     result.Case.Priority,
				Action:       result.Case.Action,
				MaxRiskScore: result.Match.MaxRiskScore,
				Entities:     result.Case.Entities,
			}
		}
	}

	return envelope{
		Success: true,
		Data:    data,
		Message: messageFor(result.Verdict.Status),
	}
}

func messageFor(status risk.Status) string {
	switch status {
	case risk.StatusRejected:
		return "verification rejected"
	case risk.StatusManualReview:
		return "verification requires manual review"
	default:
		return "verification approved"
	}
}
