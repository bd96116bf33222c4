package handler

import (
	dErrors "veriflow/pkg/domain-errors"
)

type verificationRequest struct {
	Token string `json:"token"`
}

func (r verificationRequest) Validate() error {
	if r.Token == "" {
		return dErrors.New(dErrors.CodeBadRequest, "token is required")
	}
	return nil
}
