package models

import (
	"strings"

	dErrors "notaria/pkg/domain-errors"
	pstrings "notaria/pkg/platform/strings"
)

// CreateTemplateRequest is the payload for registering a template.
type CreateTemplateRequest struct {
	Name           string   `json:"name"`
	Body           string   `json:"body"`
	RequiredFields []string `json:"required_fields"`
}

func (r *CreateTemplateRequest) Normalize() {
	if r == nil {
		return
	}
	r.Name = strings.TrimSpace(r.Name)
	r.RequiredFields = pstrings.DedupeAndTrim(r.RequiredFields)
}

func (r *CreateTemplateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if r.Body == "" {
		return dErrors.New(dErrors.CodeValidation, "body is required")
	}
	return nil
}
