package models

import (
	"strings"
	"time"

	"notaria/pkg/domain"
	dErrors "notaria/pkg/domain-errors"
	pstrings "notaria/pkg/platform/strings"
)

// Template is a reusable document skeleton with {{placeholder}} tokens and
// the list of fields a document must supply.
type Template struct {
	ID             domain.TemplateID `json:"id"`
	Name           string            `json:"name"`
	Body           string            `json:"body"`
	RequiredFields []string          `json:"required_fields"`
	CreatedAt      time.Time         `json:"created_at"`
}

// NewTemplate validates and normalizes a template.
func NewTemplate(id domain.TemplateID, name, body string, required []string, now time.Time) (*Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "template name is required")
	}
	if body == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "template body is required")
	}
	required = pstrings.DedupeAndTrim(required)
	if required == nil {
		required = []string{}
	}
	return &Template{
		ID:             id,
		Name:           name,
		Body:           body,
		RequiredFields: required,
		CreatedAt:      now,
	}, nil
}
