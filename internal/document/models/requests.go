package models

import (
	"strings"

	"notaria/pkg/domain"
	dErrors "notaria/pkg/domain-errors"
	pstrings "notaria/pkg/platform/strings"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// CreateDocumentRequest creates a document from a template.
type CreateDocumentRequest struct {
	TemplateID  domain.TemplateID `json:"template_id"`
	Name        string            `json:"name"`
	FieldValues FieldValues       `json:"field_values"`
}

func (r *CreateDocumentRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

func (r *CreateDocumentRequest) Validate() error {
	if r.TemplateID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "template_id is required")
	}
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(r.Name) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, "name must be 256 characters or less")
	}
	return r.FieldValues.Validate()
}

// UpdateDocumentRequest changes the name and/or merges field values.
// Nil fields are left untouched.
type UpdateDocumentRequest struct {
	Name        *string     `json:"name,omitempty"`
	FieldValues FieldValues `json:"field_values,omitempty"`
}

func (r *UpdateDocumentRequest) Normalize() {
	if r.Name != nil {
		trimmed := strings.TrimSpace(*r.Name)
		r.Name = &trimmed
	}
}

func (r *UpdateDocumentRequest) Validate() error {
	if r.Name == nil && r.FieldValues == nil {
		return dErrors.New(dErrors.CodeValidation, "nothing to update")
	}
	if r.Name != nil {
		if *r.Name == "" {
			return dErrors.New(dErrors.CodeValidation, "name cannot be empty")
		}
		if len(*r.Name) > maxNameLength {
			return dErrors.New(dErrors.CodeValidation, "name must be 256 characters or less")
		}
	}
	return r.FieldValues.Validate()
}

// ListFilter narrows a document listing. CreatedBy is set by the service for
// principals restricted to their own documents.
type ListFilter struct {
	States     []State
	TemplateID *domain.TemplateID
	CreatedBy  *domain.UserID
	Limit      int
	Offset     int
}

// Normalize dedupes states and clamps paging.
func (f *ListFilter) Normalize() {
	f.States = pstrings.DedupeAndTrim(f.States)
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

func (f *ListFilter) Validate() error {
	for _, s := range f.States {
		if !s.IsValid() {
			return dErrors.New(dErrors.CodeValidation, "unknown state: "+string(s))
		}
	}
	return nil
}
