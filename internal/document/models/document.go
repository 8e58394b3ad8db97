package models

import (
	"time"

	"notaria/pkg/domain"
	dErrors "notaria/pkg/domain-errors"
)

const maxNameLength = 256

// Document is the aggregate root of the lifecycle.
//
// Invariants:
//   - ID, TemplateID, CreatedBy and CreatedAt never change after construction
//   - State starts at InitialState and only changes through ApplyTransition
//   - Digest is the content hash of Body; both are replaced together by ApplyContent
//   - UpdatedAt is bumped by every mutation
type Document struct {
	ID          domain.DocumentID `json:"id"`
	TemplateID  domain.TemplateID `json:"template_id"`
	Name        string            `json:"name"`
	State       State             `json:"state"`
	FieldValues FieldValues       `json:"field_values"`
	Body        string            `json:"body"`
	Digest      string            `json:"digest"`
	CreatedBy   domain.UserID     `json:"created_by"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// NewDocument builds a document in the initial state. body and digest must
// already be computed from values.
func NewDocument(
	id domain.DocumentID,
	templateID domain.TemplateID,
	name string,
	values FieldValues,
	body, digest string,
	createdBy domain.UserID,
	now time.Time,
) (*Document, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if templateID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "document template cannot be empty")
	}
	if digest == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "document digest cannot be empty")
	}
	if values == nil {
		values = FieldValues{}
	}
	return &Document{
		ID:          id,
		TemplateID:  templateID,
		Name:        name,
		State:       InitialState,
		FieldValues: values,
		Body:        body,
		Digest:      digest,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsOwnedBy reports whether user created the document.
func (d *Document) IsOwnedBy(user domain.UserID) bool {
	return d.CreatedBy == user
}

// ApplyTransition moves the document to next.
func (d *Document) ApplyTransition(next State, now time.Time) {
	d.State = next
	d.UpdatedAt = now
}

// ApplyContent replaces values, body and digest in one step.
func (d *Document) ApplyContent(values FieldValues, body, digest string, now time.Time) {
	d.FieldValues = values
	d.Body = body
	d.Digest = digest
	d.UpdatedAt = now
}

// Rename changes the human label.
func (d *Document) Rename(name string, now time.Time) error {
	if err := validateName(name); err != nil {
		return err
	}
	d.Name = name
	d.UpdatedAt = now
	return nil
}

func validateName(name string) error {
	if name == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "document name cannot be empty")
	}
	if len(name) > maxNameLength {
		return dErrors.New(dErrors.CodeInvariantViolation, "document name must be 256 characters or less")
	}
	return nil
}
