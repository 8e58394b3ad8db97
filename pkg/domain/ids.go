package domain

import (
	"github.com/google/uuid"

	dErrors "notaria/pkg/domain-errors"
)

// Typed identifiers keep document, template and user IDs from being swapped
// at call sites. All are UUIDs underneath.
type (
	UserID     uuid.UUID
	DocumentID uuid.UUID
	TemplateID uuid.UUID
)

func (id UserID) String() string     { return uuid.UUID(id).String() }
func (id DocumentID) String() string { return uuid.UUID(id).String() }
func (id TemplateID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id DocumentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id TemplateID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// NewDocumentID allocates a fresh random document identifier.
func NewDocumentID() DocumentID { return DocumentID(uuid.New()) }

// ParseUserID parses a user ID at a trust boundary.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user ID")
	return UserID(u), err
}

// ParseDocumentID parses a document ID at a trust boundary.
func ParseDocumentID(s string) (DocumentID, error) {
	u, err := parseUUID(s, "document ID")
	return DocumentID(u), err
}

// ParseTemplateID parses a template ID at a trust boundary.
func ParseTemplateID(s string) (TemplateID, error) {
	u, err := parseUUID(s, "template ID")
	return TemplateID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, label+" must not be nil")
	}
	return u, nil
}

// Text marshalling keeps IDs as canonical UUID strings in JSON.

func (id UserID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id DocumentID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id TemplateID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "invalid user ID")
	}
	*id = UserID(u)
	return nil
}

func (id *DocumentID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "invalid document ID")
	}
	*id = DocumentID(u)
	return nil
}

func (id *TemplateID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "invalid template ID")
	}
	*id = TemplateID(u)
	return nil
}
