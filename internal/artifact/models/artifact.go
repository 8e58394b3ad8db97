package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"

	"notaria/pkg/domain"
	dErrors "notaria/pkg/domain-errors"
)

// Kind names the role a stored file plays for its document. A document holds
// at most one artifact per kind; saving again replaces it.
type Kind string

const (
	KindHandwrittenSignature Kind = "firma_manuscrita"
	KindCertifierFinal       Kind = "certificado_final"
)

func (k Kind) IsValid() bool {
	return k == KindHandwrittenSignature || k == KindCertifierFinal
}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.TrimSpace(s))
	if !k.IsValid() {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown artifact kind %q", s)
	}
	return k, nil
}

// Artifact is a binary file attached to a document.
type Artifact struct {
	ID         uuid.UUID         `json:"id"`
	DocumentID domain.DocumentID `json:"document_id"`
	Kind       Kind              `json:"kind"`
	Filename   string            `json:"filename"`
	Content    []byte            `json:"-"`
	SizeBytes  int64             `json:"size_bytes"`
	Digest     string            `json:"digest"`
	CreatedAt  time.Time         `json:"created_at"`
}

// NewArtifact builds an artifact and computes its SHA-256 digest.
func NewArtifact(documentID domain.DocumentID, kind Kind, content []byte, filename string, now time.Time) (*Artifact, error) {
	if documentID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "artifact requires a document id")
	}
	if !kind.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "unknown artifact kind %q", kind)
	}
	if len(content) == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "artifact content is empty")
	}
	filename = strings.TrimSpace(filename)
	if filename == "" {
		filename = string(kind) + ".pdf"
	}
	sum := sha256.Sum256(content)
	return &Artifact{
		ID:         uuid.New(),
		DocumentID: documentID,
		Kind:       kind,
		Filename:   filename,
		Content:    content,
		SizeBytes:  int64(len(content)),
		Digest:     hex.EncodeToString(sum[:]),
		CreatedAt:  now,
	}, nil
}
