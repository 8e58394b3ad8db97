package models

import (
	"math"
	"strings"

	artifactmodels "notaria/internal/artifact/models"
	docmodels "notaria/internal/document/models"
	"notaria/pkg/domain"
	dErrors "notaria/pkg/domain-errors"
)

// MaxPDFBytes bounds uploaded PDFs and signed outputs.
const MaxPDFBytes = 20 << 20

// MaxImageBytes bounds signature images.
const MaxImageBytes = 2 << 20

// ApplySignatureRequest carries a PDF, a handwritten signature image and the
// top-left-origin point where it goes.
type ApplySignatureRequest struct {
	PDF      []byte
	Image    []byte
	X, Y     float64
	Page     int
	Filename string
}

func (r *ApplySignatureRequest) Normalize() {
	r.Filename = strings.TrimSpace(r.Filename)
}

func (r *ApplySignatureRequest) Validate() error {
	switch {
	case len(r.PDF) == 0:
		return dErrors.New(dErrors.CodeValidation, "pdf is required")
	case len(r.PDF) > MaxPDFBytes:
		return dErrors.New(dErrors.CodeValidation, "pdf exceeds the size limit")
	case len(r.Image) == 0:
		return dErrors.New(dErrors.CodeValidation, "image is required")
	case len(r.Image) > MaxImageBytes:
		return dErrors.New(dErrors.CodeValidation, "image exceeds the size limit")
	case !finiteNonNegative(r.X) || !finiteNonNegative(r.Y):
		return dErrors.New(dErrors.CodeValidation, "x and y must be non-negative numbers")
	case r.Page < 0:
		return dErrors.New(dErrors.CodeValidation, "page must be non-negative")
	}
	return nil
}

func finiteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// Result is returned by the signature and certifier upload flows.
type Result struct {
	DocumentID domain.DocumentID        `json:"document_id"`
	State      docmodels.State          `json:"state"`
	Artifact   *artifactmodels.Artifact `json:"artifact"`
}
