package models

import (
	"bytes"
	"strings"

	"notaria/pkg/domain"
	dErrors "notaria/pkg/domain-errors"
)

// MaxPDFBytes bounds certifier uploads.
const MaxPDFBytes = 20 << 20

var pdfMagic = []byte("%PDF-")

// UploadRequest carries a PDF countersigned outside the system and the
// certifier identity it was signed under. Admins may leave CertifierID empty.
type UploadRequest struct {
	CertifierID domain.UserID
	PDF         []byte
	Filename    string
}

func (r *UploadRequest) Normalize() {
	r.Filename = strings.TrimSpace(r.Filename)
}

func (r *UploadRequest) Validate() error {
	switch {
	case len(r.PDF) == 0:
		return dErrors.New(dErrors.CodeValidation, "pdf is required")
	case len(r.PDF) > MaxPDFBytes:
		return dErrors.New(dErrors.CodeValidation, "pdf exceeds the size limit")
	case !bytes.HasPrefix(r.PDF, pdfMagic):
		return dErrors.New(dErrors.CodeValidation, "uploaded file is not a PDF")
	}
	return nil
}
