package handler

import (
	"context"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"notaria/internal/artifact/models"
	docmodels "notaria/internal/document/models"
	"notaria/pkg/domain"
	dErrors "notaria/pkg/domain-errors"
	"notaria/pkg/platform/httputil"
	"notaria/pkg/requestcontext"
)

// Documents checks that the caller may see the document owning an artifact.
type Documents interface {
	GetDocument(ctx context.Context, principal domain.Principal, id domain.DocumentID) (*docmodels.Document, error)
}

type Artifacts interface {
	Get(ctx context.Context, documentID domain.DocumentID, kind models.Kind) (*models.Artifact, error)
}

type Handler struct {
	documents Documents
	artifacts Artifacts
	logger    *slog.Logger
}

func New(documents Documents, artifacts Artifacts, logger *slog.Logger) *Handler {
	return &Handler{documents: documents, artifacts: artifacts, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/documents/{id}/artifacts/{kind}", h.HandleDownload)
}

// HandleDownload streams a stored artifact back as application/pdf.
func (h *Handler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseDocumentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid document id"))
		return
	}
	kind, err := models.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if _, err := h.documents.GetDocument(ctx, requestcontext.Principal(ctx), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	a, err := h.artifacts.Get(ctx, id, kind)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "failed to load artifact",
				"request_id", requestcontext.RequestID(ctx),
				"document_id", id.String(),
				"kind", string(kind),
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.FormatInt(a.SizeBytes, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename}))
	w.Header().Set("X-Content-Digest", "sha256="+a.Digest)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.Content)
}
