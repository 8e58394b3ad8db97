package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"notaria/internal/certifier/models"
	sigmodels "notaria/internal/signature/models"
	"notaria/pkg/domain"
	dErrors "notaria/pkg/domain-errors"
	"notaria/pkg/platform/httputil"
	"notaria/pkg/requestcontext"
)

const maxUploadBytes = models.MaxPDFBytes + 64<<10

type Service interface {
	UploadCertifierSignedPdf(ctx context.Context, principal domain.Principal, id domain.DocumentID, req *models.UploadRequest) (*sigmodels.Result, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/documents/{id}/certification", h.HandleUpload)
}

// HandleUpload handles POST /documents/{id}/certification. The body is
// multipart/form-data with a pdf file and a certifier_id field.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := domain.ParseDocumentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid document id"))
		return
	}

	req, err := readUploadRequest(w, r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid certifier upload",
			"request_id", requestID,
			"document_id", id.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.UploadCertifierSignedPdf(ctx, requestcontext.Principal(ctx), id, req)
	if err != nil {
		h.logger.WarnContext(ctx, "certifier upload failed",
			"request_id", requestID,
			"document_id", id.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func readUploadRequest(w http.ResponseWriter, r *http.Request) (*models.UploadRequest, error) {
	if err := httputil.ParseMultipart(w, r, maxUploadBytes); err != nil {
		return nil, err
	}
	pdf, filename, err := httputil.FormFile(r, "pdf")
	if err != nil {
		return nil, err
	}
	req := &models.UploadRequest{PDF: pdf, Filename: filename}
	if raw := strings.TrimSpace(r.FormValue("certifier_id")); raw != "" {
		if req.CertifierID, err = domain.ParseUserID(raw); err != nil {
			return nil, dErrors.New(dErrors.CodeValidation, "certifier_id must be a valid id")
		}
	}
	return req, nil
}
