package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"notaria/internal/signature/models"
	"notaria/pkg/domain"
	dErrors "notaria/pkg/domain-errors"
	"notaria/pkg/platform/httputil"
	"notaria/pkg/requestcontext"
)

const maxUploadBytes = models.MaxPDFBytes + models.MaxImageBytes + 64<<10

// Service applies handwritten signatures.
type Service interface {
	ApplyHandwrittenSignature(ctx context.Context, principal domain.Principal, id domain.DocumentID, req *models.ApplySignatureRequest) (*models.Result, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the signature endpoint. Routes expect RequireAuth upstream.
func (h *Handler) Register(r chi.Router) {
	r.Post("/documents/{id}/signatures", h.HandleApply)
}

// HandleApply handles POST /documents/{id}/signatures as multipart/form-data
// with parts pdf, image, x, y and optional page.
func (h *Handler) HandleApply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, err := domain.ParseDocumentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid document id"))
		return
	}

	req, err := readApplyRequest(w, r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid signature upload",
			"request_id", requestID,
			"document_id", id.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.ApplyHandwrittenSignature(ctx, requestcontext.Principal(ctx), id, req)
	if err != nil {
		h.logger.WarnContext(ctx, "apply signature failed",
			"request_id", requestID,
			"document_id", id.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func readApplyRequest(w http.ResponseWriter, r *http.Request) (*models.ApplySignatureRequest, error) {
	if err := httputil.ParseMultipart(w, r, maxUploadBytes); err != nil {
		return nil, err
	}
	pdf, filename, err := httputil.FormFile(r, "pdf")
	if err != nil {
		return nil, err
	}
	img, _, err := httputil.FormFile(r, "image")
	if err != nil {
		return nil, err
	}
	x, err := floatField(r, "x")
	if err != nil {
		return nil, err
	}
	y, err := floatField(r, "y")
	if err != nil {
		return nil, err
	}
	page := 0
	if raw := r.FormValue("page"); raw != "" {
		if page, err = strconv.Atoi(raw); err != nil {
			return nil, dErrors.New(dErrors.CodeValidation, "page must be an integer")
		}
	}
	return &models.ApplySignatureRequest{
		PDF:      pdf,
		Image:    img,
		X:        x,
		Y:        y,
		Page:     page,
		Filename: filename,
	}, nil
}

func floatField(r *http.Request, name string) (float64, error) {
	raw := r.FormValue(name)
	if raw == "" {
		return 0, dErrors.New(dErrors.CodeValidation, name+" is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeValidation, name+" must be a number")
	}
	return v, nil
}
