package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"notaria/internal/template/models"
	"notaria/pkg/domain"
	dErrors "notaria/pkg/domain-errors"
	"notaria/pkg/platform/httputil"
	"notaria/pkg/requestcontext"
)

// Service defines the template operations exposed over HTTP.
type Service interface {
	CreateTemplate(ctx context.Context, principal domain.Principal, req *models.CreateTemplateRequest) (*models.Template, error)
	GetTemplate(ctx context.Context, id domain.TemplateID) (*models.Template, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts template endpoints. Routes expect RequireAuth upstream.
func (h *Handler) Register(r chi.Router) {
	r.Post("/templates", h.HandleCreate)
	r.Get("/templates/{id}", h.HandleGet)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.CreateTemplateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	t, err := h.service.CreateTemplate(ctx, requestcontext.Principal(ctx), req)
	if err != nil {
		h.logger.WarnContext(ctx, "create template failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, t)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := domain.ParseTemplateID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid template id"))
		return
	}

	t, err := h.service.GetTemplate(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t)
}
