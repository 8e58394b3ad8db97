// Package handler exposes the document lifecycle over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"notaria/internal/document/models"
	"notaria/pkg/domain"
	dErrors "notaria/pkg/domain-errors"
	"notaria/pkg/platform/httputil"
	"notaria/pkg/requestcontext"
)

// Service defines the document operations used by the handler.
type Service interface {
	CreateDocument(ctx context.Context, principal domain.Principal, req *models.CreateDocumentRequest) (*models.Document, error)
	UpdateDocument(ctx context.Context, principal domain.Principal, id domain.DocumentID, req *models.UpdateDocumentRequest) (*models.Document, error)
	GetDocument(ctx context.Context, principal domain.Principal, id domain.DocumentID) (*models.Document, error)
	ListDocuments(ctx context.Context, principal domain.Principal, filter models.ListFilter) ([]*models.Document, error)
	DeleteDocument(ctx context.Context, principal domain.Principal, id domain.DocumentID) error
	Transition(ctx context.Context, principal domain.Principal, id domain.DocumentID, action models.Action) (models.State, error)
}

// Handler wires document endpoints to the document service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a document handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts document endpoints. Routes expect RequireAuth upstream.
func (h *Handler) Register(r chi.Router) {
	r.Post("/documents", h.HandleCreate)
	r.Get("/documents", h.HandleList)
	r.Get("/documents/{id}", h.HandleGet)
	r.Patch("/documents/{id}", h.HandleUpdate)
	r.Delete("/documents/{id}", h.HandleDelete)
	r.Post("/documents/{id}/transitions", h.HandleTransition)
}

// HandleCreate handles POST /documents.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.CreateDocumentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	doc, err := h.service.CreateDocument(ctx, requestcontext.Principal(ctx), req)
	if err != nil {
		h.logger.WarnContext(ctx, "create document failed",
			"request_id", requestID,
			"template_id", req.TemplateID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, doc)
}

// HandleList handles GET /documents.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := parseListFilter(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	docs, err := h.service.ListDocuments(ctx, requestcontext.Principal(ctx), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toListResponse(docs, filter))
}

// HandleGet handles GET /documents/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := documentID(w, r)
	if !ok {
		return
	}
	doc, err := h.service.GetDocument(ctx, requestcontext.Principal(ctx), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doc)
}

// HandleUpdate handles PATCH /documents/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id, ok := documentID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.UpdateDocumentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	doc, err := h.service.UpdateDocument(ctx, requestcontext.Principal(ctx), id, req)
	if err != nil {
		h.logger.WarnContext(ctx, "update document failed",
			"request_id", requestID,
			"document_id", id.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doc)
}

// HandleDelete handles DELETE /documents/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := documentID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteDocument(ctx, requestcontext.Principal(ctx), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleTransition handles POST /documents/{id}/transitions.
func (h *Handler) HandleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	id, ok := documentID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransitionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	action := models.Action(req.Action)
	state, err := h.service.Transition(ctx, requestcontext.Principal(ctx), id, action)
	if err != nil {
		h.logger.WarnContext(ctx, "transition failed",
			"request_id", requestID,
			"document_id", id.String(),
			"action", req.Action,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "document transitioned",
		"request_id", requestID,
		"document_id", id.String(),
		"action", req.Action,
		"state", string(state),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, TransitionResponse{DocumentID: id, Action: action, State: state})
}

func documentID(w http.ResponseWriter, r *http.Request) (domain.DocumentID, bool) {
	id, err := domain.ParseDocumentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid document id"))
		return domain.DocumentID{}, false
	}
	return id, true
}
