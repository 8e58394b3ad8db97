package handler

import (
	"notaria/internal/document/models"
	"notaria/pkg/domain"
)

// TransitionResponse reports the state reached by a transition.
type TransitionResponse struct {
	DocumentID domain.DocumentID `json:"document_id"`
	Action     models.Action     `json:"action"`
	State      models.State      `json:"state"`
}

// ListResponse wraps a page of documents.
type ListResponse struct {
	Documents []*models.Document `json:"documents"`
	Count     int                `json:"count"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
}

func toListResponse(docs []*models.Document, filter models.ListFilter) ListResponse {
	if docs == nil {
		docs = []*models.Document{}
	}
	limit := filter.Limit
	if limit == 0 {
		limit = models.DefaultListLimit
	}
	return ListResponse{Documents: docs, Count: len(docs), Limit: min(limit, models.MaxListLimit), Offset: filter.Offset}
}
