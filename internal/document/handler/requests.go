package handler

import (
	"net/url"
	"strconv"
	"strings"

	"notaria/internal/document/models"
	"notaria/pkg/domain"
	dErrors "notaria/pkg/domain-errors"
)

// TransitionRequest is the body of POST /documents/{id}/transitions.
type TransitionRequest struct {
	Action string `json:"action"`
}

func (r *TransitionRequest) Normalize() {
	r.Action = strings.TrimSpace(r.Action)
}

func (r *TransitionRequest) Validate() error {
	if r.Action == "" {
		return dErrors.New(dErrors.CodeValidation, "action is required")
	}
	return nil
}

// parseListFilter reads ?state=a,b&state=c&template_id=&limit=&offset=.
func parseListFilter(q url.Values) (models.ListFilter, error) {
	var filter models.ListFilter
	for _, raw := range q["state"] {
		for part := range strings.SplitSeq(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				filter.States = append(filter.States, models.State(part))
			}
		}
	}
	if raw := q.Get("template_id"); raw != "" {
		id, err := domain.ParseTemplateID(raw)
		if err != nil {
			return filter, dErrors.New(dErrors.CodeBadRequest, "invalid template_id")
		}
		filter.TemplateID = &id
	}
	var err error
	if filter.Limit, err = intParam(q, "limit"); err != nil {
		return filter, err
	}
	if filter.Offset, err = intParam(q, "offset"); err != nil {
		return filter, err
	}
	return filter, nil
}

func intParam(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, name+" must be a non-negative integer")
	}
	return n, nil
}
