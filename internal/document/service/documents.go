package service

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"notaria/internal/document/content"
	"notaria/internal/document/models"
	"notaria/internal/document/policy"
	"notaria/pkg/domain"
	dErrors "notaria/pkg/domain-errors"
	"notaria/pkg/platform/audit"
	"notaria/pkg/platform/sentinel"
	txcontext "notaria/pkg/platform/tx"
	"notaria/pkg/requestcontext"
)

// CreateDocument resolves the template, checks its required fields, fills
// and hashes the body and stores the document in the initial state.
func (s *Service) CreateDocument(ctx context.Context, principal domain.Principal, req *models.CreateDocumentRequest) (doc *models.Document, err error) {
	ctx, span := startSpan(ctx, "document.Create", attribute.String("template.id", req.TemplateID.String()))
	defer func() { endSpan(span, err) }()

	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}
	if err := s.policy.Require(principal, policy.PermDocumentsCreate); err != nil {
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tpl, err := s.templates.GetTemplate(ctx, req.TemplateID)
	if err != nil {
		return nil, s.loadTemplateErr(err)
	}
	if name, missing := content.MissingRequired(tpl.RequiredFields, req.FieldValues); missing {
		return nil, missingField(name)
	}

	body := content.Fill(tpl.Body, req.FieldValues)
	doc, err = models.NewDocument(
		domain.NewDocumentID(),
		req.TemplateID,
		req.Name,
		maps.Clone(req.FieldValues),
		body,
		content.Hash(body),
		principal.ID,
		requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, toValidation(err)
	}

	if err := s.store.Create(ctx, doc); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncrementDuplicateContent()
			return nil, duplicateContent()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create document")
	}
	span.SetAttributes(attribute.String("document.id", doc.ID.String()))

	s.metrics.IncrementCreated()
	s.logAudit(ctx, audit.EventDocumentCreated, principal, doc.ID, map[string]string{
		"template_id": doc.TemplateID.String(),
		"digest":      doc.Digest,
	})
	return doc, nil
}

// UpdateDocument renames the document and/or merges field values. When values
// change, body and digest are regenerated from the merged set and written in
// the same statement as the rename.
func (s *Service) UpdateDocument(ctx context.Context, principal domain.Principal, id domain.DocumentID, req *models.UpdateDocumentRequest) (doc *models.Document, err error) {
	ctx, span := startSpan(ctx, "document.Update", attribute.String("document.id", id.String()))
	defer func() { endSpan(span, err) }()

	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}
	if err := s.policy.Require(principal, policy.PermDocumentsUpdate); err != nil {
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx = txcontext.WithLockKey(ctx, id.String())
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.store.FindByIDForUpdate(ctx, id)
		if err != nil {
			return s.findErr(err)
		}
		if !s.visible(principal, current) {
			return documentNotFound()
		}

		now := requestcontext.Now(ctx)
		if req.Name != nil {
			if err := current.Rename(*req.Name, now); err != nil {
				return toValidation(err)
			}
		}
		if req.FieldValues != nil {
			tpl, err := s.templates.GetTemplate(ctx, current.TemplateID)
			if err != nil {
				return s.loadTemplateErr(err)
			}
			merged := current.FieldValues.Merge(req.FieldValues)
			if name, missing := content.MissingRequired(tpl.RequiredFields, merged); missing {
				return missingField(name)
			}
			body := content.Fill(tpl.Body, merged)
			current.ApplyContent(merged, body, content.Hash(body), now)
		}

		if err := s.store.Update(ctx, current); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				s.metrics.IncrementDuplicateContent()
				return duplicateContent()
			}
			if errors.Is(err, sentinel.ErrNotFound) {
				return documentNotFound()
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update document")
		}
		doc = current
		return nil
	})
	if err != nil {
		return nil, asDomainError(err, "failed to update document")
	}

	details := map[string]string{"digest": doc.Digest}
	if req.Name != nil {
		details["name"] = doc.Name
	}
	if req.FieldValues != nil {
		keys := slices.Sorted(maps.Keys(req.FieldValues))
		details["fields"] = strings.Join(keys, ",")
	}
	s.logAudit(ctx, audit.EventDocumentUpdated, principal, doc.ID, details)
	return doc, nil
}

// GetDocument returns a document the principal may see. Documents outside the
// principal's scope are reported as not found.
func (s *Service) GetDocument(ctx context.Context, principal domain.Principal, id domain.DocumentID) (doc *models.Document, err error) {
	ctx, span := startSpan(ctx, "document.Get", attribute.String("document.id", id.String()))
	defer func() { endSpan(span, err) }()

	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}
	if err := s.policy.Require(principal, policy.PermDocumentsRead); err != nil {
		return nil, err
	}
	doc, err = s.store.FindByID(ctx, id)
	if err != nil {
		return nil, s.findErr(err)
	}
	if !s.visible(principal, doc) {
		return nil, documentNotFound()
	}
	return doc, nil
}

// ListDocuments returns the principal's visible documents, newest first.
func (s *Service) ListDocuments(ctx context.Context, principal domain.Principal, filter models.ListFilter) (docs []*models.Document, err error) {
	ctx, span := startSpan(ctx, "document.List")
	defer func() { endSpan(span, err) }()

	if err := requirePrincipal(principal); err != nil {
		return nil, err
	}
	if err := s.policy.Require(principal, policy.PermDocumentsRead); err != nil {
		return nil, err
	}
	filter.Normalize()
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if !s.policy.Can(principal.Role, policy.PermDocumentsReadAll) {
		owner := principal.ID
		filter.CreatedBy = &owner
	}

	docs, err = s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list documents")
	}
	return docs, nil
}

// DeleteDocument removes a document regardless of its state. Admin only.
func (s *Service) DeleteDocument(ctx context.Context, principal domain.Principal, id domain.DocumentID) (err error) {
	ctx, span := startSpan(ctx, "document.Delete", attribute.String("document.id", id.String()))
	defer func() { endSpan(span, err) }()

	if err := requirePrincipal(principal); err != nil {
		return err
	}
	if err := s.policy.Require(principal, policy.PermDocumentsDelete); err != nil {
		return err
	}

	ctx = txcontext.WithLockKey(ctx, id.String())
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Delete(ctx, id); err != nil {
			return s.findErr(err)
		}
		if s.artifacts != nil {
			if err := s.artifacts.DeleteByDocument(ctx, id); err != nil {
				return asDomainError(err, "failed to delete document artifacts")
			}
		}
		return nil
	})
	if err != nil {
		return asDomainError(err, "failed to delete document")
	}

	s.logAudit(ctx, audit.EventDocumentDeleted, principal, id, nil)
	return nil
}
