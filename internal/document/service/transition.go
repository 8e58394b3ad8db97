package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"notaria/internal/document/models"
	"notaria/internal/notification"
	"notaria/pkg/domain"
	dErrors "notaria/pkg/domain-errors"
	"notaria/pkg/platform/audit"
	"notaria/pkg/platform/sentinel"
	txcontext "notaria/pkg/platform/tx"
	"notaria/pkg/requestcontext"
)

// Transition fires action on the document and returns the new state.
//
// Checks run in this order: the action must be known, the document must
// exist, the principal's role must be allowed by the action's rule, and the
// document must be visible to the principal. The rule never looks at the
// current state. Lookup and write share one transaction with the row locked,
// so concurrent transitions of a document serialize.
func (s *Service) Transition(ctx context.Context, principal domain.Principal, id domain.DocumentID, action models.Action) (state models.State, err error) {
	start := time.Now()
	ctx, span := startSpan(ctx, "document.Transition",
		attribute.String("document.id", id.String()),
		attribute.String("document.action", string(action)),
	)
	defer func() {
		s.metrics.IncrementTransition(string(action), outcome(err))
		s.metrics.ObserveTransitionLatency(start)
		endSpan(span, err)
	}()

	if err := requirePrincipal(principal); err != nil {
		return "", err
	}
	if _, err := s.policy.Rule(action); err != nil {
		return "", err
	}

	var (
		previous models.State
		updated  *models.Document
	)
	ctx = txcontext.WithLockKey(ctx, id.String())
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.store.FindByIDForUpdate(ctx, id)
		if err != nil {
			return s.findErr(err)
		}
		rule, err := s.policy.Authorize(principal, action)
		if err != nil {
			return err
		}
		if !s.visible(principal, current) {
			return documentNotFound()
		}

		previous = current.State
		updated, err = s.store.UpdateState(ctx, id, rule.NextState(), requestcontext.Now(ctx))
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return documentNotFound()
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update document state")
		}
		return nil
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeForbidden) {
			s.logger.WarnContext(ctx, "transition denied",
				"request_id", requestcontext.RequestID(ctx),
				"document_id", id.String(),
				"action", string(action),
				"role", principal.Role.String(),
			)
		}
		return "", asDomainError(err, "failed to transition document")
	}

	span.SetAttributes(attribute.String("document.state", string(updated.State)))
	s.logAudit(ctx, audit.EventDocumentTransitioned, principal, id, map[string]string{
		"action":         string(action),
		"previous_state": string(previous),
		"new_state":      string(updated.State),
	})
	s.notify(ctx, updated, action)
	return updated.State, nil
}

// notify tells the document owner about the new state.
func (s *Service) notify(ctx context.Context, doc *models.Document, action models.Action) {
	if s.notifier == nil {
		return
	}
	msg := notification.New(
		notification.TypeForState(string(doc.State)),
		doc.ID,
		doc.CreatedBy,
		map[string]string{
			"name":   doc.Name,
			"action": string(action),
			"state":  string(doc.State),
		},
		requestcontext.Now(ctx),
	)
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "failed to send notification",
			"request_id", requestcontext.RequestID(ctx),
			"document_id", doc.ID.String(),
			"type", msg.Type,
			"error", err,
		)
	}
}

// logAudit writes the audit log line and emits the audit event.
func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, principal domain.Principal, documentID domain.DocumentID, details map[string]string) {
	requestID := requestcontext.RequestID(ctx)
	args := []any{
		"event", string(event),
		"log_type", "audit",
		"document_id", documentID.String(),
		"actor_id", principal.ID.String(),
		"actor_role", principal.Role.String(),
	}
	if requestID != "" {
		args = append(args, "request_id", requestID)
	}
	for k, v := range details {
		args = append(args, k, v)
	}
	s.logger.InfoContext(ctx, string(event), args...)

	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, audit.Event{
		EventType: event,
		EntityID:  documentID.String(),
		ActorID:   principal.ID,
		ActorRole: principal.Role,
		Details:   details,
		RequestID: requestID,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", requestID,
			"event", string(event),
			"error", err,
		)
	}
}
