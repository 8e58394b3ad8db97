// Package service implements the document lifecycle: creation from templates,
// field updates with digest maintenance, scoped reads, administrative delete
// and role-gated state transitions.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"notaria/internal/document/metrics"
	"notaria/internal/document/models"
	"notaria/internal/document/policy"
	"notaria/pkg/domain"
	dErrors "notaria/pkg/domain-errors"
	"notaria/pkg/platform/sentinel"
)

var tracer = otel.Tracer("notaria/document")

// Service orchestrates document operations. Side effects (audit, notification)
// run after the transaction commits and never fail the operation.
type Service struct {
	store     Store
	tx        TxRunner
	templates TemplateSource
	policy    *policy.Policy

	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
	notifier       Notifier
	artifacts      ArtifactRemover
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithArtifactRemover deletes a document's stored files together with it.
func WithArtifactRemover(r ArtifactRemover) Option {
	return func(s *Service) {
		s.artifacts = r
	}
}

// New constructs a Service. p defaults to policy.Default().
func New(store Store, tx TxRunner, templates TemplateSource, p *policy.Policy, opts ...Option) *Service {
	if p == nil {
		p = policy.Default()
	}
	s := &Service{
		store:     store,
		tx:        tx,
		templates: templates,
		policy:    p,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Policy exposes the authorization tables shared with the signature and
// certifier flows.
func (s *Service) Policy() *policy.Policy {
	return s.policy
}

// visible reports whether principal may see doc. Principals without
// documents:read_all only see what they created.
func (s *Service) visible(principal domain.Principal, doc *models.Document) bool {
	return s.policy.Can(principal.Role, policy.PermDocumentsReadAll) || doc.IsOwnedBy(principal.ID)
}

func requirePrincipal(principal domain.Principal) error {
	if principal.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	return nil
}

func missingField(name string) error {
	return dErrors.New(dErrors.CodeMissingRequiredField, "missing required field: "+name)
}

func duplicateContent() error {
	return dErrors.New(dErrors.CodeDuplicateContent, "a document with identical content already exists")
}

func documentNotFound() error {
	return dErrors.New(dErrors.CodeNotFound, "document not found")
}

// toValidation turns model invariant violations into client validation errors.
func toValidation(err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) && de.Code == dErrors.CodeInvariantViolation {
		return dErrors.New(dErrors.CodeValidation, de.Message)
	}
	return err
}

// asDomainError passes through domain errors and wraps anything else as internal.
func asDomainError(err error, msg string) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func (s *Service) loadTemplateErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "template not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load template")
}

func (s *Service) findErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return documentNotFound()
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load document")
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}

// outcome labels a transition result for metrics.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return strings.TrimSuffix(string(dErrors.CodeOf(err)), "_error")
}
