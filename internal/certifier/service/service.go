// Package service accepts PDFs countersigned by a certifier outside the
// system and drives their documents to certificado.
package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	artifactmodels "notaria/internal/artifact/models"
	"notaria/internal/certifier/models"
	docmodels "notaria/internal/document/models"
	"notaria/internal/document/policy"
	"notaria/internal/signature/metrics"
	sigmodels "notaria/internal/signature/models"
	"notaria/pkg/domain"
	dErrors "notaria/pkg/domain-errors"
	"notaria/pkg/platform/audit"
	"notaria/pkg/requestcontext"
)

var tracer = otel.Tracer("notaria/certifier")

type Service struct {
	documents Documents
	artifacts Artifacts
	policy    *policy.Policy

	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher AuditPublisher
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

func New(documents Documents, artifacts Artifacts, p *policy.Policy, opts ...Option) *Service {
	if p == nil {
		p = policy.Default()
	}
	s := &Service{
		documents: documents,
		artifacts: artifacts,
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

// UploadCertifierSignedPdf stores the certifier's final PDF and fires
// certificacion_digital. A non-admin principal may only upload under its own
// certifier identity. Uploading again overwrites the stored artifact and
// re-runs the transition.
func (s *Service) UploadCertifierSignedPdf(ctx context.Context, principal domain.Principal, id domain.DocumentID, req *models.UploadRequest) (result *sigmodels.Result, err error) {
	ctx, span := tracer.Start(ctx, "certifier.Upload", trace.WithAttributes(
		attribute.String("document.id", id.String()),
	))
	defer func() {
		s.metrics.IncrementCertifierUpload(outcome(err))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		}
		span.End()
	}()

	if principal.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if err := s.policy.Require(principal, policy.PermCertifierUpload); err != nil {
		return nil, err
	}
	certifierID := req.CertifierID
	if !principal.Role.IsAdmin() && certifierID != principal.ID {
		s.logger.WarnContext(ctx, "certifier identity mismatch",
			"request_id", requestcontext.RequestID(ctx),
			"document_id", id.String(),
			"principal_id", principal.ID.String(),
			"certifier_id", certifierID.String(),
		)
		return nil, dErrors.New(dErrors.CodeForbidden, "cannot certify under another certifier's identity")
	}
	if certifierID.IsNil() {
		certifierID = principal.ID
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.documents.GetDocument(ctx, principal, id); err != nil {
		return nil, err
	}

	artifact, err := s.artifacts.Save(ctx, id, artifactmodels.KindCertifierFinal, req.PDF, req.Filename)
	if err != nil {
		return nil, err
	}

	state, err := s.documents.Transition(ctx, principal, id, docmodels.ActionCertificacionDigital)
	if err != nil {
		s.logger.WarnContext(ctx, "certified pdf stored but transition failed",
			"request_id", requestcontext.RequestID(ctx),
			"document_id", id.String(),
			"artifact_id", artifact.ID.String(),
			"error", err,
		)
		return nil, err
	}

	s.logAudit(ctx, principal, id, map[string]string{
		"certifier_id":    certifierID.String(),
		"artifact_id":     artifact.ID.String(),
		"artifact_digest": artifact.Digest,
		"size_bytes":      strconv.FormatInt(artifact.SizeBytes, 10),
	})

	return &sigmodels.Result{DocumentID: id, State: state, Artifact: artifact}, nil
}

func (s *Service) logAudit(ctx context.Context, principal domain.Principal, id domain.DocumentID, details map[string]string) {
	requestID := requestcontext.RequestID(ctx)
	s.logger.InfoContext(ctx, string(audit.EventCertifierPDFUploaded),
		"event", string(audit.EventCertifierPDFUploaded),
		"log_type", "audit",
		"request_id", requestID,
		"document_id", id.String(),
		"actor_id", principal.ID.String(),
		"certifier_id", details["certifier_id"],
	)
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, audit.Event{
		EventType: audit.EventCertifierPDFUploaded,
		EntityID:  id.String(),
		ActorID:   principal.ID,
		ActorRole: principal.Role,
		Details:   details,
		RequestID: requestID,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", requestID,
			"event", string(audit.EventCertifierPDFUploaded),
			"error", err,
		)
	}
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return strings.TrimSuffix(string(dErrors.CodeOf(err)), "_error")
}
