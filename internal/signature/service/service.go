// Package service applies handwritten signatures to document PDFs and moves
// the document to firmado_cliente.
package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	artifactmodels "notaria/internal/artifact/models"
	docmodels "notaria/internal/document/models"
	"notaria/internal/document/policy"
	"notaria/internal/signature/metrics"
	"notaria/internal/signature/models"
	"notaria/pkg/domain"
	dErrors "notaria/pkg/domain-errors"
	"notaria/pkg/platform/audit"
	"notaria/pkg/platform/middleware/device"
	"notaria/pkg/requestcontext"
)

var tracer = otel.Tracer("notaria/signature")

type Service struct {
	documents Documents
	embedder  Embedder
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

// New constructs the signature flow. p defaults to policy.Default().
func New(documents Documents, embedder Embedder, artifacts Artifacts, p *policy.Policy, opts ...Option) *Service {
	if p == nil {
		p = policy.Default()
	}
	s := &Service{
		documents: documents,
		embedder:  embedder,
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

// ApplyHandwrittenSignature embeds the signature image into the PDF, stores
// the result as the document's firma_manuscrita artifact and fires
// firmar_cliente. Role and visibility are checked before any work is done.
func (s *Service) ApplyHandwrittenSignature(ctx context.Context, principal domain.Principal, id domain.DocumentID, req *models.ApplySignatureRequest) (result *models.Result, err error) {
	ctx, span := tracer.Start(ctx, "signature.Apply", trace.WithAttributes(
		attribute.String("document.id", id.String()),
		attribute.Int("signature.page", req.Page),
	))
	defer func() {
		s.metrics.IncrementSignature(outcome(err))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		}
		span.End()
	}()

	if principal.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if err := s.policy.Require(principal, policy.PermSignaturesApply); err != nil {
		return nil, err
	}
	if _, err := s.policy.Authorize(principal, docmodels.ActionFirmarCliente); err != nil {
		return nil, err
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.documents.GetDocument(ctx, principal, id); err != nil {
		return nil, err
	}

	start := time.Now()
	signed, err := s.embedder.EmbedImage(ctx, req.PDF, req.Image, req.X, req.Y, req.Page)
	s.metrics.ObserveEmbedLatency(start)
	if err != nil {
		return nil, err
	}

	artifact, err := s.artifacts.Save(ctx, id, artifactmodels.KindHandwrittenSignature, signed, req.Filename)
	if err != nil {
		return nil, err
	}

	state, err := s.documents.Transition(ctx, principal, id, docmodels.ActionFirmarCliente)
	if err != nil {
		s.logger.WarnContext(ctx, "signature stored but transition failed",
			"request_id", requestcontext.RequestID(ctx),
			"document_id", id.String(),
			"artifact_id", artifact.ID.String(),
			"error", err,
		)
		return nil, err
	}

	details := device.FromContext(ctx).AuditDetails()
	details["artifact_id"] = artifact.ID.String()
	details["artifact_digest"] = artifact.Digest
	details["page"] = strconv.Itoa(req.Page)
	details["x"] = strconv.FormatFloat(req.X, 'f', -1, 64)
	details["y"] = strconv.FormatFloat(req.Y, 'f', -1, 64)
	if ip := requestcontext.ClientIP(ctx); ip != "" {
		details["client_ip"] = ip
	}
	s.logAudit(ctx, principal, id, details)

	return &models.Result{DocumentID: id, State: state, Artifact: artifact}, nil
}

func (s *Service) logAudit(ctx context.Context, principal domain.Principal, id domain.DocumentID, details map[string]string) {
	requestID := requestcontext.RequestID(ctx)
	s.logger.InfoContext(ctx, string(audit.EventSignatureApplied),
		"event", string(audit.EventSignatureApplied),
		"log_type", "audit",
		"request_id", requestID,
		"document_id", id.String(),
		"actor_id", principal.ID.String(),
		"artifact_id", details["artifact_id"],
	)
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, audit.Event{
		EventType: audit.EventSignatureApplied,
		EntityID:  id.String(),
		ActorID:   principal.ID,
		ActorRole: principal.Role,
		Details:   details,
		RequestID: requestID,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", requestID,
			"event", string(audit.EventSignatureApplied),
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
