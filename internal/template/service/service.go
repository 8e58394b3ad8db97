package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"notaria/internal/template/models"
	"notaria/pkg/attrs"
	"notaria/pkg/domain"
	dErrors "notaria/pkg/domain-errors"
	"notaria/pkg/platform/audit"
	"notaria/pkg/platform/sentinel"
	"notaria/pkg/requestcontext"
)

// Store persists templates.
type Store interface {
	Save(ctx context.Context, t *models.Template) error
	GetTemplate(ctx context.Context, id domain.TemplateID) (*models.Template, error)
}

// Reader serves template lookups; usually the Redis cache in front of Store.
type Reader interface {
	GetTemplate(ctx context.Context, id domain.TemplateID) (*models.Template, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service registers and serves templates. Only admins and gestores may
// register templates; any authenticated principal may read them.
type Service struct {
	store          Store
	reader         Reader
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithReader routes reads through a cache instead of the store.
func WithReader(reader Reader) Option {
	return func(s *Service) {
		s.reader = reader
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, reader: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) CreateTemplate(ctx context.Context, principal domain.Principal, req *models.CreateTemplateRequest) (*models.Template, error) {
	if !principal.Role.IsAdmin() && principal.Role != domain.RoleGestor {
		return nil, dErrors.New(dErrors.CodeForbidden, "operation templates:create requires role: admin, gestor")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	t, err := models.NewTemplate(domain.TemplateID(uuid.New()), req.Name, req.Body, req.RequiredFields, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, t); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "template already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save template")
	}

	s.logAudit(ctx, audit.EventTemplateCreated, principal,
		"template_id", t.ID.String(),
		"name", t.Name,
		"required_fields", len(t.RequiredFields),
	)
	return t, nil
}

func (s *Service) GetTemplate(ctx context.Context, id domain.TemplateID) (*models.Template, error) {
	t, err := s.reader.GetTemplate(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "template not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load template")
	}
	return t, nil
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, principal domain.Principal, attributes ...any) {
	requestID := requestcontext.RequestID(ctx)
	details := attrs.Details(attributes, "template_id")
	if requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", string(event), "log_type", "audit", "actor_id", principal.ID.String())
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event), args...)
	}
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		EventType: event,
		EntityID:  attrs.String(attributes, "template_id"),
		ActorID:   principal.ID,
		ActorRole: principal.Role,
		Details:   details,
		RequestID: requestID,
	})
}
