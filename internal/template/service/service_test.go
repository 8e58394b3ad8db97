package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"notaria/internal/template/models"
	"notaria/internal/template/store"
	"notaria/pkg/domain"
	dErrors "notaria/pkg/domain-errors"
	"notaria/pkg/platform/audit"
	auditmemory "notaria/pkg/platform/audit/store/memory"
)

type recordingPublisher struct {
	events []audit.Event
}

func (p *recordingPublisher) Emit(_ context.Context, e audit.Event) error {
	p.events = append(p.events, e)
	return nil
}

type TemplateServiceSuite struct {
	suite.Suite
	store     *store.InMemoryStore
	publisher *recordingPublisher
	service   *Service
}

func TestTemplateServiceSuite(t *testing.T) {
	suite.Run(t, new(TemplateServiceSuite))
}

func (s *TemplateServiceSuite) SetupTest() {
	s.store = store.NewInMemoryStore()
	s.publisher = &recordingPublisher{}
	s.service = New(s.store, WithAuditPublisher(s.publisher))
}

func principal(role domain.Role) domain.Principal {
	return domain.Principal{ID: domain.UserID(uuid.New()), Role: role}
}

func (s *TemplateServiceSuite) TestCreateTemplate() {
	ctx := context.Background()

	s.Run("gestor registers a template", func() {
		actor := principal(domain.RoleGestor)
		tpl, err := s.service.CreateTemplate(ctx, actor, &models.CreateTemplateRequest{
			Name:           " Poder general ",
			Body:           "Otorga {{otorgante}}",
			RequiredFields: []string{"otorgante", "otorgante"},
		})
		s.Require().NoError(err)
		s.Equal("Poder general", tpl.Name)
		s.Equal([]string{"otorgante"}, tpl.RequiredFields)

		found, err := s.service.GetTemplate(ctx, tpl.ID)
		s.Require().NoError(err)
		s.Equal(tpl.Body, found.Body)

		s.Require().NotEmpty(s.publisher.events)
		last := s.publisher.events[len(s.publisher.events)-1]
		s.Equal(audit.EventTemplateCreated, last.EventType)
		s.Equal(tpl.ID.String(), last.EntityID)
		s.Equal(actor.ID, last.ActorID)
		s.Equal(map[string]string{"name": "Poder general", "required_fields": "1"}, last.Details)
	})

	s.Run("cliente is forbidden", func() {
		_, err := s.service.CreateTemplate(ctx, principal(domain.RoleCliente), &models.CreateTemplateRequest{
			Name: "x", Body: "y",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("blank body is a validation error", func() {
		_, err := s.service.CreateTemplate(ctx, principal(domain.RoleAdmin), &models.CreateTemplateRequest{
			Name: "x",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *TemplateServiceSuite) TestGetMissingTemplate() {
	_, err := s.service.GetTemplate(context.Background(), domain.TemplateID(uuid.New()))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

// Audit events land in the shared audit store when the publisher is backed by it.
func (s *TemplateServiceSuite) TestAuditStoreIntegration() {
	auditStore := auditmemory.NewInMemoryStore()
	svc := New(s.store, WithAuditPublisher(storePublisher{auditStore}))
	tpl, err := svc.CreateTemplate(context.Background(), principal(domain.RoleAdmin), &models.CreateTemplateRequest{
		Name: "Acta", Body: "Acta {{numero}}",
	})
	s.Require().NoError(err)

	events, err := auditStore.ListByEntity(context.Background(), tpl.ID.String())
	s.Require().NoError(err)
	s.Len(events, 1)
}

type storePublisher struct {
	store audit.Store
}

func (p storePublisher) Emit(ctx context.Context, e audit.Event) error {
	return p.store.Append(ctx, e)
}
