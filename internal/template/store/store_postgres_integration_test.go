//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"notaria/internal/platform/postgres"
	"notaria/internal/template/models"
	"notaria/internal/template/store"
	"notaria/pkg/domain"
	"notaria/pkg/platform/sentinel"
	"notaria/pkg/testutil/containers"
)

type PostgresTemplateStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresTemplateStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresTemplateStoreSuite))
}

func (s *PostgresTemplateStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.Require().NoError(postgres.Migrate(context.Background(), s.postgres.DB, postgres.Schema))
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresTemplateStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "templates"))
}

func (s *PostgresTemplateStoreSuite) TestRoundTripsRequiredFields() {
	ctx := context.Background()
	tpl := &models.Template{
		ID:             domain.TemplateID(uuid.New()),
		Name:           "Testamento",
		Body:           "Yo, {{testador}}",
		RequiredFields: []string{"testador", "fecha"},
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.store.Save(ctx, tpl))

	found, err := s.store.GetTemplate(ctx, tpl.ID)
	s.Require().NoError(err)
	s.Equal(tpl.RequiredFields, found.RequiredFields)
	s.Equal(tpl.Body, found.Body)
	s.True(tpl.CreatedAt.Equal(found.CreatedAt))
}

func (s *PostgresTemplateStoreSuite) TestDuplicateIDConflicts() {
	ctx := context.Background()
	tpl := &models.Template{
		ID:             domain.TemplateID(uuid.New()),
		Name:           "Dup",
		Body:           "x",
		RequiredFields: []string{},
		CreatedAt:      time.Now().UTC(),
	}
	s.Require().NoError(s.store.Save(ctx, tpl))
	s.ErrorIs(s.store.Save(ctx, tpl), sentinel.ErrConflict)
}

func (s *PostgresTemplateStoreSuite) TestMissingTemplate() {
	_, err := s.store.GetTemplate(context.Background(), domain.TemplateID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}
