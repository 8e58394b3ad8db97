package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"notaria/internal/document/content"
	"notaria/internal/document/models"
	"notaria/internal/document/policy"
	"notaria/internal/document/store"
	templatemodels "notaria/internal/template/models"
	templatestore "notaria/internal/template/store"
	"notaria/pkg/domain"
	dErrors "notaria/pkg/domain-errors"
)

var allRoles = []domain.Role{
	domain.RoleAdmin,
	domain.RoleGestor,
	domain.RoleCliente,
	domain.RoleCertificador,
}

type fixture struct {
	svc       *Service
	store     *store.InMemoryStore
	templates *templatestore.InMemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	docs := store.NewInMemoryStore()
	templates := templatestore.NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		svc:       New(docs, docs, templates, policy.Default(), WithLogger(logger)),
		store:     docs,
		templates: templates,
	}
}

// seedDocument stores a document owned by owner in the given state.
func (f *fixture) seedDocument(t *testing.T, owner domain.UserID, state models.State) domain.DocumentID {
	t.Helper()
	body := "seed " + uuid.NewString()
	doc, err := models.NewDocument(domain.NewDocumentID(), domain.TemplateID(uuid.New()), "seed",
		nil, body, content.Hash(body), owner, time.Now())
	require.NoError(t, err)
	doc.State = state
	require.NoError(t, f.store.Create(context.Background(), doc))
	return doc.ID
}

func (f *fixture) state(t *testing.T, id domain.DocumentID) models.State {
	t.Helper()
	doc, err := f.store.FindByID(context.Background(), id)
	require.NoError(t, err)
	return doc.State
}

// For every action, role and starting state the outcome is decided by the
// rule alone: allowed roles (and admin) reach the rule's next state, everyone
// else gets Forbidden and the state is untouched.
func TestTransitionRoleMatrix(t *testing.T) {
	f := newFixture(t)
	p := f.svc.Policy()
	ctx := context.Background()

	for _, action := range p.Actions() {
		rule, err := p.Rule(action)
		require.NoError(t, err)
		for _, role := range allRoles {
			for _, from := range models.AllStates {
				caller := domain.Principal{ID: domain.UserID(uuid.New()), Role: role}
				id := f.seedDocument(t, caller.ID, from)

				got, err := f.svc.Transition(ctx, caller, id, action)
				if role.IsAdmin() || rule.Allows(role) {
					require.NoError(t, err, "%s by %s from %s", action, role, from)
					require.Equal(t, rule.NextState(), got)
					require.Equal(t, rule.NextState(), f.state(t, id))
					continue
				}
				require.True(t, dErrors.HasCode(err, dErrors.CodeForbidden), "%s by %s from %s", action, role, from)
				require.Equal(t, from, f.state(t, id))
			}
		}
	}
}

func TestUnknownActionsNeverChangeState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := domain.Principal{ID: domain.UserID(uuid.New()), Role: domain.RoleAdmin}

	for _, action := range []models.Action{"", "archivar", "COMPLETAR_DATOS", "completar datos", "firmar_cliente "} {
		for _, from := range models.AllStates {
			id := f.seedDocument(t, admin.ID, from)
			_, err := f.svc.Transition(ctx, admin, id, action)
			require.True(t, dErrors.HasCode(err, dErrors.CodeUnknownAction), "action %q", action)
			require.Equal(t, from, f.state(t, id))
		}
	}
}

// FuzzUpdateKeepsDigestInSync checks that after any accepted update the stored
// body is the template filled with the merged values and the digest is its hash.
func FuzzUpdateKeepsDigestInSync(f *testing.F) {
	f.Add("Ana", 1500.0, true)
	f.Add("", 0.0, false)
	f.Add("   ", -12.5, true)
	f.Add("{{monto}}", 1e21, false)
	f.Add("Señora Núñez", 0.1, true)

	f.Fuzz(func(t *testing.T, nombre string, monto float64, urgente bool) {
		fx := newFixture(t)
		ctx := context.Background()
		owner := domain.Principal{ID: domain.UserID(uuid.New()), Role: domain.RoleGestor}

		tpl, err := templatemodels.NewTemplate(domain.TemplateID(uuid.New()), "Recibo",
			"Recibí de {{nombre}} la suma de {{monto}}. Urgente: {{urgente}}", []string{"nombre"}, time.Now())
		require.NoError(t, err)
		require.NoError(t, fx.templates.Save(ctx, tpl))

		doc, err := fx.svc.CreateDocument(ctx, owner, &models.CreateDocumentRequest{
			TemplateID:  tpl.ID,
			Name:        "Recibo",
			FieldValues: models.FieldValues{"nombre": models.StringValue("Inicial")},
		})
		require.NoError(t, err)

		update := models.FieldValues{
			"nombre":  models.StringValue(nombre),
			"monto":   models.NumberValue(monto),
			"urgente": models.BoolValue(urgente),
		}
		updated, err := fx.svc.UpdateDocument(ctx, owner, doc.ID, &models.UpdateDocumentRequest{FieldValues: update})
		if strings.TrimSpace(nombre) == "" {
			require.True(t, dErrors.HasCode(err, dErrors.CodeMissingRequiredField))
			stored, err := fx.store.FindByID(ctx, doc.ID)
			require.NoError(t, err)
			require.Equal(t, doc.Digest, stored.Digest)
			return
		}
		require.NoError(t, err)

		stored, err := fx.store.FindByID(ctx, doc.ID)
		require.NoError(t, err)
		require.Equal(t, content.Fill(tpl.Body, doc.FieldValues.Merge(update)), stored.Body)
		require.Equal(t, content.Hash(stored.Body), stored.Digest)
		require.Equal(t, updated.Digest, stored.Digest)
	})
}
