package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"notaria/internal/artifact/models"
	"notaria/internal/artifact/service"
	"notaria/internal/artifact/store"
	docmodels "notaria/internal/document/models"
	docservice "notaria/internal/document/service"
	docstore "notaria/internal/document/store"
	templatemodels "notaria/internal/template/models"
	templatestore "notaria/internal/template/store"
	"notaria/pkg/domain"
	"notaria/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	router    http.Handler
	artifacts *service.Service
	doc       *docmodels.Document
	owner     domain.Principal
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	templates := templatestore.NewInMemoryStore()
	tpl, err := templatemodels.NewTemplate(domain.TemplateID(uuid.New()), "Poder", "Poder para {{apoderado}}", nil, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(templates.Save(ctx, tpl))

	docs := docstore.NewInMemoryStore()
	documents := docservice.New(docs, docs, templates, nil, docservice.WithLogger(logger))
	s.artifacts = service.New(store.NewInMemoryStore(), service.WithLogger(logger))

	s.owner = domain.Principal{ID: domain.UserID(uuid.New()), Role: domain.RoleCliente}
	s.doc, err = documents.CreateDocument(ctx, s.owner, &docmodels.CreateDocumentRequest{
		TemplateID:  tpl.ID,
		Name:        "Poder",
		FieldValues: docmodels.FieldValues{"apoderado": docmodels.StringValue("Ana")},
	})
	s.Require().NoError(err)

	r := chi.NewRouter()
	New(documents, s.artifacts, logger).Register(r)
	s.router = r
}

func (s *HandlerSuite) get(as domain.Principal, path string) *http.Response {
	req := testutil.WithPrincipal(testutil.NewRequest(s.T(), http.MethodGet, path), as.ID.String(), string(as.Role))
	return testutil.DoRequest(s.router, req).Result()
}

func (s *HandlerSuite) TestDownload() {
	content := []byte("%PDF-1.7 signed")
	_, err := s.artifacts.Save(context.Background(), s.doc.ID, models.KindHandwrittenSignature, content, "firmado.pdf")
	s.Require().NoError(err)
	path := "/documents/" + s.doc.ID.String() + "/artifacts/firma_manuscrita"

	s.Run("owner downloads the stored bytes", func() {
		resp := s.get(s.owner, path)
		defer resp.Body.Close()
		s.Equal(http.StatusOK, resp.StatusCode)
		s.Equal("application/pdf", resp.Header.Get("Content-Type"))
		s.Equal("attachment; filename=firmado.pdf", resp.Header.Get("Content-Disposition"))
		body, err := io.ReadAll(resp.Body)
		s.Require().NoError(err)
		s.Equal(content, body)
	})

	s.Run("other cliente sees not found", func() {
		other := domain.Principal{ID: domain.UserID(uuid.New()), Role: domain.RoleCliente}
		resp := s.get(other, path)
		defer resp.Body.Close()
		s.Equal(http.StatusNotFound, resp.StatusCode)
	})

	s.Run("kind not stored yet", func() {
		resp := s.get(s.owner, "/documents/"+s.doc.ID.String()+"/artifacts/certificado_final")
		defer resp.Body.Close()
		s.Equal(http.StatusNotFound, resp.StatusCode)
	})

	s.Run("unknown kind", func() {
		resp := s.get(s.owner, "/documents/"+s.doc.ID.String()+"/artifacts/recibo")
		defer resp.Body.Close()
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})
}
