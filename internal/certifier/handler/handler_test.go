package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	artifactmodels "notaria/internal/artifact/models"
	artifactservice "notaria/internal/artifact/service"
	artifactstore "notaria/internal/artifact/store"
	"notaria/internal/certifier/service"
	docmodels "notaria/internal/document/models"
	docservice "notaria/internal/document/service"
	docstore "notaria/internal/document/store"
	sigmodels "notaria/internal/signature/models"
	templatemodels "notaria/internal/template/models"
	templatestore "notaria/internal/template/store"
	"notaria/pkg/domain"
	"notaria/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	router       http.Handler
	documents    *docservice.Service
	template     *templatemodels.Template
	gestor       domain.Principal
	certificador domain.Principal
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	templates := templatestore.NewInMemoryStore()
	tpl, err := templatemodels.NewTemplate(domain.TemplateID(uuid.New()), "Escritura", "Escritura de {{inmueble}}", nil, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(templates.Save(context.Background(), tpl))
	s.template = tpl

	docs := docstore.NewInMemoryStore()
	s.documents = docservice.New(docs, docs, templates, nil, docservice.WithLogger(logger))
	artifacts := artifactservice.New(artifactstore.NewInMemoryStore(), artifactservice.WithLogger(logger))
	svc := service.New(s.documents, artifacts, nil, service.WithLogger(logger))

	r := chi.NewRouter()
	New(svc, logger).Register(r)
	s.router = r

	s.gestor = domain.Principal{ID: domain.UserID(uuid.New()), Role: domain.RoleGestor}
	s.certificador = domain.Principal{ID: domain.UserID(uuid.New()), Role: domain.RoleCertificador}
}

func (s *HandlerSuite) newDocument() *docmodels.Document {
	doc, err := s.documents.CreateDocument(context.Background(), s.gestor, &docmodels.CreateDocumentRequest{
		TemplateID:  s.template.ID,
		Name:        "Escritura",
		FieldValues: docmodels.FieldValues{"inmueble": docmodels.StringValue(uuid.NewString())},
	})
	s.Require().NoError(err)
	return doc
}

func (s *HandlerSuite) upload(as domain.Principal, id string, pdf []byte, certifierID string) *httptest.ResponseRecorder {
	var files []testutil.FilePart
	if pdf != nil {
		files = append(files, testutil.FilePart{Field: "pdf", Filename: "final.pdf", Content: pdf})
	}
	req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/documents/"+id+"/certification", files,
		map[string]string{"certifier_id": certifierID})
	req = testutil.WithPrincipal(req, as.ID.String(), string(as.Role))
	return testutil.DoRequest(s.router, req)
}

func (s *HandlerSuite) TestUpload() {
	pdf := []byte("%PDF-1.7\n% countersigned")

	s.Run("certified", func() {
		doc := s.newDocument()
		rr := s.upload(s.certificador, doc.ID.String(), pdf, s.certificador.ID.String())

		s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
		result := testutil.UnmarshalResponse[sigmodels.Result](s.T(), rr)
		s.Equal(docmodels.StateCertificado, result.State)
		s.Equal(artifactmodels.KindCertifierFinal, result.Artifact.Kind)
	})

	s.Run("identity mismatch", func() {
		doc := s.newDocument()
		rr := s.upload(s.certificador, doc.ID.String(), pdf, uuid.NewString())
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
	})

	s.Run("malformed certifier id", func() {
		doc := s.newDocument()
		rr := s.upload(s.certificador, doc.ID.String(), pdf, "someone")
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("missing pdf", func() {
		doc := s.newDocument()
		rr := s.upload(s.certificador, doc.ID.String(), nil, s.certificador.ID.String())
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("gestor cannot certify", func() {
		doc := s.newDocument()
		rr := s.upload(s.gestor, doc.ID.String(), pdf, s.gestor.ID.String())
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
	})
}
