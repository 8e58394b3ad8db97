package handler

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/wudi/pdfkit/builder"
	"github.com/wudi/pdfkit/writer"

	artifactmodels "notaria/internal/artifact/models"
	artifactservice "notaria/internal/artifact/service"
	artifactstore "notaria/internal/artifact/store"
	docmodels "notaria/internal/document/models"
	docservice "notaria/internal/document/service"
	docstore "notaria/internal/document/store"
	"notaria/internal/signature/embed"
	"notaria/internal/signature/models"
	"notaria/internal/signature/service"
	templatemodels "notaria/internal/template/models"
	templatestore "notaria/internal/template/store"
	"notaria/pkg/domain"
	"notaria/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	router    http.Handler
	documents *docservice.Service
	template  *templatemodels.Template
	owner     domain.Principal
	pdf       []byte
	signature []byte
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	templates := templatestore.NewInMemoryStore()
	tpl, err := templatemodels.NewTemplate(domain.TemplateID(uuid.New()), "Mandato", "Mandato de {{mandante}}", nil, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(templates.Save(context.Background(), tpl))
	s.template = tpl

	docs := docstore.NewInMemoryStore()
	s.documents = docservice.New(docs, docs, templates, nil, docservice.WithLogger(logger))
	artifacts := artifactservice.New(artifactstore.NewInMemoryStore(), artifactservice.WithLogger(logger))
	svc := service.New(s.documents, embed.New(), artifacts, nil, service.WithLogger(logger))

	r := chi.NewRouter()
	New(svc, logger).Register(r)
	s.router = r

	s.owner = domain.Principal{ID: domain.UserID(uuid.New()), Role: domain.RoleCliente}
	s.pdf = s.buildPDF()
	s.signature = s.buildPNG()
}

func (s *HandlerSuite) buildPDF() []byte {
	b := builder.NewBuilder()
	b.NewPage(600, 800).DrawText("Mandato", 50, 700, builder.TextOptions{FontSize: 12}).Finish()
	doc, err := b.Build()
	s.Require().NoError(err)
	var buf bytes.Buffer
	s.Require().NoError(writer.NewWriter().Write(context.Background(), doc, &buf, writer.Config{Deterministic: true}))
	return buf.Bytes()
}

func (s *HandlerSuite) buildPNG() []byte {
	img := image.NewNRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		img.Set(x, 10, color.NRGBA{A: 255})
	}
	var buf bytes.Buffer
	s.Require().NoError(png.Encode(&buf, img))
	return buf.Bytes()
}

func (s *HandlerSuite) newDocument() *docmodels.Document {
	doc, err := s.documents.CreateDocument(context.Background(), s.owner, &docmodels.CreateDocumentRequest{
		TemplateID:  s.template.ID,
		Name:        "Mandato",
		FieldValues: docmodels.FieldValues{"mandante": docmodels.StringValue(uuid.NewString())},
	})
	s.Require().NoError(err)
	return doc
}

func (s *HandlerSuite) upload(id string, files []testutil.FilePart, fields map[string]string) *httptest.ResponseRecorder {
	req := testutil.NewMultipartRequest(s.T(), http.MethodPost, "/documents/"+id+"/signatures", files, fields)
	req = testutil.WithPrincipal(req, s.owner.ID.String(), string(s.owner.Role))
	return testutil.DoRequest(s.router, req)
}

func (s *HandlerSuite) files() []testutil.FilePart {
	return []testutil.FilePart{
		{Field: "pdf", Filename: "mandato.pdf", Content: s.pdf},
		{Field: "image", Filename: "firma.png", Content: s.signature},
	}
}

func (s *HandlerSuite) TestApply() {
	s.Run("signed document moves to firmado_cliente", func() {
		doc := s.newDocument()
		rr := s.upload(doc.ID.String(), s.files(), map[string]string{"x": "100", "y": "50", "page": "0"})

		s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
		result := testutil.UnmarshalResponse[models.Result](s.T(), rr)
		s.Equal(docmodels.StateFirmadoCliente, result.State)
		s.Require().NotNil(result.Artifact)
		s.Equal(artifactmodels.KindHandwrittenSignature, result.Artifact.Kind)
		s.Equal("mandato.pdf", result.Artifact.Filename)
		s.NotEmpty(result.Artifact.Digest)
	})

	s.Run("page out of range is rejected with invalid_page", func() {
		doc := s.newDocument()
		rr := s.upload(doc.ID.String(), s.files(), map[string]string{"x": "10", "y": "10", "page": "3"})
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_page")
	})

	s.Run("missing image part", func() {
		doc := s.newDocument()
		rr := s.upload(doc.ID.String(), s.files()[:1], map[string]string{"x": "10", "y": "10"})
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("non-numeric coordinate", func() {
		doc := s.newDocument()
		rr := s.upload(doc.ID.String(), s.files(), map[string]string{"x": "left", "y": "10"})
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("invalid document id", func() {
		rr := s.upload("not-a-uuid", s.files(), map[string]string{"x": "10", "y": "10"})
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("unknown document", func() {
		rr := s.upload(uuid.NewString(), s.files(), map[string]string{"x": "10", "y": "10"})
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})
}
