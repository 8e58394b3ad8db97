package httputil

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "notaria/pkg/domain-errors"
	"notaria/pkg/testutil"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		code     string
		describe bool
	}{
		{"unknown action", dErrors.New(dErrors.CodeUnknownAction, "unknown action \"x\""), http.StatusBadRequest, "unknown_action", true},
		{"page out of range", dErrors.New(dErrors.CodeInvalidPage, "page index 3 out of range"), http.StatusBadRequest, "invalid_page", true},
		{"corrupt image", dErrors.New(dErrors.CodeEmbedFailed, "unsupported or corrupt image"), http.StatusUnprocessableEntity, "embed_failed", true},
		{"digest collision", dErrors.New(dErrors.CodeDuplicateContent, "duplicate"), http.StatusConflict, "duplicate_content", true},
		{"role not allowed", dErrors.New(dErrors.CodeForbidden, "action verificar requires role: admin, gestor"), http.StatusForbidden, "forbidden", true},
		{"internal hides its message", dErrors.Wrap(errors.New("dial tcp"), dErrors.CodeInternal, "db failed"), http.StatusInternalServerError, "internal_error", false},
		{"plain error is internal", errors.New("boom"), http.StatusInternalServerError, "internal_error", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			WriteError(rr, tt.err)

			assert.Equal(t, tt.status, rr.Code)
			body := testutil.UnmarshalErrorResponse(t, rr)
			assert.Equal(t, tt.code, body["error"])
			_, described := body["error_description"]
			assert.Equal(t, tt.describe, described)
		})
	}
}

func multipartBody(t *testing.T, field string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, "upload.pdf")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestMultipartHelpers(t *testing.T) {
	t.Run("reads a whole file", func(t *testing.T) {
		body, contentType := multipartBody(t, "pdf", []byte("%PDF-1.7"))
		req := httptest.NewRequest(http.MethodPost, "/", body)
		req.Header.Set("Content-Type", contentType)

		require.NoError(t, ParseMultipart(httptest.NewRecorder(), req, 1<<20))
		data, filename, err := FormFile(req, "pdf")
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1.7"), data)
		assert.Equal(t, "upload.pdf", filename)

		_, _, err = FormFile(req, "image")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("body over the limit", func(t *testing.T) {
		body, contentType := multipartBody(t, "pdf", bytes.Repeat([]byte("x"), 4096))
		req := httptest.NewRequest(http.MethodPost, "/", body)
		req.Header.Set("Content-Type", contentType)

		err := ParseMultipart(httptest.NewRecorder(), req, 512)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("not multipart", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{}`))
		req.Header.Set("Content-Type", "application/json")

		err := ParseMultipart(httptest.NewRecorder(), req, 1<<20)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}
