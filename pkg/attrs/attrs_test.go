package attrs

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	kv := []any{"document_id", "doc-1", "count", 3, "action", "verificar", "dangling"}

	assert.Equal(t, "doc-1", String(kv, "document_id"))
	assert.Equal(t, "verificar", String(kv, "action"))
	assert.Empty(t, String(kv, "count"), "non-string values are ignored")
	assert.Empty(t, String(kv, "dangling"), "keys without a value are ignored")
	assert.Empty(t, String(nil, "document_id"))
}

func TestDetails(t *testing.T) {
	id := uuid.MustParse("6f1c1e4e-7f59-4c43-9b8a-3f5d2f0e9a11")
	kv := []any{"template_id", "t-1", "name", "Poder", "required", 2, "owner", id, 7, "ignored", "request_id", "r-1", "dangling"}

	assert.Equal(t, map[string]string{
		"template_id": "t-1",
		"name":        "Poder",
		"required":    "2",
		"owner":       "6f1c1e4e-7f59-4c43-9b8a-3f5d2f0e9a11",
	}, Details(kv, "request_id"))
}
