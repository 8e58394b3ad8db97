package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"notaria/internal/document/models"
)

func TestHash(t *testing.T) {
	// sha256("") and sha256("abc") reference vectors.
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Hash(""))
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", Hash("abc"))
	assert.Equal(t, Hash("Contrato de Ana"), Hash("Contrato de Ana"))
	assert.NotEqual(t, Hash("Contrato de Ana"), Hash("Contrato de Ana "))
	assert.Len(t, Hash("ñandú"), 64)
}

func TestFill(t *testing.T) {
	values := models.FieldValues{
		"nombre":  models.StringValue("Ana"),
		"monto":   models.NumberValue(1500),
		"urgente": models.BoolValue(true),
	}

	tests := []struct {
		name string
		body string
		want string
	}{
		{"simple", "Hola {{nombre}}", "Hola Ana"},
		{"inner whitespace", "Hola {{  nombre }}", "Hola Ana"},
		{"repeated", "{{nombre}} y {{nombre}}", "Ana y Ana"},
		{"number and bool", "Monto {{monto}} urgente={{urgente}}", "Monto 1500 urgente=true"},
		{"missing left as is", "Hola {{apellido}}", "Hola {{apellido}}"},
		{"no placeholders", "texto plano", "texto plano"},
		{"single braces ignored", "{nombre}", "{nombre}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fill(tt.body, values))
		})
	}
}

func TestFill_SinglePass(t *testing.T) {
	values := models.FieldValues{
		"a": models.StringValue("{{b}}"),
		"b": models.StringValue("boom"),
	}
	assert.Equal(t, "{{b}}", Fill("{{a}}", values))
}

func TestFill_LeavesNoSuppliedPlaceholder(t *testing.T) {
	body := "{{uno}} {{ dos }} {{tres}} {{cuatro}}"
	values := models.FieldValues{
		"uno":  models.StringValue("1"),
		"dos":  models.NumberValue(2),
		"tres": models.BoolValue(false),
	}
	filled := Fill(body, values)
	for name := range values {
		assert.NotContains(t, Placeholders(filled), name)
	}
	assert.True(t, strings.Contains(filled, "{{cuatro}}"))
}

func TestPlaceholders(t *testing.T) {
	body := "{{nombre}} {{ monto }} {{nombre}} {{año}} {{ fecha.firma }}"
	assert.Equal(t, []string{"nombre", "monto", "año", "fecha.firma"}, Placeholders(body))
	assert.Empty(t, Placeholders("sin marcadores"))
}

func TestMissingRequired(t *testing.T) {
	values := models.FieldValues{
		"nombre": models.StringValue("Ana"),
		"blank":  models.StringValue("  "),
		"cero":   models.NumberValue(0),
	}

	name, missing := MissingRequired([]string{"nombre", "monto"}, values)
	assert.True(t, missing)
	assert.Equal(t, "monto", name)

	name, missing = MissingRequired([]string{"blank"}, values)
	assert.True(t, missing)
	assert.Equal(t, "blank", name)

	_, missing = MissingRequired([]string{"nombre", "cero"}, values)
	assert.False(t, missing)
}
