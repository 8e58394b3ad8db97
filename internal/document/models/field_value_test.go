package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "notaria/pkg/domain-errors"
)

func TestFieldValue_String(t *testing.T) {
	assert.Equal(t, "Ana", StringValue("Ana").String())
	assert.Equal(t, "1500", NumberValue(1500).String())
	assert.Equal(t, "12.5", NumberValue(12.5).String())
	assert.Equal(t, "10000000000000000000000", NumberValue(1e22).String(), "no exponent form")
	assert.Equal(t, "-0.001", NumberValue(-0.001).String())
	assert.Equal(t, "true", BoolValue(true).String())
	assert.Equal(t, "", FieldValue{}.String())
}

func TestFieldValue_IsBlank(t *testing.T) {
	assert.True(t, FieldValue{}.IsBlank())
	assert.True(t, StringValue("   ").IsBlank())
	assert.False(t, StringValue("x").IsBlank())
	assert.False(t, NumberValue(0).IsBlank(), "zero is a supplied value")
	assert.False(t, BoolValue(false).IsBlank(), "false is a supplied value")
}

func TestFieldValues_DecodeRejectsNonScalars(t *testing.T) {
	for _, payload := range []string{
		`{"a": null}`,
		`{"a": {"nested": 1}}`,
		`{"a": [1, 2]}`,
	} {
		var values FieldValues
		err := json.Unmarshal([]byte(payload), &values)
		require.Error(t, err, payload)
	}
}

func TestFieldValues_DecodeScalars(t *testing.T) {
	var values FieldValues
	require.NoError(t, json.Unmarshal([]byte(`{"nombre":"Ana","monto":1500,"urgente":false}`), &values))

	assert.True(t, values["nombre"].IsString())
	assert.True(t, values["monto"].IsNumber())
	assert.True(t, values["urgente"].IsBool())
	assert.Equal(t, map[string]string{"nombre": "Ana", "monto": "1500", "urgente": "false"}, values.Strings())
}

func TestFieldValues_MergeKeepsUntouchedKeys(t *testing.T) {
	current := FieldValues{"nombre": StringValue("Ana"), "monto": NumberValue(100)}
	merged := current.Merge(FieldValues{"monto": NumberValue(250), "ciudad": StringValue("Lima")})

	assert.Equal(t, "Ana", merged["nombre"].String())
	assert.Equal(t, "250", merged["monto"].String())
	assert.Equal(t, "Lima", merged["ciudad"].String())
	assert.Equal(t, "100", current["monto"].String(), "receiver is not modified")
}

func TestFieldValues_Validate(t *testing.T) {
	assert.NoError(t, FieldValues{"a": StringValue("")}.Validate())

	err := FieldValues{" ": StringValue("x")}.Validate()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	err = FieldValues{"a": {}}.Validate()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
