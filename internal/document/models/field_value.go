package models

import (
	"bytes"
	"encoding/json"
	"maps"
	"strconv"
	"strings"

	dErrors "notaria/pkg/domain-errors"
)

type fieldKind uint8

const (
	kindString fieldKind = iota + 1
	kindNumber
	kindBool
)

// FieldValue is a scalar field value: a string, a number or a boolean.
// The zero value is invalid; build values with the constructors below or
// by decoding JSON.
type FieldValue struct {
	kind fieldKind
	str  string
	num  float64
	flag bool
}

func StringValue(s string) FieldValue { return FieldValue{kind: kindString, str: s} }

func NumberValue(n float64) FieldValue { return FieldValue{kind: kindNumber, num: n} }

func BoolValue(b bool) FieldValue { return FieldValue{kind: kindBool, flag: b} }

// IsString, IsNumber and IsBool report the variant.
func (v FieldValue) IsString() bool { return v.kind == kindString }
func (v FieldValue) IsNumber() bool { return v.kind == kindNumber }
func (v FieldValue) IsBool() bool   { return v.kind == kindBool }

// String renders the value as it is substituted into a template body.
// Numbers use the shortest decimal form without an exponent (1500, 12.5).
func (v FieldValue) String() string {
	switch v.kind {
	case kindString:
		return v.str
	case kindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case kindBool:
		return strconv.FormatBool(v.flag)
	default:
		return ""
	}
}

// IsBlank reports whether the value counts as missing for a required field.
// Only unset values and whitespace-only strings are blank.
func (v FieldValue) IsBlank() bool {
	switch v.kind {
	case kindString:
		return strings.TrimSpace(v.str) == ""
	case kindNumber, kindBool:
		return false
	default:
		return true
	}
}

func (v FieldValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindString:
		return json.Marshal(v.str)
	case kindNumber:
		return []byte(strconv.FormatFloat(v.num, 'f', -1, 64)), nil
	case kindBool:
		return json.Marshal(v.flag)
	default:
		return []byte("null"), nil
	}
}

func (v *FieldValue) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid field value")
	}
	switch t := raw.(type) {
	case string:
		*v = StringValue(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeValidation, "invalid numeric field value")
		}
		*v = NumberValue(n)
	case bool:
		*v = BoolValue(t)
	default:
		return dErrors.New(dErrors.CodeValidation, "field values must be strings, numbers or booleans")
	}
	return nil
}

// FieldValues maps placeholder names to values.
type FieldValues map[string]FieldValue

// Merge returns a new map with update applied over v. Keys absent from
// update keep their current value; v is not modified.
func (v FieldValues) Merge(update FieldValues) FieldValues {
	merged := make(FieldValues, len(v)+len(update))
	maps.Copy(merged, v)
	maps.Copy(merged, update)
	return merged
}

// Strings renders every value with FieldValue.String.
func (v FieldValues) Strings() map[string]string {
	out := make(map[string]string, len(v))
	for k, val := range v {
		out[k] = val.String()
	}
	return out
}

// Validate rejects empty keys and zero values.
func (v FieldValues) Validate() error {
	for k, val := range v {
		if strings.TrimSpace(k) == "" {
			return dErrors.New(dErrors.CodeValidation, "field names must not be empty")
		}
		if val.kind == 0 {
			return dErrors.New(dErrors.CodeValidation, "field "+k+" has no value")
		}
	}
	return nil
}
