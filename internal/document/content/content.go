// Package content fills template bodies and computes their integrity digest.
package content

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"

	"notaria/internal/document/models"
)

// placeholderRE matches {{name}} with optional inner whitespace. Names are
// letters (any script), digits, underscores, dots and hyphens.
var placeholderRE = regexp.MustCompile(`\{\{\s*([\p{L}\p{N}_.\-]+)\s*\}\}`)

// Hash returns the lowercase hex SHA-256 of body's UTF-8 bytes.
func Hash(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

// Fill substitutes every placeholder that has a value. Placeholders without a
// value are left as written. Substitution is a single pass, so values that
// themselves look like placeholders are not expanded.
func Fill(templateBody string, values models.FieldValues) string {
	if len(values) == 0 {
		return templateBody
	}
	return placeholderRE.ReplaceAllStringFunc(templateBody, func(m string) string {
		match := placeholderRE.FindStringSubmatch(m)
		if len(match) != 2 {
			return m
		}
		if v, ok := values[match[1]]; ok {
			return v.String()
		}
		return m
	})
}

// Placeholders lists distinct placeholder names in order of first appearance.
func Placeholders(templateBody string) []string {
	matches := placeholderRE.FindAllStringSubmatch(templateBody, -1)
	seen := make(map[string]struct{}, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		names = append(names, m[1])
	}
	return names
}

// MissingRequired returns the first required field that is absent or blank
// in values, preserving the order of required. ok is false when none is missing.
func MissingRequired(required []string, values models.FieldValues) (name string, ok bool) {
	for _, field := range required {
		v, present := values[field]
		if !present || v.IsBlank() {
			return field, true
		}
	}
	return "", false
}
