// Package attrs reads slog-style key/value argument lists so a service can
// log and audit from the same attributes.
package attrs

import "fmt"

// String returns the string value stored under key, or "" when the key is
// missing or its value is not a string.
func String(kv []any, key string) string {
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok && k == key {
			v, _ := kv[i+1].(string)
			return v
		}
	}
	return ""
}

// Details converts kv into audit event details. Non-string keys and a trailing
// key without value are skipped; values are formatted with %v.
func Details(kv []any, skip ...string) map[string]string {
	out := make(map[string]string, len(kv)/2)
outer:
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			continue
		}
		for _, s := range skip {
			if s == k {
				continue outer
			}
		}
		switch v := kv[i+1].(type) {
		case string:
			out[k] = v
		case fmt.Stringer:
			out[k] = v.String()
		default:
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}
