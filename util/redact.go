package util

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
)

// RedactedPlaceholder replaces sensitive values in logged output.
const RedactedPlaceholder = "[REDACTED]"

// maxLoggedStringLen bounds string values in logged snapshots.
const maxLoggedStringLen = 256

// sensitiveKeySubstrings flags map keys whose values must never be logged.
var sensitiveKeySubstrings = []string{
	"password",
	"passphrase",
	"token",
	"secret",
	"apikey",
	"api_key",
	"authorization",
	"credential",
	"privatekey",
	"private_key",
	"hash",
	"salt",
}

// IsSensitiveKey reports whether a map key looks like it holds a secret.
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeySubstrings {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// RedactValue returns a log-safe copy of v. Maps have sensitive keys replaced
// recursively, long strings are truncated, and functions and channels are
// replaced with a type placeholder.
func RedactValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if IsSensitiveKey(k) {
				out[k] = RedactedPlaceholder
				continue
			}
			out[k] = RedactValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = RedactValue(inner)
		}
		return out
	case string:
		if len(val) > maxLoggedStringLen {
			return val[:maxLoggedStringLen] + "..."
		}
		return val
	default:
		if v == nil {
			return nil
		}
		switch reflect.TypeOf(v).Kind() {
		case reflect.Func, reflect.Chan:
			return fmt.Sprintf("<%T>", v)
		}
		return v
	}
}

// RedactArgs returns a log-safe snapshot of a call's arguments.
func RedactArgs(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = RedactValue(a)
	}
	return out
}

// RedactFields returns a copy of fields with sensitive values replaced.
func RedactFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	redacted := RedactValue(fields)
	return redacted.(map[string]any)
}

// SanitizeString trims whitespace and removes control characters from s.
func SanitizeString(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
