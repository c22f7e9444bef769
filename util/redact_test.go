package util

import (
	"strings"
	"testing"
)

func TestIsSensitiveKey(t *testing.T) {
	sensitive := []string{"password", "Password", "userPassword", "access_token", "apiKey", "api_key", "Authorization", "master_secret", "pwdHash"}
	for _, k := range sensitive {
		if !IsSensitiveKey(k) {
			t.Errorf("expected %q to be sensitive", k)
		}
	}

	safe := []string{"username", "email", "id", "category"}
	for _, k := range safe {
		if IsSensitiveKey(k) {
			t.Errorf("did not expect %q to be sensitive", k)
		}
	}
}

func TestRedactValueMap(t *testing.T) {
	in := map[string]any{
		"username": "alice",
		"password": "hunter2",
		"nested": map[string]any{
			"token": "abc123",
			"site":  "example.com",
		},
	}

	out := RedactValue(in).(map[string]any)
	if out["username"] != "alice" {
		t.Errorf("expected username preserved, got %v", out["username"])
	}
	if out["password"] != RedactedPlaceholder {
		t.Errorf("expected password redacted, got %v", out["password"])
	}
	nested := out["nested"].(map[string]any)
	if nested["token"] != RedactedPlaceholder {
		t.Errorf("expected nested token redacted, got %v", nested["token"])
	}
	if nested["site"] != "example.com" {
		t.Errorf("expected nested site preserved, got %v", nested["site"])
	}

	// Original map untouched.
	if in["password"] != "hunter2" {
		t.Error("expected original map to be unmodified")
	}
}

func TestRedactValueLongString(t *testing.T) {
	long := strings.Repeat("a", 1000)
	out := RedactValue(long).(string)
	if len(out) >= 1000 {
		t.Errorf("expected long string truncated, got len %d", len(out))
	}
	if !strings.HasSuffix(out, "...") {
		t.Errorf("expected truncation marker, got %q", out[len(out)-8:])
	}
}

func TestRedactValueReplacesFuncsAndChannels(t *testing.T) {
	fn := func() {}
	ch := make(chan int)

	out := RedactValue(fn).(string)
	if !strings.HasPrefix(out, "<") || !strings.Contains(out, "func") {
		t.Errorf("expected func placeholder, got %q", out)
	}
	out = RedactValue(ch).(string)
	if !strings.Contains(out, "chan") {
		t.Errorf("expected chan placeholder, got %q", out)
	}
	if got := RedactValue(nil); got != nil {
		t.Errorf("expected nil preserved, got %v", got)
	}
}

func TestRedactArgs(t *testing.T) {
	args := []any{
		"user-1",
		map[string]any{"password": "pw", "name": "gmail"},
		42,
	}
	out := RedactArgs(args)
	if out[0] != "user-1" || out[2] != 42 {
		t.Errorf("expected scalars preserved, got %v", out)
	}
	m := out[1].(map[string]any)
	if m["password"] != RedactedPlaceholder {
		t.Errorf("expected password redacted, got %v", m["password"])
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  hello\x00world\n "); got != "helloworld" {
		t.Errorf("unexpected result: %q", got)
	}
}
