package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVsRedactsAndHashes(t *testing.T) {
	out := sanitizeKVs([]interface{}{
		"user_id", "abc-123",
		"openai_api_key", "sk-live",
		"courses_found", 5,
	})
	if len(out) != 6 {
		t.Fatalf("len: want=6 got=%d", len(out))
	}
	hashed, ok := out[1].(string)
	if !ok || !strings.HasPrefix(hashed, "hash:") || len(hashed) != len("hash:")+12 {
		t.Fatalf("user_id not hashed: %v", out[1])
	}
	if out[3] != "[REDACTED]" {
		t.Fatalf("api key not redacted: %v", out[3])
	}
	if out[5] != 5 {
		t.Fatalf("plain value mutated: %v", out[5])
	}
}

func TestSanitizeKVsOddLength(t *testing.T) {
	out := sanitizeKVs([]interface{}{"event", "x", "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("unexpected output: %#v", out)
	}
}
