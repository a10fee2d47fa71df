package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	kv := sanitizeKVs([]interface{}{
		"access_token", "abc",
		"app_secret", "s3cr3t",
		"x_hub_signature", "sha256=deadbeef",
		"job_id", "42",
	})
	got := map[string]interface{}{}
	for i := 0; i+1 < len(kv); i += 2 {
		got[kv[i].(string)] = kv[i+1]
	}
	for _, k := range []string{"access_token", "app_secret", "x_hub_signature"} {
		if got[k] != "[REDACTED]" {
			t.Fatalf("%s not redacted: %v", k, got[k])
		}
	}
	if got["job_id"] != "42" {
		t.Fatalf("job_id changed: %v", got["job_id"])
	}
}

func TestSanitizeKVsHashesSenderIDs(t *testing.T) {
	kv := sanitizeKVs([]interface{}{"sender_id", "17841400000000000"})
	v, ok := kv[1].(string)
	if !ok || !strings.HasPrefix(v, "hash:") {
		t.Fatalf("sender_id not hashed: %v", kv[1])
	}
	again := sanitizeKVs([]interface{}{"sender_id", "17841400000000000"})
	if again[1] != v {
		t.Fatalf("hash not stable: %v vs %v", again[1], v)
	}
}

func TestSanitizeKVsOddLength(t *testing.T) {
	kv := sanitizeKVs([]interface{}{"a", 1, "dangling"})
	if len(kv) != 3 || kv[2] != "dangling" {
		t.Fatalf("unexpected kv: %#v", kv)
	}
}

func TestSanitizeKVsDropsMessageBodies(t *testing.T) {
	kv := sanitizeKVs([]interface{}{"text", "meet me at Pump House", "text_len", 21})
	if kv[1] != "[21 chars]" {
		t.Fatalf("text not reduced: %v", kv[1])
	}
	if kv[3] != 21 {
		t.Fatalf("text_len changed: %v", kv[3])
	}
}
