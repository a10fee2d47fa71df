package envutil

import (
	"testing"
	"time"
)

func TestParsers(t *testing.T) {
	t.Setenv("UNIDINE_TEST_INT", " 7 ")
	t.Setenv("UNIDINE_TEST_BAD_INT", "seven")
	t.Setenv("UNIDINE_TEST_FLOAT", "0.65")
	t.Setenv("UNIDINE_TEST_BOOL", "yes")
	t.Setenv("UNIDINE_TEST_SECONDS", "-3")

	if got := Int("UNIDINE_TEST_INT", 1); got != 7 {
		t.Fatalf("Int: got %d", got)
	}
	if got := Int("UNIDINE_TEST_BAD_INT", 1); got != 1 {
		t.Fatalf("Int fallback: got %d", got)
	}
	if got := Float("UNIDINE_TEST_FLOAT", 0.5); got != 0.65 {
		t.Fatalf("Float: got %v", got)
	}
	if !Bool("UNIDINE_TEST_BOOL", false) {
		t.Fatalf("Bool: expected true")
	}
	if got := Seconds("UNIDINE_TEST_SECONDS", 5); got != 0 {
		t.Fatalf("Seconds clamp: got %v", got)
	}
	if got := Seconds("UNIDINE_TEST_MISSING", 5); got != 5*time.Second {
		t.Fatalf("Seconds default: got %v", got)
	}
	t.Setenv("UNIDINE_TEST_TTL", "90m")
	t.Setenv("UNIDINE_TEST_TTL_SECONDS", "30")
	if got := Duration("UNIDINE_TEST_TTL", time.Hour); got != 90*time.Minute {
		t.Fatalf("Duration: got %v", got)
	}
	if got := Duration("UNIDINE_TEST_TTL_SECONDS", time.Hour); got != 30*time.Second {
		t.Fatalf("Duration seconds: got %v", got)
	}
	if got := String("UNIDINE_TEST_MISSING", "def"); got != "def" {
		t.Fatalf("String default: got %q", got)
	}
}
