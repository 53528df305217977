package logger

import "testing"

func TestRedactKVsMasksSecrets(t *testing.T) {
	got := redactKVs([]interface{}{"jwt_token", "abc", "derived_concept_id", 7, "POSTGRES_PASSWORD", "pw", "dangling"})
	want := []interface{}{"jwt_token", "[REDACTED]", "derived_concept_id", 7, "POSTGRES_PASSWORD", "[REDACTED]", "dangling"}
	if len(got) != len(want) {
		t.Fatalf("len: want=%d got=%d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("kv[%d]: want=%v got=%v", i, want[i], got[i])
		}
	}
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	if lvl := levelFromEnv(0); lvl.String() != "warn" {
		t.Fatalf("level: want=warn got=%s", lvl)
	}
	t.Setenv("LOG_LEVEL", "nonsense")
	if lvl := levelFromEnv(0); lvl.String() != "info" {
		t.Fatalf("fallback level: want=info got=%s", lvl)
	}
}
