package config

import (
	"reflect"
	"testing"
	"time"
)

const testYAML = `
app:
  name: steamguard
  api_tokens: "a, b,,c"
  cors_origins:
    - https://one.example
    - " https://two.example "
steam:
  request_timeout: 15s
  time_align_seconds: 30
mfa:
  secret: MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=
storage:
  metadata: "owner:ops, env:dev"
`

func TestViper_Accessors(t *testing.T) {
	// Arrange
	cfg, err := NewViperFromBytes("yaml", []byte(testYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Assert
	if got := cfg.GetString("app.name"); got != "steamguard" {
		t.Fatalf("unexpected name %q", got)
	}
	if got := cfg.GetArray("app.api_tokens"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected tokens %v", got)
	}
	if got := cfg.GetArray("app.cors_origins"); !reflect.DeepEqual(got, []string{"https://one.example", "https://two.example"}) {
		t.Fatalf("unexpected origins %v", got)
	}
	if got := cfg.GetDuration("steam.request_timeout"); got != 15*time.Second {
		t.Fatalf("unexpected timeout %v", got)
	}
	if got := cfg.GetSecond("steam.time_align_seconds"); got != 30*time.Second {
		t.Fatalf("unexpected align interval %v", got)
	}
	if got := cfg.GetBinary("mfa.secret"); len(got) != 32 {
		t.Fatalf("expected 32 byte key, got %d", len(got))
	}
	if got := cfg.GetMap("storage.metadata"); !reflect.DeepEqual(got, map[string]string{"owner": "ops", "env": "dev"}) {
		t.Fatalf("unexpected map %v", got)
	}
	if got := cfg.GetArray("missing.key"); len(got) != 0 {
		t.Fatalf("expected empty list, got %v", got)
	}
}

func TestViper_EnvOverride(t *testing.T) {
	// Arrange
	t.Setenv("STEAMGUARD_APP_NAME", "from-env")
	cfg, err := NewViperFromBytes("yaml", []byte(testYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Act
	got := cfg.GetString("app.name")

	// Assert
	if got != "from-env" {
		t.Fatalf("expected env override, got %q", got)
	}
}
