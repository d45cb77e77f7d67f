package config

import (
	"os"
	"path/filepath"
	"testing"
)

const validYAML = `
server:
  host: "0.0.0.0"
  port: 8080
database:
  host: "localhost"
  port: 5432
  name: "liftplan"
  user: "liftplan"
  password: "secret"
  sslmode: "disable"
auth:
  api_key: "test-key-123"
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestLoadValid verifies that a well-formed YAML config loads with all fields populated.
func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeTemp(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("server.host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Name != "liftplan" {
		t.Errorf("database.name = %q, want %q", cfg.Database.Name, "liftplan")
	}
	if cfg.Auth.APIKey != "test-key-123" {
		t.Errorf("auth.api_key = %q, want %q", cfg.Auth.APIKey, "test-key-123")
	}
	if cfg.Tailscale.Enabled {
		t.Error("tailscale.enabled = true, want false by default")
	}
}

// TestEnvOverride verifies that LIFTPLAN_ env vars take precedence over YAML values.
// This ensures production deployments can override config via environment.
func TestEnvOverride(t *testing.T) {
	t.Setenv("LIFTPLAN_DB_HOST", "override-host")
	t.Setenv("LIFTPLAN_DB_PORT", "9999")
	t.Setenv("LIFTPLAN_AUTH_API_KEY", "env-key")

	cfg, err := Load(writeTemp(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Host != "override-host" {
		t.Errorf("database.host = %q, want %q", cfg.Database.Host, "override-host")
	}
	if cfg.Database.Port != 9999 {
		t.Errorf("database.port = %d, want 9999", cfg.Database.Port)
	}
	if cfg.Auth.APIKey != "env-key" {
		t.Errorf("auth.api_key = %q, want %q", cfg.Auth.APIKey, "env-key")
	}
	// Unchanged fields should keep YAML values
	if cfg.Database.Name != "liftplan" {
		t.Errorf("database.name = %q, want %q", cfg.Database.Name, "liftplan")
	}
}

// TestDSN verifies the PostgreSQL connection string format.
func TestDSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "db", Port: 5432, Name: "liftplan", User: "u", Password: "p",
	}
	want := "postgres://u:p@db:5432/liftplan?sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

// TestLoadMissingFile verifies a useful error when the config file is absent.
func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

// TestValidateMissingAPIKey verifies validation rejects a config without an
// API key, so the ingest endpoints are never accidentally left open.
func TestValidateMissingAPIKey(t *testing.T) {
	yaml := `
server:
  port: 8080
database:
  host: "localhost"
  port: 5432
  name: "liftplan"
  user: "liftplan"
`
	if _, err := Load(writeTemp(t, yaml)); err == nil {
		t.Fatal("expected validation error")
	}
}

// TestValidateTailscaleHostname verifies that enabling Tailscale without a
// hostname is rejected.
func TestValidateTailscaleHostname(t *testing.T) {
	yaml := validYAML + `
tailscale:
  enabled: true
`
	if _, err := Load(writeTemp(t, yaml)); err == nil {
		t.Fatal("expected validation error for missing tailscale.hostname")
	}
}
