package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lumenflow/lumenflow-backend/internal/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

// unset removes the variable for the test while keeping t.Setenv's restore.
func unset(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	_ = os.Unsetenv(key)
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"CONFIG_FILE", "LOG_MODE", "PORT", "ALLOWED_ORIGINS", "SERVICE_NAME", "ENVIRONMENT", "SERVICE_VERSION"} {
		unset(t, key)
	}
	t.Setenv("JWT_SECRET_KEY", "sekrit")

	cfg, err := LoadConfig(testLogger(t))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Mode != "development" || cfg.Port != "8080" || cfg.ServiceName != "lumenflow" {
		t.Fatalf("defaults: %+v", cfg)
	}
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	unset(t, "CONFIG_FILE")
	unset(t, "JWT_SECRET_KEY")

	if _, err := LoadConfig(testLogger(t)); err == nil {
		t.Fatalf("expected error without JWT_SECRET_KEY")
	}
}

func TestLoadConfigFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := []byte("mode: production\nport: \"9090\"\njwt_secret_key: from-file\nallowed_origins:\n  - https://app.example.com\nservice_name: lumenflow-api\n")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7070")
	for _, key := range []string{"JWT_SECRET_KEY", "LOG_MODE", "ALLOWED_ORIGINS", "SERVICE_NAME", "ENVIRONMENT", "SERVICE_VERSION"} {
		unset(t, key)
	}

	cfg, err := LoadConfig(testLogger(t))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Mode != "production" {
		t.Fatalf("mode from file: got=%s", cfg.Mode)
	}
	// Environment wins over the file.
	if cfg.Port != "7070" {
		t.Fatalf("port override: got=%s", cfg.Port)
	}
	if cfg.JWTSecretKey != "from-file" {
		t.Fatalf("secret from file: got=%s", cfg.JWTSecretKey)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "https://app.example.com" {
		t.Fatalf("origins from file: %v", cfg.AllowedOrigins)
	}
	if cfg.ServiceName != "lumenflow-api" {
		t.Fatalf("service name from file: got=%s", cfg.ServiceName)
	}
}

func TestLoadConfigOriginsFromEnv(t *testing.T) {
	unset(t, "CONFIG_FILE")
	t.Setenv("JWT_SECRET_KEY", "sekrit")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com ,")

	cfg, err := LoadConfig(testLogger(t))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if len(cfg.AllowedOrigins) != len(want) {
		t.Fatalf("origins: %v", cfg.AllowedOrigins)
	}
	for i := range want {
		if cfg.AllowedOrigins[i] != want[i] {
			t.Fatalf("origins[%d]: want=%s got=%s", i, want[i], cfg.AllowedOrigins[i])
		}
	}
}
