package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"fintrack/internal/config"
)

func TestLoadEnvFile(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing file should be ignored, got %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("FINTRACK_TEST_VALUE=from-dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FINTRACK_TEST_VALUE", "")
	os.Unsetenv("FINTRACK_TEST_VALUE")

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile() error = %v", err)
	}
	if got := os.Getenv("FINTRACK_TEST_VALUE"); got != "from-dotenv" {
		t.Errorf("FINTRACK_TEST_VALUE = %q", got)
	}
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("PORT", "3000")
	t.Setenv("DATA_BACKEND", "memory")
	if _, err := LoadAndValidateConfig(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	t.Setenv("PORT", "99999")
	if _, err := LoadAndValidateConfig(); err == nil {
		t.Error("expected invalid port to be rejected")
	}
}

func TestInitStore(t *testing.T) {
	cfg := &config.Config{DataBackend: "memory"}
	store, cleanup, err := InitStore(context.Background(), cfg, slog.Default())
	if err != nil {
		t.Fatalf("InitStore() error = %v", err)
	}
	defer cleanup()
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}

	if _, _, err := InitStore(context.Background(), &config.Config{DataBackend: "postgres"}, slog.Default()); err == nil {
		t.Error("expected unknown backend to fail")
	}
}

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger(&config.Config{LogLevel: "debug", LogFormat: "json"}, "test")
	if logger.Component() != "test" {
		t.Errorf("Component() = %q", logger.Component())
	}
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug level not applied to the default logger")
	}
}
