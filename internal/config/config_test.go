package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv blanks every LOOKOUT_ variable the loader reads so tests see a
// clean environment.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LOOKOUT_BUS_HOST", "LOOKOUT_BUS_PORT", "LOOKOUT_BUS_USER", "LOOKOUT_BUS_PASS",
		"LOOKOUT_DATABASE_URL", "LOOKOUT_HTTP_ADDR", "LOOKOUT_DISPLAY_TZ",
		"LOOKOUT_BUFFER_MAX", "LOOKOUT_BUFFER_RETENTION",
		"LOOKOUT_EXPORT_INTERVAL", "LOOKOUT_EXPORT_S3_BUCKET", "LOOKOUT_EXPORT_S3_ENDPOINT",
		"LOOKOUT_EXPORT_S3_REGION", "LOOKOUT_EXPORT_S3_PREFIX",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.BusHost != "localhost" {
		t.Errorf("BusHost = %q, want %q", cfg.BusHost, "localhost")
	}
	if cfg.BusPort != 4222 {
		t.Errorf("BusPort = %d, want 4222", cfg.BusPort)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.DisplayTimeZone != "America/Chicago" {
		t.Errorf("DisplayTimeZone = %q, want %q", cfg.DisplayTimeZone, "America/Chicago")
	}
	if cfg.BufferMax != 1000 {
		t.Errorf("BufferMax = %d, want 1000", cfg.BufferMax)
	}
	if cfg.BufferRetention != 24*time.Hour {
		t.Errorf("BufferRetention = %v, want 24h", cfg.BufferRetention)
	}
	if cfg.ExportInterval != time.Hour {
		t.Errorf("ExportInterval = %v, want 1h", cfg.ExportInterval)
	}
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOOKOUT_BUS_HOST", "10.0.1.50")
	t.Setenv("LOOKOUT_BUS_PORT", "4333")
	t.Setenv("LOOKOUT_BUS_USER", "frigate")
	t.Setenv("LOOKOUT_BUS_PASS", "hunter2")
	t.Setenv("LOOKOUT_DATABASE_URL", "postgres://localhost/lookout")
	t.Setenv("LOOKOUT_BUFFER_RETENTION", "1h")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.BusHost != "10.0.1.50" {
		t.Errorf("BusHost = %q, want %q", cfg.BusHost, "10.0.1.50")
	}
	if cfg.BusPort != 4333 {
		t.Errorf("BusPort = %d, want 4333", cfg.BusPort)
	}
	if cfg.BusUser != "frigate" || cfg.BusPass != "hunter2" {
		t.Errorf("credentials = %q/%q, want frigate/hunter2", cfg.BusUser, cfg.BusPass)
	}
	if cfg.BufferRetention != time.Hour {
		t.Errorf("BufferRetention = %v, want 1h", cfg.BufferRetention)
	}
	if got := cfg.BusURL(); got != "nats://10.0.1.50:4333" {
		t.Errorf("BusURL() = %q, want %q", got, "nats://10.0.1.50:4333")
	}
}

func TestLoad_FileOverridesEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOOKOUT_BUS_HOST", "from-env")
	t.Setenv("LOOKOUT_BUS_PORT", "4222")
	t.Setenv("LOOKOUT_DATABASE_URL", "postgres://env/lookout")

	path := filepath.Join(t.TempDir(), "lookout.toml")
	content := "bus_host = \"from-file\"\nbus_port = 5222\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Explicit file values win.
	if cfg.BusHost != "from-file" {
		t.Errorf("BusHost = %q, want %q", cfg.BusHost, "from-file")
	}
	if cfg.BusPort != 5222 {
		t.Errorf("BusPort = %d, want 5222", cfg.BusPort)
	}
	// Keys the file omits keep their environment values.
	if cfg.DatabaseURL != "postgres://env/lookout" {
		t.Errorf("DatabaseURL = %q, want env value", cfg.DatabaseURL)
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOOKOUT_BUS_PORT", "not-a-number")

	if _, err := Load(""); err == nil {
		t.Fatal("Load() with invalid LOOKOUT_BUS_PORT should error")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("Load() with missing config file should error")
	}
}

func TestLocation(t *testing.T) {
	cfg := &Config{DisplayTimeZone: "UTC"}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location() error: %v", err)
	}
	if loc != time.UTC {
		t.Errorf("Location() = %v, want UTC", loc)
	}

	cfg = &Config{DisplayTimeZone: "Not/AZone"}
	if _, err := cfg.Location(); err == nil {
		t.Fatal("Location() with bogus zone should error")
	}
}
