package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"stream2frame/internal/config"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
	if cfg.Timeout() != 24*time.Hour {
		t.Fatalf("expected 24h default timeout, got %s", cfg.Timeout())
	}
	if cfg.LookbackDays() != 1 {
		t.Fatalf("expected lookback of 1 day, got %d", cfg.LookbackDays())
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
spool_dir = "` + filepath.Join(dir, "spool") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"
output_dir = "` + filepath.Join(dir, "videos") + `"

[processing]
command = "/usr/local/bin/convert_day"
timeout_hours = 2
lookback_days = 3

[logging]
format = "JSON"
level = "DEBUG"

[cameras]
G5Bullet_1 = "F4E2C6000001"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be reported as existing")
	}
	if resolved != path {
		t.Fatalf("expected resolved path %q, got %q", path, resolved)
	}
	if cfg.Timeout() != 2*time.Hour {
		t.Fatalf("expected 2h timeout, got %s", cfg.Timeout())
	}
	if cfg.LookbackDays() != 3 {
		t.Fatalf("expected lookback of 3 days, got %d", cfg.LookbackDays())
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized logging values, got %q/%q", cfg.Logging.Format, cfg.Logging.Level)
	}
	if cfg.Cameras["G5Bullet_1"] != "F4E2C6000001" {
		t.Fatalf("unexpected camera inventory: %#v", cfg.Cameras)
	}
	if cfg.Report.DatabasePath == "" {
		t.Fatal("expected report database path default under log dir")
	}
}

func TestLoadRejectsBadLogFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[logging]\nformat = \"xml\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for unsupported log format")
	} else if !strings.Contains(err.Error(), "logging.format") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDatePathUsesNoLeadingZeros(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.OutputDir = "/data/videos"
	got := cfg.DatePath(2024, 3, 7)
	want := filepath.Join("/data/videos", "2024", "3", "7")
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestCreateSample(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[processing]") {
		t.Fatal("sample config missing processing section")
	}
}
