package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SKETCHWINK_API_URL", "SKETCHWINK_EVENTS_URL", "SKETCHWINK_TOKEN",
		"SKETCHWINK_STATE_PATH", "SKETCHWINK_STATE_SECRET", "SKETCHWINK_LOG_LEVEL",
		"SKETCHWINK_LOG_PATH", "SKETCHWINK_REQUEST_TIMEOUT", "SKETCHWINK_THUMBNAIL_CACHE_SIZE",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIBaseURL != "https://api.sketchwink.com" {
		t.Errorf("api url = %q", cfg.APIBaseURL)
	}
	if cfg.ThumbnailCacheSize != 128 {
		t.Errorf("cache size = %d", cfg.ThumbnailCacheSize)
	}
	if cfg.RequestTimeout != 15*time.Second {
		t.Errorf("timeout = %v", cfg.RequestTimeout)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "sketchwink.yaml")
	content := "api_base_url: http://localhost:9000\nlog_level: debug\nthumbnail_cache_size: 16\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIBaseURL != "http://localhost:9000" {
		t.Errorf("api url = %q", cfg.APIBaseURL)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q", cfg.LogLevel)
	}
	if cfg.ThumbnailCacheSize != 16 {
		t.Errorf("cache size = %d", cfg.ThumbnailCacheSize)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "sketchwink.yaml")
	if err := os.WriteFile(path, []byte("api_base_url: http://from-yaml\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SKETCHWINK_API_URL", "http://from-env")
	t.Setenv("SKETCHWINK_TOKEN", "tok-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIBaseURL != "http://from-env" {
		t.Errorf("api url = %q, env must win", cfg.APIBaseURL)
	}
	if cfg.SessionToken != "tok-env" {
		t.Errorf("token = %q", cfg.SessionToken)
	}
}

func TestMissingYAMLFileIsFine(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIBaseURL == "" {
		t.Error("defaults should apply")
	}
}

func TestMalformedYAMLFails(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("api_base_url: [\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}
