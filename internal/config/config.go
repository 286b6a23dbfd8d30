package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is everything the client needs to reach the SketchWink service
// and keep its local state. Values resolve in order: defaults, then the
// optional YAML file, then SKETCHWINK_* environment variables (a .env
// file in the working directory is folded into the environment first).
type Config struct {
	APIBaseURL         string        `yaml:"api_base_url"`
	EventsURL          string        `yaml:"events_url"`
	SessionToken       string        `yaml:"session_token"`
	StatePath          string        `yaml:"state_path"`
	StateSecret        string        `yaml:"state_secret"`
	LogLevel           string        `yaml:"log_level"`
	LogPath            string        `yaml:"log_path"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	ThumbnailCacheSize int           `yaml:"thumbnail_cache_size"`
}

// Load builds the configuration. yamlPath may be empty or point at a
// missing file; only a present-but-unreadable file is an error.
func Load(yamlPath string) (*Config, error) {
	// Not an error if absent; local dev convenience only.
	godotenv.Load()

	cfg := &Config{
		APIBaseURL:         "https://api.sketchwink.com",
		EventsURL:          "wss://api.sketchwink.com/api/events",
		StatePath:          defaultStatePath(),
		StateSecret:        "sketchwink-local",
		LogLevel:           "info",
		RequestTimeout:     15 * time.Second,
		ThumbnailCacheSize: 128,
	}

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", yamlPath, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file %s: %w", yamlPath, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SKETCHWINK_API_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("SKETCHWINK_EVENTS_URL"); v != "" {
		cfg.EventsURL = v
	}
	if v := os.Getenv("SKETCHWINK_TOKEN"); v != "" {
		cfg.SessionToken = v
	}
	if v := os.Getenv("SKETCHWINK_STATE_PATH"); v != "" {
		cfg.StatePath = v
	}
	if v := os.Getenv("SKETCHWINK_STATE_SECRET"); v != "" {
		cfg.StateSecret = v
	}
	if v := os.Getenv("SKETCHWINK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("SKETCHWINK_LOG_PATH"); v != "" {
		cfg.LogPath = v
	}
	if v := os.Getenv("SKETCHWINK_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RequestTimeout = d
		}
	}
	if v := os.Getenv("SKETCHWINK_THUMBNAIL_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ThumbnailCacheSize = n
		}
	}
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "sketchwink.db"
	}
	return filepath.Join(dir, "sketchwink", "sketchwink.db")
}
