package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const DefaultGlamourStyle = "dark"

type AppConfig struct {
	// BaseURL points at the SOP assistant backend.
	BaseURL string `koanf:"base_url"`
	// SessionID keys the persisted transcript snapshot.
	SessionID string `koanf:"session_id"`
	DBPath    string `koanf:"db_path"`
	LogPath   string `koanf:"log_path"`
	// TypeIntervalMS is the typewriter reveal delay per character.
	TypeIntervalMS int `koanf:"type_interval_ms"`
	// Reset discards the saved transcript on startup.
	Reset bool `koanf:"-"`
}

// Parse loads configuration in layers: defaults, an optional YAML file,
// SOPCHAT_* environment variables (a .env file is honored if present), and
// finally command-line flags.
func Parse() (AppConfig, error) {
	var (
		cfgPath   string
		baseURL   string
		sessionID string
		dbPath    string
		reset     bool
	)
	flag.StringVar(&cfgPath, "config", "", "path to YAML config file")
	flag.StringVar(&baseURL, "base-url", "", "SOP assistant backend base URL")
	flag.StringVar(&sessionID, "session", "", "transcript session key")
	flag.StringVar(&dbPath, "db-path", "", "path to sqlite transcript store")
	flag.BoolVar(&reset, "reset", false, "discard the saved transcript for this session")
	flag.Parse()

	// Best effort; most installs have no .env.
	_ = godotenv.Load()

	k := koanf.New(".")
	k.Set("base_url", "http://127.0.0.1:8000")
	k.Set("session_id", "default")
	k.Set("type_interval_ms", 10)

	if cfgPath != "" {
		if err := k.Load(file.Provider(cfgPath), yaml.Parser()); err != nil {
			return AppConfig{}, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("SOPCHAT_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "SOPCHAT_"))
	}), nil); err != nil {
		return AppConfig{}, fmt.Errorf("load env config: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if sessionID != "" {
		cfg.SessionID = sessionID
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	cfg.Reset = reset

	if err := cfg.fillPaths(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func (c *AppConfig) fillPaths() error {
	if c.DBPath == "" || c.LogPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		dataDir := filepath.Join(home, ".local", "share", "sopchat")
		if c.DBPath == "" {
			c.DBPath = filepath.Join(dataDir, "transcripts.sqlite")
		}
		if c.LogPath == "" {
			c.LogPath = filepath.Join(dataDir, "sopchat.log")
		}
	}

	if err := os.MkdirAll(filepath.Dir(c.DBPath), 0o755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	return nil
}
