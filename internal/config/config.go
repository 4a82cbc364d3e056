package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix for environment overrides, e.g. OJTERM_BASE_URL.
const EnvPrefix = "OJTERM_"

type Config struct {
	BaseURL            string        `koanf:"base_url"`
	DataDir            string        `koanf:"data_dir"`
	DBPath             string        `koanf:"db_path"`
	CookiePath         string        `koanf:"cookie_path"`
	LogPath            string        `koanf:"log_path"`
	RequestTimeout     time.Duration `koanf:"request_timeout"`
	PageSize           int           `koanf:"page_size"`
	MonitorInterval    time.Duration `koanf:"monitor_interval"`
	MonitorMaxInterval time.Duration `koanf:"monitor_max_interval"`
	MonitorBatchSize   int           `koanf:"monitor_batch_size"`
	ReservedEmails     []string      `koanf:"reserved_emails"`
}

func Default() Config {
	dataDir := filepath.Join(userConfigDir(), "ojterm")
	return Config{
		BaseURL:            "http://localhost:3000",
		DataDir:            dataDir,
		DBPath:             filepath.Join(dataDir, "state.db"),
		CookiePath:         filepath.Join(dataDir, "cookies.json"),
		LogPath:            filepath.Join(dataDir, "debug.log"),
		RequestTimeout:     30 * time.Second,
		PageSize:           10,
		MonitorInterval:    2 * time.Second,
		MonitorMaxInterval: 30 * time.Second,
		MonitorBatchSize:   20,
		ReservedEmails:     []string{"admin@adminmail.com"},
	}
}

// DefaultPath is where Load looks for a config file when none is given.
func DefaultPath() string {
	return filepath.Join(userConfigDir(), "ojterm", "config.yaml")
}

// Load returns the defaults overridden by the YAML file at path (if it exists)
// and then by OJTERM_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return cfg, fmt.Errorf("loading config %s: %w", path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("checking config %s: %w", path, err)
		}
	}

	envKey := func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return cfg, fmt.Errorf("loading environment: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}

	cfg.fillPaths()
	return cfg, cfg.Validate()
}

// fillPaths derives file locations from DataDir when a custom data dir was
// configured without explicit file paths.
func (c *Config) fillPaths() {
	def := Default()
	if c.DataDir == def.DataDir {
		return
	}
	if c.DBPath == def.DBPath {
		c.DBPath = filepath.Join(c.DataDir, "state.db")
	}
	if c.CookiePath == def.CookiePath {
		c.CookiePath = filepath.Join(c.DataDir, "cookies.json")
	}
	if c.LogPath == def.LogPath {
		c.LogPath = filepath.Join(c.DataDir, "debug.log")
	}
}

// Validate reports settings the client cannot run with.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative, got %s", c.RequestTimeout)
	}
	if c.MonitorInterval <= 0 || c.MonitorMaxInterval < c.MonitorInterval {
		return fmt.Errorf("monitor intervals invalid: %s..%s", c.MonitorInterval, c.MonitorMaxInterval)
	}
	if c.MonitorBatchSize <= 0 {
		return fmt.Errorf("monitor_batch_size must be positive, got %d", c.MonitorBatchSize)
	}
	return nil
}

// IsReservedEmail reports whether email may not be used for self-registration.
func (c Config) IsReservedEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, r := range c.ReservedEmails {
		if strings.ToLower(r) == email {
			return true
		}
	}
	return false
}

func userConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}
