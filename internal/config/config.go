// Package config loads MindHarmony settings from defaults, a YAML file, a
// .env file and MINDHARMONY_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "MINDHARMONY_"

// Advisory backends.
const (
	AdvisoryAuto = "auto" // LLM provider discovered from the environment
	AdvisoryHTTP = "http" // remote advisory proxy at Endpoint
	AdvisoryNone = "none" // analysis disabled
)

// AdvisoryConfig selects and tunes the advisory client.
type AdvisoryConfig struct {
	Provider  string
	Endpoint  string
	Timeout   time.Duration
	MaxTokens int
}

// ProxyConfig configures the advisory proxy server.
type ProxyConfig struct {
	Addr      string
	RedisAddr string
	CacheTTL  time.Duration
}

// Config is the resolved application configuration.
type Config struct {
	DataDir   string
	DBPath    string
	LogLevel  string
	ExportDir string
	Advisory  AdvisoryConfig
	Proxy     ProxyConfig
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		DataDir:   defaultDataDir(),
		LogLevel:  "info",
		ExportDir: ".",
		Advisory: AdvisoryConfig{
			Provider:  AdvisoryAuto,
			Timeout:   30 * time.Second,
			MaxTokens: 1024,
		},
		Proxy: ProxyConfig{
			Addr:     "127.0.0.1:8787",
			CacheTTL: 24 * time.Hour,
		},
	}
}

func defaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ".mindharmony"
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "mindharmony")
}

// DefaultPath returns MINDHARMONY_CONFIG, or
// $XDG_CONFIG_HOME/mindharmony/config.yaml.
func DefaultPath() string {
	if p := os.Getenv(EnvPrefix + "CONFIG"); p != "" {
		return p
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml"
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "mindharmony", "config.yaml")
}

// ResolvedDBPath returns DBPath, defaulting to mindharmony.db in DataDir.
func (c *Config) ResolvedDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return filepath.Join(c.DataDir, "mindharmony.db")
}

// LogPath is where the JSON log is written.
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "mindharmony.log")
}

// fileConfig mirrors the YAML layout. Durations are strings such as "30s".
type fileConfig struct {
	DataDir   string `yaml:"data_dir"`
	DBPath    string `yaml:"db_path"`
	LogLevel  string `yaml:"log_level"`
	ExportDir string `yaml:"export_dir"`
	Advisory  struct {
		Provider  string `yaml:"provider"`
		Endpoint  string `yaml:"endpoint"`
		Timeout   string `yaml:"timeout"`
		MaxTokens int    `yaml:"max_tokens"`
	} `yaml:"advisory"`
	Proxy struct {
		Addr      string `yaml:"addr"`
		RedisAddr string `yaml:"redis_addr"`
		CacheTTL  string `yaml:"cache_ttl"`
	} `yaml:"proxy"`
}

// Load builds the configuration. A missing config file or .env file is
// not an error; a malformed one is. An empty path means DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := DefaultConfig()
	if err := cfg.mergeFile(path); err != nil {
		return nil, err
	}
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := cfg.mergeEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads path into the process environment without overriding
// variables that are already set.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&c.DataDir, fc.DataDir)
	setString(&c.DBPath, fc.DBPath)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.ExportDir, fc.ExportDir)
	setString(&c.Advisory.Provider, fc.Advisory.Provider)
	setString(&c.Advisory.Endpoint, fc.Advisory.Endpoint)
	setString(&c.Proxy.Addr, fc.Proxy.Addr)
	setString(&c.Proxy.RedisAddr, fc.Proxy.RedisAddr)
	if fc.Advisory.MaxTokens != 0 {
		c.Advisory.MaxTokens = fc.Advisory.MaxTokens
	}
	if err := setDuration(&c.Advisory.Timeout, "advisory.timeout", fc.Advisory.Timeout); err != nil {
		return err
	}
	return setDuration(&c.Proxy.CacheTTL, "proxy.cache_ttl", fc.Proxy.CacheTTL)
}

func (c *Config) mergeEnv() error {
	for _, o := range []struct {
		key string
		dst *string
	}{
		{"DATA_DIR", &c.DataDir},
		{"DB", &c.DBPath},
		{"LOG_LEVEL", &c.LogLevel},
		{"EXPORT_DIR", &c.ExportDir},
		{"ADVISORY_PROVIDER", &c.Advisory.Provider},
		{"ADVISORY_ENDPOINT", &c.Advisory.Endpoint},
		{"PROXY_ADDR", &c.Proxy.Addr},
		{"REDIS_ADDR", &c.Proxy.RedisAddr},
	} {
		setString(o.dst, os.Getenv(EnvPrefix+o.key))
	}

	if v := os.Getenv(EnvPrefix + "ADVISORY_MAX_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sADVISORY_MAX_TOKENS: %w", EnvPrefix, err)
		}
		c.Advisory.MaxTokens = n
	}
	if err := setDuration(&c.Advisory.Timeout, EnvPrefix+"ADVISORY_TIMEOUT", os.Getenv(EnvPrefix+"ADVISORY_TIMEOUT")); err != nil {
		return err
	}
	return setDuration(&c.Proxy.CacheTTL, EnvPrefix+"CACHE_TTL", os.Getenv(EnvPrefix+"CACHE_TTL"))
}

// Flags holds command-line overrides; empty fields are ignored.
type Flags struct {
	DBPath    string
	ExportDir string
	LogLevel  string
}

// ApplyFlags applies command-line overrides, the last step of Load's
// precedence chain.
func (c *Config) ApplyFlags(f Flags) error {
	setString(&c.DBPath, f.DBPath)
	setString(&c.ExportDir, f.ExportDir)
	setString(&c.LogLevel, f.LogLevel)
	return c.Validate()
}

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks value ranges and the advisory backend selection.
func (c *Config) Validate() error {
	c.LogLevel = strings.ToLower(c.LogLevel)
	if !logLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: debug, info, warn, error", c.LogLevel)
	}
	if c.DataDir == "" {
		return errors.New("data_dir cannot be empty")
	}

	c.Advisory.Provider = strings.ToLower(c.Advisory.Provider)
	switch c.Advisory.Provider {
	case AdvisoryAuto, AdvisoryNone:
	case AdvisoryHTTP:
		if c.Advisory.Endpoint == "" {
			return errors.New("advisory.endpoint is required when advisory.provider is http")
		}
	default:
		return fmt.Errorf("invalid advisory.provider %q, must be one of: auto, http, none", c.Advisory.Provider)
	}
	if c.Advisory.Timeout <= 0 {
		return fmt.Errorf("advisory.timeout must be > 0, got %v", c.Advisory.Timeout)
	}
	if c.Advisory.MaxTokens <= 0 {
		return fmt.Errorf("advisory.max_tokens must be > 0, got %d", c.Advisory.MaxTokens)
	}
	if c.Proxy.CacheTTL < 0 {
		return fmt.Errorf("proxy.cache_ttl must be >= 0, got %v", c.Proxy.CacheTTL)
	}
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, name, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	*dst = d
	return nil
}
