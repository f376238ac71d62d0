package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"DATA_DIR", "DB", "LOG_LEVEL", "EXPORT_DIR", "ADVISORY_PROVIDER",
	"ADVISORY_ENDPOINT", "ADVISORY_TIMEOUT", "ADVISORY_MAX_TOKENS",
	"PROXY_ADDR", "REDIS_ADDR", "CACHE_TTL", "CONFIG",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(EnvPrefix+k, "")
	}
	t.Setenv("XDG_DATA_HOME", t.TempDir())
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	def := DefaultConfig()
	assert.Equal(t, def, cfg)
	assert.Equal(t, AdvisoryAuto, cfg.Advisory.Provider)
	assert.Equal(t, 30*time.Second, cfg.Advisory.Timeout)
	assert.Equal(t, filepath.Join(cfg.DataDir, "mindharmony.db"), cfg.ResolvedDBPath())
	assert.Equal(t, filepath.Join(cfg.DataDir, "mindharmony.log"), cfg.LogPath())
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
log_level: debug
export_dir: /tmp/reports
advisory:
  provider: http
  endpoint: http://localhost:8787
  timeout: 5s
proxy:
  redis_addr: localhost:6379
  cache_ttl: 1h
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/reports", cfg.ExportDir)
	assert.Equal(t, AdvisoryHTTP, cfg.Advisory.Provider)
	assert.Equal(t, 5*time.Second, cfg.Advisory.Timeout)
	assert.Equal(t, 1024, cfg.Advisory.MaxTokens, "unset keys keep defaults")
	assert.Equal(t, time.Hour, cfg.Proxy.CacheTTL)
	assert.Equal(t, "localhost:6379", cfg.Proxy.RedisAddr)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "log_level: debug\nadvisory:\n  timeout: 5s\n")
	t.Setenv(EnvPrefix+"LOG_LEVEL", "WARN")
	t.Setenv(EnvPrefix+"ADVISORY_TIMEOUT", "45s")
	t.Setenv(EnvPrefix+"DB", "/tmp/x.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 45*time.Second, cfg.Advisory.Timeout)
	assert.Equal(t, "/tmp/x.db", cfg.ResolvedDBPath())
}

func TestFlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvPrefix+"DB", "/tmp/env.db")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.ApplyFlags(Flags{DBPath: "/tmp/flag.db"}))
	assert.Equal(t, "/tmp/flag.db", cfg.DBPath)

	assert.Error(t, cfg.ApplyFlags(Flags{LogLevel: "loud"}))
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{"malformed yaml", "log_level: [", nil},
		{"bad duration", "advisory:\n  timeout: soon\n", nil},
		{"bad level", "log_level: chatty\n", nil},
		{"http without endpoint", "advisory:\n  provider: http\n", nil},
		{"unknown provider", "advisory:\n  provider: carrier-pigeon\n", nil},
		{"bad env int", "", map[string]string{"ADVISORY_MAX_TOKENS": "lots"}},
		{"bad env ttl", "", map[string]string{"CACHE_TTL": "-"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(EnvPrefix+k, v)
			}
			_, err := Load(writeFile(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	const key = "MINDHARMONY_TEST_DOTENV_VALUE"
	t.Cleanup(func() { os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=from-dotenv\n"), 0o644))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-dotenv", os.Getenv(key))

	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestDotEnvDoesNotOverrideEnv(t *testing.T) {
	const key = "MINDHARMONY_TEST_DOTENV_KEEP"
	t.Setenv(key, "from-env")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=from-dotenv\n"), 0o644))
	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-env", os.Getenv(key))
}

func TestDefaultPath(t *testing.T) {
	t.Setenv(EnvPrefix+"CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	assert.Equal(t, filepath.Join("/cfg", "mindharmony", "config.yaml"), DefaultPath())

	t.Setenv(EnvPrefix+"CONFIG", "/etc/mh.yaml")
	assert.Equal(t, "/etc/mh.yaml", DefaultPath())
}
