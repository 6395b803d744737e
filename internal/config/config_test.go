package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_JSON(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"database_url": "postgres://localhost/slides",
		"port": 9090,
		"persist_debounce": "250ms",
		"session_ttl": "1h",
		"render_engine": "browser",
		"use_browser": true
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/slides", cfg.DatabaseURL)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.PersistDebounce.D())
	assert.Equal(t, time.Hour, cfg.SessionTTL.D())
	assert.Equal(t, RenderBrowser, cfg.RenderEngine)
	assert.True(t, cfg.UseBrowser)
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
database_url: postgres://localhost/slides
log_mode: prod
persist_debounce: 2s
allowed_origins:
  - https://app.example.com
  - http://localhost:3000
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.LogMode)
	assert.Equal(t, 2*time.Second, cfg.PersistDebounce.D())
	assert.Equal(t, []string{"https://app.example.com", "http://localhost:3000"}, cfg.AllowedOrigins)
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	_, err := LoadConfig(writeFile(t, "config.yml", "session_ttl: soon\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")

	_, err = LoadConfig(writeFile(t, "config.json", `{"session_ttl": true}`))
	assert.Error(t, err)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig("")
	assert.ErrorContains(t, err, "config path is empty")

	_, err = LoadConfig("/nonexistent/path/config.json")
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = LoadConfig(writeFile(t, "config.json", `{ invalid json }`))
	assert.ErrorContains(t, err, "failed to parse config JSON")

	_, err = LoadConfig(writeFile(t, "config.yaml", "port: [1, 2"))
	assert.ErrorContains(t, err, "failed to parse config YAML")
}

func TestMergeWithDefaults(t *testing.T) {
	partial := Config{Port: 3000, LogFile: "/tmp/app.log"}
	merged := partial.MergeWithDefaults(Defaults())

	assert.Equal(t, 3000, merged.Port)
	assert.Equal(t, "/tmp/app.log", merged.LogFile)
	assert.Equal(t, "dev", merged.LogMode)
	assert.Equal(t, 2*time.Second, merged.PersistDebounce.D())
	assert.Equal(t, 30*time.Minute, merged.SessionTTL.D())
	assert.Equal(t, RenderNative, merged.RenderEngine)
	assert.Equal(t, []string{"*"}, merged.AllowedOrigins)
}

func TestApplyEnv(t *testing.T) {
	cfg := Defaults()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"DATABASE_URL":     "postgres://env/db",
		"GEMINI_API_KEY":   "key-123",
		"PORT":             "7000",
		"LOG_MODE":         "prod",
		"PERSIST_DEBOUNCE": "500ms",
		"SESSION_TTL":      "5m",
		"RENDER_ENGINE":    "BROWSER",
		"ALLOWED_ORIGINS":  "https://a.example, https://b.example ,",
		"LOG_FILE":         "  ",
	}))
	require.NoError(t, err)

	assert.Equal(t, "postgres://env/db", cfg.DatabaseURL)
	assert.Equal(t, "key-123", cfg.APIKey)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "prod", cfg.LogMode)
	assert.Equal(t, 500*time.Millisecond, cfg.PersistDebounce.D())
	assert.Equal(t, 5*time.Minute, cfg.SessionTTL.D())
	assert.Equal(t, RenderBrowser, cfg.RenderEngine)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.LogFile, "blank values are ignored")
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	for key, val := range map[string]string{
		"PORT":             "eighty",
		"PERSIST_DEBOUNCE": "fast",
		"SESSION_TTL":      "10",
	} {
		cfg := Defaults()
		err := cfg.ApplyEnv(envMap(map[string]string{key: val}))
		assert.ErrorContains(t, err, key)
	}
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	tests := map[string]func(*Config){
		"port":             func(c *Config) { c.Port = 0 },
		"log_mode":         func(c *Config) { c.LogMode = "verbose" },
		"render_engine":    func(c *Config) { c.RenderEngine = "latex" },
		"persist_debounce": func(c *Config) { c.PersistDebounce = -1 },
		"session_ttl":      func(c *Config) { c.SessionTTL = -1 },
	}
	for field, mutate := range tests {
		c := Defaults()
		mutate(&c)
		assert.ErrorContains(t, c.Validate(), field)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("PORT", "6000")
	t.Setenv("RENDER_ENGINE", "")

	cfg, err := Load(writeFile(t, "config.yaml", "port: 5000\nrender_engine: browser\n"))
	require.NoError(t, err)
	assert.Equal(t, 6000, cfg.Port, "env wins over file")
	assert.Equal(t, RenderBrowser, cfg.RenderEngine)
	assert.Equal(t, ":6000", cfg.Addr())

	t.Setenv("LOG_MODE", "loud")
	_, err = Load("")
	assert.Error(t, err)
}

func TestDuration_JSONRoundTrip(t *testing.T) {
	d := Duration(1500 * time.Millisecond)
	b, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"1.5s"`, string(b))

	var back Duration
	require.NoError(t, back.UnmarshalJSON(b))
	assert.Equal(t, d, back)
}
