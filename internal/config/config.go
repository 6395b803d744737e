// Package config loads application configuration from a JSON or YAML file,
// applies defaults and lets environment variables override both.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Render engines
const (
	RenderNative  = "native"
	RenderBrowser = "browser"
)

// Config is the application configuration. Every field is optional in the
// file; zero values are filled from Defaults.
type Config struct {
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url"`
	APIKey      string `json:"api_key,omitempty" yaml:"api_key"` // Gemini API key
	ModelTier   string `json:"model_tier,omitempty" yaml:"model_tier"`
	Port        int    `json:"port,omitempty" yaml:"port"`

	LogMode string `json:"log_mode,omitempty" yaml:"log_mode"`
	LogFile string `json:"log_file,omitempty" yaml:"log_file"`

	PersistDebounce Duration `json:"persist_debounce,omitempty" yaml:"persist_debounce"`
	SessionTTL      Duration `json:"session_ttl,omitempty" yaml:"session_ttl"`

	RenderEngine      string `json:"render_engine,omitempty" yaml:"render_engine"`
	RenderConcurrency int    `json:"render_concurrency,omitempty" yaml:"render_concurrency"`

	UseBrowser     bool     `json:"use_browser,omitempty" yaml:"use_browser"` // headless fallback for URL imports
	AllowedOrigins []string `json:"allowed_origins,omitempty" yaml:"allowed_origins"`
}

// Defaults returns the built-in configuration
func Defaults() Config {
	return Config{
		ModelTier:         "standard",
		Port:              8080,
		LogMode:           "dev",
		PersistDebounce:   Duration(2 * time.Second),
		SessionTTL:        Duration(30 * time.Minute),
		RenderEngine:      RenderNative,
		RenderConcurrency: 4,
		AllowedOrigins:    []string{"*"},
	}
}

// Duration is a time.Duration written as "1s" or "30m" in config files
type Duration time.Duration

// D returns the value as a time.Duration
func (d Duration) D() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalJSON writes the duration string
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts a duration string or a number of nanoseconds
func (d *Duration) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(int64(v))
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
	return nil
}

// UnmarshalYAML accepts a duration string
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q on line %d: %w", node.Value, node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// LoadConfig reads a config file. Files ending in .yaml or .yml are parsed
// as YAML, anything else as JSON.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}
	return &cfg, nil
}

// Load builds the effective configuration: defaults, then the file at path
// (skipped when empty), then environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		fileCfg, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg.MergeWithDefaults(cfg)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MergeWithDefaults returns a copy of c with zero fields taken from defaults.
// Booleans cannot be told apart from false and are not merged.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.ModelTier == "" {
		result.ModelTier = defaults.ModelTier
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.LogMode == "" {
		result.LogMode = defaults.LogMode
	}
	if result.LogFile == "" {
		result.LogFile = defaults.LogFile
	}
	if result.PersistDebounce == 0 {
		result.PersistDebounce = defaults.PersistDebounce
	}
	if result.SessionTTL == 0 {
		result.SessionTTL = defaults.SessionTTL
	}
	if result.RenderEngine == "" {
		result.RenderEngine = defaults.RenderEngine
	}
	if result.RenderConcurrency == 0 {
		result.RenderConcurrency = defaults.RenderConcurrency
	}
	if len(result.AllowedOrigins) == 0 {
		result.AllowedOrigins = defaults.AllowedOrigins
	}
	return result
}

// LookupFunc matches os.LookupEnv
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides fields from environment variables that are set and non-empty
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("DATABASE_URL"); ok {
		c.DatabaseURL = v
	}
	if v, ok := get("GEMINI_API_KEY"); ok {
		c.APIKey = v
	}
	if v, ok := get("MODEL_TIER"); ok {
		c.ModelTier = v
	}
	if v, ok := get("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT: %w", err)
		}
		c.Port = port
	}
	if v, ok := get("LOG_MODE"); ok {
		c.LogMode = v
	}
	if v, ok := get("LOG_FILE"); ok {
		c.LogFile = v
	}
	if v, ok := get("PERSIST_DEBOUNCE"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid PERSIST_DEBOUNCE: %w", err)
		}
		c.PersistDebounce = Duration(d)
	}
	if v, ok := get("SESSION_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SESSION_TTL: %w", err)
		}
		c.SessionTTL = Duration(d)
	}
	if v, ok := get("RENDER_ENGINE"); ok {
		c.RenderEngine = strings.ToLower(v)
	}
	if v, ok := get("ALLOWED_ORIGINS"); ok {
		c.AllowedOrigins = splitList(v)
	}
	return nil
}

// Validate checks that the configuration has usable values. Required
// fields depend on the command and are checked there.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 1 and 65535, got %d", c.Port)
	}
	switch c.LogMode {
	case "dev", "prod":
	default:
		return fmt.Errorf("config error: 'log_mode' must be dev or prod, got %q", c.LogMode)
	}
	switch c.RenderEngine {
	case RenderNative, RenderBrowser:
	default:
		return fmt.Errorf("config error: 'render_engine' must be %s or %s, got %q", RenderNative, RenderBrowser, c.RenderEngine)
	}
	if c.PersistDebounce < 0 {
		return fmt.Errorf("config error: 'persist_debounce' must be non-negative")
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("config error: 'session_ttl' must be non-negative")
	}
	if c.RenderConcurrency < 0 {
		return fmt.Errorf("config error: 'render_concurrency' must be non-negative")
	}
	return nil
}

// Addr returns the listen address for Port
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
