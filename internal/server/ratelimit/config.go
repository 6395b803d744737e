package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Rule limits requests to the endpoints it matches
type Rule struct {
	// Pattern is an exact path, a path.Match glob such as
	// "/slideshows/*/editor/generate", or a prefix ending in "/"
	Pattern string
	Method  string
	Limit   int // requests per Window
	Window  time.Duration
	Burst   int // bucket capacity, Limit when 0
}

// Config holds rate limiting configuration
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	// IdleTTL is how long an unused bucket is kept
	IdleTTL   time.Duration
	Whitelist map[string]bool
	Blacklist map[string]bool
	Rules     []Rule
}

// DefaultConfig is used when no configuration is given
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    600,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Whitelist:       map[string]bool{},
		Blacklist:       map[string]bool{},
		Rules:           DefaultRules(),
	}
}

// LoadConfig reads RATE_LIMIT_* environment variables over DefaultConfig
func LoadConfig() *Config {
	cfg := DefaultConfig()
	cfg.Enabled = getEnvBool("RATE_LIMIT_ENABLED", cfg.Enabled)
	if !cfg.Enabled {
		return cfg
	}
	cfg.DefaultLimit = getEnvInt("RATE_LIMIT_DEFAULT_LIMIT", cfg.DefaultLimit)
	cfg.DefaultWindow = getEnvDuration("RATE_LIMIT_DEFAULT_WINDOW", cfg.DefaultWindow)
	cfg.CleanupInterval = getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", cfg.CleanupInterval)
	cfg.Whitelist = parseIPList(os.Getenv("RATE_LIMIT_WHITELIST"))
	cfg.Blacklist = parseIPList(os.Getenv("RATE_LIMIT_BLACKLIST"))

	generation := getEnvInt("RATE_LIMIT_GENERATION_LIMIT", 0)
	if generation > 0 {
		for i := range cfg.Rules {
			if strings.HasPrefix(cfg.Rules[i].Pattern, "/slideshows/*/editor/") {
				cfg.Rules[i].Limit = generation
			}
		}
	}
	return cfg
}

// DefaultRules returns the per-endpoint limits. Model calls are the most
// expensive and get the strictest budget.
func DefaultRules() []Rule {
	return []Rule{
		// remote generation
		{Pattern: "/slideshows/*/editor/generate", Method: "POST", Limit: 30, Window: time.Hour, Burst: 5},
		{Pattern: "/slideshows/*/editor/slides/*/regenerate", Method: "POST", Limit: 60, Window: time.Hour, Burst: 10},

		// credential endpoints
		{Pattern: "/auth/login", Method: "POST", Limit: 10, Window: time.Minute, Burst: 5},
		{Pattern: "/auth/register", Method: "POST", Limit: 5, Window: time.Minute, Burst: 3},
		{Pattern: "/auth/password", Method: "PUT", Limit: 5, Window: time.Minute, Burst: 3},

		// rasterization
		{Pattern: "/slideshows/*/export.zip", Method: "GET", Limit: 20, Window: time.Minute, Burst: 5},
		{Pattern: "/slideshows/*/slides/*/image", Method: "GET", Limit: 240, Window: time.Minute, Burst: 30},

		// writes
		{Pattern: "/slideshows/", Method: "POST", Limit: 300, Window: time.Minute, Burst: 60},
		{Pattern: "/slideshows/", Method: "PATCH", Limit: 300, Window: time.Minute, Burst: 60},
		{Pattern: "/slideshows/", Method: "PUT", Limit: 120, Window: time.Minute, Burst: 30},
		{Pattern: "/slideshows/", Method: "DELETE", Limit: 120, Window: time.Minute, Burst: 30},
	}
}

func getEnvInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

// parseIPList parses a comma-separated list into a set
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
