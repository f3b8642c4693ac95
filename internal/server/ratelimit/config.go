package ratelimit

import (
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// LoadConfig loads rate limiting configuration from environment variables.
func LoadConfig() *Config {
	enabled := getEnvBool("RATE_LIMIT_ENABLED", true)
	if !enabled {
		return &Config{
			Enabled: false,
		}
	}

	defaultLimit := getEnvInt("RATE_LIMIT_DEFAULT_LIMIT", 1000)
	defaultWindow := getEnvDuration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute)
	cleanupInterval := getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute)

	importLimit := getEnvInt("RATE_LIMIT_IMPORT_LIMIT", 20)
	importWindow := getEnvDuration("RATE_LIMIT_IMPORT_WINDOW", time.Hour)
	importBurst := getEnvInt("RATE_LIMIT_IMPORT_BURST", 3)

	whitelist := parseIPList(getEnvString("RATE_LIMIT_WHITELIST", ""))
	blacklist := parseIPList(getEnvString("RATE_LIMIT_BLACKLIST", ""))

	return &Config{
		Enabled:         enabled,
		DefaultLimit:    defaultLimit,
		DefaultWindow:   defaultWindow,
		CleanupInterval: cleanupInterval,
		Whitelist:       whitelist,
		Blacklist:       blacklist,
		EndpointConfigs: DefaultEndpointConfigs(importLimit, importWindow, importBurst),
	}
}

// DefaultEndpointConfigs returns the endpoint-specific configurations.
// Import endpoints call the AI provider and get the given limits.
func DefaultEndpointConfigs(importLimit int, importWindow time.Duration, importBurst int) []EndpointConfig {
	return []EndpointConfig{
		// Tier 1: AI extraction (strictest limits)
		{Path: "/students/", Method: "POST", Limit: importLimit, Window: importWindow, Burst: importBurst},

		// Tier 2: Write operations (moderate limits)
		{Path: "/students", Method: "POST", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/students/", Method: "PATCH", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/students/", Method: "DELETE", Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/reconcile", Method: "POST", Limit: 300, Window: time.Minute, Burst: 30},

		// Tier 3: Read operations (more lenient) - handled by default limit
		// Tier 4: Health check (unlimited) - handled by special case in matcher
	}
}

// envOr parses the environment variable key, falling back to defaultValue
// when it is unset or does not parse.
func envOr[T any](key string, defaultValue T, parse func(string) (T, error)) T {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := parse(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvString(key, defaultValue string) string {
	return envOr(key, defaultValue, func(s string) (string, error) { return s, nil })
}

func getEnvInt(key string, defaultValue int) int {
	return envOr(key, defaultValue, strconv.Atoi)
}

func getEnvBool(key string, defaultValue bool) bool {
	return envOr(key, defaultValue, strconv.ParseBool)
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	return envOr(key, defaultValue, time.ParseDuration)
}

// parseIPList parses a comma-separated list of IP addresses into a set.
// Entries that are not IP addresses are skipped.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, field := range strings.Split(list, ",") {
		addr, err := netip.ParseAddr(strings.TrimSpace(field))
		if err != nil {
			continue
		}
		result[addr.String()] = true
	}
	return result
}
