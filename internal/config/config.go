// Package config loads server configuration from flags, environment variables, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Data    DataConfig
	Server  ServerConfig
	Auth    AuthConfig
	Catalog CatalogConfig
	Covers  CoversConfig
	Tracing TracingConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds on-disk storage configuration.
// The SQLite database, search index, catalog cache, and auth key all live under BasePath.
type DataConfig struct {
	BasePath string
}

// DatabasePath is the SQLite file.
func (d DataConfig) DatabasePath() string { return filepath.Join(d.BasePath, "bookclub.db") }

// SearchPath is the Bleve index directory.
func (d DataConfig) SearchPath() string { return filepath.Join(d.BasePath, "search") }

// CachePath is the Badger catalog cache directory.
func (d DataConfig) CachePath() string { return filepath.Join(d.BasePath, "cache", "catalog") }

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Name           string
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
	// TrustedProxies are peers allowed to set X-Forwarded-For and X-Real-IP.
	TrustedProxies []netip.Prefix
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
	OpenRegistration     bool
}

// CatalogConfig configures the public book catalog.
type CatalogConfig struct {
	// BaseURL overrides the Google Books endpoint. Empty uses the library default.
	BaseURL    string
	APIKey     string
	Language   string
	MaxResults int
	CacheTTL   time.Duration
}

// CoversConfig controls cover placeholder generation.
type CoversConfig struct {
	Enabled bool
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	// OTLPEndpoint is a host:port for OTLP/HTTP. Empty disables export.
	OTLPEndpoint string
	ServiceName  string
}

// LoadConfig loads configuration from the process arguments and environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load builds a Config from args with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("bookclub", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Base path for database, index and caches")
	serverName := fs.String("server-name", "", "Name for the server")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma-separated allowed CORS origins (default: *)")
	trustedProxies := fs.String("trusted-proxies", "", "Comma-separated proxy IPs or CIDRs whose forwarding headers are trusted (default: none)")

	accessTokenDuration := fs.String("access-token-duration", "", "Access token lifetime (e.g., 15m)")
	refreshTokenDuration := fs.String("refresh-token-duration", "", "Refresh token lifetime (e.g., 720h)")
	openRegistration := fs.String("open-registration", "", "Allow anyone to register (default: true)")

	catalogURL := fs.String("catalog-url", "", "Override the Google Books API endpoint")
	catalogAPIKey := fs.String("catalog-api-key", "", "Google Books API key")
	catalogLanguage := fs.String("catalog-language", "", "Only keep catalog entries in this language (default: en)")
	catalogMaxResults := fs.String("catalog-max-results", "", "Results per catalog search (default: 20)")
	catalogCacheTTL := fs.String("catalog-cache-ttl", "", "How long catalog searches are cached (default: 24h)")

	coversEnabled := fs.String("covers-enabled", "", "Compute cover placeholders (default: true)")
	otlpEndpoint := fs.String("otlp-endpoint", "", "OTLP/HTTP endpoint for traces")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Missing .env is fine. godotenv never overrides variables already set.
	_ = godotenv.Load(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Name:           getConfigValue(*serverName, "SERVER_NAME", "BookClub Server"),
			Port:           getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			AllowedOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ALLOWED_ORIGINS", "*")),
		},
		Auth: AuthConfig{
			OpenRegistration: getBoolConfigValue(*openRegistration, "OPEN_REGISTRATION", true),
		},
		Catalog: CatalogConfig{
			BaseURL:    getConfigValue(*catalogURL, "CATALOG_BASE_URL", ""),
			APIKey:     getConfigValue(*catalogAPIKey, "CATALOG_API_KEY", ""),
			Language:   getConfigValue(*catalogLanguage, "CATALOG_LANGUAGE", "en"),
			MaxResults: getIntConfigValue(*catalogMaxResults, "CATALOG_MAX_RESULTS", 20),
		},
		Covers: CoversConfig{
			Enabled: getBoolConfigValue(*coversEnabled, "COVERS_ENABLED", true),
		},
		Tracing: TracingConfig{
			OTLPEndpoint: getConfigValue(*otlpEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ServiceName:  getConfigValue("", "OTEL_SERVICE_NAME", "bookclub-server"),
		},
	}

	durations := []struct {
		name   string
		flag   string
		envKey string
		def    string
		dst    *time.Duration
	}{
		{"access token duration", *accessTokenDuration, "ACCESS_TOKEN_DURATION", "15m", &cfg.Auth.AccessTokenDuration},
		{"refresh token duration", *refreshTokenDuration, "REFRESH_TOKEN_DURATION", "720h", &cfg.Auth.RefreshTokenDuration},
		{"read timeout", *readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{"write timeout", *writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", &cfg.Server.WriteTimeout},
		{"idle timeout", *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{"catalog cache ttl", *catalogCacheTTL, "CATALOG_CACHE_TTL", "24h", &cfg.Catalog.CacheTTL},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flag, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.name, raw, err)
		}
		*d.dst = parsed
	}

	proxies, err := parsePrefixes(splitList(getConfigValue(*trustedProxies, "TRUSTED_PROXIES", "")))
	if err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	cfg.Server.TrustedProxies = proxies

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	// Google Books caps maxResults at 40.
	if c.Catalog.MaxResults < 1 || c.Catalog.MaxResults > 40 {
		return fmt.Errorf("invalid catalog max results: %d (must be 1-40)", c.Catalog.MaxResults)
	}

	if c.Catalog.Language == "" {
		return errors.New("catalog language cannot be empty")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "BookClub", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envKey != "" {
		if envValue := os.Getenv(envKey); envValue != "" {
			return envValue
		}
	}
	return defaultValue
}

// getBoolConfigValue accepts "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
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

// parsePrefixes accepts CIDRs and bare addresses, which become single-host prefixes.
func parsePrefixes(items []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(items))
	for _, item := range items {
		if strings.Contains(item, "/") {
			p, err := netip.ParsePrefix(item)
			if err != nil {
				return nil, err
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(item)
		if err != nil {
			return nil, err
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}
