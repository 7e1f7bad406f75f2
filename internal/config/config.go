package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Supported database drivers.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig holds store connection configuration.
type DatabaseConfig struct {
	Driver          string
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // seconds
}

// AuthConfig holds the credentials accepted by the admin API: static bearer
// tokens, JWTs from an OIDC issuer, or both.
type AuthConfig struct {
	AdminTokens   []string
	JWTIssuer     string
	JWTAudience   string
	JWTPermission string
}

// JWTEnabled reports whether an issuer is configured for JWT admin auth.
func (a AuthConfig) JWTEnabled() bool {
	return a.JWTIssuer != ""
}

type Config struct {
	Port           string
	Environment    string
	LogLevel       slog.Level
	MetricsEnabled bool
	Database       DatabaseConfig
	Auth           AuthConfig
}

// Load reads configuration from environment variables, after loading a .env
// file when one is present. It fails fast with clear errors for missing
// required values.
func Load() (*Config, error) {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	var missing []string

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	env := os.Getenv("ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "staging" && env != "production" {
		return nil, fmt.Errorf("invalid ENV value %q: must be development, staging, or production", env)
	}

	driver, err := databaseDriver()
	if err != nil {
		return nil, err
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	authConfig := AuthConfig{
		AdminTokens:   splitList(os.Getenv("ADMIN_TOKENS")),
		JWTIssuer:     strings.TrimSpace(os.Getenv("ADMIN_JWT_ISSUER")),
		JWTAudience:   strings.TrimSpace(os.Getenv("ADMIN_JWT_AUDIENCE")),
		JWTPermission: strings.TrimSpace(os.Getenv("ADMIN_JWT_PERMISSION")),
	}
	if authConfig.JWTEnabled() && authConfig.JWTAudience == "" {
		missing = append(missing, "ADMIN_JWT_AUDIENCE")
	}
	if !authConfig.JWTEnabled() && len(authConfig.AdminTokens) == 0 {
		missing = append(missing, "ADMIN_TOKENS")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missing)
	}

	dbConfig := databaseConfig(driver, databaseURL)
	if err := dbConfig.Validate(); err != nil {
		return nil, err
	}

	logLevel, err := parseLogLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return &Config{
		Port:           port,
		Environment:    env,
		LogLevel:       logLevel,
		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
		Database:       dbConfig,
		Auth:           authConfig,
	}, nil
}

// LoadDatabase reads only the store settings. Maintenance commands use it
// so they run without admin tokens configured.
func LoadDatabase() (DatabaseConfig, error) {
	_ = godotenv.Load()

	driver, err := databaseDriver()
	if err != nil {
		return DatabaseConfig{}, err
	}
	return databaseConfig(driver, os.Getenv("DATABASE_URL")), nil
}

// Validate checks that the driver is supported and the URL is usable by it.
func (c DatabaseConfig) Validate() error {
	if c.Driver != DriverPostgres && c.Driver != DriverSQLite {
		return fmt.Errorf("invalid DATABASE_DRIVER value %q: must be %s or %s", c.Driver, DriverPostgres, DriverSQLite)
	}
	if c.URL == "" {
		return fmt.Errorf("missing required environment variables: [DATABASE_URL]")
	}
	if c.Driver == DriverPostgres {
		if err := validateDatabaseURL(c.URL); err != nil {
			return fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
	}
	return nil
}

func databaseDriver() (string, error) {
	driver := os.Getenv("DATABASE_DRIVER")
	if driver == "" {
		driver = DriverPostgres
	}
	if driver != DriverPostgres && driver != DriverSQLite {
		return "", fmt.Errorf("invalid DATABASE_DRIVER value %q: must be %s or %s", driver, DriverPostgres, DriverSQLite)
	}
	return driver, nil
}

func databaseConfig(driver, dsn string) DatabaseConfig {
	return DatabaseConfig{
		Driver:          driver,
		URL:             dsn,
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvInt("DB_CONN_MAX_LIFETIME", 300),
	}
}

// validateDatabaseURL ensures the database URL is a valid PostgreSQL connection string.
func validateDatabaseURL(dbURL string) error {
	parsed, err := url.Parse(dbURL)
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}

	if parsed.Scheme != "postgres" && parsed.Scheme != "postgresql" {
		return fmt.Errorf("URL must use postgres or postgresql scheme, got %q", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL must include a host")
	}

	return nil
}

func parseLogLevel(val string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown level %q: must be debug, info, warn, or error", val)
	}
}

// splitList splits a comma-separated value, dropping blank entries.
func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvInt reads an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return intVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}
