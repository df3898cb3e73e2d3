// internal/config/config.go
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"

	MediaFilesystem = "fs"
	MediaGridFS     = "gridfs"

	// Development fallback; LoadConfig warns when it is still in use.
	defaultJWTSecret = "yatube-development-secret-change-me"
)

// ServerConfig holds all server-related settings
type ServerConfig struct {
	Port            int
	Host            string
	MetricsEnabled  bool
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database configuration settings
type DatabaseConfig struct {
	Type       string // "sqlite3" or "postgres"
	URI        string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

// AuthConfig holds the session signing settings
type AuthConfig struct {
	JWTSecret    string
	SessionTTL   time.Duration
	CookieSecure bool
}

// CacheConfig holds the page cache settings
type CacheConfig struct {
	TTL time.Duration
}

// MediaConfig selects where uploaded images are stored
type MediaConfig struct {
	Backend       string // "fs" or "gridfs"
	Root          string
	MongoURI      string
	MongoDatabase string
}

// Config holds the complete application configuration
type Config struct {
	Server    *ServerConfig
	Database  *DatabaseConfig
	Auth      *AuthConfig
	Cache     *CacheConfig
	Media     *MediaConfig
	Debug     bool
	LogLevel  slog.Level
	LogFormat string // "text" or "json"
}

// DefaultConfig provides default server settings
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Port:            8000,
		Host:            "0.0.0.0",
		MetricsEnabled:  false,
		ShutdownTimeout: 10 * time.Second,
	}
}

// DefaultDatabaseConfig provides default database settings
func DefaultDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Type:       DriverSQLite,
		Port:       5432,
		SSLMode:    "disable",
		SQLitePath: "yatube.db",
	}
}

// DefaultAuthConfig provides default session settings
func DefaultAuthConfig() *AuthConfig {
	return &AuthConfig{
		JWTSecret:  defaultJWTSecret,
		SessionTTL: 14 * 24 * time.Hour,
	}
}

// DefaultCacheConfig caches the home listing for 20 minutes
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{TTL: 20 * time.Minute}
}

// DefaultMediaConfig stores images on the local filesystem
func DefaultMediaConfig() *MediaConfig {
	return &MediaConfig{
		Backend:       MediaFilesystem,
		Root:          "media",
		MongoDatabase: "yatube",
	}
}

// LoadConfig loads configuration from environment variables and applies defaults
func LoadConfig() (*Config, error) {
	// Try to load .env file from multiple possible locations
	envLocations := []string{
		".env",       // Current directory
		"../../.env", // Project root when running from cmd/yatube
		filepath.Join(os.Getenv("GOPATH"), "src/yatube/.env"),
	}

	envLoaded := false
	for _, location := range envLocations {
		if err := godotenv.Load(location); err == nil {
			envLoaded = true
			break
		}
	}
	if !envLoaded {
		// Silent when no .env exists; plain environment variables still apply
		_ = godotenv.Load()
	}

	serverConfig := DefaultConfig()
	if port, ok, err := envInt("PORT"); err != nil {
		return nil, err
	} else if ok {
		serverConfig.Port = port
	}
	if host := os.Getenv("HOST"); host != "" {
		serverConfig.Host = host
	}
	if metricsEnabled := os.Getenv("METRICS_ENABLED"); metricsEnabled != "" {
		serverConfig.MetricsEnabled = metricsEnabled == "true"
	}
	if d, ok, err := envDuration("SHUTDOWN_TIMEOUT"); err != nil {
		return nil, err
	} else if ok {
		serverConfig.ShutdownTimeout = d
	}

	dbConfig, err := loadDatabaseConfig()
	if err != nil {
		return nil, err
	}

	authConfig := DefaultAuthConfig()
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		authConfig.JWTSecret = secret
	}
	if d, ok, err := envDuration("SESSION_TTL"); err != nil {
		return nil, err
	} else if ok {
		authConfig.SessionTTL = d
	}
	authConfig.CookieSecure = os.Getenv("SESSION_COOKIE_SECURE") == "true"

	cacheConfig := DefaultCacheConfig()
	if d, ok, err := envDuration("CACHE_TTL"); err != nil {
		return nil, err
	} else if ok {
		cacheConfig.TTL = d
	}

	mediaConfig := DefaultMediaConfig()
	if backend := os.Getenv("MEDIA_BACKEND"); backend != "" {
		mediaConfig.Backend = backend
	}
	mediaConfig.Root = getEnvOrDefault("MEDIA_ROOT", mediaConfig.Root)
	mediaConfig.MongoURI = os.Getenv("MONGO_URI")
	mediaConfig.MongoDatabase = getEnvOrDefault("MONGO_DATABASE", mediaConfig.MongoDatabase)
	switch mediaConfig.Backend {
	case MediaFilesystem:
	case MediaGridFS:
		if mediaConfig.MongoURI == "" {
			return nil, fmt.Errorf("MONGO_URI environment variable is required when MEDIA_BACKEND is gridfs")
		}
	default:
		return nil, fmt.Errorf("unsupported MEDIA_BACKEND %q", mediaConfig.Backend)
	}

	config := &Config{
		Server:    serverConfig,
		Database:  dbConfig,
		Auth:      authConfig,
		Cache:     cacheConfig,
		Media:     mediaConfig,
		Debug:     os.Getenv("DEBUG") == "true",
		LogLevel:  slog.LevelInfo,
		LogFormat: getEnvOrDefault("LOG_FORMAT", "text"),
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		if err := config.LogLevel.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
		}
	} else if config.Debug {
		config.LogLevel = slog.LevelDebug
	}

	return config, nil
}

func loadDatabaseConfig() (*DatabaseConfig, error) {
	dbConfig := DefaultDatabaseConfig()

	if dbType := os.Getenv("DB_TYPE"); dbType != "" {
		dbConfig.Type = dbType
	}

	switch dbConfig.Type {
	case DriverSQLite:
		dbConfig.SQLitePath = getEnvOrDefault("SQLITE_PATH", dbConfig.SQLitePath)
		dbConfig.URI = SQLiteDSN(dbConfig.SQLitePath)

	case DriverPostgres:
		// Prioritize DATABASE_URL if provided
		if uri := os.Getenv("DATABASE_URL"); uri != "" {
			dbConfig.URI = uri
			dbConfig.SSLMode = getSSLModeFromURI(uri)
			return dbConfig, nil
		}

		dbConfig.Host = getEnvOrDefault("DB_HOST", "localhost")
		if port, ok, err := envInt("DB_PORT"); err != nil {
			return nil, err
		} else if ok {
			dbConfig.Port = port
		}

		dbConfig.User = os.Getenv("DB_USER")
		if dbConfig.User == "" {
			return nil, fmt.Errorf("DB_USER environment variable is required when DB_TYPE is postgres and DATABASE_URL is not set")
		}
		dbConfig.Password = os.Getenv("DB_PASSWORD")
		if dbConfig.Password == "" {
			return nil, fmt.Errorf("DB_PASSWORD environment variable is required when DB_TYPE is postgres and DATABASE_URL is not set")
		}
		dbConfig.Name = getEnvOrDefault("DB_NAME", "yatube")
		dbConfig.SSLMode = getEnvOrDefault("DB_SSL_MODE", dbConfig.SSLMode)

		dbConfig.URI = fmt.Sprintf(
			"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
			dbConfig.User,
			dbConfig.Password,
			dbConfig.Host,
			dbConfig.Port,
			dbConfig.Name,
			dbConfig.SSLMode,
		)

	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q", dbConfig.Type)
	}

	return dbConfig, nil
}

// SQLiteDSN builds a go-sqlite3 DSN with foreign keys enforced and a busy timeout.
func SQLiteDSN(path string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
}

// UsesDefaultSecret reports whether sessions are signed with the built-in development secret.
func (c *Config) UsesDefaultSecret() bool {
	return c.Auth.JWTSecret == defaultJWTSecret
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Helper function to get environment variable with default fallback
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envInt(key string) (int, bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return value, true, nil
}

func envDuration(key string) (time.Duration, bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return value, true, nil
}

// Helper function to extract sslmode from a DSN, defaults to "require"
func getSSLModeFromURI(uri string) string {
	if strings.Contains(uri, "sslmode=") {
		parts := strings.Split(uri, "?")
		if len(parts) > 1 {
			queryParams := strings.Split(parts[1], "&")
			for _, param := range queryParams {
				kv := strings.SplitN(param, "=", 2)
				if len(kv) == 2 && kv[0] == "sslmode" {
					return kv[1]
				}
			}
		}
	}
	return "require"
}
