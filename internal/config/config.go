// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jason-s-yu/cambia-janitor/internal/models"
	// load a .env file, if present, before anything reads the environment
	_ "github.com/joho/godotenv/autoload"
)

// Supported storage backends.
const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Config holds everything the janitor binaries read from the environment.
type Config struct {
	Backend           string
	LobbyTimeout      time.Duration
	ContinueOnError   bool
	LookupConcurrency int
	Schedule          string
	RunTimeout        time.Duration // 0 means no deadline
	RunOnStart        bool

	LogLevel string
	LogJSON  bool

	Postgres Postgres
	Mongo    Mongo
	Redis    Redis
}

// Postgres connection settings. URL wins over the individual fields.
type Postgres struct {
	URL          string
	User         string
	Password     string
	Host         string
	Port         string
	Database     string
	EnsureSchema bool
}

// Mongo connection settings.
type Mongo struct {
	URI      string
	Database string
}

// Redis connection settings.
type Redis struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Load reads the configuration from environment variables:
//   - JANITOR_BACKEND (default "postgres")
//   - JANITOR_LOBBY_TIMEOUT (default "24h")
//   - JANITOR_CONTINUE_ON_ERROR (default false)
//   - JANITOR_LOOKUP_CONCURRENCY (default 1)
//   - JANITOR_SCHEDULE (default "@every 1h")
//   - JANITOR_RUN_TIMEOUT (default 0, no deadline)
//   - JANITOR_RUN_ON_START (default true)
//   - LOG_LEVEL, LOG_JSON
//   - DATABASE_URL or POSTGRES_USER, POSTGRES_PASSWORD, PG_HOST, PG_PORT, PG_DATABASE
//   - MONGO_URI, MONGO_DATABASE
//   - REDIS_ADDR, REDIS_PASSWORD, REDIS_DB, REDIS_PREFIX
func Load() Config {
	return Config{
		Backend:           strings.ToLower(getEnv("JANITOR_BACKEND", BackendPostgres)),
		LobbyTimeout:      getEnvDuration("JANITOR_LOBBY_TIMEOUT", models.DefaultLobbyTimeout),
		ContinueOnError:   getEnvBool("JANITOR_CONTINUE_ON_ERROR", false),
		LookupConcurrency: getEnvInt("JANITOR_LOOKUP_CONCURRENCY", 1),
		Schedule:          getEnv("JANITOR_SCHEDULE", "@every 1h"),
		RunTimeout:        getEnvDuration("JANITOR_RUN_TIMEOUT", 0),
		RunOnStart:        getEnvBool("JANITOR_RUN_ON_START", true),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogJSON:  getEnvBool("LOG_JSON", false),

		Postgres: Postgres{
			URL:          os.Getenv("DATABASE_URL"),
			User:         os.Getenv("POSTGRES_USER"),
			Password:     os.Getenv("POSTGRES_PASSWORD"),
			Host:         getEnv("PG_HOST", "localhost"),
			Port:         getEnv("PG_PORT", "5432"),
			Database:     os.Getenv("PG_DATABASE"),
			EnsureSchema: getEnvBool("PG_ENSURE_SCHEMA", false),
		},
		Mongo: Mongo{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DATABASE", "cambia"),
		},
		Redis: Redis{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
			Prefix:   os.Getenv("REDIS_PREFIX"),
		},
	}
}

// Validate checks the settings that would otherwise fail late, mid-run.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendPostgres, BackendMongo, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.LobbyTimeout <= 0 {
		return fmt.Errorf("lobby timeout must be positive, got %s", c.LobbyTimeout)
	}
	if c.LookupConcurrency < 1 {
		return fmt.Errorf("lookup concurrency must be at least 1, got %d", c.LookupConcurrency)
	}
	if c.RunTimeout < 0 {
		return fmt.Errorf("run timeout must not be negative, got %s", c.RunTimeout)
	}
	if c.Backend == BackendPostgres && c.Postgres.URL == "" && c.Postgres.Database == "" {
		return fmt.Errorf("postgres backend needs DATABASE_URL or PG_DATABASE")
	}
	return nil
}

// ConnString builds a postgres:// URL from the individual fields unless URL is set.
func (p Postgres) ConnString() string {
	if p.URL != "" {
		return p.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		p.User,
		p.Password,
		p.Host,
		p.Port,
		p.Database,
	)
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return v
}

// getEnvDuration accepts Go durations ("90m") and "0"/"never" for zero.
func getEnvDuration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	switch s {
	case "":
		return def
	case "0", "never":
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
