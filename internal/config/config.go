package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the marketplace binaries.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Dashboard DashboardConfig
	Client    ClientConfig
}

// AppConfig controls API server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters for the API.
type AuthConfig struct {
	JWTSecret               string
	AccessTokenTTLMinutes   int
	PasswordResetTTLMinutes int
	BcryptCost              int
	LoginMaxAttempts        int
	LoginWindowMinutes      int
}

// DashboardConfig controls the admin dashboard server.
type DashboardConfig struct {
	Host            string
	Port            string
	LoginPath       string
	CookieName      string
	CookieSecure    bool
	SessionBackend  string
	SessionTTLHours int
	IdleMinutes     int
}

// ClientConfig describes how session clients reach the API.
type ClientConfig struct {
	APIBaseURL     string
	TimeoutSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	backend := strings.ToLower(getEnv("DASHBOARD_SESSION_BACKEND", "redis"))
	if backend != "redis" && backend != "memory" {
		return nil, fmt.Errorf("invalid DASHBOARD_SESSION_BACKEND %q", backend)
	}

	loginPath := getEnv("DASHBOARD_LOGIN_PATH", "/login")
	if !strings.HasPrefix(loginPath, "/") {
		return nil, fmt.Errorf("DASHBOARD_LOGIN_PATH must start with /")
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "wine-marketplace-api"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:               getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes:   getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			PasswordResetTTLMinutes: getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 30),
			BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 12),
			LoginMaxAttempts:        getEnvAsInt("AUTH_LOGIN_MAX_ATTEMPTS", 5),
			LoginWindowMinutes:      getEnvAsInt("AUTH_LOGIN_WINDOW_MINUTES", 15),
		},
		Dashboard: DashboardConfig{
			Host:            getEnv("DASHBOARD_HOST", "0.0.0.0"),
			Port:            getEnv("DASHBOARD_PORT", "3001"),
			LoginPath:       loginPath,
			CookieName:      getEnv("DASHBOARD_COOKIE_NAME", "admin_sid"),
			CookieSecure:    getEnvAsBool("DASHBOARD_COOKIE_SECURE", false),
			SessionBackend:  backend,
			SessionTTLHours: getEnvAsInt("DASHBOARD_SESSION_TTL_HOURS", 24),
			IdleMinutes:     getEnvAsInt("DASHBOARD_IDLE_MINUTES", 30),
		},
		Client: ClientConfig{
			APIBaseURL:     strings.TrimRight(getEnv("WINE_API_URL", "http://127.0.0.1:8080"), "/"),
			TimeoutSeconds: getEnvAsInt("WINE_API_TIMEOUT_SECONDS", 15),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// LoginWindow returns the rolling window of the login limiter.
func (a AuthConfig) LoginWindow() time.Duration {
	if a.LoginWindowMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(a.LoginWindowMinutes) * time.Minute
}

// Addr returns the dashboard bind address.
func (d DashboardConfig) Addr() string {
	return fmt.Sprintf("%s:%s", d.Host, d.Port)
}

// SessionTTL is how long a stored admin session survives without being rewritten.
func (d DashboardConfig) SessionTTL() time.Duration {
	if d.SessionTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(d.SessionTTLHours) * time.Hour
}

// IdleTimeout is how long an unused in-memory auth context stays registered.
func (d DashboardConfig) IdleTimeout() time.Duration {
	if d.IdleMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(d.IdleMinutes) * time.Minute
}

// Timeout returns the HTTP client timeout.
func (c ClientConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
