package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/voyagehq/gatekeeper/internal/models"
)

type Config struct {
	Server     ServerConfig
	Protection ProtectionConfig
	Archive    ArchiveConfig
	Redis      RedisConfig
	Alerting   AlertingConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	TrustedProxies []string
	// SessionSecret signs the session cookie that keys CSRF state
	SessionSecret string
}

// RouteLimit is the fixed-window budget for one route class
type RouteLimit struct {
	Window      time.Duration
	MaxRequests int
}

type ProtectionConfig struct {
	RouteLimits map[models.RouteClass]RouteLimit

	MaxLoginFailures int
	LockoutDuration  time.Duration
	AttemptWindow    time.Duration

	CSRFTokenTTL   time.Duration
	EventRetention time.Duration
	SweepInterval  time.Duration

	// BurstThreshold is the events-per-60s count past which an identity
	// is treated as suspicious
	BurstThreshold int

	TwoFactorIssuer string
}

// ArchiveConfig configures the optional Postgres event archive.
// Disabled when Host is empty; the in-memory store stays authoritative.
type ArchiveConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

// RedisConfig configures the optional distributed rate-limit counter
// store. Disabled when Addr is empty.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AlertingConfig configures out-of-band notification for CRITICAL alerts.
// Email delivery is disabled when FromAddress or ToAddress is empty.
type AlertingConfig struct {
	AWSRegion   string
	FromAddress string
	ToAddress   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("ENV", "development")

	sessionSecret := getEnv("SESSION_SECRET", "")
	if sessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}
	if err := validateSessionSecret(sessionSecret, env); err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			TrustedProxies: parseList(getEnv("TRUSTED_PROXIES", "")),
			SessionSecret:  sessionSecret,
		},
		Protection: ProtectionConfig{
			RouteLimits: map[models.RouteClass]RouteLimit{
				models.RouteGeneral:  {Window: getEnvAsDuration("LIMIT_GENERAL_WINDOW", 15 * time.Minute), MaxRequests: getEnvAsInt("LIMIT_GENERAL_MAX", 100)},
				models.RouteLogin:    {Window: getEnvAsDuration("LIMIT_LOGIN_WINDOW", 15 * time.Minute), MaxRequests: getEnvAsInt("LIMIT_LOGIN_MAX", 5)},
				models.RoutePayment:  {Window: getEnvAsDuration("LIMIT_PAYMENT_WINDOW", 5 * time.Minute), MaxRequests: getEnvAsInt("LIMIT_PAYMENT_MAX", 3)},
				models.RouteAdmin:    {Window: getEnvAsDuration("LIMIT_ADMIN_WINDOW", 10 * time.Minute), MaxRequests: getEnvAsInt("LIMIT_ADMIN_MAX", 50)},
				models.RouteRegister: {Window: getEnvAsDuration("LIMIT_REGISTER_WINDOW", 60 * time.Minute), MaxRequests: getEnvAsInt("LIMIT_REGISTER_MAX", 3)},
			},
			MaxLoginFailures: getEnvAsInt("MAX_LOGIN_FAILURES", 5),
			LockoutDuration:  getEnvAsDuration("LOCKOUT_DURATION", 15*time.Minute),
			AttemptWindow:    getEnvAsDuration("ATTEMPT_WINDOW", 15*time.Minute),
			CSRFTokenTTL:     getEnvAsDuration("CSRF_TOKEN_TTL", 1*time.Hour),
			EventRetention:   getEnvAsDuration("EVENT_RETENTION", 7*24*time.Hour),
			SweepInterval:    getEnvAsDuration("SWEEP_INTERVAL", 1*time.Hour),
			BurstThreshold:   getEnvAsInt("BURST_THRESHOLD", 100),
			TwoFactorIssuer:  getEnv("TWO_FACTOR_ISSUER", "VoyageHQ Admin"),
		},
		Archive: ArchiveConfig{
			Host:              getEnv("ARCHIVE_DB_HOST", ""),
			Port:              getEnvAsInt("ARCHIVE_DB_PORT", 5432),
			User:              getEnv("ARCHIVE_DB_USER", "postgres"),
			Password:          getEnv("ARCHIVE_DB_PASSWORD", ""),
			Name:              getEnv("ARCHIVE_DB_NAME", "gatekeeper"),
			SSLMode:           getEnv("ARCHIVE_DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("ARCHIVE_DB_MAX_CONNS", 10)),
			MinConns:          int32(getEnvAsInt("ARCHIVE_DB_MIN_CONNS", 2)),
			MaxConnLifetime:   getEnvAsDuration("ARCHIVE_DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("ARCHIVE_DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("ARCHIVE_DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Alerting: AlertingConfig{
			AWSRegion:   getEnv("ALERT_AWS_REGION", "us-east-1"),
			FromAddress: getEnv("ALERT_FROM_ADDRESS", ""),
			ToAddress:   getEnv("ALERT_TO_ADDRESS", ""),
		},
	}

	if cfg.Archive.Enabled() && cfg.Archive.Password == "" {
		return nil, fmt.Errorf("ARCHIVE_DB_PASSWORD is required when the event archive is enabled")
	}

	for class, limit := range cfg.Protection.RouteLimits {
		if limit.MaxRequests <= 0 || limit.Window <= 0 {
			return nil, fmt.Errorf("route class %q has a non-positive limit", class)
		}
	}

	return cfg, nil
}

// validateSessionSecret enforces minimum strength for the session signing key
func validateSessionSecret(secret, env string) error {
	minLength := 16 // Development minimum
	if env == "production" {
		minLength = 32 // Production requires 256 bits
	}

	if len(secret) < minLength {
		return fmt.Errorf("SESSION_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("SESSION_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *ArchiveConfig) Enabled() bool {
	return c.Host != ""
}

func (c *ArchiveConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func (c *RedisConfig) Enabled() bool {
	return c.Addr != ""
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func parseList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		originsStr := getEnv("ALLOWED_ORIGINS", "")
		if originsStr == "" {
			return []string{} // Default to no origins in production
		}
		return parseList(originsStr)
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
		"http://127.0.0.1:5173",
	}
}
