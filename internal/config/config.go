package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	RateLimit RateLimitConfig
	Recaptcha RecaptchaConfig
	Email     EmailConfig
	Redis     RedisConfig
	Outbox    OutboxConfig
}

type DatabaseConfig struct {
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

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	TrustedProxies []string
	MaxBodyBytes   int64
}

type RateLimitConfig struct {
	Window      time.Duration
	MaxRequests int
	SpamPenalty int
}

type RecaptchaConfig struct {
	SecretKey string
	MinScore  float64
	VerifyURL string
	Timeout   time.Duration
}

type EmailConfig struct {
	AWSRegion   string
	FromAddress string
	Recipient   string
	SendTimeout time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type OutboxConfig struct {
	MaxRetries     int
	PollInterval   time.Duration
	BatchSize      int
	RetryBaseDelay time.Duration
	MaxRetryDelay  time.Duration
	SendsPerSecond float64
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "saraiva_contact"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			TrustedProxies: parseList(getEnv("TRUSTED_PROXIES", "")),
			MaxBodyBytes:   int64(getEnvAsInt("MAX_BODY_BYTES", 1<<20)),
		},
		RateLimit: RateLimitConfig{
			Window:      time.Duration(getEnvAsInt("RATE_LIMIT_WINDOW", 15)) * time.Minute,
			MaxRequests: getEnvAsInt("RATE_LIMIT_MAX", 5),
			SpamPenalty: getEnvAsInt("RATE_LIMIT_SPAM_PENALTY", 2),
		},
		Recaptcha: RecaptchaConfig{
			SecretKey: getEnv("RECAPTCHA_SECRET_KEY", ""),
			MinScore:  getEnvAsFloat("RECAPTCHA_MIN_SCORE", 0.5),
			VerifyURL: getEnv("RECAPTCHA_VERIFY_URL", "https://www.google.com/recaptcha/api/siteverify"),
			Timeout:   getEnvAsDuration("RECAPTCHA_TIMEOUT", 5*time.Second),
		},
		Email: EmailConfig{
			AWSRegion:   getEnv("AWS_REGION", "us-east-1"),
			FromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),
			Recipient:   getEnv("CONTACT_RECIPIENT", ""),
			SendTimeout: getEnvAsDuration("EMAIL_SEND_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Outbox: OutboxConfig{
			MaxRetries:     getEnvAsInt("OUTBOX_MAX_RETRIES", 3),
			PollInterval:   getEnvAsDuration("OUTBOX_POLL_INTERVAL", 30*time.Second),
			BatchSize:      getEnvAsInt("OUTBOX_BATCH_SIZE", 10),
			RetryBaseDelay: getEnvAsDuration("OUTBOX_RETRY_BASE_DELAY", 1*time.Minute),
			MaxRetryDelay:  getEnvAsDuration("OUTBOX_MAX_RETRY_DELAY", 30*time.Minute),
			SendsPerSecond: getEnvAsFloat("OUTBOX_SENDS_PER_SECOND", 1),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if err := validateProduction(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateProduction enforces settings that must not be left to defaults in
// production. Missing recaptcha stays legal (explicit skip mode) but missing
// delivery settings would silently drop operator notifications.
func validateProduction(cfg *Config) error {
	if cfg.Server.Env != "production" {
		return nil
	}

	if len(cfg.Server.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_ORIGINS is required in production")
	}
	if cfg.Email.FromAddress == "" {
		return fmt.Errorf("EMAIL_FROM_ADDRESS is required in production")
	}
	if cfg.Email.Recipient == "" {
		return fmt.Errorf("CONTACT_RECIPIENT is required in production")
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
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

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
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

func parseList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		return parseList(getEnv("ALLOWED_ORIGINS", ""))
	}

	// Development: allow localhost variants alongside the public site
	return []string{
		"https://saraivavision.com.br",
		"https://www.saraivavision.com.br",
		"http://localhost:3000",
		"http://localhost:5173", // Vite default
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
}
