package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds all configuration parameters of the application
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Alerts   AlertsConfig
	App      AppConfig
}

type DatabaseConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	MigrationPath string
}

// RedisConfig holds the settings for the summary cache and mutation locks
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// SummaryTTLSeconds bounds staleness if an invalidation is ever missed.
	SummaryTTLSeconds int
}

// AlertsConfig holds the settings for the operator Telegram alert channel.
// Alerts are disabled when BotToken is empty.
type AlertsConfig struct {
	BotToken string
	ChatID   int64
}

type AppConfig struct {
	Env       string
	LogLevel  string
	Port      int
	EventName string
}

// Load reads configuration from the environment and .env
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	// Database
	cfg.Database.Host = getEnvDefault("DB_HOST", "localhost")
	cfg.Database.Port = getEnvIntDefault("DB_PORT", 5432)
	cfg.Database.User = os.Getenv("DB_USER")
	cfg.Database.Password = os.Getenv("DB_PASSWORD")
	cfg.Database.Name = os.Getenv("DB_NAME")
	cfg.Database.SSLMode = getEnvDefault("DB_SSL_MODE", "disable")
	cfg.Database.MigrationPath = getEnvDefault("MIGRATION_PATH", "scripts/migrations")

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	cfg.Redis.DB = getEnvIntDefault("REDIS_DB", 0)
	cfg.Redis.SummaryTTLSeconds = getEnvIntDefault("SUMMARY_CACHE_TTL_SECONDS", 300)

	// Alerts
	cfg.Alerts.BotToken = os.Getenv("ALERT_BOT_TOKEN")
	cfg.Alerts.ChatID = getEnvInt64Default("ALERT_CHAT_ID", 0)

	// App
	cfg.App.Env = getEnvDefault("APP_ENV", "development")
	cfg.App.LogLevel = getEnvDefault("LOG_LEVEL", "info")
	cfg.App.Port = getEnvIntDefault("APP_PORT", 8080)
	cfg.App.EventName = getEnvDefault("EVENT_NAME", "gala")

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func getEnvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvInt64Default(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return i
}

// validateConfig checks the configuration for required values
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("DB_HOST is not set")
	}
	if config.Database.User == "" {
		return fmt.Errorf("DB_USER is not set")
	}
	if config.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is not set")
	}
	if config.Database.Name == "" {
		return fmt.Errorf("DB_NAME is not set")
	}
	if config.Alerts.BotToken != "" && config.Alerts.ChatID == 0 {
		return fmt.Errorf("ALERT_CHAT_ID is required when ALERT_BOT_TOKEN is set")
	}

	return nil
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// AlertsEnabled reports whether the operator alert channel is configured
func (c *AlertsConfig) AlertsEnabled() bool {
	return c.BotToken != "" && c.ChatID != 0
}

// IsDevelopment reports whether the application runs in development mode
func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction reports whether the application runs in production mode
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// GetLogLevel maps the configured level to a zap level
func (c *AppConfig) GetLogLevel() zap.AtomicLevel {
	switch c.LogLevel {
	case "debug":
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		return zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
}
