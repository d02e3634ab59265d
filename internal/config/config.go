package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
	ServiceName string
	Version     string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	// Profile fetch liveness fallback
	ProfileFetchTimeout time.Duration
	ProfileFetchRetries int

	// Store write retry policy
	StoreMaxRetries   int
	StoreRetryBackoff time.Duration

	// Catalog config files
	TaskCatalogPath        string
	AchievementCatalogPath string

	// Event publish retry policy and dead-letter sink
	EventMaxRetries     int
	EventRetryDelay     time.Duration
	EventDeadLetterPath string
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "dev"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		ServiceName: getEnv("SERVICE_NAME", "kidquest-engine"),
		Version:     getEnv("VERSION", "dev"),

		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBName:     getEnv("DB_NAME", "kidquest"),

		TaskCatalogPath:        getEnv("TASK_CATALOG_PATH", "configs/tasks.json"),
		AchievementCatalogPath: getEnv("ACHIEVEMENT_CATALOG_PATH", "configs/achievements.json"),

		EventDeadLetterPath: getEnv("EVENT_DEAD_LETTER_PATH", "dead_letter.jsonl"),
	}

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT value: %w", err)
	}
	cfg.Port = port

	timeoutMs, err := strconv.Atoi(getEnv("PROFILE_FETCH_TIMEOUT_MS", "2000"))
	if err != nil {
		return nil, fmt.Errorf("invalid PROFILE_FETCH_TIMEOUT_MS value: %w", err)
	}
	cfg.ProfileFetchTimeout = time.Duration(timeoutMs) * time.Millisecond

	retries, err := strconv.Atoi(getEnv("PROFILE_FETCH_RETRIES", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid PROFILE_FETCH_RETRIES value: %w", err)
	}
	cfg.ProfileFetchRetries = retries

	storeRetries, err := strconv.Atoi(getEnv("STORE_MAX_RETRIES", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_MAX_RETRIES value: %w", err)
	}
	cfg.StoreMaxRetries = storeRetries

	backoffMs, err := strconv.Atoi(getEnv("STORE_RETRY_BACKOFF_MS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_RETRY_BACKOFF_MS value: %w", err)
	}
	cfg.StoreRetryBackoff = time.Duration(backoffMs) * time.Millisecond

	eventRetries, err := strconv.Atoi(getEnv("EVENT_MAX_RETRIES", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid EVENT_MAX_RETRIES value: %w", err)
	}
	cfg.EventMaxRetries = eventRetries

	eventDelayMs, err := strconv.Atoi(getEnv("EVENT_RETRY_DELAY_MS", "500"))
	if err != nil {
		return nil, fmt.Errorf("invalid EVENT_RETRY_DELAY_MS value: %w", err)
	}
	cfg.EventRetryDelay = time.Duration(eventDelayMs) * time.Millisecond

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetDBConnString returns the PostgreSQL connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}
