package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// External capability endpoints. API keys stay in the environment
	// (DEEPSEEK_API_KEY, USDA_API_KEY, EMBEDDING_API_KEY) and are read by
	// the clients themselves.
	DeepSeekAPIURL  string
	USDASearchURL   string
	EmbeddingAPIURL string
	MealDBBaseURL   string

	// Engine tuning
	GenerationAttemptBudget int
}

// LoadConfig creates a new Config instance with values from environment
// variables or Docker secrets, depending on the environment.
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := &Config{}

	switch env {
	case CI, Development, Test:
		loadEnvConfig(cfg)
	case Production:
		loadProdConfig(cfg)
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	loadEngineConfig(cfg)

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadEnvConfig loads configuration from plain environment variables.
func loadEnvConfig(cfg *Config) {
	cfg.ServerPort = getEnvDefault("SERVER_PORT", "8080")
	cfg.ServerHost = getEnvDefault("SERVER_HOST", "0.0.0.0")
	cfg.DBHost = getEnvDefault("DB_HOST", "localhost")
	cfg.DBPort = getEnvDefault("DB_PORT", "5432")
	cfg.DBUser = getEnvDefault("DB_USER", "postgres")
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	cfg.DBName = getEnvDefault("DB_NAME", "macromeal")
	cfg.DBSSLMode = getEnvDefault("DB_SSL_MODE", "disable")
	cfg.RedisHost = getEnvDefault("REDIS_HOST", "localhost")
	cfg.RedisPort = getEnvDefault("REDIS_PORT", "6379")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if db, err := strconv.Atoi(dbStr); err == nil {
			cfg.RedisDB = db
		}
	}
}

// loadProdConfig loads configuration for production using ONLY Docker secrets
func loadProdConfig(cfg *Config) {
	cfg.ServerPort = readSecret("server_port")
	cfg.ServerHost = readSecret("server_host")
	cfg.DBHost = readSecret("db_host")
	cfg.DBPort = readSecret("db_port")
	cfg.DBUser = readSecret("db_user")
	cfg.DBPassword = readSecret("db_password")
	cfg.DBName = readSecret("db_name")
	cfg.DBSSLMode = readSecret("db_ssl_mode")
	cfg.RedisHost = readSecret("redis_host")
	cfg.RedisPort = readSecret("redis_port")
	cfg.RedisPassword = readSecret("redis_password")
	cfg.RedisDB = 0
}

// loadEngineConfig fills the capability endpoints and engine tuning, which
// are plain environment variables in every environment.
func loadEngineConfig(cfg *Config) {
	cfg.DeepSeekAPIURL = getEnvDefault("DEEPSEEK_API_URL", "https://api.deepseek.com/v1/chat/completions")
	cfg.USDASearchURL = getEnvDefault("USDA_SEARCH_URL", "https://api.nal.usda.gov/fdc/v1/foods/search")
	cfg.EmbeddingAPIURL = getEnvDefault("EMBEDDING_API_URL", "https://api.openai.com/v1/embeddings")
	cfg.MealDBBaseURL = getEnvDefault("MEALDB_BASE_URL", "https://www.themealdb.com/api/json/v1/1")

	cfg.GenerationAttemptBudget = 3
	if raw := os.Getenv("GENERATION_ATTEMPT_BUDGET"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			cfg.GenerationAttemptBudget = n
		}
	}
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
