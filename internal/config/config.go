package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"memchat/internal/logger"

	"github.com/sirupsen/logrus"
)

// AppConfig holds all application configuration
type AppConfig struct {
	Server   ServerConfig
	Database DatabaseConfig
	LLM      LLMConfig
	Auth     AuthConfig
	Memory   MemoryConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// LLMConfig holds OpenRouter provider configuration
type LLMConfig struct {
	OpenRouterAPIKey string
	DefaultModel     string
	EmbeddingModel   string
	BaseSystemPrompt string
	ExtractionPrompt string
	RequestTimeout   time.Duration
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret       []byte
	TokenExpiration time.Duration
}

// MemoryConfig holds retrieval-augmented memory settings
type MemoryConfig struct {
	TopK          int
	MinSimilarity float64
	// MinQueryChars is the minimum latest-message length before retrieval
	// is attempted at all.
	MinQueryChars int
}

// LoadConfig loads and validates application configuration from environment
func LoadConfig() (*AppConfig, error) {
	config := &AppConfig{}

	config.Server = ServerConfig{
		Port: getEnvOrDefault("SERVER_PORT", "8080"),
	}

	config.Database = DatabaseConfig{
		Host:     getEnvOrDefault("DB_HOST", "postgres"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
		Name:     getEnvOrDefault("DB_NAME", "memchat"),
		SSLMode:  getEnvOrDefault("DB_SSLMODE", "disable"),
	}

	apiKey := os.Getenv("OPENROUTER_API_KEY")
	if apiKey == "" {
		logger.Log.Warn("OPENROUTER_API_KEY environment variable not set")
	}

	config.LLM = LLMConfig{
		OpenRouterAPIKey: apiKey,
		DefaultModel:     getEnvOrDefault("OPENROUTER_DEFAULT_MODEL", "openai/gpt-4o-mini"),
		EmbeddingModel:   getEnvOrDefault("OPENROUTER_EMBEDDING_MODEL", "text-embedding-3-small"),
		BaseSystemPrompt: getEnvOrDefault("OPENROUTER_SYSTEM_PROMPT", "You are a helpful, premium AI assistant. Format your responses with markdown."),
		ExtractionPrompt: getEnvOrDefault("OPENROUTER_EXTRACTION_PROMPT", getDefaultExtractionPrompt()),
		RequestTimeout:   getEnvAsDuration("OPENROUTER_REQUEST_TIMEOUT", 2*time.Minute),
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable must be set")
	}
	if len(jwtSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters (current length: %d)", len(jwtSecret))
	}

	config.Auth = AuthConfig{
		JWTSecret:       []byte(jwtSecret),
		TokenExpiration: getEnvAsDuration("JWT_TOKEN_EXPIRATION", 24*time.Hour),
	}

	config.Memory = MemoryConfig{
		TopK:          getEnvAsInt("MEMORY_TOP_K", 3),
		MinSimilarity: getEnvAsFloat("MEMORY_MIN_SIMILARITY", 0.2),
		MinQueryChars: getEnvAsInt("MEMORY_MIN_QUERY_CHARS", 5),
	}

	return config, nil
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"key": key, "default": defaultValue}).Warn("Invalid integer value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"key": key, "default": defaultValue}).Warn("Invalid float value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"key": key, "default": defaultValue}).Warn("Invalid duration value, using default")
		return defaultValue
	}
	return value
}

func getDefaultExtractionPrompt() string {
	return `You extract durable facts about the user from a chat exchange.

Instructions:
1. Ignore pleasantries, small talk and one-off requests
2. Keep only facts worth remembering across conversations (preferences, biography, ongoing projects, constraints)
3. Condense them into a single short paragraph written in the third person
4. If nothing in the exchange qualifies, respond with exactly EMPTY and nothing else

Respond with only the condensed facts or EMPTY, without any preamble.`
}
