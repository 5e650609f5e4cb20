package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	// HTTP server
	ServerPort string

	// AI text-generation collaborator (OpenAI-compatible endpoint)
	AIBaseURL     string
	AIAPIKey      string
	AIModel       string
	AIMaxTokens   int
	AITemperature float64

	// Planning defaults
	DefaultTargetDuration int // seconds, used when an intent omits one
	FinalizeTolerance     int // seconds, allowed deviation from target at finalize

	// Logging
	LogLevel      string
	LogOutputPath string
	LogMaxSize    int
	LogMaxBackups int
	LogMaxAge     int
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvFloat gets an environment variable as float64 or returns a default value.
func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),

		AIBaseURL:     getEnv("AI_API_BASE_URL", "https://api.openai.com/v1"),
		AIAPIKey:      os.Getenv("AI_API_KEY"), // no hardcoded default for secrets
		AIModel:       getEnv("AI_MODEL", "gpt-4o-mini"),
		AIMaxTokens:   getEnvInt("AI_MAX_TOKENS", 2048),
		AITemperature: getEnvFloat("AI_TEMPERATURE", 0.7),

		DefaultTargetDuration: getEnvInt("DEFAULT_TARGET_DURATION", 3600),
		FinalizeTolerance:     getEnvInt("FINALIZE_TOLERANCE", 300),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogOutputPath: getEnv("LOG_OUTPUT_PATH", ""),
		LogMaxSize:    getEnvInt("LOG_MAX_SIZE", 100),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
		LogMaxAge:     getEnvInt("LOG_MAX_AGE", 28),
	}
}
