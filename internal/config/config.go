package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds the configuration for the application.
type Config struct {
	DatabaseURL  string
	Port         string
	JWTSecret    string
	GeminiAPIKey string
	CORSOrigin   string
}

// NewFromEnv creates a new Config from environment variables, loading a
// local .env file first when one exists.
func NewFromEnv() (*Config, error) {
	// A missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	corsOrigin := os.Getenv("CORS_ORIGIN")
	if corsOrigin == "" {
		corsOrigin = "http://localhost:5173"
	}

	return &Config{
		DatabaseURL:  databaseURL,
		Port:         port,
		JWTSecret:    os.Getenv("JWT_SECRET"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		CORSOrigin:   corsOrigin,
	}, nil
}
