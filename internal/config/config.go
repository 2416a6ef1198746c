package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the configuration settings for the batch geocoding service.
// It is loaded once at startup; the API credential is injected into the
// geocode client rather than read from ambient global state.
//
// Fields:
// - Env: The current environment (e.g., local, dev, prod).
// - Port: The port for the HTTP server.
// - APIKey: The API key for the Google Geocoding API.
// - Workers: The number of concurrent workers per batch.
// - RateLimit: The provider request budget in requests per second.
// - Timeout: The per-call timeout for provider requests.
type Config struct {
	Env       string        // Env is the current environment: local, dev, prod.
	Port      int           // Port is the HTTP server port.
	APIKey    string        // The API key for accessing the geocoding provider.
	Workers   int           // The number of concurrent workers per batch.
	RateLimit int           // Provider requests per second.
	Timeout   time.Duration // Per-call provider timeout.
}

// MustLoad loads the configuration from the environment and returns a Config
// struct. It panics on malformed values.
func MustLoad() *Config {
	_ = godotenv.Load()

	port, err := strconv.Atoi(setDefaultEnv("GEOCODER_PORT", "8080"))
	if err != nil {
		panic("failed to parse port for HTTP server from configuration")
	}

	workers, err := strconv.Atoi(setDefaultEnv("GEOCODER_WORKERS", "16"))
	if err != nil {
		panic("failed to parse workers from configuration, must be an integer type")
	}

	rateLimit, err := strconv.Atoi(setDefaultEnv("GEOCODER_RATE_LIMIT", "50"))
	if err != nil {
		panic("failed to parse rate limit from configuration, must be an integer type")
	}

	timeout, err := time.ParseDuration(setDefaultEnv("GEOCODER_TIMEOUT", "15s"))
	if err != nil {
		panic("failed to parse provider timeout from configuration")
	}

	return &Config{
		Env:       setDefaultEnv("GEOCODER_ENV", "production"),
		Port:      port,
		APIKey:    os.Getenv("GEOCODER_API_KEY"),
		Workers:   workers,
		RateLimit: rateLimit,
		Timeout:   timeout,
	}
}

func setDefaultEnv(key, override string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = override
	}

	return value
}
