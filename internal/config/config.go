package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries all runtime settings for the billing service.
type Config struct {
	Environment string
	HTTPAddr    string

	DatabaseURL string

	// TokenizationURL is the external card tokenization endpoint. The
	// service posts raw card data there and persists only the returned
	// token; nothing card-shaped is stored locally.
	TokenizationURL     string
	TokenizationTimeout time.Duration

	// RealtimeFeedURL is the websocket change-feed endpoint for the
	// billing tables. Empty disables the sync channel.
	RealtimeFeedURL string

	SweepInterval time.Duration

	Tracing Tracing

	Bootstrap Bootstrap
}

// Tracing configures the OpenTelemetry exporter.
type Tracing struct {
	Enabled          bool
	ServiceName      string
	ExporterEndpoint string
	ExporterProtocol string
	SamplingRatio    float64
}

// Bootstrap controls local-development seeding.
type Bootstrap struct {
	EnsureDefaultClinic bool
}

// IsProduction reports whether the service runs in production mode.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Load reads configuration from the environment, honoring a local .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment:         getEnv("CHIROFLOW_ENV", "development"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		TokenizationURL:     getEnv("TOKENIZATION_URL", ""),
		TokenizationTimeout: getDuration("TOKENIZATION_TIMEOUT", 10*time.Second),
		RealtimeFeedURL:     getEnv("REALTIME_FEED_URL", ""),
		SweepInterval:       getDuration("SWEEP_INTERVAL", 15*time.Minute),
		Tracing: Tracing{
			Enabled:          getBool("OTEL_ENABLED", false),
			ServiceName:      getEnv("OTEL_SERVICE_NAME", "chiroflow-billing"),
			ExporterEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ExporterProtocol: getEnv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"),
			SamplingRatio:    getFloat("OTEL_SAMPLING_RATIO", 1.0),
		},
		Bootstrap: Bootstrap{
			EnsureDefaultClinic: getBool("BOOTSTRAP_DEFAULT_CLINIC", true),
		},
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}

func getFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return value
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return value
}
