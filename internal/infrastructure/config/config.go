// internal/infrastructure/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Storage backends
const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendMemory   = "memory"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string
	LogLevel   string `validate:"oneof=debug info warn error"`

	// Server
	Port            string        `validate:"required,numeric"`
	ReadTimeout     time.Duration `validate:"gt=0"`
	WriteTimeout    time.Duration `validate:"gt=0"`
	ShutdownTimeout time.Duration `validate:"gt=0"`

	// Storage
	StorageBackend string `validate:"oneof=postgres memory"`
	EventStore     string `validate:"oneof=mongo memory"`
	PostgresDSN    string `validate:"required_if=StorageBackend postgres"`

	// MongoDB
	MongoURI      string `validate:"required_if=EventStore mongo"`
	MongoDB       string `validate:"required_if=EventStore mongo"`
	MongoUser     string
	MongoPassword string

	// Ledger
	OwnerIdentity        string `validate:"required"`
	FirstAirlineIdentity string
	FirstAirlineName     string
	VoteThreshold        int `validate:"gte=1"`
	MaxPoliciesPerFlight int `validate:"gte=0"`

	// Auth
	JWTSecret        string `validate:"required,min=32"`
	JWTIssuer        string
	JWTTokenLifetime time.Duration `validate:"gte=0"`

	// Payout
	PayoutWebhookURL   string `validate:"omitempty,url"`
	PayoutWebhookToken string
	PayoutTimeout      time.Duration `validate:"gt=0"`

	// Metrics
	MetricsNamespace string `validate:"required"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	// Set defaults and override with env vars
	config := &Config{
		AppVersion:      getEnv("APP_VERSION", "1.0.0"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Port:            getEnv("PORT", "8080"),
		ReadTimeout:     time.Duration(getEnvAsInt("READ_TIMEOUT", 30)) * time.Second,
		WriteTimeout:    time.Duration(getEnvAsInt("WRITE_TIMEOUT", 30)) * time.Second,
		ShutdownTimeout: time.Duration(getEnvAsInt("SHUTDOWN_TIMEOUT", 10)) * time.Second,

		StorageBackend: getEnv("STORAGE_BACKEND", BackendPostgres),
		EventStore:     getEnv("EVENT_STORE", BackendMongo),
		PostgresDSN:    getEnv("POSTGRES_DSN", ""),

		MongoURI:      getEnv("MONGODB_DSN", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "flightsurety"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		OwnerIdentity:        getEnv("OWNER_IDENTITY", ""),
		FirstAirlineIdentity: getEnv("FIRST_AIRLINE_IDENTITY", ""),
		FirstAirlineName:     getEnv("FIRST_AIRLINE_NAME", ""),
		VoteThreshold:        getEnvAsInt("OPERATIONAL_VOTE_THRESHOLD", 1),
		MaxPoliciesPerFlight: getEnvAsInt("MAX_POLICIES_PER_FLIGHT", 0),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTIssuer:        getEnv("JWT_ISSUER", "flightsurety-ledger"),
		JWTTokenLifetime: time.Duration(getEnvAsInt("JWT_TOKEN_LIFETIME_MINUTES", 60)) * time.Minute,

		PayoutWebhookURL:   getEnv("PAYOUT_WEBHOOK_URL", ""),
		PayoutWebhookToken: getEnv("PAYOUT_WEBHOOK_TOKEN", ""),
		PayoutTimeout:      time.Duration(getEnvAsInt("PAYOUT_TIMEOUT", 30)) * time.Second,

		MetricsNamespace: getEnv("METRICS_NAMESPACE", "flightsurety_ledger"),
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
