package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Web front end
	Port       string
	APIBaseURL string
	APITimeout time.Duration

	// API server
	APIPort            string
	DefaultUserID      string
	IdempotencyTTL     time.Duration
	RateLimitPerMinute int

	// Logging
	LogLevel string

	// Form
	TaxonomyFile      string
	IdempotencyScheme string

	// Row storage selection
	DataBackend string

	// Sheet configuration registry
	ConfigStore   string
	SQLiteDBPath  string
	MongoURI      string
	MongoDatabase string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	GoogleCredentialsPath    string
	ServiceAccountEmail      string
	ApplicationName          string
}

func Load() *Config {
	cfg := &Config{
		Port:       getEnv("PORT", "8080"),
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8081"),
		APITimeout: getEnvDuration("API_TIMEOUT", 15*time.Second),

		APIPort:            getEnv("API_PORT", "8081"),
		DefaultUserID:      getEnv("DEFAULT_USER_ID", "darian"),
		IdempotencyTTL:     getEnvDuration("IDEMPOTENCY_TTL", 5*time.Minute),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		TaxonomyFile:      getEnv("TAXONOMY_FILE", ""),
		IdempotencyScheme: getEnv("IDEMPOTENCY_SCHEME", "sha256"),

		DataBackend: getEnv("DATA_BACKEND", "memory"),

		ConfigStore:   getEnv("CONFIG_STORE", "memory"),
		SQLiteDBPath:  getEnv("SQLITE_DB_PATH", "./data/finsheet.db"),
		MongoURI:      getEnv("MONGO_URI", ""),
		MongoDatabase: getEnv("MONGO_DATABASE", "finsheet"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finsheet"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "transaction_events"),

		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleCredentialsPath:    getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		ServiceAccountEmail:      getEnv("SERVICE_ACCOUNT_EMAIL", ""),
		ApplicationName:          getEnv("APPLICATION_NAME", "Finance Management App"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	errors = append(errors, validatePort("port", c.Port)...)
	errors = append(errors, validatePort("API port", c.APIPort)...)

	if c.APIBaseURL == "" {
		errors = append(errors, "API base URL cannot be empty")
	} else if u, err := url.Parse(c.APIBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': %v", c.APIBaseURL, err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", u.Scheme))
	}

	if c.APITimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid API timeout %v: must be at least 1 second", c.APITimeout))
	}

	if c.IdempotencyTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid idempotency TTL %v: must be at least 1 second", c.IdempotencyTTL))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	}

	validLevels := []string{"debug", "info", "warn", "warning", "error"}
	if !slices.Contains(validLevels, strings.ToLower(c.LogLevel)) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLevels))
	}

	validSchemes := []string{"sha256", "base64"}
	if !slices.Contains(validSchemes, c.IdempotencyScheme) {
		errors = append(errors, fmt.Sprintf("invalid idempotency scheme '%s': must be one of %v", c.IdempotencyScheme, validSchemes))
	}

	if c.TaxonomyFile != "" {
		if _, err := os.Stat(c.TaxonomyFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("taxonomy file does not exist: %s", c.TaxonomyFile))
		}
	}

	validBackends := []string{"memory", "sheets"}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sheets" {
		hasCredentials := c.GoogleServiceAccountJSON != "" || c.GoogleServiceAccountFile != "" || c.GoogleCredentialsPath != ""
		if !hasCredentials {
			errors = append(errors, "one of GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS must be provided for sheets backend")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	validStores := []string{"memory", "sqlite", "mongo"}
	if !slices.Contains(validStores, c.ConfigStore) {
		errors = append(errors, fmt.Sprintf("invalid config store '%s': must be one of %v", c.ConfigStore, validStores))
	}

	if c.ConfigStore == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite config store")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.ConfigStore == "mongo" {
		if c.MongoURI == "" {
			errors = append(errors, "MONGO_URI is required when using mongo config store")
		} else if u, err := url.Parse(c.MongoURI); err != nil {
			errors = append(errors, fmt.Sprintf("invalid Mongo URI: %v", err))
		} else if u.Scheme != "mongodb" && u.Scheme != "mongodb+srv" {
			errors = append(errors, fmt.Sprintf("invalid Mongo URI scheme '%s': must be 'mongodb' or 'mongodb+srv'", u.Scheme))
		}
		if c.MongoDatabase == "" {
			errors = append(errors, "Mongo database name cannot be empty when using mongo config store")
		}
	}

	// AMQP is optional
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func validatePort(name, value string) []string {
	port, err := strconv.Atoi(value)
	if err != nil {
		return []string{fmt.Sprintf("invalid %s '%s': must be a number", name, value)}
	}
	if port < 1 || port > 65535 {
		return []string{fmt.Sprintf("invalid %s %d: must be between 1 and 65535", name, port)}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
