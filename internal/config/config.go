package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the process configuration, loaded from the environment with a
// .env fallback for local development.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Twilio   TwilioConfig
}

type AppConfig struct {
	Port           string
	Environment    string
	LogFilePath    string
	DefaultStoreID string
	UseMemoryStore bool
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type TwilioConfig struct {
	AccountSID   string
	AuthToken    string
	WhatsAppFrom string
	// SkipValidation disables webhook signature checks (ngrok/dev only).
	SkipValidation bool
}

// Load reads the configuration. Missing optional values fall back to
// development defaults; Twilio credentials may be absent, which limits
// outbound messaging to logs.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:           getEnv("APP_PORT", "8080"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			LogFilePath:    getEnv("LOG_FILE_PATH", "pedeja.log"),
			DefaultStoreID: getEnv("DEFAULT_STORE_ID", "default"),
			UseMemoryStore: getEnvAsBool("USE_MEMORY_STORE", false),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASS", ""),
			Name:     getEnv("DB_NAME", "pedeja"),
		},
		Twilio: TwilioConfig{
			AccountSID:     getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:      getEnv("TWILIO_AUTH_TOKEN", ""),
			WhatsAppFrom:   getEnv("TWILIO_WHATSAPP_FROM", ""),
			SkipValidation: getEnvAsBool("DISABLE_WEBHOOK_VALIDATION", false),
		},
	}
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
