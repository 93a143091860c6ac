package app

import (
	"os"
	"path/filepath"
)

type Config struct {
	ClientID string // Cognito app client for the USER_PASSWORD_AUTH flow
	RelayURL string // Base URL of the relay API (default: http://localhost:8080)

	SessionDBPath  string // SQLite session store path (default: ~/.iothub/session.db)
	SessionKeyPath string // Session encryption key path (default: ~/.iothub/session.key)

	Issuer   string // Issuer label stamped on TOTP enrollment URIs (default: IoTHub)
	LEDTopic string // Broker topic the led command publishes to (default: hub/led)

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: warn)
	LogFormat string // Log format (json, text) (default: text)
}

func LoadConfig() Config {
	stateDir := defaultStateDir()

	return Config{
		ClientID:       os.Getenv("COGNITO_CLIENT_ID"),
		RelayURL:       getEnvOrDefault("RELAY_URL", "http://localhost:8080"),
		SessionDBPath:  getEnvOrDefault("SESSION_DB_PATH", filepath.Join(stateDir, "session.db")),
		SessionKeyPath: getEnvOrDefault("SESSION_KEY_PATH", filepath.Join(stateDir, "session.key")),
		Issuer:         getEnvOrDefault("TOTP_ISSUER", "IoTHub"),
		LEDTopic:       getEnvOrDefault("HUB_LED_TOPIC", "hub/led"),
		Env:            getEnvOrDefault("ENV", "dev"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "warn"),
		LogFormat:      getEnvOrDefault("LOG_FORMAT", "text"),
	}
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".iothub"
	}
	return filepath.Join(home, ".iothub")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
