package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	BrokerParam   string // SSM parameter name for the MQTT broker host
	UsernameParam string // SSM parameter name for the MQTT username (SecureString)
	PasswordParam string // SSM parameter name for the MQTT password (SecureString)
	UserPoolID    string // Cognito user pool for the admin reset endpoint

	PublishTimeout      time.Duration // Broker acknowledgment bound (default: 3s)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

// secureParamVersion pins the SecureString reads to the provisioned
// parameter version, matching how the credentials were deployed.
const secureParamVersion = ":1"

func LoadConfig() Config {
	return Config{
		BrokerParam:         getEnvOrDefault("MQTT_BROKER_SSM", "/iot/mqtt/broker"),
		UsernameParam:       getEnvOrDefault("MQTT_USERNAME_SSM", "/iot/mqtt/username") + secureParamVersion,
		PasswordParam:       getEnvOrDefault("MQTT_PASSWORD_SSM", "/iot/mqtt/password") + secureParamVersion,
		UserPoolID:          os.Getenv("COGNITO_USER_POOL_ID"),
		PublishTimeout:      getEnvDurationOrDefault("MQTT_PUBLISH_TIMEOUT", 3*time.Second),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
