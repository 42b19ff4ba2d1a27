package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	Debug   bool
	Port    string

	// Logging
	LogLevel string
	LogJSON  bool

	// Persistence
	DataFile string // JSON document holding the server registry
	EventsDB string // sqlite database for the lifecycle event history

	// RCON
	RCONHost string
	RCONPort int

	// Lifecycle timing
	LaunchTimeout time.Duration // budget for init/start scripts
	StopGrace     time.Duration // delay between RCON stop and Offline
}

// Load loads configuration from the environment, reading .env if present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AppName:       getEnv("APP_NAME", "EZHost"),
		Debug:         getEnvBool("DEBUG", true),
		Port:          getEnv("PORT", "5001"),
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		LogJSON:       getEnvBool("LOG_JSON", false),
		DataFile:      getEnv("DATA_FILE", "./data/myServers.json"),
		EventsDB:      getEnv("EVENTS_DB", "./data/events.db"),
		RCONHost:      getEnv("RCON_HOST", "localhost"),
		RCONPort:      getEnvInt("RCON_PORT", 25575),
		LaunchTimeout: time.Duration(getEnvInt("LAUNCH_TIMEOUT_SECONDS", 300)) * time.Second,
		StopGrace:     time.Duration(getEnvInt("STOP_GRACE_SECONDS", 10)) * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			log.Printf("Invalid boolean for %s, using default: %v", key, defaultValue)
			return defaultValue
		}
		return boolVal
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("Invalid integer for %s, using default: %d", key, defaultValue)
			return defaultValue
		}
		return intVal
	}
	return defaultValue
}
