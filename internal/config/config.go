package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all server configuration
type Config struct {
	ServerPort    int
	TransportMode string
	LogLevel      string
	DBConfig      DatabaseConfig
	AuditedTables []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Type         string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	QueryTimeout time.Duration
	MaxOpenConns int
	MaxIdleConns int
}

// LoadConfig loads the configuration from environment variables, after
// loading a .env file from the working directory when one exists.
func LoadConfig() *Config {
	// Missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	port, _ := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	queryTimeoutMs, _ := strconv.Atoi(getEnv("DB_QUERY_TIMEOUT_MS", "30000"))
	maxOpen, _ := strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "25"))
	maxIdle, _ := strconv.Atoi(getEnv("DB_MAX_IDLE_CONNS", "5"))

	return &Config{
		ServerPort:    port,
		TransportMode: getEnv("TRANSPORT_MODE", "stdio"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DBConfig: DatabaseConfig{
			Type:         getEnv("DB_TYPE", "postgres"),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         dbPort,
			User:         getEnv("DB_USER", ""),
			Password:     getEnv("DB_PASSWORD", ""),
			Name:         getEnv("DB_NAME", ""),
			QueryTimeout: time.Duration(queryTimeoutMs) * time.Millisecond,
			MaxOpenConns: maxOpen,
			MaxIdleConns: maxIdle,
		},
		AuditedTables: splitList(getEnv("DB_AUDITED_TABLES", "")),
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// splitList parses a comma-separated list, dropping empty entries.
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
