package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Core
	Debug bool

	// Server
	ListenAddr         string
	AcceptPollInterval time.Duration
	MaxFrameBytes      uint32

	// Health API
	HealthServerEnabled bool
	HealthServerPort    string
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Core
		Debug: getEnvBool("DEBUG", false),

		// Server - port 0 asks the OS for an ephemeral port,
		// the concrete address is read back after bind
		ListenAddr:         getEnv("LISTEN_ADDR", "127.0.0.1:0"),
		AcceptPollInterval: getEnvDuration("ACCEPT_POLL_INTERVAL", 50*time.Millisecond),
		MaxFrameBytes:      uint32(getEnvInt("MAX_FRAME_BYTES", 1<<20)),

		// Health API
		HealthServerEnabled: getEnvBool("HEALTH_SERVER_ENABLED", false),
		HealthServerPort:    getEnv("HEALTH_SERVER_PORT", "8080"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate ensures configuration is coherent
func (c *Config) validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("LISTEN_ADDR must not be empty")
	}

	if c.AcceptPollInterval <= 0 {
		return fmt.Errorf("ACCEPT_POLL_INTERVAL must be positive, got %s", c.AcceptPollInterval)
	}

	if c.MaxFrameBytes == 0 {
		return fmt.Errorf("MAX_FRAME_BYTES must be positive")
	}

	if c.HealthServerEnabled {
		if _, err := strconv.Atoi(c.HealthServerPort); err != nil {
			return fmt.Errorf("invalid HEALTH_SERVER_PORT: %s", c.HealthServerPort)
		}
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
