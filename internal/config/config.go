// Package config provides configuration management for the cache factory
// service. It loads configuration from environment variables with sensible
// defaults and validates it so that the service starts safely.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: Diagnostics API port (default: 8080)
//   - LOG_LEVEL: Logging level (default: info)
//
// Cache Factory:
//   - CACHE_CONTAINER_NAME: Name of the container the factory serves (default: default)
//   - CACHE_CONFIG_TEMPLATE: Location of the default template (default: builtin:default.yaml)
//   - CACHE_CONFIG_DIR: Base directory for relative template locations
//   - CACHE_CUSTOM_CONFIGS: Custom templates as "name=location,name=location"
//   - CACHE_STATS_SCHEDULE: Cron schedule for manager statistics logging (default: @every 5m)
//
// Distributed Caches:
//   - DISTRIBUTED_ENABLED: Serve distributed caches from Redis (default: false)
//   - DISTRIBUTED_KEY_PREFIX: Prefix of every Redis key (default: cache:)
//
// Redis Configuration:
//   - REDIS_ADDRESS: Redis server address (default: localhost:6379)
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_POOL_SIZE: Redis connection pool size (default: 10)
//
// Example usage:
//
//	cfg := config.Load()
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("Invalid configuration: %v", err)
//	}
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"cache-factory/internal/common/validation"
)

// Config holds all configuration values for the cache factory service.
// All string fields correspond to environment variables that can be set to
// override the default values.
type Config struct {
	// Application settings
	Port     string // Diagnostics API port
	LogLevel string // Logging level (debug, info, warn, error)

	// Cache factory settings
	ContainerName    string // Container the factory serves
	TemplateLocation string // Default template location (cache.config.template)
	ConfigDir        string // Base directory for relative template locations
	CustomConfigs    string // Raw "name=location" list of custom templates
	StatsSchedule    string // Cron schedule for statistics logging, empty disables it

	// Distributed cache settings
	DistributedEnabled   bool   // Whether distributed requests are served from Redis
	DistributedKeyPrefix string // Prefix of every Redis key

	// Redis configuration for distributed caches
	RedisAddress  string // Redis server address (host:port)
	RedisPassword string // Redis authentication password
	RedisDB       string // Redis database number (0-15)
	RedisPoolSize string // Redis connection pool size
}

// Load creates a new Config instance with values loaded from environment
// variables. If an environment variable is not set, the corresponding default
// value is used.
//
// This function does not validate the configuration; call Validate() on the
// returned Config.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		ContainerName:    getEnv("CACHE_CONTAINER_NAME", "default"),
		TemplateLocation: getEnv("CACHE_CONFIG_TEMPLATE", "builtin:default.yaml"),
		ConfigDir:        getEnv("CACHE_CONFIG_DIR", ""),
		CustomConfigs:    getEnv("CACHE_CUSTOM_CONFIGS", ""),
		StatsSchedule:    getEnv("CACHE_STATS_SCHEDULE", "@every 5m"),

		DistributedEnabled:   getBoolEnv("DISTRIBUTED_ENABLED", false),
		DistributedKeyPrefix: getEnv("DISTRIBUTED_KEY_PREFIX", "cache:"),

		RedisAddress:  getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnv("REDIS_DB", "0"),
		RedisPoolSize: getEnv("REDIS_POOL_SIZE", "10"),
	}
}

// getEnv retrieves an environment variable value or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv retrieves a boolean environment variable value or returns a default value.
//
// This function accepts common boolean representations:
//   - "true", "1", "t", "TRUE", "True" -> true
//   - "false", "0", "f", "FALSE", "False" -> false
//   - Any other value or parsing error -> returns defaultValue
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// CustomTemplates parses CustomConfigs into a map of cache name to template
// location. Entries are separated by commas and split on the first '='.
func (c *Config) CustomTemplates() (map[string]string, error) {
	templates := make(map[string]string)
	if strings.TrimSpace(c.CustomConfigs) == "" {
		return templates, nil
	}

	for _, entry := range strings.Split(c.CustomConfigs, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, location, ok := strings.Cut(entry, "=")
		name, location = strings.TrimSpace(name), strings.TrimSpace(location)
		if !ok || name == "" || location == "" {
			return nil, fmt.Errorf("CACHE_CUSTOM_CONFIGS entry %q must have the form name=location", entry)
		}
		templates[name] = location
	}
	return templates, nil
}

// RedisDBNumber returns RedisDB as an integer. Call Validate first.
func (c *Config) RedisDBNumber() int {
	db, _ := strconv.Atoi(c.RedisDB)
	return db
}

// RedisPoolSizeNumber returns RedisPoolSize as an integer. Call Validate first.
func (c *Config) RedisPoolSizeNumber() int {
	size, _ := strconv.Atoi(c.RedisPoolSize)
	return size
}

// Validate checks the configuration and reports the first problem found.
//
// This method checks:
//   - Required fields (container name, default template)
//   - Field formats (port, cron schedule, custom template list)
//   - Redis settings when distributed caches are enabled
func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number between 1 and 65535")
	}

	if err := validation.Var(c.ContainerName, "required,cache_name"); err != nil {
		return fmt.Errorf("CACHE_CONTAINER_NAME must be a non-empty name without whitespace")
	}

	if strings.TrimSpace(c.TemplateLocation) == "" {
		return fmt.Errorf("CACHE_CONFIG_TEMPLATE (cache.config.template) must be set")
	}

	if _, err := c.CustomTemplates(); err != nil {
		return err
	}

	if c.StatsSchedule != "" {
		if err := validation.Var(c.StatsSchedule, "cron_expression"); err != nil {
			return fmt.Errorf("CACHE_STATS_SCHEDULE must be a valid cron expression (e.g., '@every 5m', '*/5 * * * *')")
		}
	}

	if c.DistributedEnabled {
		if err := validation.Var(c.RedisAddress, "required,hostname_port"); err != nil {
			return fmt.Errorf("REDIS_ADDRESS must be a host:port address when DISTRIBUTED_ENABLED is set")
		}
		if db, err := strconv.Atoi(c.RedisDB); err != nil || db < 0 || db > 15 {
			return fmt.Errorf("REDIS_DB must be a number between 0 and 15")
		}
		if poolSize, err := strconv.Atoi(c.RedisPoolSize); err != nil || poolSize < 1 {
			return fmt.Errorf("REDIS_POOL_SIZE must be a positive number")
		}
	}

	return nil
}
