package config

import (
	"fmt"
	"os"

	"astro-insights/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()

	// 3. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// applyDefaults fills optional sections so downstream code never checks for
// zero values.
func (c *Config) applyDefaults() {
	if c.Ephemeris.ForecastHorizonDays == 0 {
		c.Ephemeris.ForecastHorizonDays = 90
	}
	if c.Ephemeris.SignalRetentionDays == 0 {
		c.Ephemeris.SignalRetentionDays = 30
	}
	if c.Pipeline.SweepIntervalSeconds == 0 {
		c.Pipeline.SweepIntervalSeconds = 3600
	}
	if c.Pipeline.StateCacheCapacity == 0 {
		c.Pipeline.StateCacheCapacity = 1000
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate Server configuration (Flattened)
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	// Validate Storage configuration
	if c.Storage.DBType == "" {
		return fmt.Errorf("database type cannot be empty")
	}
	if c.Storage.DBType == "sqlite" && c.Storage.DBPath == "" {
		return fmt.Errorf("database path cannot be empty for sqlite")
	}
	if c.Storage.DBType == "postgres" && c.Storage.DBConnectionString == "" {
		return fmt.Errorf("connection string cannot be empty for postgres")
	}

	// Validate Network configuration
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.Network.ConcurrentRequests <= 0 {
		return fmt.Errorf("concurrent requests must be greater than 0")
	}

	// Validate Ephemeris configuration
	if c.Ephemeris.UpdateIntervalSeconds <= 0 {
		return fmt.Errorf("update interval must be greater than 0")
	}
	if c.Ephemeris.SignalRetentionDays <= 0 {
		return fmt.Errorf("signal retention days must be greater than 0")
	}
	if c.Ephemeris.ForecastHorizonDays <= 0 {
		return fmt.Errorf("forecast horizon days must be greater than 0")
	}
	if len(c.Ephemeris.Sources) == 0 {
		return fmt.Errorf("at least one ephemeris source must be configured")
	}
	for i, src := range c.Ephemeris.Sources {
		if src.Name == "" {
			return fmt.Errorf("source %d must have a name", i)
		}
		if src.BaseURL == "" {
			return fmt.Errorf("source '%s' must have a base url", src.Name)
		}
		if len(src.UserIDs) == 0 {
			return fmt.Errorf("source '%s' must observe at least one user", src.Name)
		}
	}

	// Validate observed users
	if len(c.Users) == 0 {
		return fmt.Errorf("at least one user must be configured")
	}
	seen := make(map[string]bool, len(c.Users))
	for i, u := range c.Users {
		if u.UserID == "" {
			return fmt.Errorf("user %d must have a user_id", i)
		}
		if seen[u.UserID] {
			return fmt.Errorf("duplicate user_id '%s'", u.UserID)
		}
		seen[u.UserID] = true
	}

	return nil
}

// -----------------------------------------------------------------------------

// UserPreferences resolves the preferences for one configured user.
func (c *Config) UserPreferences(userID string) (models.MUserPreferences, bool) {
	for _, u := range c.Users {
		if u.UserID == userID {
			return u.Preferences(), true
		}
	}
	return models.MUserPreferences{}, false
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
