package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"trend-screener/src/models"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new Config instance from YAML file
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

func (c *Config) applyDefaults() {
	if c.Calendar.Market == "" {
		c.Calendar.Market = "xnys"
	}
	if c.Calendar.Timezone == "" {
		c.Calendar.Timezone = "America/New_York"
	}
	if c.Providers.Trends.WindowDays == 0 {
		c.Providers.Trends.WindowDays = 7
	}
	if c.Providers.Trends.TzOffset == 0 {
		c.Providers.Trends.TzOffset = 480
	}
	if len(c.Providers.Trends.HourBucket) == 0 {
		c.Providers.Trends.HourBucket = []int{4, 5, 6}
	}
	if c.Providers.Trends.BatchSize == 0 {
		c.Providers.Trends.BatchSize = 5
	}
	if c.Screener.MaxParallelDates == 0 {
		c.Screener.MaxParallelDates = 5
	}
	if c.Storage.RetentionDays == 0 {
		c.Storage.RetentionDays = 90
	}
	if c.Report.OutputDir == "" {
		c.Report.OutputDir = "output"
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Server configuration (only used in serve mode, but validated up front)
	if c.Port != 0 && (c.Port <= 1024 || c.Port > 65535) {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}

	// Storage configuration
	if c.Storage.DBType == "" {
		return fmt.Errorf("database type cannot be empty")
	}
	if c.Storage.DBType == "sqlite" && c.Storage.DBPath == "" {
		return fmt.Errorf("database path cannot be empty for sqlite")
	}
	if c.Storage.DBType == "postgres" && c.Storage.DBConnectionString == "" {
		return fmt.Errorf("connection string cannot be empty for postgres")
	}

	// Network configuration
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.Network.ConcurrentRequests <= 0 {
		return fmt.Errorf("concurrent requests must be greater than 0")
	}

	// Provider configuration
	if c.Providers.Market.BaseURL == "" {
		return fmt.Errorf("market provider base URL cannot be empty")
	}
	if c.Providers.Market.APIKeyEnv == "" {
		return fmt.Errorf("market provider api_key_env cannot be empty")
	}
	if c.Providers.Trends.BaseURL == "" {
		return fmt.Errorf("trends provider base URL cannot be empty")
	}
	if c.Providers.Trends.APIKeyEnv == "" {
		return fmt.Errorf("trends provider api_key_env cannot be empty")
	}
	for _, h := range c.Providers.Trends.HourBucket {
		if h < 0 || h > 23 {
			return fmt.Errorf("invalid hour bucket: %d", h)
		}
	}

	// Screener thresholds
	if c.Screener.MinPremarketVolume < 0 {
		return fmt.Errorf("min premarket volume cannot be negative")
	}
	if c.Screener.MinGapUp < 0 {
		return fmt.Errorf("min gap up cannot be negative")
	}
	if c.Screener.MinTrendsChange < 0 {
		return fmt.Errorf("min trends change cannot be negative")
	}
	if c.Screener.MaxParallelDates <= 0 {
		return fmt.Errorf("max parallel dates must be greater than 0")
	}

	return nil
}

// -----------------------------------------------------------------------------

// ParseMarketCap converts market cap notation (100M, 2.5B or a plain
// number) into a float value.
func ParseMarketCap(value string) (float64, error) {
	v := strings.ToUpper(strings.TrimSpace(value))
	if v == "" {
		return 0, fmt.Errorf("empty market cap value")
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(v, "B"):
		multiplier = 1_000_000_000
		v = strings.TrimSuffix(v, "B")
	case strings.HasSuffix(v, "M"):
		multiplier = 1_000_000
		v = strings.TrimSuffix(v, "M")
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("invalid market cap format: %s", value)
	}
	return f * multiplier, nil
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
