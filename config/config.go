package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CLOUDBRIDGE_CLOUD_TOKEN
const EnvPrefix = "CLOUDBRIDGE"

// Load loads the configuration from file and environment. A missing
// config file is not an error when no explicit path is given.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("json")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".cloudbridge"))
		}

		// Check /etc
		v.AddConfigPath("/etc/cloudbridge/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values. Every key needs a
// default so that AutomaticEnv overrides reach Unmarshal.
func setDefaults(v *viper.Viper) {
	// Cloud defaults
	v.SetDefault("cloud.base_url", "http://localhost:5001/api/v2")
	v.SetDefault("cloud.user_id", "")
	v.SetDefault("cloud.token", "")
	v.SetDefault("cloud.api_key", "")
	v.SetDefault("cloud.api_secret", "")
	v.SetDefault("cloud.timeout", "30s")
	v.SetDefault("cloud.pool_size", 5)
	v.SetDefault("cloud.user_agent", "cloudbridge/1.0")

	// Mock server defaults
	v.SetDefault("mock.addr", ":5001")
	v.SetDefault("mock.tokens", []string{"demo-token-123", "test-token-456"})
	v.SetDefault("mock.compile_duration", "2s")
	v.SetDefault("mock.backtest_duration", "10s")
	v.SetDefault("mock.rate_limit", 0.0)
	v.SetDefault("mock.burst", 10)

	// Polling defaults
	v.SetDefault("poll.interval", "1s")
	v.SetDefault("poll.attempts", 30)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", false)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.Cloud.PoolSize < 0 {
		return fmt.Errorf("cloud.pool_size must not be negative")
	}
	if cfg.Cloud.Timeout < 0 {
		return fmt.Errorf("cloud.timeout must not be negative")
	}
	if cfg.Poll.Attempts <= 0 {
		return fmt.Errorf("poll.attempts must be positive")
	}
	if cfg.Poll.Interval <= 0 {
		return fmt.Errorf("poll.interval must be positive")
	}
	if cfg.Mock.RateLimit < 0 {
		return fmt.Errorf("mock.rate_limit must not be negative")
	}

	for name, expression := range cfg.Filters {
		if strings.TrimSpace(expression) == "" {
			return fmt.Errorf("filter %q has an empty expression", name)
		}
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}
	if cfg.Logging.MaxSize < 0 || cfg.Logging.MaxBackups < 0 || cfg.Logging.MaxAge < 0 {
		return fmt.Errorf("logging rotation settings must not be negative")
	}

	return nil
}

// ValidateCloud checks the settings needed to talk to the cloud API
func (c *Config) ValidateCloud() error {
	if c.Cloud.BaseURL == "" {
		return fmt.Errorf("cloud.base_url is required")
	}
	u, err := url.Parse(c.Cloud.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("cloud.base_url must be an absolute URL: %q", c.Cloud.BaseURL)
	}
	if !c.Cloud.HasCredentials() {
		return fmt.Errorf("one of cloud.token, cloud.api_key with cloud.api_secret, or cloud.user_id must be set")
	}
	return nil
}
