package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	Cloud   CloudConfig   `mapstructure:"cloud"`
	Mock    MockConfig    `mapstructure:"mock"`
	Poll    PollConfig    `mapstructure:"poll"`
	Filters FilterConfig  `mapstructure:"filters"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CloudConfig holds the cloud API connection details
type CloudConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	UserID    string        `mapstructure:"user_id"`
	Token     string        `mapstructure:"token"`
	APIKey    string        `mapstructure:"api_key"`
	APISecret string        `mapstructure:"api_secret"`
	Timeout   time.Duration `mapstructure:"timeout"`
	PoolSize  int           `mapstructure:"pool_size"`
	UserAgent string        `mapstructure:"user_agent"`
}

// MockConfig configures the built-in mock server
type MockConfig struct {
	Addr             string        `mapstructure:"addr"`
	Tokens           []string      `mapstructure:"tokens"`
	CompileDuration  time.Duration `mapstructure:"compile_duration"`
	BacktestDuration time.Duration `mapstructure:"backtest_duration"`
	RateLimit        float64       `mapstructure:"rate_limit"`
	Burst            int           `mapstructure:"burst"`
}

// PollConfig controls how workflows wait for compile and backtest jobs
type PollConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Attempts int           `mapstructure:"attempts"`
}

// FilterConfig contains named filter expressions, usable wherever a
// --filter flag takes an expression
type FilterConfig map[string]string

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`

	// File additionally writes JSON logs to a rotated file when set.
	// MaxSize is in megabytes, MaxAge in days.
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// HasCredentials reports whether any credential is configured
func (c CloudConfig) HasCredentials() bool {
	return c.Token != "" || (c.APIKey != "" && c.APISecret != "") || c.UserID != ""
}
