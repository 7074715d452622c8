package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	Credentials CredentialsConfig `mapstructure:"credentials"`
	OrgID       string            `mapstructure:"org_id"`
	API         APIConfig         `mapstructure:"api"`
	Filters     FilterConfig      `mapstructure:"filters"`
	Output      OutputConfig      `mapstructure:"output"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// CredentialsConfig holds the OAuth client credentials. Empty values fall
// back to the APPLE_SEARCH_ADS_* environment variables.
type CredentialsConfig struct {
	ClientID       string `mapstructure:"client_id"`
	TeamID         string `mapstructure:"team_id"`
	KeyID          string `mapstructure:"key_id"`
	PrivateKeyPath string `mapstructure:"private_key_path"`
	PrivateKey     string `mapstructure:"private_key"`
}

// APIConfig tunes the request executor
type APIConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxAttempts       int           `mapstructure:"max_attempts"`
	RequestsPerSecond int           `mapstructure:"requests_per_second"`
	PageSize          int           `mapstructure:"page_size"`
}

// FilterConfig maps filter names to campaign filter expressions
type FilterConfig map[string]string

// OutputConfig contains output settings
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
