package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/s0up4200/searchads/searchads"
	"github.com/spf13/viper"
)

// envBindings maps config keys to the environment variables the library reads
var envBindings = map[string]string{
	"credentials.client_id":        searchads.EnvClientID,
	"credentials.team_id":          searchads.EnvTeamID,
	"credentials.key_id":           searchads.EnvKeyID,
	"credentials.private_key_path": searchads.EnvPrivateKeyPath,
	"credentials.private_key":      searchads.EnvPrivateKey,
	"org_id":                       searchads.EnvOrgID,
}

// Load loads the configuration. A missing config file is not an error when
// no explicit path was given, since credentials may come from the environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", env, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".searchads"))
		}

		// Check /etc
		v.AddConfigPath("/etc/searchads/")
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

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault("api.base_url", searchads.DefaultBaseURL)
	v.SetDefault("api.timeout", searchads.DefaultTimeout)
	v.SetDefault("api.max_attempts", searchads.DefaultMaxAttempts)
	v.SetDefault("api.requests_per_second", searchads.DefaultRequestsPerWindow)
	v.SetDefault("api.page_size", searchads.DefaultPageSize)

	// Output defaults
	v.SetDefault("output.format", "table")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if cfg.API.MaxAttempts < 1 {
		return fmt.Errorf("api.max_attempts must be at least 1")
	}
	if cfg.API.RequestsPerSecond < 1 {
		return fmt.Errorf("api.requests_per_second must be at least 1")
	}
	if cfg.API.PageSize < 1 || cfg.API.PageSize > searchads.DefaultPageSize {
		return fmt.Errorf("api.page_size must be between 1 and %d", searchads.DefaultPageSize)
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

	validOutputs := map[string]bool{
		"table": true,
		"csv":   true,
		"json":  true,
		"yaml":  true,
	}
	if !validOutputs[strings.ToLower(cfg.Output.Format)] {
		return fmt.Errorf("invalid output format: %s", cfg.Output.Format)
	}

	for name, expression := range cfg.Filters {
		if strings.TrimSpace(expression) == "" {
			return fmt.Errorf("filter %q has an empty expression", name)
		}
	}

	return nil
}

// CredentialOptions converts the credentials section for the client
func (c *Config) CredentialOptions() searchads.CredentialOptions {
	return searchads.CredentialOptions{
		ClientID:       c.Credentials.ClientID,
		TeamID:         c.Credentials.TeamID,
		KeyID:          c.Credentials.KeyID,
		PrivateKeyPath: c.Credentials.PrivateKeyPath,
		PrivateKey:     c.Credentials.PrivateKey,
	}
}
