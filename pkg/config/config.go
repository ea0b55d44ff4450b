package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	gopherAdapter "github.com/marmos91/frogopher/pkg/adapter/gopher"
)

// envPrefix prefixes every environment override, e.g. FROGOPHER_LOGGING_LEVEL.
const envPrefix = "FROGOPHER"

// Config represents the complete frogopher configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (FROGOPHER_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
//
// Sources are listed in the order they are searched: the first source that
// recognizes a selector answers it, and the root menu lists their items in
// the same order.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging" toml:"logging"`

	// Server contains server-wide settings
	Server ServerConfig `mapstructure:"server" yaml:"server" toml:"server"`

	// Gopher configures the Gopher protocol adapter.
	Gopher gopherAdapter.GopherConfig `mapstructure:"gopher" yaml:"gopher" toml:"gopher"`

	// Tips holds the frog.tips API settings shared by every tips source
	Tips TipsConfig `mapstructure:"tips" yaml:"tips" toml:"tips"`

	// Sources defines the registry, in search order
	Sources []SourceConfig `mapstructure:"sources" yaml:"sources" toml:"sources" validate:"dive"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" yaml:"level" toml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format" toml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output" toml:"output" validate:"required"`
}

// ServerConfig contains server-wide settings.
type ServerConfig struct {
	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" toml:"shutdown_timeout" validate:"required,gt=0"`

	// Metrics controls the Prometheus endpoint
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics" toml:"metrics"`
}

// MetricsConfig controls metrics collection and the /metrics HTTP endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" toml:"enabled"`
	Port    int  `mapstructure:"port" yaml:"port" toml:"port" validate:"omitempty,min=1,max=65535"`
}

// TipsConfig configures access to the frog.tips API.
type TipsConfig struct {
	// APIKey is sent in the Authorization header. Required when a tips source
	// is configured.
	APIKey string `mapstructure:"api_key" yaml:"api_key" toml:"api_key"`

	// BaseURL is the API root
	BaseURL string `mapstructure:"base_url" yaml:"base_url" toml:"base_url" validate:"required,url"`

	// Timeout bounds each API call
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" toml:"timeout" validate:"required,gt=0"`

	// RequestsPerSecond and Burst throttle API calls. 0 disables throttling.
	RequestsPerSecond uint `mapstructure:"requests_per_second" yaml:"requests_per_second" toml:"requests_per_second"`
	Burst             uint `mapstructure:"burst" yaml:"burst" toml:"burst"`
}

// SourceConfig declares one registry entry.
//
// Options are decoded into a type-specific structure by the source factory;
// see factories.go for the options each type accepts.
type SourceConfig struct {
	// Name identifies the source in logs and metrics. Must be unique.
	Name string `mapstructure:"name" yaml:"name" toml:"name" validate:"required"`

	// Type selects the implementation
	// Valid values: info, text, link, placeholder, tips, bucket
	Type string `mapstructure:"type" yaml:"type" toml:"type" validate:"required,oneof=info text link placeholder tips bucket"`

	// Options holds the type-specific settings
	Options map[string]any `mapstructure:"options" yaml:"options,omitempty" toml:"options,omitempty"`
}

// Load loads configuration from file, environment, and defaults.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	return LoadWithOverrides(configPath, Overrides{})
}

// Overrides carries command line values. Empty fields leave the loaded
// configuration untouched.
type Overrides struct {
	Listen       string
	ExternalAddr string
	APIKey       string
	LogLevel     string
}

func (o Overrides) apply(cfg *Config) {
	if o.Listen != "" {
		cfg.Gopher.Listen = o.Listen
		cfg.Gopher.Enabled = true
	}
	if o.ExternalAddr != "" {
		cfg.Gopher.ExternalAddr = o.ExternalAddr
	}
	if o.APIKey != "" {
		cfg.Tips.APIKey = o.APIKey
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
}

// LoadWithOverrides is Load with command line flags applied on top of the
// file and environment, before defaults and validation.
func LoadWithOverrides(configPath string, overrides Overrides) (*Config, error) {
	v := viper.New()

	if err := setupViper(v, configPath); err != nil {
		return nil, err
	}

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrides.apply(&cfg)
	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// envBindings lists the keys that may be set from the environment even when
// the config file does not mention them.
var envBindings = []string{
	"logging.level",
	"logging.format",
	"logging.output",
	"server.metrics.enabled",
	"server.metrics.port",
	"gopher.enabled",
	"gopher.listen",
	"gopher.external_addr",
	"tips.api_key",
	"tips.base_url",
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) error {
	// Example: FROGOPHER_TIPS_API_KEY=...
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The adapter runs unless a file or FROGOPHER_GOPHER_ENABLED turns it off.
	v.SetDefault("gopher.enabled", true)

	for _, key := range envBindings {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// $XDG_CONFIG_HOME/frogopher/config.yaml
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	return nil
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "frogopher")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "frogopher")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
