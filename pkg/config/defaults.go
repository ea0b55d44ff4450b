package config

import (
	"strings"
	"time"

	"github.com/marmos91/frogopher/pkg/source/tips"
)

// readme is served at /README by the default layout.
const readme = `
       _   _          ___  ___  _   __
      (o)-(o)        | __|| o \/ \ / _|
   .-(   "   )-.     | _| |   ( o | |_n
  /  /` + "`'-=-'`" + `\  \    |_|  |_|\\\_/ \__/
__\ _\ \___/ /_ /__   ___  _  ___  __
  /|  /|\ /|\  |\    |_ _|| || o \/ _|
                      | | | ||  _/\_ \
                      |_| |_||_|  |__/

    W E L C O M E ,  F R I E N D

YOU ARE NOW CONNECTED TO THE LATEST IN
FROG SYSTEMS TECHNOLOGY.

FEEL FREE TO BROWSE AND DOWN-LOAD ALL
TWEETED FROG TIPS.
`

// DefaultSources returns the layout served when no sources are configured.
func DefaultSources() []SourceConfig {
	return []SourceConfig{
		{
			Name: "welcome",
			Type: "info",
			Options: map[string]any{
				"text": "FROGOPHER\nA GOPHER HOLE FOR FROG TIPS.",
			},
		},
		{
			Name: "readme",
			Type: "text",
			Options: map[string]any{
				"path": "/README",
				"desc": "READ ALL ABOUT FROG, THE LATEST SENSATION.",
				"body": readme,
			},
		},
		{
			Name: "tips",
			Type: "tips",
		},
		{
			Name: "frog.tips",
			Type: "link",
			Options: map[string]any{
				"url":  "https://frog.tips",
				"desc": "FROG TIPS ON THE WORLD WIDE WEB",
			},
		},
		{
			Name: "floppy",
			Type: "placeholder",
			Options: map[string]any{
				"path": "/FLOPPY",
				"desc": "FROG TIPS ON FLOPPY",
			},
		},
	}
}

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Zero values (0, "", false, nil) are replaced with defaults; explicit values
// are preserved. Source options are defaulted by the source factories.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyGopherDefaults(cfg)
	applyTipsDefaults(&cfg.Tips)

	if len(cfg.Sources) == 0 {
		cfg.Sources = DefaultSources()
	}
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
}

// applyGopherDefaults enables the Gopher adapter for an unconfigured section
// and fills in its defaults. An explicit "enabled: false" next to a listen
// address is respected.
func applyGopherDefaults(cfg *Config) {
	if !cfg.Gopher.Enabled && cfg.Gopher.Listen == "" {
		cfg.Gopher.Enabled = true
	}

	if cfg.Gopher.ShutdownTimeout == 0 {
		cfg.Gopher.ShutdownTimeout = cfg.Server.ShutdownTimeout
	}

	cfg.Gopher.ApplyDefaults()
}

func applyTipsDefaults(cfg *TipsConfig) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = tips.DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = tips.DefaultTimeout
	}
	if cfg.RequestsPerSecond == 0 && cfg.Burst == 0 {
		cfg.RequestsPerSecond = 5
		cfg.Burst = 10
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
