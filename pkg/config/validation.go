package config

import (
	"errors"
	"fmt"
	"net"

	"github.com/go-playground/validator/v10"

	"github.com/marmos91/frogopher/internal/protocol/gopher"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// Log level normalization is handled in ApplyDefaults; validation accepts
// both cases.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs validation that struct tags cannot express.
func validateCustomRules(cfg *Config) error {
	if !cfg.Gopher.Enabled {
		return errors.New("gopher: the gopher adapter must be enabled")
	}

	if _, _, err := net.SplitHostPort(cfg.Gopher.Listen); err != nil {
		return fmt.Errorf("gopher.listen: %q is not host:port: %w", cfg.Gopher.Listen, err)
	}

	if _, err := gopher.ParseExternalAddr(cfg.Gopher.ExternalAddr); err != nil {
		return fmt.Errorf("gopher.external_addr: %w", err)
	}

	if len(cfg.Sources) == 0 {
		return errors.New("sources: at least one source must be configured")
	}

	names := make(map[string]bool, len(cfg.Sources))
	for i, src := range cfg.Sources {
		if names[src.Name] {
			return fmt.Errorf("sources[%d]: duplicate source name %q", i, src.Name)
		}
		names[src.Name] = true

		if src.Type == "tips" && tipsAPIKey(cfg, src) == "" {
			return fmt.Errorf("sources[%d]: tips source %q needs an API key (tips.api_key or FROGOPHER_TIPS_API_KEY)", i, src.Name)
		}
	}

	return nil
}

// tipsAPIKey returns the key a tips source will use: its own api_key option
// when set, the shared tips.api_key otherwise.
func tipsAPIKey(cfg *Config, src SourceConfig) string {
	if key, ok := src.Options["api_key"].(string); ok && key != "" {
		return key
	}
	return cfg.Tips.APIKey
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
