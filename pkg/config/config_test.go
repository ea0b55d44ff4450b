package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolateConfigDir points the default config location at an empty temp dir
// so the user's own config never leaks into a test.
func isolateConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return dir
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_DefaultConfig(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
logging:
  level: "info"

tips:
  api_key: "ribbit"

gopher:
  listen: ":7071"
  external_addr: "frog.example:70"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected normalized level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Gopher.MaxLineLength != 512 {
		t.Errorf("Expected default max_line_length 512, got %d", cfg.Gopher.MaxLineLength)
	}
	if cfg.Gopher.ExternalAddr != "frog.example:70" {
		t.Errorf("Expected external_addr from file, got %q", cfg.Gopher.ExternalAddr)
	}
	if len(cfg.Sources) != len(DefaultSources()) {
		t.Errorf("Expected default sources, got %d", len(cfg.Sources))
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	isolateConfigDir(t)
	t.Setenv("FROGOPHER_TIPS_API_KEY", "ribbit")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Expected defaults without a config file, got error: %v", err)
	}

	if cfg.Gopher.Listen != ":7070" {
		t.Errorf("Expected default listen ':7070', got %q", cfg.Gopher.Listen)
	}
	if cfg.Gopher.ExternalAddr != "localhost:7070" {
		t.Errorf("Expected default external_addr 'localhost:7070', got %q", cfg.Gopher.ExternalAddr)
	}
	if !cfg.Gopher.Enabled {
		t.Error("Expected gopher adapter to be enabled by default")
	}
}

func TestLoad_MissingAPIKey(t *testing.T) {
	isolateConfigDir(t)
	t.Setenv("FROGOPHER_TIPS_API_KEY", "")

	if _, err := Load(""); err == nil {
		t.Fatal("Expected validation error for default tips source without API key")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
gopher:
  listen: ":7071"
tips:
  api_key: "from-file"
`)

	t.Setenv("FROGOPHER_GOPHER_LISTEN", "127.0.0.1:7072")
	t.Setenv("FROGOPHER_GOPHER_EXTERNAL_ADDR", "frog.example 7072")
	t.Setenv("FROGOPHER_TIPS_API_KEY", "from-env")
	t.Setenv("FROGOPHER_LOGGING_LEVEL", "debug")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Gopher.Listen != "127.0.0.1:7072" {
		t.Errorf("Expected env listen, got %q", cfg.Gopher.Listen)
	}
	if cfg.Gopher.ExternalAddr != "frog.example 7072" {
		t.Errorf("Expected env external_addr, got %q", cfg.Gopher.ExternalAddr)
	}
	if cfg.Tips.APIKey != "from-env" {
		t.Errorf("Expected env API key, got %q", cfg.Tips.APIKey)
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected env log level DEBUG, got %q", cfg.Logging.Level)
	}
}

func TestLoad_ListenFromEnvOnly(t *testing.T) {
	isolateConfigDir(t)
	t.Setenv("FROGOPHER_GOPHER_LISTEN", ":7071")
	t.Setenv("FROGOPHER_TIPS_API_KEY", "ribbit")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if !cfg.Gopher.Enabled {
		t.Error("Expected gopher adapter enabled when only the listen address is set")
	}
	if cfg.Gopher.Listen != ":7071" {
		t.Errorf("Expected env listen, got %q", cfg.Gopher.Listen)
	}
	if cfg.Gopher.ExternalAddr != "localhost:7071" {
		t.Errorf("Expected external_addr to follow listen port, got %q", cfg.Gopher.ExternalAddr)
	}
}

func TestLoad_ListenFromFileOnly(t *testing.T) {
	isolateConfigDir(t)
	configPath := writeConfig(t, "config.yaml", `
gopher:
  listen: ":7072"
tips:
  api_key: "ribbit"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if !cfg.Gopher.Enabled {
		t.Error("Expected gopher adapter enabled when the section omits enabled")
	}
}

func TestLoad_GopherDisabled(t *testing.T) {
	isolateConfigDir(t)
	configPath := writeConfig(t, "config.yaml", `
gopher:
  enabled: false
  listen: ":7072"
tips:
  api_key: "ribbit"
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected validation error with the gopher adapter disabled")
	}
}

func TestLoadWithOverrides(t *testing.T) {
	isolateConfigDir(t)
	t.Setenv("FROGOPHER_TIPS_API_KEY", "")

	cfg, err := LoadWithOverrides("", Overrides{
		Listen:       "0.0.0.0:70",
		ExternalAddr: "frog.tips:70",
		APIKey:       "from-flag",
		LogLevel:     "warn",
	})
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Gopher.Listen != "0.0.0.0:70" {
		t.Errorf("Expected flag listen, got %q", cfg.Gopher.Listen)
	}
	if cfg.Gopher.ExternalAddr != "frog.tips:70" {
		t.Errorf("Expected flag external_addr, got %q", cfg.Gopher.ExternalAddr)
	}
	if cfg.Tips.APIKey != "from-flag" {
		t.Errorf("Expected flag API key, got %q", cfg.Tips.APIKey)
	}
	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected flag log level WARN, got %q", cfg.Logging.Level)
	}
}

func TestLoad_CustomSources(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
sources:
  - name: banner
    type: info
    options:
      text: "HELLO"
  - name: docs
    type: bucket
    options:
      bucket: frog-docs
      region: us-east-1
      path_prefix: /DOCS
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if len(cfg.Sources) != 2 {
		t.Fatalf("Expected 2 sources, got %d", len(cfg.Sources))
	}
	if cfg.Sources[1].Type != "bucket" {
		t.Errorf("Expected bucket source, got %q", cfg.Sources[1].Type)
	}
	if cfg.Sources[1].Options["bucket"] != "frog-docs" {
		t.Errorf("Expected bucket option to survive, got %v", cfg.Sources[1].Options["bucket"])
	}
}

func TestLoad_TOML(t *testing.T) {
	configPath := writeConfig(t, "config.toml", `
[logging]
level = "ERROR"

[gopher]
listen = ":7073"
read_timeout = "5s"

[tips]
api_key = "ribbit"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load TOML config: %v", err)
	}

	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected ERROR, got %q", cfg.Logging.Level)
	}
	if cfg.Gopher.ReadTimeout != 5*time.Second {
		t.Errorf("Expected read_timeout 5s, got %v", cfg.Gopher.ReadTimeout)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", "gopher: [not, a, map")

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error for malformed config file")
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	dir := isolateConfigDir(t)

	want := filepath.Join(dir, "frogopher", "config.yaml")
	if got := GetDefaultConfigPath(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
	if ConfigExists() {
		t.Error("Expected no config in an empty directory")
	}
}
