package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const sampleHeader = `frogopher configuration file

Every value below can be overridden with an environment variable named
after its key, e.g. FROGOPHER_TIPS_API_KEY or FROGOPHER_GOPHER_LISTEN.`

// sectionComments annotates the top-level keys of a generated sample.
var sectionComments = map[string]string{
	"logging": "Logging: level is DEBUG, INFO, WARN or ERROR; format is text or json;\noutput is stdout, stderr or a file path.",
	"server":  "Server-wide settings. Metrics are served on http://<host>:<port>/metrics when enabled.",
	"gopher": "Gopher adapter. listen is the address to bind; external_addr is the\n\"host:port\" written into menu lines and must be reachable by clients.",
	"tips":    "frog.tips API access shared by every tips source. Get a key at https://frog.tips.",
	"sources": "Sources are searched in order; the first one that knows a selector answers it.\nTypes: info, text, link, placeholder, tips, bucket.",
}

// InitConfig writes a sample configuration to the default location and
// returns its path. An existing file is only replaced when force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a sample configuration to path, creating parent
// directories as needed. A ".toml" extension selects TOML, anything else YAML.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var (
		data string
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		data, err = generateTOML(GetDefaultConfig())
	} else {
		data, err = generateYAMLWithComments(GetDefaultConfig())
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// generateYAMLWithComments renders cfg as YAML with a header and a comment
// above each top-level section.
func generateYAMLWithComments(cfg *Config) (string, error) {
	var body yaml.Node
	if err := body.Encode(cfg); err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}

	quoteLeadingBlank(&body)

	// Mapping content alternates key and value nodes.
	for i := 0; i+1 < len(body.Content); i += 2 {
		key := body.Content[i]
		if comment, ok := sectionComments[key.Value]; ok {
			key.HeadComment = comment
		}
	}

	doc := &yaml.Node{
		Kind:        yaml.DocumentNode,
		HeadComment: sampleHeader,
		Content:     []*yaml.Node{&body},
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	return buf.String(), nil
}

// quoteLeadingBlank double-quotes multi-line strings that start with a blank
// or indented line. A literal block would drop the leading newline on decode.
func quoteLeadingBlank(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" && strings.Contains(n.Value, "\n") {
		if strings.HasPrefix(n.Value, "\n") || strings.HasPrefix(n.Value, " ") {
			n.Style = yaml.DoubleQuotedStyle
		}
	}
	for _, child := range n.Content {
		quoteLeadingBlank(child)
	}
}

// generateTOML renders cfg as TOML under the same header.
func generateTOML(cfg *Config) (string, error) {
	var buf bytes.Buffer
	for line := range strings.SplitSeq(sampleHeader, "\n") {
		buf.WriteString(strings.TrimRight("# "+line, " "))
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	return buf.String(), nil
}
