package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	dserrors "github.com/systmms/ogsetup/internal/errors"
	"github.com/systmms/ogsetup/internal/logging"
)

// DefaultPath is the configuration file used when --config is not given.
const DefaultPath = "ogsetup.yaml"

// Config holds the runtime configuration
type Config struct {
	Path           string
	Logger         *logging.Logger
	NonInteractive bool
	// Required makes a missing file an error instead of falling back to defaults.
	Required   bool
	Definition *Definition
}

// Definition represents the ogsetup.yaml structure
type Definition struct {
	Version  int            `yaml:"version"`
	Splunkd  SplunkdConfig  `yaml:"splunkd"`
	Setup    SetupConfig    `yaml:"setup"`
	Opsgenie OpsgenieConfig `yaml:"opsgenie"`
	Serve    ServeConfig    `yaml:"serve"`
}

// SplunkdConfig locates the splunkd management API and the app namespace
type SplunkdConfig struct {
	URL                string `yaml:"url"`
	Owner              string `yaml:"owner"`
	App                string `yaml:"app"`
	Token              string `yaml:"token,omitempty"`
	Username           string `yaml:"username,omitempty"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify,omitempty"`
	TimeoutMs          int    `yaml:"timeout_ms,omitempty"` // Timeout in milliseconds (default: 30000)
}

// SetupConfig names where the setup writes
type SetupConfig struct {
	CredentialUsername string `yaml:"credential_username"`
	ConfFile           string `yaml:"conf_file"`
	Stanza             string `yaml:"stanza"`
	Property           string `yaml:"property"`
}

// OpsgenieConfig holds the Opsgenie API base URL per region
type OpsgenieConfig struct {
	Endpoints map[string]string `yaml:"endpoints"`
}

// ServeConfig configures the setup form server
type ServeConfig struct {
	Addr string `yaml:"addr"`
}

// Defaults returns the definition used when no file is present
func Defaults() *Definition {
	return &Definition{
		Version: 0,
		Splunkd: SplunkdConfig{
			URL:       "https://localhost:8089",
			Owner:     "nobody",
			App:       "opsgenie",
			TimeoutMs: 30000,
		},
		Setup: SetupConfig{
			CredentialUsername: "api_key",
			ConfFile:           "app",
			Stanza:             "install",
			Property:           "is_configured",
		},
		Opsgenie: OpsgenieConfig{
			Endpoints: map[string]string{
				"us": "https://api.opsgenie.com",
				"eu": "https://api.eu.opsgenie.com",
			},
		},
		Serve: ServeConfig{
			Addr: "127.0.0.1:8765",
		},
	}
}

// Load reads and parses the ogsetup.yaml file
func (c *Config) Load() error {
	path := c.Path
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if !c.Required {
				if c.Logger != nil {
					c.Logger.Debug("No configuration file at %s, using defaults", path)
				}
				c.Definition = Defaults()
				return nil
			}
			return dserrors.ConfigError{
				Field:      "path",
				Value:      path,
				Message:    "configuration file not found",
				Suggestion: "Run 'ogsetup init' to create a new configuration file",
			}
		}
		return dserrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	def, err := Parse(data)
	if err != nil {
		return err
	}

	c.Definition = def
	return nil
}

// Parse validates data against the schema and returns the definition with
// defaults filled in
func Parse(data []byte) (*Definition, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, dserrors.ConfigError{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
		}
	}
	if raw == nil {
		raw = map[string]interface{}{}
	}

	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, dserrors.ConfigError{
			Message:    "configuration does not match the expected structure",
			Suggestion: "Compare your file with the output of 'ogsetup init --print'",
		}
	}

	if def.Version != 0 {
		return nil, dserrors.ConfigError{
			Field:      "version",
			Value:      def.Version,
			Message:    "unsupported configuration version",
			Suggestion: "Set 'version: 0' at the top of your ogsetup.yaml file",
		}
	}

	def.applyDefaults()
	return &def, nil
}

func validateSchema(raw interface{}) error {
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return dserrors.ConfigError{
			Message:    fmt.Sprintf("configuration cannot be checked: %v", err),
			Suggestion: "Use string keys only",
		}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(definitionSchema),
		gojsonschema.NewBytesLoader(jsonData),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var errorMessages []string
		for _, desc := range result.Errors() {
			errorMessages = append(errorMessages, desc.String())
		}
		return dserrors.ConfigError{
			Message:    "schema validation failed:\n  - " + strings.Join(errorMessages, "\n  - "),
			Suggestion: "Compare your file with the output of 'ogsetup init --print'",
		}
	}

	return nil
}

func (d *Definition) applyDefaults() {
	defaults := Defaults()

	if d.Splunkd.URL == "" {
		d.Splunkd.URL = defaults.Splunkd.URL
	}
	if d.Splunkd.Owner == "" {
		d.Splunkd.Owner = defaults.Splunkd.Owner
	}
	if d.Splunkd.App == "" {
		d.Splunkd.App = defaults.Splunkd.App
	}
	if d.Splunkd.TimeoutMs <= 0 {
		d.Splunkd.TimeoutMs = defaults.Splunkd.TimeoutMs
	}

	if d.Setup.CredentialUsername == "" {
		d.Setup.CredentialUsername = defaults.Setup.CredentialUsername
	}
	if d.Setup.ConfFile == "" {
		d.Setup.ConfFile = defaults.Setup.ConfFile
	}
	if d.Setup.Stanza == "" {
		d.Setup.Stanza = defaults.Setup.Stanza
	}
	if d.Setup.Property == "" {
		d.Setup.Property = defaults.Setup.Property
	}

	if d.Opsgenie.Endpoints == nil {
		d.Opsgenie.Endpoints = map[string]string{}
	}
	for region, endpoint := range defaults.Opsgenie.Endpoints {
		if d.Opsgenie.Endpoints[region] == "" {
			d.Opsgenie.Endpoints[region] = endpoint
		}
	}

	if d.Serve.Addr == "" {
		d.Serve.Addr = defaults.Serve.Addr
	}
}

// Timeout returns the per-operation deadline for splunkd calls
func (s SplunkdConfig) Timeout() time.Duration {
	if s.TimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// GetDefinition returns the loaded definition
func (c *Config) GetDefinition() (*Definition, error) {
	if c.Definition == nil {
		return nil, dserrors.UserError{
			Message:    "Configuration not loaded",
			Suggestion: "This is an internal error. Please report it",
		}
	}
	return c.Definition, nil
}

// Endpoint returns the Opsgenie base URL for a region
func (o OpsgenieConfig) Endpoint(region string) (string, error) {
	endpoint, ok := o.Endpoints[region]
	if !ok || endpoint == "" {
		return "", dserrors.ConfigError{
			Field:      "opsgenie.endpoints",
			Value:      region,
			Message:    "no endpoint configured for region",
			Suggestion: "Add the region under opsgenie.endpoints in ogsetup.yaml",
		}
	}
	return strings.TrimRight(endpoint, "/"), nil
}
