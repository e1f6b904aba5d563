// Package testutil provides test helpers shared by the ogsetup packages.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/systmms/ogsetup/internal/config"
)

// TestConfigBuilder builds an ogsetup.yaml for tests.
//
// The builder starts from config.Defaults, so every file it writes passes
// schema validation unless a test overrides a field with an invalid value.
//
// Example usage:
//
//	path := NewTestConfig(t).
//	    WithSplunkdURL(server.URL).
//	    WithOpsgenieEndpoint("eu", opsgenie.URL).
//	    Write()
type TestConfigBuilder struct {
	config *config.Definition
	t      *testing.T
}

// NewTestConfig creates a builder holding the default definition.
func NewTestConfig(t *testing.T) *TestConfigBuilder {
	t.Helper()

	return &TestConfigBuilder{config: config.Defaults(), t: t}
}

// WithSplunkdURL points the configuration at a splunkd management URL.
func (b *TestConfigBuilder) WithSplunkdURL(url string) *TestConfigBuilder {
	b.config.Splunkd.URL = url
	return b
}

// WithTimeout sets splunkd.timeout_ms.
func (b *TestConfigBuilder) WithTimeout(ms int) *TestConfigBuilder {
	b.config.Splunkd.TimeoutMs = ms
	return b
}

// WithSetup overrides the non-empty fields of the setup section.
func (b *TestConfigBuilder) WithSetup(s config.SetupConfig) *TestConfigBuilder {
	if s.CredentialUsername != "" {
		b.config.Setup.CredentialUsername = s.CredentialUsername
	}
	if s.ConfFile != "" {
		b.config.Setup.ConfFile = s.ConfFile
	}
	if s.Stanza != "" {
		b.config.Setup.Stanza = s.Stanza
	}
	if s.Property != "" {
		b.config.Setup.Property = s.Property
	}
	return b
}

// WithOpsgenieEndpoint sets the Opsgenie API base URL of a region.
func (b *TestConfigBuilder) WithOpsgenieEndpoint(region, url string) *TestConfigBuilder {
	b.config.Opsgenie.Endpoints[region] = url
	return b
}

// Build returns the definition built so far.
func (b *TestConfigBuilder) Build() *config.Definition {
	return b.config
}

// Write marshals the definition into a temporary ogsetup.yaml and returns
// its path. The file is removed with the test's temp dir.
func (b *TestConfigBuilder) Write() string {
	b.t.Helper()

	data, err := yaml.Marshal(b.config)
	if err != nil {
		b.t.Fatalf("Failed to marshal config: %v", err)
	}

	path := filepath.Join(b.t.TempDir(), "ogsetup.yaml")
	if err := os.WriteFile(path, data, 0600); err != nil {
		b.t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}
