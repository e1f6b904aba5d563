package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/ogsetup/internal/logging"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ogsetup.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Path:   filepath.Join(t.TempDir(), "absent.yaml"),
		Logger: logging.Discard(),
	}

	require.NoError(t, cfg.Load())
	assert.Equal(t, Defaults(), cfg.Definition)
}

func TestConfig_MissingRequiredFile(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Path:     "/nonexistent/path/to/ogsetup.yaml",
		Logger:   logging.Discard(),
		Required: true,
	}

	err := cfg.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration file not found")
	assert.Contains(t, err.Error(), "ogsetup init")
}

func TestConfig_FullFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `version: 0
splunkd:
  url: https://splunk.example.com:8089
  owner: admin
  app: opsgenie
  username: admin
  insecure_skip_verify: true
  timeout_ms: 5000
setup:
  credential_username: api_key
  conf_file: app
  stanza: install
  property: is_configured
opsgenie:
  endpoints:
    eu: https://eu.example.com/
serve:
  addr: 0.0.0.0:9000
`)

	cfg := &Config{Path: path, Logger: logging.Discard(), Required: true}
	require.NoError(t, cfg.Load())

	def, err := cfg.GetDefinition()
	require.NoError(t, err)
	assert.Equal(t, "https://splunk.example.com:8089", def.Splunkd.URL)
	assert.Equal(t, "admin", def.Splunkd.Owner)
	assert.True(t, def.Splunkd.InsecureSkipVerify)
	assert.Equal(t, 5*time.Second, def.Splunkd.Timeout())
	assert.Equal(t, "0.0.0.0:9000", def.Serve.Addr)

	eu, err := def.Opsgenie.Endpoint("eu")
	require.NoError(t, err)
	assert.Equal(t, "https://eu.example.com", eu)

	us, err := def.Opsgenie.Endpoint("us")
	require.NoError(t, err)
	assert.Equal(t, "https://api.opsgenie.com", us, "missing regions fall back to defaults")
}

func TestParse_PartialFileGetsDefaults(t *testing.T) {
	t.Parallel()

	def, err := Parse([]byte("splunkd:\n  app: my_app\n"))
	require.NoError(t, err)

	assert.Equal(t, "my_app", def.Splunkd.App)
	assert.Equal(t, "https://localhost:8089", def.Splunkd.URL)
	assert.Equal(t, "nobody", def.Splunkd.Owner)
	assert.Equal(t, 30*time.Second, def.Splunkd.Timeout())
	assert.Equal(t, "api_key", def.Setup.CredentialUsername)
	assert.Equal(t, "app", def.Setup.ConfFile)
	assert.Equal(t, "install", def.Setup.Stanza)
	assert.Equal(t, "is_configured", def.Setup.Property)
}

func TestParse_EmptyFile(t *testing.T) {
	t.Parallel()

	def, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), def)
}

func TestParse_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "invalid_yaml",
			content: "splunkd:\n  url: [[[",
			errMsg:  "invalid YAML syntax",
		},
		{
			name:    "unknown_top_level_key",
			content: "providers: {}\n",
			errMsg:  "schema validation failed",
		},
		{
			name:    "bad_url_scheme",
			content: "splunkd:\n  url: localhost:8089\n",
			errMsg:  "schema validation failed",
		},
		{
			name:    "bad_timeout_type",
			content: "splunkd:\n  timeout_ms: soon\n",
			errMsg:  "schema validation failed",
		},
		{
			name:    "unknown_region_endpoint",
			content: "opsgenie:\n  endpoints:\n    apac: https://api.apac.example.com\n",
			errMsg:  "schema validation failed",
		},
		{
			name:    "unsupported_version",
			content: "version: 2\n",
			errMsg:  "unsupported configuration version",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestConfig_GetDefinitionBeforeLoad(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	_, err := cfg.GetDefinition()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Configuration not loaded")
}

func TestOpsgenieEndpoint_Unknown(t *testing.T) {
	t.Parallel()

	_, err := Defaults().Opsgenie.Endpoint("apac")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opsgenie.endpoints")
}
