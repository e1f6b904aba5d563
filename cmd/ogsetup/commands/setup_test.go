package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/ogsetup/internal/config"
	dserrors "github.com/systmms/ogsetup/internal/errors"
	"github.com/systmms/ogsetup/pkg/store"
	"github.com/systmms/ogsetup/tests/fakes"
	"github.com/systmms/ogsetup/tests/testutil"
)

func TestSetupCommand_FreshInstall(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, nil)

	out, err := execute(t, NewSetupCommand(env.Config), nil,
		"--token", "test-token", "--api-key", validKey, "--region", "us")
	require.NoError(t, err)
	assert.Contains(t, out, "Success!")
	assert.Contains(t, out, `"opsgenie" is configured for region us`)

	value, ok := env.Store.SecretValue("us", "api_key")
	require.True(t, ok)
	assert.Equal(t, validKey, value)

	props, ok := env.Store.Section("app", "install")
	require.True(t, ok)
	assert.Equal(t, "true", props["is_configured"])
	assert.Equal(t, []string{"opsgenie"}, env.Store.Reloads())

	env.Log.AssertNotContains(t, validKey)
	env.Log.AssertContains(t, "Setup finished after reloading: done")
}

func TestSetupCommand_MovesKeyToNewRegion(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, fakes.NewFakeStore().WithSecret("us", "api_key", "11111111-2222-3333-4444-555555555555"), nil)

	_, err := execute(t, NewSetupCommand(env.Config), nil,
		"--token", "test-token", "--api-key", validKey, "--region", "eu")
	require.NoError(t, err)

	assert.Equal(t, []string{"eu"}, env.Store.SecretRealms("api_key"))
}

func TestSetupCommand_InvalidInput(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, nil)

	_, err := execute(t, NewSetupCommand(env.Config), nil,
		"--token", "test-token", "--api-key", "not-a-uuid", "--region", "us")
	require.Error(t, err)

	var userErr dserrors.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, "Invalid setup input", userErr.Message)
	assert.Contains(t, userErr.Details, "Please provide a valid API Key.")
	assert.Empty(t, env.Store.Calls(), "nothing is sent to splunkd")
	env.Log.AssertContains(t, "Setup finished after validating: failed")
}

func TestSetupCommand_StoreRejection(t *testing.T) {
	t.Parallel()

	backend := fakes.NewFakeStore().WithFailure("UpdateSectionProperties", &store.Error{
		Op:         "update_section",
		StatusCode: 403,
		Messages:   []store.Message{{Type: "ERROR", Text: "You do not have permission to write app.conf"}},
		Err:        store.ErrForbidden,
	})
	env := newTestEnv(t, backend, nil)

	_, err := execute(t, NewSetupCommand(env.Config), nil,
		"--token", "test-token", "--api-key", validKey, "--region", "us")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "splunkd error during setup")
	assert.Contains(t, err.Error(), "admin_all_objects")
	assert.Contains(t, env.Log.String(), "ERROR: You do not have permission to write app.conf")
	assert.Empty(t, env.Store.Reloads())
}

func TestSetupCommand_BadToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, nil)

	_, err := execute(t, NewSetupCommand(env.Config), nil,
		"--token", "wrong", "--api-key", validKey, "--region", "us")
	require.Error(t, err)
	assert.True(t, store.IsUnauthorized(err))
	assert.Contains(t, err.Error(), "ogsetup login")
}

func TestSetupCommand_NoCredentials(t *testing.T) {
	t.Setenv("SPLUNK_TOKEN", "")

	env := newTestEnv(t, nil, nil)

	_, err := execute(t, NewSetupCommand(env.Config), nil, "--api-key", validKey, "--region", "us")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No splunkd credentials available")
}

func TestSetupCommand_CustomSettingsFromConfig(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil, func(b *testutil.TestConfigBuilder) {
		b.WithSetup(config.SetupConfig{ConfFile: "opsgenie", Stanza: "setup", CredentialUsername: "og_key"})
	})

	_, err := execute(t, NewSetupCommand(env.Config), nil,
		"--token", "test-token", "--api-key", validKey, "--region", "eu", "--app", "opsgenie_dev")
	require.NoError(t, err)

	props, ok := env.Store.Section("opsgenie", "setup")
	require.True(t, ok)
	assert.Equal(t, "true", props["is_configured"])
	assert.Equal(t, []string{"eu"}, env.Store.SecretRealms("og_key"))
	assert.Equal(t, []string{"opsgenie_dev"}, env.Store.Reloads())
}
