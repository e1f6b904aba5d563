package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/ogsetup/internal/config"
	"github.com/systmms/ogsetup/internal/logging"
)

func TestInitCommand(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ogsetup.yaml")
	cfg := &config.Config{Path: path, Logger: logging.Discard()}

	out, err := execute(t, NewInitCommand(cfg), nil)
	require.NoError(t, err)
	assert.Contains(t, out, "ogsetup login")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	def, err := config.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, config.Defaults(), def)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	_, err = execute(t, NewInitCommand(cfg), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = execute(t, NewInitCommand(cfg), nil, "--force")
	require.NoError(t, err)
}

func TestInitCommand_Print(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ogsetup.yaml")
	cfg := &config.Config{Path: path, Logger: logging.Discard()}

	out, err := execute(t, NewInitCommand(cfg), nil, "--print")
	require.NoError(t, err)

	def, err := config.Parse([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, config.Defaults(), def)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "--print writes nothing")
}
