package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/ogsetup/tests/fakes"
)

func TestStatusCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		backend  func() *fakes.FakeStore
		contains []string
		warns    bool
	}{
		{
			name:    "never_configured",
			backend: fakes.NewFakeStore,
			contains: []string{
				"configured:  false",
				"api_key:     not stored",
			},
		},
		{
			name: "configured_us",
			backend: func() *fakes.FakeStore {
				return fakes.NewFakeStore().
					WithSection("app", "install", map[string]string{"is_configured": "true"}).
					WithSecret("us", "api_key", validKey)
			},
			contains: []string{
				"configured:  true",
				"api_key:     stored in realm us",
				"(AAA***EEE)",
				"fake-splunkd 9.2.1",
			},
		},
		{
			name: "duplicate_realms",
			backend: func() *fakes.FakeStore {
				return fakes.NewFakeStore().
					WithSection("app", "install", map[string]string{"is_configured": "0"}).
					WithSecret("us", "api_key", validKey).
					WithSecret("eu", "api_key", validKey)
			},
			contains: []string{
				"configured:  false",
				"stored in realm us, eu",
			},
			warns: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t, tt.backend(), nil)
			out, err := execute(t, NewStatusCommand(env.Config), nil, "--token", "test-token")
			require.NoError(t, err)

			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			assert.NotContains(t, out, validKey)
			if tt.warns {
				assert.Contains(t, env.Log.String(), "more than one realm")
			}
		})
	}
}
