package credentials

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/systmms/ogsetup/tests/fakes"
)

func init() {
	keyring.MockInit()
}

func brokenKeyring(err error) *fakes.FakeKeyring {
	kr := fakes.NewFakeKeyring()
	kr.Err = err
	return kr
}

func noEnv(string) string { return "" }

func TestSessions_RoundTrip(t *testing.T) {
	// The mock keyring is process-global.
	s := NewSessions()
	url := "https://roundtrip.example.com:8089"

	_, ok, err := s.Load(url)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(url, "session-1"))

	key, ok, err := s.Load("HTTPS://roundtrip.example.com:8089/")
	require.NoError(t, err)
	assert.True(t, ok, "URL is normalised before lookup")
	assert.Equal(t, "session-1", key)

	require.NoError(t, s.Forget(url))
	_, ok, err = s.Load(url)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, s.Forget(url), "forgetting twice is fine")
}

func TestSessions_AccountPerURL(t *testing.T) {
	t.Parallel()

	kr := fakes.NewFakeKeyring()
	s := NewSessionsWithKeyring(kr)

	require.NoError(t, s.Save("https://a.example.com:8089", "a"))
	require.NoError(t, s.Save("https://B.example.com:8089/", "b"))
	require.NoError(t, s.Save("https://a.example.com:8089/", "a2"))

	assert.Equal(t, 2, kr.Accounts(Service))
	assert.Equal(t, "a2", kr.Secrets[Service]["https://a.example.com:8089"])
	assert.Equal(t, "b", kr.Secrets[Service]["https://b.example.com:8089"])
}

func TestSessions_KeyringFailure(t *testing.T) {
	t.Parallel()

	s := NewSessionsWithKeyring(brokenKeyring(errors.New("dbus unavailable")))

	_, _, err := s.Load("https://x:8089")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dbus unavailable")

	assert.Error(t, s.Save("https://x:8089", "k"))
	assert.Error(t, s.Forget("https://x:8089"))
}

func TestResolver_Order(t *testing.T) {
	url := "https://resolve.example.com:8089"
	sessions := NewSessions()
	require.NoError(t, sessions.Save(url, "cached-session"))

	env := func(k string) string {
		if k == EnvToken {
			return "env-token"
		}
		return ""
	}

	tests := []struct {
		name   string
		token  string
		getenv func(string) string
		url    string
		want   Auth
	}{
		{
			name:   "explicit_token_wins",
			token:  "flag-token",
			getenv: env,
			url:    url,
			want:   Auth{Token: "flag-token", Source: SourceToken},
		},
		{
			name:   "env_before_keyring",
			getenv: env,
			url:    url,
			want:   Auth{Token: "env-token", Source: SourceEnv},
		},
		{
			name:   "keyring_session",
			getenv: noEnv,
			url:    url,
			want:   Auth{SessionKey: "cached-session", Source: SourceKeyring},
		},
		{
			name:   "nothing",
			getenv: noEnv,
			url:    "https://unknown.example.com:8089",
			want:   Auth{Source: SourceNone},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := &Resolver{Sessions: sessions, Getenv: tt.getenv}
			got, err := r.Resolve(tt.url, tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolver_KeyringError(t *testing.T) {
	t.Parallel()

	r := &Resolver{
		Sessions: NewSessionsWithKeyring(brokenKeyring(errors.New("locked"))),
		Getenv:   noEnv,
	}

	auth, err := r.Resolve("https://x:8089", "")
	require.Error(t, err)
	assert.Equal(t, SourceNone, auth.Source)
}
