package credentials

import (
	"os"
)

// Source says where the splunkd credentials came from.
type Source string

const (
	SourceToken   Source = "token"
	SourceEnv     Source = "env"
	SourceKeyring Source = "keyring"
	SourceNone    Source = "none"
)

// Auth is what the splunkd client authenticates with. At most one of Token
// and SessionKey is set.
type Auth struct {
	Token      string
	SessionKey string
	Source     Source
}

// Resolver picks the splunkd credentials: an explicit token first, then
// SPLUNK_TOKEN, then a session cached by 'ogsetup login'.
type Resolver struct {
	Sessions *Sessions
	Getenv   func(string) string
}

// NewResolver returns a resolver reading the process environment and the OS
// keyring.
func NewResolver() *Resolver {
	return &Resolver{Sessions: NewSessions(), Getenv: os.Getenv}
}

// Resolve returns the credentials for the splunkd instance at url. token is
// the value from --token or the configuration file. An empty Auth with
// SourceNone is returned when nothing is available.
func (r *Resolver) Resolve(url, token string) (Auth, error) {
	if token != "" {
		return Auth{Token: token, Source: SourceToken}, nil
	}

	getenv := r.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if env := getenv(EnvToken); env != "" {
		return Auth{Token: env, Source: SourceEnv}, nil
	}

	if r.Sessions != nil {
		key, ok, err := r.Sessions.Load(url)
		if err != nil {
			return Auth{Source: SourceNone}, err
		}
		if ok {
			return Auth{SessionKey: key, Source: SourceKeyring}, nil
		}
	}

	return Auth{Source: SourceNone}, nil
}
