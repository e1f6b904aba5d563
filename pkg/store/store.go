package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ConfigStore manages configuration files and their sections.
//
// Every method is a single remote request; results are snapshots taken at call
// time and must not be reused across a mutation.
type ConfigStore interface {
	// ListFiles returns the names of the configuration files visible in the
	// store's namespace.
	ListFiles(ctx context.Context) ([]string, error)

	// CreateFile creates an empty configuration file.
	CreateFile(ctx context.Context, name string) error

	// ListSections returns every section of a configuration file with its
	// properties.
	ListSections(ctx context.Context, file string) ([]Section, error)

	// CreateSection creates an empty section in an existing file.
	CreateSection(ctx context.Context, file, name string) error

	// UpdateSectionProperties sets the given properties on an existing section.
	// Existing keys are overwritten and new keys are created; keys not present
	// in properties are left untouched.
	UpdateSectionProperties(ctx context.Context, file, section string, properties map[string]string) error
}

// SecretStore manages encrypted secrets grouped under realms.
type SecretStore interface {
	// ListSecrets returns the secrets filed under realm.
	ListSecrets(ctx context.Context, realm string) ([]Secret, error)

	// CreateSecret stores value under (realm, username). It fails if the pair
	// already exists.
	CreateSecret(ctx context.Context, realm, username, value string) error

	// DeleteSecret removes the (realm, username) secret.
	DeleteSecret(ctx context.Context, realm, username string) error
}

// Store is the full remote surface used by setup.
type Store interface {
	ConfigStore
	SecretStore
}

// Reloader asks the host to reload an app so it picks up persisted changes.
type Reloader interface {
	Reload(ctx context.Context, app string) error
}

// Section is a named group of properties within a configuration file.
type Section struct {
	Name       string
	Properties map[string]string
}

// Secret is a stored credential. Value is the decrypted value when the store
// returns it and must never be logged.
type Secret struct {
	Realm    string
	Username string
	Value    string
}

// Name returns the identifier the host uses for the secret: "realm:username:".
func (s Secret) Name() string {
	return SecretName(s.Realm, s.Username)
}

// String omits the value so a Secret can be passed to a logger safely.
func (s Secret) String() string {
	return fmt.Sprintf("%s (value: [REDACTED])", s.Name())
}

// GoString implements fmt.GoStringer for %#v formatting.
func (s Secret) GoString() string {
	return fmt.Sprintf("store.Secret{Realm:%q, Username:%q, Value:[REDACTED]}", s.Realm, s.Username)
}

// SecretName builds the host identifier for a (realm, username) pair.
//
// Colons inside realm or username are escaped with a backslash, matching how
// splunkd names storage/passwords entries.
func SecretName(realm, username string) string {
	escape := strings.NewReplacer(`:`, `\:`)
	return escape.Replace(realm) + ":" + escape.Replace(username) + ":"
}

// FindSection returns the named section from a listing.
func FindSection(sections []Section, name string) (Section, bool) {
	for _, s := range sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

// ContainsName reports whether names contains name.
func ContainsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// FindSecret returns the secret for username from a listing.
func FindSecret(secrets []Secret, username string) (Secret, bool) {
	for _, s := range secrets {
		if s.Username == username {
			return s, true
		}
	}
	return Secret{}, false
}

// Message is one entry of the message list the host attaches to a rejected
// request.
type Message struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (m Message) String() string {
	if m.Type == "" {
		return m.Text
	}
	return m.Type + ": " + m.Text
}

// Error is returned when the store rejects a request.
type Error struct {
	Op         string // Operation: "list_files", "create_secret", "reload", ...
	StatusCode int
	Messages   []Message
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("store ")
	b.WriteString(e.Op)
	b.WriteString(" error")
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if lines := e.Lines(); len(lines) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(lines, "; "))
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Lines returns the store's messages formatted as "TYPE: text".
func (e *Error) Lines() []string {
	lines := make([]string, 0, len(e.Messages))
	for _, m := range e.Messages {
		lines = append(lines, m.String())
	}
	return lines
}

// Sentinel errors wrapped by Error.Err where the status is meaningful.
var (
	ErrNotFound     = errors.New("store object not found")
	ErrConflict     = errors.New("store object already exists")
	ErrUnauthorized = errors.New("store unauthorized")
	ErrForbidden    = errors.New("store forbidden")
)

// IsNotFound reports whether err is a store not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized reports whether err is a store authentication failure.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
