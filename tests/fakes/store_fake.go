package fakes

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/systmms/ogsetup/pkg/store"
)

// FakeStore is an in-memory implementation of store.Store and store.Reloader.
//
// It behaves like splunkd for the calls setup makes: creating an existing
// file, section or secret is a conflict, and touching a missing one is a
// not-found error. Every call is recorded so tests can assert on the exact
// sequence of remote requests.
//
// Example usage:
//
//	fake := fakes.NewFakeStore().
//	    WithSecret("us", "api_key", "old").
//	    WithFailure("UpdateSectionProperties", errors.New("boom"))
//
//	up := setup.NewUpserter(fake, []string{"us", "eu"}, nil)
//	err := up.EnsureSecret(ctx, "eu", "api_key", "new")
type FakeStore struct {
	files   map[string]map[string]map[string]string // file -> section -> key -> value
	secrets map[string]map[string]string            // realm -> username -> value
	reloads []string

	// Behavior control
	failOn              map[string]error
	dropSectionCreates  bool
	calls               []string
	blockUntil          chan struct{}
	blockedMethod       string
	blockedNotification chan struct{}

	mu sync.Mutex
}

// NewFakeStore creates an empty store.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		files:   make(map[string]map[string]map[string]string),
		secrets: make(map[string]map[string]string),
		failOn:  make(map[string]error),
	}
}

// WithFile adds an empty configuration file.
func (f *FakeStore) WithFile(name string) *FakeStore {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.files[name]; !ok {
		f.files[name] = make(map[string]map[string]string)
	}
	return f
}

// WithSection adds a section with properties, creating the file if needed.
func (f *FakeStore) WithSection(file, section string, props map[string]string) *FakeStore {
	f.WithFile(file)

	f.mu.Lock()
	defer f.mu.Unlock()

	copied := make(map[string]string, len(props))
	for k, v := range props {
		copied[k] = v
	}
	f.files[file][section] = copied
	return f
}

// WithSecret adds a secret.
func (f *FakeStore) WithSecret(realm, username, value string) *FakeStore {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.secrets[realm] == nil {
		f.secrets[realm] = make(map[string]string)
	}
	f.secrets[realm][username] = value
	return f
}

// WithFailure makes every call to method return err.
func (f *FakeStore) WithFailure(method string, err error) *FakeStore {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failOn[method] = err
	return f
}

// WithDroppedSectionCreates makes CreateSection succeed without creating
// anything, as a store with a lagging listing would appear.
func (f *FakeStore) WithDroppedSectionCreates() *FakeStore {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.dropSectionCreates = true
	return f
}

// BlockOn makes method wait until release is closed or the context ends.
// started is closed when the first blocked call begins.
func (f *FakeStore) BlockOn(method string, release chan struct{}) (started <-chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.blockedMethod = method
	f.blockUntil = release
	f.blockedNotification = make(chan struct{})
	return f.blockedNotification
}

// Calls returns the recorded calls, e.g. "CreateSecret eu api_key".
func (f *FakeStore) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.calls...)
}

// CallCount returns how many times method was called.
func (f *FakeStore) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, c := range f.calls {
		if c == method || strings.HasPrefix(c, method+" ") {
			n++
		}
	}
	return n
}

// Reloads returns the apps reloaded so far.
func (f *FakeStore) Reloads() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.reloads...)
}

// Section returns a copy of a section's properties.
func (f *FakeStore) Section(file, section string) (map[string]string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	props, ok := f.files[file][section]
	if !ok {
		return nil, false
	}
	copied := make(map[string]string, len(props))
	for k, v := range props {
		copied[k] = v
	}
	return copied, true
}

// SecretRealms returns the realms holding a secret for username, sorted.
func (f *FakeStore) SecretRealms(username string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var realms []string
	for realm, users := range f.secrets {
		if _, ok := users[username]; ok {
			realms = append(realms, realm)
		}
	}
	sort.Strings(realms)
	return realms
}

// SecretValue returns the stored value for (realm, username).
func (f *FakeStore) SecretValue(realm, username string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.secrets[realm][username]
	return v, ok
}

// begin records the call and returns the injected failure, if any. It blocks
// when the method was registered with BlockOn.
func (f *FakeStore) begin(ctx context.Context, method string, args ...string) error {
	f.mu.Lock()
	f.calls = append(f.calls, strings.TrimSpace(method+" "+strings.Join(args, " ")))
	failure := f.failOn[method]
	var release chan struct{}
	if f.blockedMethod == method {
		release = f.blockUntil
		select {
		case <-f.blockedNotification:
		default:
			close(f.blockedNotification)
		}
	}
	f.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return failure
}

// ListFiles implements store.ConfigStore.
func (f *FakeStore) ListFiles(ctx context.Context) ([]string, error) {
	if err := f.begin(ctx, "ListFiles"); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	names := make([]string, 0, len(f.files))
	for name := range f.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// CreateFile implements store.ConfigStore.
func (f *FakeStore) CreateFile(ctx context.Context, name string) error {
	if err := f.begin(ctx, "CreateFile", name); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.files[name]; ok {
		return conflict("create_file", name)
	}
	f.files[name] = make(map[string]map[string]string)
	return nil
}

// ListSections implements store.ConfigStore.
func (f *FakeStore) ListSections(ctx context.Context, file string) ([]store.Section, error) {
	if err := f.begin(ctx, "ListSections", file); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	sections, ok := f.files[file]
	if !ok {
		return nil, notFound("list_sections", file)
	}

	out := make([]store.Section, 0, len(sections))
	for name, props := range sections {
		copied := make(map[string]string, len(props))
		for k, v := range props {
			copied[k] = v
		}
		out = append(out, store.Section{Name: name, Properties: copied})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CreateSection implements store.ConfigStore.
func (f *FakeStore) CreateSection(ctx context.Context, file, name string) error {
	if err := f.begin(ctx, "CreateSection", file, name); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	sections, ok := f.files[file]
	if !ok {
		return notFound("create_section", file)
	}
	if _, ok := sections[name]; ok {
		return conflict("create_section", name)
	}
	if f.dropSectionCreates {
		return nil
	}
	sections[name] = make(map[string]string)
	return nil
}

// UpdateSectionProperties implements store.ConfigStore.
func (f *FakeStore) UpdateSectionProperties(ctx context.Context, file, section string, props map[string]string) error {
	if err := f.begin(ctx, "UpdateSectionProperties", file, section); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	target, ok := f.files[file][section]
	if !ok {
		return notFound("update_section", file+"/"+section)
	}
	for k, v := range props {
		target[k] = v
	}
	return nil
}

// ListSecrets implements store.SecretStore.
func (f *FakeStore) ListSecrets(ctx context.Context, realm string) ([]store.Secret, error) {
	if err := f.begin(ctx, "ListSecrets", realm); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var out []store.Secret
	for username, value := range f.secrets[realm] {
		out = append(out, store.Secret{Realm: realm, Username: username, Value: value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// CreateSecret implements store.SecretStore.
func (f *FakeStore) CreateSecret(ctx context.Context, realm, username, value string) error {
	if err := f.begin(ctx, "CreateSecret", realm, username); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.secrets[realm][username]; ok {
		return conflict("create_secret", store.SecretName(realm, username))
	}
	if f.secrets[realm] == nil {
		f.secrets[realm] = make(map[string]string)
	}
	f.secrets[realm][username] = value
	return nil
}

// DeleteSecret implements store.SecretStore.
func (f *FakeStore) DeleteSecret(ctx context.Context, realm, username string) error {
	if err := f.begin(ctx, "DeleteSecret", realm, username); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.secrets[realm][username]; !ok {
		return notFound("delete_secret", store.SecretName(realm, username))
	}
	delete(f.secrets[realm], username)
	return nil
}

// Reload implements store.Reloader.
func (f *FakeStore) Reload(ctx context.Context, app string) error {
	if err := f.begin(ctx, "Reload", app); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.reloads = append(f.reloads, app)
	return nil
}

func conflict(op, name string) error {
	return &store.Error{
		Op:         op,
		StatusCode: 409,
		Messages:   []store.Message{{Type: "ERROR", Text: fmt.Sprintf("An object with name=%s already exists", name)}},
		Err:        store.ErrConflict,
	}
}

func notFound(op, name string) error {
	return &store.Error{
		Op:         op,
		StatusCode: 404,
		Messages:   []store.Message{{Type: "ERROR", Text: fmt.Sprintf("Could not find object id=%s", name)}},
		Err:        store.ErrNotFound,
	}
}

var (
	_ store.Store    = (*FakeStore)(nil)
	_ store.Reloader = (*FakeStore)(nil)
)
