package fakes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/systmms/ogsetup/pkg/store"
)

// FakeSplunkd serves the splunkd REST endpoints ogsetup uses on top of a
// FakeStore, so commands can be tested end to end through the real client.
//
// Example usage:
//
//	backend := fakes.NewFakeStore()
//	splunkd := fakes.NewFakeSplunkd(backend).WithLogin("admin", "changeme")
//	server := splunkd.Start()
//	defer server.Close()
type FakeSplunkd struct {
	Store *FakeStore

	// Realms are the realms listed by storage/passwords.
	Realms []string

	users    map[string]string
	sessions map[string]bool
	tokens   map[string]bool
	mu       sync.Mutex
}

// NewFakeSplunkd creates a fake splunkd backed by s. Bearer token
// "test-token" is accepted.
func NewFakeSplunkd(s *FakeStore) *FakeSplunkd {
	return &FakeSplunkd{
		Store:    s,
		Realms:   []string{"us", "eu"},
		users:    make(map[string]string),
		sessions: make(map[string]bool),
		tokens:   map[string]bool{"test-token": true},
	}
}

// WithLogin adds a user that can log in with auth/login.
func (f *FakeSplunkd) WithLogin(username, password string) *FakeSplunkd {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.users[username] = password
	return f
}

// WithSession makes key a valid session key.
func (f *FakeSplunkd) WithSession(key string) *FakeSplunkd {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sessions[key] = true
	return f
}

// Start serves the fake on a local httptest server.
func (f *FakeSplunkd) Start() *httptest.Server {
	return httptest.NewServer(f)
}

func (f *FakeSplunkd) authorized(r *http.Request) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	auth := r.Header.Get("Authorization")
	switch {
	case strings.HasPrefix(auth, "Bearer "):
		return f.tokens[strings.TrimPrefix(auth, "Bearer ")]
	case strings.HasPrefix(auth, "Splunk "):
		return f.sessions[strings.TrimPrefix(auth, "Splunk ")]
	}
	return false
}

// ServeHTTP implements http.Handler.
func (f *FakeSplunkd) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeMessages(w, http.StatusBadRequest, "ERROR", err.Error())
		return
	}

	if r.URL.Path == "/services/auth/login" && r.Method == http.MethodPost {
		f.login(w, r)
		return
	}
	if !f.authorized(r) {
		writeMessages(w, http.StatusUnauthorized, "WARN", "call not properly authenticated")
		return
	}

	ctx := r.Context()
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case r.URL.Path == "/services/server/info":
		writeFeed(w, []map[string]interface{}{{
			"name":    "server-info",
			"content": map[string]interface{}{"serverName": "fake-splunkd", "version": "9.2.1"},
		}})

	case len(parts) == 5 && parts[0] == "services" && parts[1] == "apps" && parts[2] == "local" && parts[4] == "_reload":
		f.respond(w, f.Store.Reload(ctx, parts[3]))

	case len(parts) >= 4 && parts[0] == "servicesNS":
		f.namespace(ctx, w, r, parts[3:])

	default:
		writeMessages(w, http.StatusNotFound, "ERROR", "Not Found")
	}
}

func (f *FakeSplunkd) login(w http.ResponseWriter, r *http.Request) {
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")

	f.mu.Lock()
	want, ok := f.users[username]
	if ok && want == password {
		key := "session-" + username
		f.sessions[key] = true
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"sessionKey": key})
		return
	}
	f.mu.Unlock()

	writeMessages(w, http.StatusUnauthorized, "WARN", "Login failed")
}

func (f *FakeSplunkd) namespace(ctx context.Context, w http.ResponseWriter, r *http.Request, rest []string) {
	switch {
	case len(rest) == 1 && rest[0] == "properties":
		if r.Method == http.MethodPost {
			f.respond(w, f.Store.CreateFile(ctx, r.PostForm.Get("__conf")))
			return
		}
		files, err := f.Store.ListFiles(ctx)
		if err != nil {
			f.respond(w, err)
			return
		}
		entries := make([]map[string]interface{}, 0, len(files))
		for _, name := range files {
			entries = append(entries, map[string]interface{}{"name": name})
		}
		writeFeed(w, entries)

	case len(rest) == 2 && rest[0] == "configs" && strings.HasPrefix(rest[1], "conf-"):
		file := strings.TrimPrefix(rest[1], "conf-")
		if r.Method == http.MethodPost {
			f.respond(w, f.Store.CreateSection(ctx, file, r.PostForm.Get("name")))
			return
		}
		sections, err := f.Store.ListSections(ctx, file)
		if err != nil {
			f.respond(w, err)
			return
		}
		entries := make([]map[string]interface{}, 0, len(sections))
		for _, s := range sections {
			content := map[string]interface{}{"eai:appName": "opsgenie"}
			for k, v := range s.Properties {
				content[k] = v
			}
			entries = append(entries, map[string]interface{}{"name": s.Name, "content": content})
		}
		writeFeed(w, entries)

	case len(rest) == 3 && rest[0] == "configs" && strings.HasPrefix(rest[1], "conf-") && r.Method == http.MethodPost:
		props := make(map[string]string, len(r.PostForm))
		for k := range r.PostForm {
			props[k] = r.PostForm.Get(k)
		}
		f.respond(w, f.Store.UpdateSectionProperties(ctx, strings.TrimPrefix(rest[1], "conf-"), rest[2], props))

	case len(rest) == 2 && rest[0] == "storage" && rest[1] == "passwords":
		if r.Method == http.MethodPost {
			form := r.PostForm
			f.respond(w, f.Store.CreateSecret(ctx, form.Get("realm"), form.Get("name"), form.Get("password")))
			return
		}
		var entries []map[string]interface{}
		for _, realm := range f.Realms {
			secrets, err := f.Store.ListSecrets(ctx, realm)
			if err != nil {
				f.respond(w, err)
				return
			}
			for _, s := range secrets {
				entries = append(entries, map[string]interface{}{
					"name": s.Name(),
					"content": map[string]interface{}{
						"realm":          s.Realm,
						"username":       s.Username,
						"clear_password": s.Value,
					},
				})
			}
		}
		writeFeed(w, entries)

	case len(rest) == 3 && rest[0] == "storage" && rest[1] == "passwords" && r.Method == http.MethodDelete:
		fields := strings.Split(rest[2], ":")
		if len(fields) != 3 {
			writeMessages(w, http.StatusNotFound, "ERROR", "Could not find object id="+rest[2])
			return
		}
		f.respond(w, f.Store.DeleteSecret(ctx, fields[0], fields[1]))

	default:
		writeMessages(w, http.StatusNotFound, "ERROR", "Not Found")
	}
}

func (f *FakeSplunkd) respond(w http.ResponseWriter, err error) {
	if err == nil {
		writeFeed(w, nil)
		return
	}

	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		status := storeErr.StatusCode
		if status == 0 {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, map[string]interface{}{"messages": storeErr.Messages})
		return
	}
	writeMessages(w, http.StatusInternalServerError, "ERROR", err.Error())
}

func writeFeed(w http.ResponseWriter, entries []map[string]interface{}) {
	if entries == nil {
		entries = []map[string]interface{}{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entry": entries})
}

func writeMessages(w http.ResponseWriter, status int, typ, text string) {
	writeJSON(w, status, map[string]interface{}{
		"messages": []store.Message{{Type: typ, Text: text}},
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
