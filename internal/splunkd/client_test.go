package splunkd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/ogsetup/internal/logging"
	"github.com/systmms/ogsetup/pkg/store"
)

type recordedRequest struct {
	Method  string
	Path    string
	RawPath string
	Query   map[string]string
	Form    map[string]string
	Auth    string
}

// newTestServer serves handler and records every request it sees.
func newTestServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *[]recordedRequest) {
	t.Helper()

	var requests []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		rec := recordedRequest{
			Method:  r.Method,
			Path:    r.URL.Path,
			RawPath: r.URL.EscapedPath(),
			Query:   map[string]string{},
			Form:    map[string]string{},
			Auth:    r.Header.Get("Authorization"),
		}
		for k := range r.URL.Query() {
			rec.Query[k] = r.URL.Query().Get(k)
		}
		for k := range r.PostForm {
			rec.Form[k] = r.PostForm.Get(k)
		}
		requests = append(requests, rec)
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newTestClient(url string) *Client {
	return New(Config{
		BaseURL: url,
		Owner:   "nobody",
		App:     "opsgenie",
		Token:   "test-token",
		Timeout: 5 * time.Second,
	}, logging.Discard())
}

func TestListFiles(t *testing.T) {
	t.Parallel()

	server, requests := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"entry": []map[string]interface{}{
				{"name": "app"},
				{"name": "props"},
			},
		})
	})

	files, err := newTestClient(server.URL).ListFiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"app", "props"}, files)

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/servicesNS/nobody/opsgenie/properties", req.Path)
	assert.Equal(t, "json", req.Query["output_mode"])
	assert.Equal(t, "0", req.Query["count"])
	assert.Equal(t, "Bearer test-token", req.Auth)
}

func TestCreateFileAndSection(t *testing.T) {
	t.Parallel()

	server, requests := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]interface{}{"entry": []interface{}{}})
	})
	c := newTestClient(server.URL)

	require.NoError(t, c.CreateFile(context.Background(), "app"))
	require.NoError(t, c.CreateSection(context.Background(), "app", "install"))

	require.Len(t, *requests, 2)
	assert.Equal(t, http.MethodPost, (*requests)[0].Method)
	assert.Equal(t, "/servicesNS/nobody/opsgenie/properties", (*requests)[0].Path)
	assert.Equal(t, map[string]string{"__conf": "app"}, (*requests)[0].Form)

	assert.Equal(t, "/servicesNS/nobody/opsgenie/configs/conf-app", (*requests)[1].Path)
	assert.Equal(t, map[string]string{"name": "install"}, (*requests)[1].Form)
}

func TestListSections(t *testing.T) {
	t.Parallel()

	server, requests := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"entry": []map[string]interface{}{
				{
					"name": "install",
					"content": map[string]interface{}{
						"is_configured": true,
						"build":         7,
						"state":         "enabled",
						"eai:acl":       map[string]interface{}{"app": "opsgenie"},
						"eai:appName":   "opsgenie",
					},
				},
				{"name": "launcher", "content": map[string]interface{}{}},
			},
		})
	})

	sections, err := newTestClient(server.URL).ListSections(context.Background(), "app")
	require.NoError(t, err)
	require.Len(t, sections, 2)

	assert.Equal(t, "install", sections[0].Name)
	assert.Equal(t, map[string]string{
		"is_configured": "true",
		"build":         "7",
		"state":         "enabled",
	}, sections[0].Properties)
	assert.Equal(t, "/servicesNS/nobody/opsgenie/configs/conf-app", (*requests)[0].Path)
}

func TestUpdateSectionProperties(t *testing.T) {
	t.Parallel()

	server, requests := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"entry": []interface{}{}})
	})

	err := newTestClient(server.URL).UpdateSectionProperties(context.Background(), "app", "install", map[string]string{
		"is_configured": "true",
	})
	require.NoError(t, err)

	req := (*requests)[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/servicesNS/nobody/opsgenie/configs/conf-app/install", req.Path)
	assert.Equal(t, map[string]string{"is_configured": "true"}, req.Form)
}

func TestListSecretsFiltersByRealm(t *testing.T) {
	t.Parallel()

	server, requests := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"entry": []map[string]interface{}{
				{"name": "us:api_key:", "content": map[string]interface{}{"realm": "us", "username": "api_key", "clear_password": "us-value"}},
				{"name": "eu:api_key:", "content": map[string]interface{}{"realm": "eu", "username": "api_key", "clear_password": "eu-value"}},
				{"name": ":other:", "content": map[string]interface{}{"realm": "", "username": "other", "clear_password": "x"}},
			},
		})
	})
	c := newTestClient(server.URL)

	eu, err := c.ListSecrets(context.Background(), "eu")
	require.NoError(t, err)
	assert.Equal(t, []store.Secret{{Realm: "eu", Username: "api_key", Value: "eu-value"}}, eu)
	require.Len(t, *requests, 1)
	assert.Equal(t, "realm=eu", (*requests)[0].Query["search"], "splunkd filters the listing by realm")
	assert.Equal(t, "0", (*requests)[0].Query["count"])

	none, err := c.ListSecrets(context.Background(), "apac")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCreateAndDeleteSecret(t *testing.T) {
	t.Parallel()

	server, requests := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"entry": []interface{}{}})
	})
	c := newTestClient(server.URL)

	require.NoError(t, c.CreateSecret(context.Background(), "us", "api_key", "AAAAAAAA-BBBB-CCCC-DDDD-EEEEEEEEEEEE"))
	require.NoError(t, c.DeleteSecret(context.Background(), "us", "api_key"))

	require.Len(t, *requests, 2)
	create := (*requests)[0]
	assert.Equal(t, "/servicesNS/nobody/opsgenie/storage/passwords", create.Path)
	assert.Equal(t, map[string]string{
		"name":     "api_key",
		"password": "AAAAAAAA-BBBB-CCCC-DDDD-EEEEEEEEEEEE",
		"realm":    "us",
	}, create.Form)

	del := (*requests)[1]
	assert.Equal(t, http.MethodDelete, del.Method)
	assert.Equal(t, "/servicesNS/nobody/opsgenie/storage/passwords/us:api_key:", del.Path)
	assert.Equal(t, "/servicesNS/nobody/opsgenie/storage/passwords/us%3Aapi_key%3A", del.RawPath)
}

func TestReload(t *testing.T) {
	t.Parallel()

	server, requests := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"entry": []interface{}{}})
	})

	require.NoError(t, newTestClient(server.URL).Reload(context.Background(), "opsgenie"))
	assert.Equal(t, http.MethodPost, (*requests)[0].Method)
	assert.Equal(t, "/services/apps/local/opsgenie/_reload", (*requests)[0].Path)
}

func TestErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		body      interface{}
		sentinel  error
		wantLines []string
	}{
		{
			name:      "bad_request_with_messages",
			status:    http.StatusBadRequest,
			body:      map[string]interface{}{"messages": []map[string]string{{"type": "ERROR", "text": "Argument validation failed"}}},
			wantLines: []string{"ERROR: Argument validation failed"},
		},
		{
			name:     "unauthorized",
			status:   http.StatusUnauthorized,
			body:     map[string]interface{}{"messages": []map[string]string{{"type": "WARN", "text": "call not properly authenticated"}}},
			sentinel: store.ErrUnauthorized,
			wantLines: []string{
				"WARN: call not properly authenticated",
			},
		},
		{
			name:      "forbidden",
			status:    http.StatusForbidden,
			body:      map[string]interface{}{},
			sentinel:  store.ErrForbidden,
			wantLines: []string{},
		},
		{
			name:      "conflict",
			status:    http.StatusConflict,
			body:      map[string]interface{}{"messages": []map[string]string{{"type": "ERROR", "text": "An object with name=us:api_key: already exists"}}},
			sentinel:  store.ErrConflict,
			wantLines: []string{"ERROR: An object with name=us:api_key: already exists"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			err := newTestClient(server.URL).CreateSecret(context.Background(), "us", "api_key", "value")
			require.Error(t, err)

			var storeErr *store.Error
			require.True(t, errors.As(err, &storeErr))
			assert.Equal(t, "create_secret", storeErr.Op)
			assert.Equal(t, tt.status, storeErr.StatusCode)
			assert.Equal(t, tt.wantLines, storeErr.Lines())
			if tt.sentinel != nil {
				assert.True(t, errors.Is(err, tt.sentinel))
			}
		})
	}
}

func TestTransportError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := newTestClient(url).ListFiles(context.Background())
	require.Error(t, err)

	var storeErr *store.Error
	assert.False(t, errors.As(err, &storeErr))
	assert.Contains(t, err.Error(), "list_files")
}

func TestContextCancellation(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(server.URL).ListFiles(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLoginAndSessionAuth(t *testing.T) {
	t.Parallel()

	server, requests := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/services/auth/login":
			if r.PostForm.Get("password") != "changeme" {
				writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
					"messages": []map[string]string{{"type": "WARN", "text": "Login failed"}},
				})
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"sessionKey": "abc123session"})
		default:
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"entry": []map[string]interface{}{
					{"name": "server-info", "content": map[string]interface{}{"serverName": "sh1", "version": "9.2.1"}},
				},
			})
		}
	})

	anon := New(Config{BaseURL: server.URL}, nil)

	_, err := anon.Login(context.Background(), "admin", "wrong")
	require.Error(t, err)
	assert.True(t, store.IsUnauthorized(err))

	key, err := anon.Login(context.Background(), "admin", "changeme")
	require.NoError(t, err)
	assert.Equal(t, "abc123session", key)

	authed := New(Config{BaseURL: server.URL, SessionKey: key}, nil)
	info, err := authed.ServerInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ServerInfo{ServerName: "sh1", Version: "9.2.1"}, info)

	last := (*requests)[len(*requests)-1]
	assert.Equal(t, "Splunk abc123session", last.Auth)
	assert.Equal(t, "/services/server/info", last.Path)
}
