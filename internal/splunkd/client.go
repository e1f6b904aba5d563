// Package splunkd implements the configuration and secret store on top of the
// splunkd management REST API.
package splunkd

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/systmms/ogsetup/internal/logging"
	"github.com/systmms/ogsetup/pkg/store"
)

// Config locates splunkd and the namespace the client works in.
type Config struct {
	BaseURL            string
	Owner              string
	App                string
	Token              string // bearer token (Splunk authentication token)
	SessionKey         string // session key from auth/login
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// Client talks to one splunkd instance. It keeps no state between calls
// other than the HTTP connection pool.
type Client struct {
	resty  *resty.Client
	owner  string
	app    string
	logger *logging.Logger
}

// New creates a client for cfg.
func New(cfg Config, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Discard()
	}

	r := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetError(&errorResponse{})

	if cfg.Timeout > 0 {
		r.SetTimeout(cfg.Timeout)
	}
	if cfg.InsecureSkipVerify {
		r.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) //nolint:gosec // splunkd ships a self-signed certificate
	}

	switch {
	case cfg.Token != "":
		r.SetAuthScheme("Bearer").SetAuthToken(cfg.Token)
	case cfg.SessionKey != "":
		r.SetAuthScheme("Splunk").SetAuthToken(cfg.SessionKey)
	}

	owner := cfg.Owner
	if owner == "" {
		owner = "nobody"
	}

	return &Client{
		resty:  r,
		owner:  owner,
		app:    cfg.App,
		logger: logger,
	}
}

// App returns the app namespace the client writes to.
func (c *Client) App() string {
	return c.app
}

// Login exchanges a username and password for a session key.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var result loginResponse
	resp, err := c.resty.R().
		SetContext(ctx).
		SetQueryParam("output_mode", "json").
		SetFormData(map[string]string{
			"username": username,
			"password": password,
		}).
		SetResult(&result).
		Post("/services/auth/login")
	if err := c.check("login", resp, err); err != nil {
		return "", err
	}
	if result.SessionKey == "" {
		return "", &store.Error{Op: "login", StatusCode: resp.StatusCode(), Err: fmt.Errorf("response did not contain a session key")}
	}
	return result.SessionKey, nil
}

// ServerInfo returns basic facts about the splunkd instance.
func (c *Client) ServerInfo(ctx context.Context) (ServerInfo, error) {
	var f feed
	resp, err := c.get(ctx, "/services/server/info", &f)
	if err := c.check("server_info", resp, err); err != nil {
		return ServerInfo{}, err
	}
	if len(f.Entry) == 0 {
		return ServerInfo{}, nil
	}
	content := f.Entry[0].Content
	return ServerInfo{
		ServerName: stringify(content["serverName"]),
		Version:    stringify(content["version"]),
	}, nil
}

// ListFiles lists the configuration files of the namespace.
func (c *Client) ListFiles(ctx context.Context) ([]string, error) {
	var f feed
	resp, err := c.get(ctx, c.nsPath("properties"), &f)
	if err := c.check("list_files", resp, err); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(f.Entry))
	for _, e := range f.Entry {
		names = append(names, e.Name)
	}
	return names, nil
}

// CreateFile creates an empty configuration file.
func (c *Client) CreateFile(ctx context.Context, name string) error {
	resp, err := c.post(ctx, c.nsPath("properties"), map[string]string{"__conf": name})
	return c.check("create_file", resp, err)
}

// ListSections lists every stanza of a configuration file.
func (c *Client) ListSections(ctx context.Context, file string) ([]store.Section, error) {
	var f feed
	resp, err := c.get(ctx, c.confPath(file), &f)
	if err := c.check("list_sections", resp, err); err != nil {
		return nil, err
	}

	sections := make([]store.Section, 0, len(f.Entry))
	for _, e := range f.Entry {
		sections = append(sections, store.Section{
			Name:       e.Name,
			Properties: properties(e.Content),
		})
	}
	return sections, nil
}

// CreateSection creates an empty stanza in an existing file.
func (c *Client) CreateSection(ctx context.Context, file, name string) error {
	resp, err := c.post(ctx, c.confPath(file), map[string]string{"name": name})
	return c.check("create_section", resp, err)
}

// UpdateSectionProperties sets properties on an existing stanza.
func (c *Client) UpdateSectionProperties(ctx context.Context, file, section string, props map[string]string) error {
	resp, err := c.post(ctx, c.confPath(file)+"/"+escapeSegment(section), props)
	return c.check("update_section", resp, err)
}

// ListSecrets lists the storage/passwords entries filed under realm.
// splunkd narrows the listing with a search filter; the filter matches
// substrings, so entries are still checked for an exact realm here.
func (c *Client) ListSecrets(ctx context.Context, realm string) ([]store.Secret, error) {
	var f feed
	resp, err := c.resty.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"output_mode": "json",
			"count":       "0",
			"search":      "realm=" + realm,
		}).
		SetResult(&f).
		Get(c.nsPath("storage/passwords"))
	if err := c.check("list_secrets", resp, err); err != nil {
		return nil, err
	}

	var secrets []store.Secret
	for _, e := range f.Entry {
		s := store.Secret{
			Realm:    stringify(e.Content["realm"]),
			Username: stringify(e.Content["username"]),
			Value:    stringify(e.Content["clear_password"]),
		}
		if s.Realm != realm {
			continue
		}
		secrets = append(secrets, s)
	}
	return secrets, nil
}

// CreateSecret stores value under (realm, username).
func (c *Client) CreateSecret(ctx context.Context, realm, username, value string) error {
	c.logger.Debug("Creating secret %s in app %s", store.SecretName(realm, username), c.app)
	resp, err := c.post(ctx, c.nsPath("storage/passwords"), map[string]string{
		"name":     username,
		"password": value,
		"realm":    realm,
	})
	return c.check("create_secret", resp, err)
}

// DeleteSecret removes the (realm, username) entry.
func (c *Client) DeleteSecret(ctx context.Context, realm, username string) error {
	c.logger.Debug("Deleting secret %s in app %s", store.SecretName(realm, username), c.app)
	path := c.nsPath("storage/passwords/" + escapeSegment(store.SecretName(realm, username)))
	resp, err := c.resty.R().
		SetContext(ctx).
		SetQueryParam("output_mode", "json").
		Delete(path)
	return c.check("delete_secret", resp, err)
}

// Reload asks splunkd to reload app.
func (c *Client) Reload(ctx context.Context, app string) error {
	resp, err := c.post(ctx, "/services/apps/local/"+escapeSegment(app)+"/_reload", nil)
	return c.check("reload", resp, err)
}

func (c *Client) get(ctx context.Context, path string, result interface{}) (*resty.Response, error) {
	return c.resty.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"output_mode": "json",
			"count":       "0",
		}).
		SetResult(result).
		Get(path)
}

func (c *Client) post(ctx context.Context, path string, form map[string]string) (*resty.Response, error) {
	req := c.resty.R().
		SetContext(ctx).
		SetQueryParam("output_mode", "json")
	if form != nil {
		req.SetFormData(form)
	}
	return req.Post(path)
}

// check turns a transport failure or a non-2xx response into an error.
func (c *Client) check(op string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("splunkd %s request failed: %w", op, err)
	}

	c.logger.Debug("splunkd %s %s -> %d", resp.Request.Method, resp.Request.URL, resp.StatusCode())

	if !resp.IsError() {
		return nil
	}

	storeErr := &store.Error{
		Op:         op,
		StatusCode: resp.StatusCode(),
		Err:        statusSentinel(resp.StatusCode()),
	}
	if body, ok := resp.Error().(*errorResponse); ok && body != nil {
		storeErr.Messages = body.Messages
	}
	if len(storeErr.Messages) == 0 && storeErr.Err == nil {
		storeErr.Err = fmt.Errorf("%s", resp.Status())
	}
	return storeErr
}

func statusSentinel(code int) error {
	switch code {
	case http.StatusUnauthorized:
		return store.ErrUnauthorized
	case http.StatusForbidden:
		return store.ErrForbidden
	case http.StatusNotFound:
		return store.ErrNotFound
	case http.StatusConflict:
		return store.ErrConflict
	}
	return nil
}

func (c *Client) nsPath(rest string) string {
	return fmt.Sprintf("/servicesNS/%s/%s/%s", escapeSegment(c.owner), escapeSegment(c.app), rest)
}

func (c *Client) confPath(file string) string {
	return c.nsPath("configs/conf-" + escapeSegment(file))
}

// escapeSegment escapes a path segment, including colons, the way splunkd
// clients address storage/passwords entries.
func escapeSegment(s string) string {
	return strings.ReplaceAll(url.PathEscape(s), ":", "%3A")
}
