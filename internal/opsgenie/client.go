// Package opsgenie delivers Splunk alert payloads to the Opsgenie Splunk
// integration endpoint.
package opsgenie

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/systmms/ogsetup/internal/logging"
)

// IntegrationPath is the Splunk integration endpoint below a region's API
// base URL.
const IntegrationPath = "/v1/json/splunk"

// Client posts alert payloads to Opsgenie. It makes exactly one attempt per
// alert.
type Client struct {
	resty     *resty.Client
	endpoints map[string]string
	logger    *logging.Logger
}

// New creates a client. endpoints maps a region to its API base URL.
func New(endpoints map[string]string, timeout time.Duration, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Discard()
	}

	r := resty.New().
		SetHeader("Content-Type", "application/json")
	if timeout > 0 {
		r.SetTimeout(timeout)
	}

	copied := make(map[string]string, len(endpoints))
	for region, url := range endpoints {
		copied[region] = strings.TrimRight(url, "/")
	}

	return &Client{resty: r, endpoints: copied, logger: logger}
}

// Response is Opsgenie's answer to a delivery.
type Response struct {
	StatusCode int
	Body       string
}

// OK reports a 2xx status.
func (r Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Send posts payload for the given region. A non-2xx answer is not an
// error; only transport failures are.
func (c *Client) Send(ctx context.Context, region, apiKey string, payload []byte) (Response, error) {
	base, ok := c.endpoints[region]
	if !ok {
		return Response{}, fmt.Errorf("no Opsgenie endpoint for region %q", region)
	}

	resp, err := c.resty.R().
		SetContext(ctx).
		SetQueryParam("apiKey", apiKey).
		SetBody(payload).
		Post(base + IntegrationPath)
	if err != nil {
		// resty includes the URL, and with it the key, in transport errors.
		return Response{}, fmt.Errorf("posting to Opsgenie: %s", logging.Redact(err.Error(), []string{apiKey}))
	}

	c.logger.Debug("Opsgenie responded with HTTP status=%d", resp.StatusCode())
	return Response{StatusCode: resp.StatusCode(), Body: resp.String()}, nil
}
