package opsgenie

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/systmms/ogsetup/internal/logging"
	"github.com/systmms/ogsetup/internal/metrics"
	"github.com/systmms/ogsetup/internal/validation"
	"github.com/systmms/ogsetup/pkg/store"
)

// Payload is the part of the Splunk alert action payload read here. The
// whole document is forwarded to Opsgenie unchanged.
type Payload struct {
	SearchName string `json:"search_name"`
	SessionKey string `json:"session_key"`
	ServerURI  string `json:"server_uri"`
}

// ParsePayload decodes the alert action payload Splunk writes to stdin.
func ParsePayload(data []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, fmt.Errorf("decoding alert payload: %w", err)
	}
	if p.SessionKey == "" {
		return Payload{}, errors.New("no session key in alert payload; enable passAuth for the alert action")
	}
	return p, nil
}

// ErrNoCredential means no API key is stored in any known realm.
var ErrNoCredential = errors.New("no Opsgenie API key found in splunkd; run setup first")

// ErrDeliveryFailed means the alert did not reach Opsgenie or was rejected.
var ErrDeliveryFailed = errors.New("failed to post alert to Opsgenie")

// Deliverer sends alert payloads using the API key stored by setup.
type Deliverer struct {
	secrets  store.SecretStore
	client   *Client
	realms   []string
	username string
	logger   *logging.Logger
	metrics  *metrics.Recorder
}

// NewDeliverer creates a Deliverer looking for username's secret in realms.
func NewDeliverer(secrets store.SecretStore, client *Client, realms []string, username string, logger *logging.Logger) *Deliverer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Deliverer{
		secrets:  secrets,
		client:   client,
		realms:   realms,
		username: username,
		logger:   logger,
		metrics:  metrics.NewRecorder(),
	}
}

// LookupCredential returns the first stored API key, searching realms in
// order.
func (d *Deliverer) LookupCredential(ctx context.Context) (store.Secret, error) {
	for _, realm := range d.realms {
		secrets, err := d.secrets.ListSecrets(ctx, realm)
		if err != nil {
			return store.Secret{}, fmt.Errorf("reading Opsgenie API key from splunkd: %w", err)
		}
		if s, ok := store.FindSecret(secrets, d.username); ok {
			return s, nil
		}
	}
	return store.Secret{}, ErrNoCredential
}

// Deliver posts raw, the alert payload, to Opsgenie in the region the API key
// is stored under. It makes one attempt.
func (d *Deliverer) Deliver(ctx context.Context, searchName string, raw []byte) error {
	secret, err := d.LookupCredential(ctx)
	if err != nil {
		return err
	}
	if violations := validation.ValidateCredential(secret.Value); len(violations) > 0 {
		return fmt.Errorf("stored API key %s: %w", secret.Name(), violations)
	}

	d.logger.Debug("Posting alert for search=%s to region %s", searchName, secret.Realm)
	resp, err := d.client.Send(ctx, secret.Realm, secret.Value, raw)
	if err != nil {
		d.metrics.RecordAlert("failed")
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	d.logger.Info("Opsgenie responded with HTTP status=%d for search=%s", resp.StatusCode, searchName)
	if !resp.OK() {
		d.metrics.RecordAlert("failed")
		return fmt.Errorf("%w: HTTP %d", ErrDeliveryFailed, resp.StatusCode)
	}

	d.metrics.RecordAlert("sent")
	return nil
}
