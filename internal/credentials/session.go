// Package credentials resolves how ogsetup authenticates to splunkd and
// caches splunkd session keys in the OS keyring.
package credentials

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

// Service is the keyring service name session keys are filed under.
const Service = "ogsetup"

// EnvToken is the environment variable holding a splunkd bearer token.
const EnvToken = "SPLUNK_TOKEN"

// Keyring is the subset of the OS keyring used here.
type Keyring interface {
	Get(service, account string) (string, error)
	Set(service, account, secret string) error
	Delete(service, account string) error
}

// osKeyring delegates to github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, account string) (string, error) {
	return keyring.Get(service, account)
}

func (osKeyring) Set(service, account, secret string) error {
	return keyring.Set(service, account, secret)
}

func (osKeyring) Delete(service, account string) error {
	return keyring.Delete(service, account)
}

// Sessions stores one splunkd session key per splunkd URL.
type Sessions struct {
	kr Keyring
}

// NewSessions returns a session cache backed by the OS keyring.
func NewSessions() *Sessions {
	return &Sessions{kr: osKeyring{}}
}

// NewSessionsWithKeyring returns a session cache backed by kr.
func NewSessionsWithKeyring(kr Keyring) *Sessions {
	return &Sessions{kr: kr}
}

// Save stores key for the splunkd instance at url.
func (s *Sessions) Save(url, key string) error {
	if err := s.kr.Set(Service, account(url), key); err != nil {
		return fmt.Errorf("storing session in keyring: %w", err)
	}
	return nil
}

// Load returns the stored session key for url. A missing entry is not an
// error.
func (s *Sessions) Load(url string) (string, bool, error) {
	key, err := s.kr.Get(Service, account(url))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading session from keyring: %w", err)
	}
	return key, key != "", nil
}

// Forget removes the stored session key for url, if any.
func (s *Sessions) Forget(url string) error {
	if err := s.kr.Delete(Service, account(url)); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("removing session from keyring: %w", err)
	}
	return nil
}

func account(url string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(url), "/"))
}
