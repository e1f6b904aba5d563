package fakes

import (
	"sync"

	"github.com/zalando/go-keyring"
)

// FakeKeyring is an in-memory OS keyring. Unlike keyring.MockInit it is
// scoped to one test, so tests using it can run in parallel.
type FakeKeyring struct {
	// Secrets is a map of service -> account -> value
	Secrets map[string]map[string]string

	// Err, when set, is returned by every call.
	Err error

	mu sync.Mutex
}

// NewFakeKeyring creates an empty fake keyring.
func NewFakeKeyring() *FakeKeyring {
	return &FakeKeyring{Secrets: make(map[string]map[string]string)}
}

// Get returns the stored secret or keyring.ErrNotFound.
func (f *FakeKeyring) Get(service, account string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return "", f.Err
	}
	if value, ok := f.Secrets[service][account]; ok {
		return value, nil
	}
	return "", keyring.ErrNotFound
}

// Set stores a secret.
func (f *FakeKeyring) Set(service, account, secret string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return f.Err
	}
	if f.Secrets[service] == nil {
		f.Secrets[service] = make(map[string]string)
	}
	f.Secrets[service][account] = secret
	return nil
}

// Delete removes a secret, returning keyring.ErrNotFound when absent.
func (f *FakeKeyring) Delete(service, account string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Err != nil {
		return f.Err
	}
	if _, ok := f.Secrets[service][account]; !ok {
		return keyring.ErrNotFound
	}
	delete(f.Secrets[service], account)
	return nil
}

// Accounts returns the number of secrets stored for service.
func (f *FakeKeyring) Accounts(service string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.Secrets[service])
}
