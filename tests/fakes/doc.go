// Package fakes provides test doubles for the splunkd storage API and the
// OS keyring.
//
// FakeStore implements store.Store in memory and records every call, so
// tests can check both the end state and the exact sequence of requests.
// FakeSplunkd serves the splunkd REST endpoints over a FakeStore for tests
// that go through the real HTTP client. Fakes are written by hand to give
// precise control over failures and blocking.
//
// Usage:
//
//	backend := fakes.NewFakeStore().
//	    WithSecret("us", "api_key", key).
//	    WithFailure("Reload", errBoom)
//	server := fakes.NewFakeSplunkd(backend).Start()
//	defer server.Close()
package fakes
