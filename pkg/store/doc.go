// Package store defines the remote configuration and secret store consumed by ogsetup.
//
// The store is owned by the host platform (splunkd). ogsetup never caches what it
// reads: every call returns a fresh snapshot and callers re-fetch after each
// mutation, because a listing taken before a create is not guaranteed to reflect it.
//
// # Resource Kinds
//
// The store exposes two resource kinds:
//   - **Configuration files** (e.g. app.conf) containing named sections
//     ("stanzas"), each a flat map of string properties.
//   - **Secrets** (storage/passwords) identified by a (realm, username) pair and
//     holding one opaque value. The host encrypts them at rest.
//
// # Layering
//
//     ┌─────────────────────────────────────────────────────────────┐
//     │                 Views (CLI, HTML form)                      │
//     └─────────────────────────┬───────────────────────────────────┘
//                               │
//     ┌─────────────────────────▼───────────────────────────────────┐
//     │            Orchestrator + Upserter (internal/setup)         │
//     └─────────────────────────┬───────────────────────────────────┘
//                               │
//     ┌─────────────────────────▼───────────────────────────────────┐
//     │              Store / Reloader (pkg/store)       ◄───────────┤
//     └─────────────────────────┬───────────────────────────────────┘
//                               │
//     ┌─────────────────────────▼───────────────────────────────────┐
//     │             splunkd REST client (internal/splunkd)          │
//     └─────────────────────────────────────────────────────────────┘
//
// # Updating Secrets
//
// Secrets cannot be updated in place through this interface, only replaced:
// delete the old (realm, username) entry, then create a new one. There is no
// atomic replace, so readers can briefly observe no secret at all.
//
// # Error Handling
//
// Implementations return *Error for any request the store rejected. Error keeps
// the store's own messages so views can display them:
//
//	if err := s.CreateSecret(ctx, "us", "api_key", key); err != nil {
//	    var storeErr *store.Error
//	    if errors.As(err, &storeErr) {
//	        for _, line := range storeErr.Lines() {
//	            fmt.Println(line)
//	        }
//	    }
//	}
//
// # Security Considerations
//
// Implementations must never log secret values (use logging.Secret) and must
// honour context cancellation on every call.
package store
