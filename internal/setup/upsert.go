// Package setup holds the "ensure configuration state" routines and the state
// machine that drives a setup submission through them.
package setup

import (
	"context"
	"fmt"

	"github.com/systmms/ogsetup/internal/logging"
	"github.com/systmms/ogsetup/pkg/store"
)

// Upserter brings remote configuration and secrets to a desired state.
//
// It never caches: every step re-reads the store, because a listing taken
// before a mutation does not reflect it.
type Upserter struct {
	store  store.Store
	realms []string
	logger *logging.Logger
}

// NewUpserter creates an Upserter. realms is the set of realms EnsureSecret
// sweeps for stale copies of a secret.
func NewUpserter(s store.Store, realms []string, logger *logging.Logger) *Upserter {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Upserter{
		store:  s,
		realms: append([]string(nil), realms...),
		logger: logger,
	}
}

// EnsureSectionProperties makes sure file exists, section exists in it and
// the given properties are set on the section. Calling it again with the same
// arguments leaves the store unchanged.
func (u *Upserter) EnsureSectionProperties(ctx context.Context, file, section string, properties map[string]string) error {
	files, err := u.store.ListFiles(ctx)
	if err != nil {
		return fmt.Errorf("listing configuration files: %w", err)
	}
	if !store.ContainsName(files, file) {
		u.logger.Debug("Creating configuration file %s", file)
		if err := u.store.CreateFile(ctx, file); err != nil {
			return fmt.Errorf("creating configuration file %s: %w", file, err)
		}
	}

	sections, err := u.store.ListSections(ctx, file)
	if err != nil {
		return fmt.Errorf("listing sections of %s: %w", file, err)
	}
	if _, ok := store.FindSection(sections, section); !ok {
		u.logger.Debug("Creating section [%s] in %s", section, file)
		if err := u.store.CreateSection(ctx, file, section); err != nil {
			return fmt.Errorf("creating section [%s] in %s: %w", section, file, err)
		}

		sections, err = u.store.ListSections(ctx, file)
		if err != nil {
			return fmt.Errorf("listing sections of %s: %w", file, err)
		}
		if _, ok := store.FindSection(sections, section); !ok {
			return &store.Error{
				Op:       "ensure_section",
				Messages: []store.Message{{Type: "ERROR", Text: fmt.Sprintf("section [%s] missing from %s after creation", section, file)}},
				Err:      store.ErrNotFound,
			}
		}
	}

	u.logger.Debug("Updating %d properties in [%s] of %s", len(properties), section, file)
	if err := u.store.UpdateSectionProperties(ctx, file, section, properties); err != nil {
		return fmt.Errorf("updating section [%s] in %s: %w", section, file, err)
	}
	return nil
}

// EnsureSecret replaces every copy of username's secret, in any known realm,
// with a single secret in realm.
//
// Secrets cannot be updated in place, so existing copies are deleted before
// the new one is created. Between the two there is a window in which no
// secret exists.
func (u *Upserter) EnsureSecret(ctx context.Context, realm, username, value string) error {
	for _, r := range u.sweepRealms(realm) {
		secrets, err := u.store.ListSecrets(ctx, r)
		if err != nil {
			return fmt.Errorf("listing secrets in realm %q: %w", r, err)
		}
		if _, ok := store.FindSecret(secrets, username); !ok {
			continue
		}

		u.logger.Debug("Removing stale secret %s", store.SecretName(r, username))
		if err := u.store.DeleteSecret(ctx, r, username); err != nil {
			return fmt.Errorf("deleting secret %s: %w", store.SecretName(r, username), err)
		}
	}

	u.logger.Debug("Creating secret %s", store.SecretName(realm, username))
	if err := u.store.CreateSecret(ctx, realm, username, value); err != nil {
		return fmt.Errorf("creating secret %s: %w", store.SecretName(realm, username), err)
	}
	return nil
}

// sweepRealms returns the known realms plus target, without duplicates.
func (u *Upserter) sweepRealms(target string) []string {
	realms := make([]string, 0, len(u.realms)+1)
	seen := make(map[string]bool, len(u.realms)+1)
	for _, r := range append(append([]string(nil), u.realms...), target) {
		if seen[r] {
			continue
		}
		seen[r] = true
		realms = append(realms, r)
	}
	return realms
}
