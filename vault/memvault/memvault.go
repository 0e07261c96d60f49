// Package memvault is an in-memory profile vault for tests and ephemeral
// session-local profiles.
package memvault

import (
	"context"
	"sync"

	"github.com/dmaynor/WraithSpec/vault"
)

type entry struct {
	bytes  []byte
	denied bool
}

// Vault is a map-backed vault.Vault. The zero value is not usable; use New.
type Vault struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func New() *Vault {
	return &Vault{entries: make(map[string]entry)}
}

// Put stores a profile. Profiles are immutable: a second Put for the same
// reference with different bytes returns vault.ErrInvalidRef.
func (v *Vault) Put(id, version string, b []byte) error {
	if !vault.ValidRef(id, version) {
		return vault.ErrInvalidRef
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	key := vault.Key(id, version)
	if prev, ok := v.entries[key]; ok {
		if string(prev.bytes) != string(b) {
			return vault.ErrInvalidRef
		}
		return nil
	}
	v.entries[key] = entry{bytes: append([]byte(nil), b...)}
	return nil
}

// Deny marks a stored profile as scope-denied, so lookups surface
// vault.ErrScopeDenied. Test hook for resolver scope handling.
func (v *Vault) Deny(id, version string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	key := vault.Key(id, version)
	e := v.entries[key]
	e.denied = true
	v.entries[key] = e
}

func (v *Vault) Lookup(ctx context.Context, id, version string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !vault.ValidRef(id, version) {
		return nil, vault.ErrInvalidRef
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	e, ok := v.entries[vault.Key(id, version)]
	if !ok || e.bytes == nil {
		return nil, vault.ErrNotFound
	}
	if e.denied {
		return nil, vault.ErrScopeDenied
	}
	return append([]byte(nil), e.bytes...), nil
}

func (v *Vault) Has(ctx context.Context, id, version string) bool {
	if ctx.Err() != nil || !vault.ValidRef(id, version) {
		return false
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	e, ok := v.entries[vault.Key(id, version)]
	return ok && e.bytes != nil && !e.denied
}
