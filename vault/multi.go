package vault

import (
	"context"
	"errors"
)

// Multi provides deterministic, ordered fallback across multiple vaults.
//
// Lookup order is the slice order in Vaults; callers MUST supply a fixed
// order. A scope denial stops the scan: a later vault must not leak a
// profile an earlier vault explicitly refused to serve.
type Multi struct {
	Vaults []Vault
}

func (m Multi) Lookup(ctx context.Context, id, version string) ([]byte, error) {
	if len(m.Vaults) == 0 {
		return nil, errors.New("vault: Multi has no vaults")
	}
	for _, v := range m.Vaults {
		b, err := v.Lookup(ctx, id, version)
		if err == nil {
			return b, nil
		}
		if errors.Is(err, ErrScopeDenied) {
			return nil, ErrScopeDenied
		}
		if IsNotFound(err) {
			continue
		}
		return nil, err
	}
	return nil, ErrNotFound
}

func (m Multi) Has(ctx context.Context, id, version string) bool {
	for _, v := range m.Vaults {
		if v.Has(ctx, id, version) {
			return true
		}
	}
	return false
}
