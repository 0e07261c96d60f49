// Package localfs is a filesystem-backed profile vault. Profiles live as
// immutable `<id>@<version>.yaml` files under a root directory.
package localfs

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/dmaynor/WraithSpec/vault"
)

// Vault serves profiles from a directory. It is offline and deterministic:
// it never uses the network and never depends on wall-clock time.
type Vault struct {
	root string
}

// New constructs a filesystem vault rooted at root. The directory will be
// created if needed.
func New(root string) (*Vault, error) {
	if root == "" {
		return nil, errors.New("localfs: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Vault{root: root}, nil
}

// Put writes a profile file. A second Put for the same reference with
// different bytes fails: published profiles are immutable.
func (v *Vault) Put(id, version string, b []byte) error {
	if !vault.ValidRef(id, version) {
		return vault.ErrInvalidRef
	}
	path := v.pathFor(id, version)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o444)
	if err != nil {
		if os.IsExist(err) {
			existing, rerr := os.ReadFile(path)
			if rerr != nil || string(existing) != string(b) {
				return errors.New("localfs: immutable profile mismatch")
			}
			return nil
		}
		return err
	}
	defer f.Close()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return err
	}
	return nil
}

func (v *Vault) Lookup(ctx context.Context, id, version string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !vault.ValidRef(id, version) {
		return nil, vault.ErrInvalidRef
	}
	b, err := os.ReadFile(v.pathFor(id, version))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, vault.ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (v *Vault) Has(ctx context.Context, id, version string) bool {
	if ctx.Err() != nil || !vault.ValidRef(id, version) {
		return false
	}
	_, err := os.Stat(v.pathFor(id, version))
	return err == nil
}

// pathFor is safe against traversal: ValidRef restricts id and version to
// characters that cannot form a path separator.
func (v *Vault) pathFor(id, version string) string {
	return filepath.Join(v.root, vault.Key(id, version)+".yaml")
}
