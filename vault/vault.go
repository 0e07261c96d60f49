// Package vault defines the external alias-profile store interface and its
// sentinel errors. Adapters (memory, local filesystem, gRPC, multi) live in
// subpackages; the profile resolver consumes the interface and treats every
// failure as a fallback trigger, never a hard stop.
package vault

import (
	"context"
	"errors"
	"regexp"
)

// Vault is a minimal profile lookup interface.
//
// Contract:
// - Lookup MUST return ErrNotFound when the profile is absent.
// - Lookup MUST return ErrScopeDenied when the profile exists but its scope
//   forbids serving it to this caller.
// - Returned bytes are the profile's canonical YAML document and MUST be
//   stable for a given (id, version): profiles are immutable once published.
// - Lookup MUST honor ctx cancellation and deadlines.
type Vault interface {
	Lookup(ctx context.Context, id, version string) ([]byte, error)
	Has(ctx context.Context, id, version string) bool
}

var (
	ErrNotFound    = errors.New("vault: profile not found")
	ErrScopeDenied = errors.New("vault: profile scope denies access")
	ErrInvalidRef  = errors.New("vault: invalid profile reference")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

var (
	idRe      = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)
	versionRe = regexp.MustCompile(`^\d+(?:\.\d+)*(?:-[0-9A-Za-z.]+)?$`)
)

// ValidRef reports whether id and version form a well-formed profile
// reference. Adapters reject invalid references up front so a malformed
// reference can never alias a path or wire key.
func ValidRef(id, version string) bool {
	return idRe.MatchString(id) && versionRe.MatchString(version)
}

// Key renders the storage key for a profile reference.
func Key(id, version string) string { return id + "@" + version }
