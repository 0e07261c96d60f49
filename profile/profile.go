// Package profile models versioned alias profiles and resolves profile
// references to alias tables through a cache, an external vault, and a
// canonical fallback.
package profile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/dmaynor/WraithSpec/vault"
)

// Scope gates whether a resolved table may be reused outside the session
// that resolved it.
type Scope string

const (
	ScopeSession Scope = "session"
	ScopeUser    Scope = "user"
	ScopePublic  Scope = "public"
)

// DefaultScope applies when a profile declares none.
const DefaultScope = ScopeUser

func (s Scope) valid() bool {
	switch s {
	case ScopeSession, ScopeUser, ScopePublic:
		return true
	}
	return false
}

// Lifecycle is a profile's publication state. Only Created and Active
// profiles resolve; Invalidated and Archived profiles are retained by the
// vault but never served as tables. Stale is resolver-local: a cached entry
// unaccessed past the TTL.
type Lifecycle string

const (
	StateCreated     Lifecycle = "created"
	StateActive      Lifecycle = "active"
	StateStale       Lifecycle = "stale"
	StateInvalidated Lifecycle = "invalidated"
	StateArchived    Lifecycle = "archived"
)

// categories lists the alias dictionaries a profile may carry.
var categories = map[string]bool{
	"mode":  true,
	"phase": true,
	"actor": true,
	"flag":  true,
}

var (
	ErrInvalidProfile = errors.New("profile: invalid profile document")
	ErrInvalidRef     = errors.New("profile: invalid profile reference")
)

// Profile is a versioned alias dictionary. Aliases map category → alias →
// canonical value; alias tables are data, not code, so publishing a new
// profile version never requires recompilation.
type Profile struct {
	ID      string                       `yaml:"id"`
	Version string                       `yaml:"version"`
	Scope   Scope                        `yaml:"scope,omitempty"`
	State   Lifecycle                    `yaml:"state,omitempty"`
	Aliases map[string]map[string]string `yaml:"aliases"`
}

// ParseYAML decodes and validates a profile document.
func ParseYAML(b []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// YAML renders the profile as its canonical vault document.
func (p *Profile) YAML() ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return yaml.Marshal(p)
}

// Validate normalizes and checks the profile in place: scope and state
// defaults are applied, alias keys are lowercased, the version must parse
// as semver, and every category must be a recognized dictionary.
func (p *Profile) Validate() error {
	if !vault.ValidRef(p.ID, p.Version) {
		return fmt.Errorf("%w: bad id or version %q@%q", ErrInvalidProfile, p.ID, p.Version)
	}
	if _, err := semver.NewVersion(p.Version); err != nil {
		return fmt.Errorf("%w: version %q: %v", ErrInvalidProfile, p.Version, err)
	}
	if p.Scope == "" {
		p.Scope = DefaultScope
	}
	if !p.Scope.valid() {
		return fmt.Errorf("%w: scope %q", ErrInvalidProfile, p.Scope)
	}
	if p.State == "" {
		p.State = StateCreated
	}
	for cat, dict := range p.Aliases {
		if !categories[cat] {
			return fmt.Errorf("%w: unknown alias category %q", ErrInvalidProfile, cat)
		}
		for alias, canonical := range dict {
			if alias == "" || canonical == "" {
				return fmt.Errorf("%w: empty alias mapping in %q", ErrInvalidProfile, cat)
			}
			lower := strings.ToLower(alias)
			if lower != alias {
				delete(dict, alias)
				dict[lower] = canonical
			}
		}
	}
	return nil
}

// SemVersion parses the profile's version.
func (p *Profile) SemVersion() (*semver.Version, error) {
	v, err := semver.NewVersion(p.Version)
	if err != nil {
		return nil, fmt.Errorf("%w: version %q: %v", ErrInvalidProfile, p.Version, err)
	}
	return v, nil
}

// Resolvable reports whether the profile's lifecycle state permits serving
// its alias table.
func (p *Profile) Resolvable() bool {
	return p.State == StateCreated || p.State == StateActive || p.State == ""
}
