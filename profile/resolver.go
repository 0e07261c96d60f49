package profile

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/dmaynor/WraithSpec/header"
	"github.com/dmaynor/WraithSpec/vault"
)

const stripeCount = 16

// Options tune a Resolver.
type Options struct {
	// TTL marks a cached table stale after this long without access.
	// Zero means DefaultTTL.
	TTL time.Duration

	// Session identifies the session this resolver serves. Session-scoped
	// profiles are cached only when set, and never reused across sessions.
	Session string

	// Timeout bounds each vault call when the caller's ctx carries no
	// deadline of its own. Zero means no resolver-imposed bound.
	Timeout time.Duration
}

const DefaultTTL = 30 * time.Minute

type entry struct {
	table      *Table
	version    *semver.Version
	scope      Scope
	session    string
	state      Lifecycle
	lastAccess time.Time
}

// Resolver resolves profile references to alias tables.
//
// Resolution order is fixed: local cache, then vault, then the canonical
// fallback. Failure never propagates as an error: an unresolved reference
// degrades to canonical field names with a WARNING diagnostic, so a decode
// can always proceed.
//
// The cache holds one entry per profile id, keyed mutually exclusive per id
// through lock striping; concurrent resolutions of unrelated profiles never
// contend.
type Resolver struct {
	vault vault.Vault
	opts  Options

	stripes [stripeCount]stripe

	// now is swapped in tests to drive TTL expiry.
	now func() time.Time
}

type stripe struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func NewResolver(v vault.Vault, opts Options) *Resolver {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	r := &Resolver{vault: v, opts: opts, now: time.Now}
	for i := range r.stripes {
		r.stripes[i].entries = make(map[string]*entry)
	}
	return r
}

func (r *Resolver) stripeFor(id string) *stripe {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &r.stripes[h.Sum32()%stripeCount]
}

// Resolve resolves ref to an alias table. The returned diagnostics record
// every degraded step (vault miss, version fallback, canonical fallback);
// an error is returned only for a reference whose grammar is invalid.
func (r *Resolver) Resolve(ctx context.Context, ref header.ProfileRef) (*Table, []header.Diag, error) {
	if !vault.ValidRef(ref.ID, ref.Version) {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidRef, ref.String())
	}
	want, err := semver.NewVersion(ref.Version)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %q: %v", ErrInvalidRef, ref.String(), err)
	}

	s := r.stripeFor(ref.ID)
	s.mu.Lock()
	defer s.mu.Unlock()

	var diags []header.Diag
	now := r.now()

	cached := s.entries[ref.ID]
	if cached != nil {
		if now.Sub(cached.lastAccess) > r.opts.TTL {
			cached.state = StateStale
		}
		if cached.state == StateActive && cached.version.Equal(want) && r.reusable(cached) {
			cached.lastAccess = now
			return cached.table, nil, nil
		}
	}

	if table, d := r.fromVault(ctx, ref, want, now, s.entries); table != nil {
		return table, append(diags, d...), nil
	} else {
		diags = append(diags, d...)
	}

	// Vault failed. A cached table of the same major version is additive-
	// compatible and may serve as a fallback while the refresh keeps
	// failing; a major-version change never reuses.
	if cached != nil && cached.state != StateInvalidated && r.reusable(cached) &&
		cached.version.Major() == want.Major() && !cached.version.Equal(want) {
		cached.lastAccess = now
		diags = append(diags, header.Diag{
			Severity: header.SevWarning, Field: header.FieldCRef, RuleID: "VAP-RES-003",
			Message: fmt.Sprintf("serving cached %s@%s for requested %s", ref.ID, cached.version, ref.Version),
		})
		return cached.table, diags, nil
	}

	diags = append(diags, header.Diag{
		Severity: header.SevWarning, Field: header.FieldCRef, RuleID: "VAP-RES-001",
		Message: fmt.Sprintf("profile %s unresolved, canonical field names in effect", ref.String()),
	})
	return Canonical(), diags, nil
}

// fromVault attempts the vault step. A nil table means the step failed; the
// returned diags describe why.
func (r *Resolver) fromVault(ctx context.Context, ref header.ProfileRef, want *semver.Version, now time.Time, entries map[string]*entry) (*Table, []header.Diag) {
	if r.vault == nil {
		return nil, nil
	}
	vctx := ctx
	if r.opts.Timeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			vctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
			defer cancel()
		}
	}
	b, err := r.vault.Lookup(vctx, ref.ID, ref.Version)
	if err != nil {
		return nil, []header.Diag{{
			Severity: header.SevWarning, Field: header.FieldCRef, RuleID: "VAP-RES-002",
			Message: fmt.Sprintf("vault lookup for %s failed: %v", ref.String(), err),
		}}
	}
	p, err := ParseYAML(b)
	if err != nil {
		return nil, []header.Diag{{
			Severity: header.SevWarning, Field: header.FieldCRef, RuleID: "VAP-RES-004",
			Message: fmt.Sprintf("vault returned an unusable profile for %s: %v", ref.String(), err),
		}}
	}
	got, err := p.SemVersion()
	if err != nil || p.ID != ref.ID {
		return nil, []header.Diag{{
			Severity: header.SevWarning, Field: header.FieldCRef, RuleID: "VAP-RES-004",
			Message: fmt.Sprintf("vault returned a mismatched profile for %s", ref.String()),
		}}
	}
	if !p.Resolvable() {
		return nil, []header.Diag{{
			Severity: header.SevWarning, Field: header.FieldCRef, RuleID: "VAP-RES-005",
			Message: fmt.Sprintf("profile %s is %s", ref.String(), p.State),
		}}
	}

	var diags []header.Diag
	if !got.Equal(want) {
		if got.Major() != want.Major() {
			return nil, []header.Diag{{
				Severity: header.SevWarning, Field: header.FieldCRef, RuleID: "VAP-RES-006",
				Message: fmt.Sprintf("vault served incompatible %s@%s for requested %s", p.ID, p.Version, ref.Version),
			}}
		}
		diags = append(diags, header.Diag{
			Severity: header.SevWarning, Field: header.FieldCRef, RuleID: "VAP-RES-007",
			Message: fmt.Sprintf("vault served additive %s@%s for requested %s", p.ID, p.Version, ref.Version),
		})
	}

	table := NewTable(p)
	if r.cacheable(p, got) {
		// A request for the same id at a different version replaces the
		// old entry outright: version change is the invalidation signal.
		entries[ref.ID] = &entry{
			table:      table,
			version:    got,
			scope:      p.Scope,
			session:    r.opts.Session,
			state:      StateActive,
			lastAccess: now,
		}
	}
	return table, diags
}

// cacheable: pre-release versions are never retained, and session-scoped
// profiles are retained only for an identified session.
func (r *Resolver) cacheable(p *Profile, v *semver.Version) bool {
	if v.Prerelease() != "" {
		return false
	}
	if p.Scope == ScopeSession && r.opts.Session == "" {
		return false
	}
	return true
}

// reusable gates cross-session reuse of a cached entry by its scope.
func (r *Resolver) reusable(e *entry) bool {
	if e.scope == ScopeSession {
		return r.opts.Session != "" && e.session == r.opts.Session
	}
	return true
}

// Invalidate revokes any cached table for id, e.g. when a superseding
// version is published or the profile is explicitly revoked.
func (r *Resolver) Invalidate(id string) {
	s := r.stripeFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.entries[id]; e != nil {
		e.state = StateInvalidated
	}
	delete(s.entries, id)
}
