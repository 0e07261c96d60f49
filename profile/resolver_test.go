package profile

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmaynor/WraithSpec/header"
	"github.com/dmaynor/WraithSpec/vault"
	"github.com/dmaynor/WraithSpec/vault/memvault"
)

// countingVault counts Lookup calls so tests can observe cache behavior.
type countingVault struct {
	inner   vault.Vault
	lookups atomic.Int64
}

func (c *countingVault) Lookup(ctx context.Context, id, version string) ([]byte, error) {
	c.lookups.Add(1)
	return c.inner.Lookup(ctx, id, version)
}

func (c *countingVault) Has(ctx context.Context, id, version string) bool {
	return c.inner.Has(ctx, id, version)
}

func seedVault(t *testing.T, entries map[string]string) *countingVault {
	t.Helper()
	mv := memvault.New()
	for key, yaml := range entries {
		var id, version string
		for i := range key {
			if key[i] == '@' {
				id, version = key[:i], key[i+1:]
			}
		}
		if err := mv.Put(id, version, []byte(yaml)); err != nil {
			t.Fatalf("Put(%s): %v", key, err)
		}
	}
	return &countingVault{inner: mv}
}

func profileYAML(id, version, scope string) string {
	return "id: " + id + "\nversion: \"" + version + "\"\nscope: " + scope +
		"\nstate: active\naliases:\n  mode:\n    d: design\n"
}

func resolveOK(t *testing.T, r *Resolver, id, version string) (*Table, []header.Diag) {
	t.Helper()
	table, diags, err := r.Resolve(context.Background(), header.ProfileRef{ID: id, Version: version})
	if err != nil {
		t.Fatalf("Resolve(%s@%s): %v", id, version, err)
	}
	return table, diags
}

func hasRule(diags []header.Diag, ruleID string) bool {
	for _, d := range diags {
		if d.RuleID == ruleID {
			return true
		}
	}
	return false
}

func TestResolveCachesByVersion(t *testing.T) {
	cv := seedVault(t, map[string]string{"wraith-core@2.1.0": profileYAML("wraith-core", "2.1.0", "public")})
	r := NewResolver(cv, Options{})

	table, diags := resolveOK(t, r, "wraith-core", "2.1.0")
	if got, ok := table.Expand("mode", "d"); !ok || got != "design" {
		t.Fatalf("Expand = %q %v", got, ok)
	}
	if len(diags) != 0 {
		t.Errorf("clean resolve produced diags: %+v", diags)
	}

	resolveOK(t, r, "wraith-core", "2.1.0")
	if n := cv.lookups.Load(); n != 1 {
		t.Errorf("vault lookups = %d, want 1 (second resolve from cache)", n)
	}
}

func TestResolveCanonicalFallback(t *testing.T) {
	cv := seedVault(t, nil)
	r := NewResolver(cv, Options{})

	table, diags := resolveOK(t, r, "absent", "1.0.0")
	if table.Profile() != nil {
		t.Error("fallback table should be canonical")
	}
	if !hasRule(diags, "VAP-RES-002") || !hasRule(diags, "VAP-RES-001") {
		t.Errorf("missing fallback warnings: %+v", diags)
	}
	if header.MaxSeverity(diags) != header.SevWarning {
		t.Errorf("fallback is a WARNING, got %v", header.MaxSeverity(diags))
	}
}

func TestResolveMinorVersionFallback(t *testing.T) {
	cv := seedVault(t, map[string]string{"wraith-core@2.1.0": profileYAML("wraith-core", "2.1.0", "public")})
	r := NewResolver(cv, Options{})
	resolveOK(t, r, "wraith-core", "2.1.0")

	// 2.2.0 is not in the vault; the cached 2.1.0 table is additive-
	// compatible and serves as fallback.
	table, diags := resolveOK(t, r, "wraith-core", "2.2.0")
	if table.Profile() == nil || table.Profile().Version != "2.1.0" {
		t.Fatalf("want cached 2.1.0 table, got %+v", table.Profile())
	}
	if !hasRule(diags, "VAP-RES-003") {
		t.Errorf("missing version-fallback warning: %+v", diags)
	}
}

func TestResolveMajorVersionNeverReuses(t *testing.T) {
	cv := seedVault(t, map[string]string{"wraith-core@2.1.0": profileYAML("wraith-core", "2.1.0", "public")})
	r := NewResolver(cv, Options{})
	resolveOK(t, r, "wraith-core", "2.1.0")

	table, diags := resolveOK(t, r, "wraith-core", "3.0.0")
	if table.Profile() != nil {
		t.Fatalf("major-version change must not reuse the cache, got %+v", table.Profile())
	}
	if !hasRule(diags, "VAP-RES-001") {
		t.Errorf("missing canonical-fallback warning: %+v", diags)
	}
}

func TestResolvePrereleaseNotCached(t *testing.T) {
	cv := seedVault(t, map[string]string{"wraith-core@2.2.0-beta": profileYAML("wraith-core", "2.2.0-beta", "public")})
	r := NewResolver(cv, Options{})

	resolveOK(t, r, "wraith-core", "2.2.0-beta")
	resolveOK(t, r, "wraith-core", "2.2.0-beta")
	if n := cv.lookups.Load(); n != 2 {
		t.Errorf("vault lookups = %d, want 2 (pre-release never cached)", n)
	}
}

func TestResolveSessionScope(t *testing.T) {
	entries := map[string]string{"private@1.0.0": profileYAML("private", "1.0.0", "session")}

	// Without a session identity the table is served but never cached.
	cv := seedVault(t, entries)
	r := NewResolver(cv, Options{})
	resolveOK(t, r, "private", "1.0.0")
	resolveOK(t, r, "private", "1.0.0")
	if n := cv.lookups.Load(); n != 2 {
		t.Errorf("vault lookups = %d, want 2 (session scope uncacheable without session)", n)
	}

	// With a session identity it caches normally.
	cv = seedVault(t, entries)
	r = NewResolver(cv, Options{Session: "x7k2m9"})
	resolveOK(t, r, "private", "1.0.0")
	resolveOK(t, r, "private", "1.0.0")
	if n := cv.lookups.Load(); n != 1 {
		t.Errorf("vault lookups = %d, want 1", n)
	}
}

func TestResolveTTLStale(t *testing.T) {
	cv := seedVault(t, map[string]string{"wraith-core@2.1.0": profileYAML("wraith-core", "2.1.0", "public")})
	r := NewResolver(cv, Options{TTL: time.Minute})

	clock := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return clock }

	resolveOK(t, r, "wraith-core", "2.1.0")
	clock = clock.Add(2 * time.Minute)
	resolveOK(t, r, "wraith-core", "2.1.0")
	if n := cv.lookups.Load(); n != 2 {
		t.Errorf("vault lookups = %d, want 2 (stale entry refetched)", n)
	}
}

func TestResolveInvalidate(t *testing.T) {
	cv := seedVault(t, map[string]string{"wraith-core@2.1.0": profileYAML("wraith-core", "2.1.0", "public")})
	r := NewResolver(cv, Options{})

	resolveOK(t, r, "wraith-core", "2.1.0")
	r.Invalidate("wraith-core")
	resolveOK(t, r, "wraith-core", "2.1.0")
	if n := cv.lookups.Load(); n != 2 {
		t.Errorf("vault lookups = %d, want 2 after Invalidate", n)
	}
}

func TestResolveUnresolvableLifecycle(t *testing.T) {
	y := "id: old\nversion: \"1.0.0\"\nstate: archived\naliases:\n  mode:\n    d: design\n"
	cv := seedVault(t, map[string]string{"old@1.0.0": y})
	r := NewResolver(cv, Options{})

	table, diags := resolveOK(t, r, "old", "1.0.0")
	if table.Profile() != nil {
		t.Error("archived profile must not serve a table")
	}
	if !hasRule(diags, "VAP-RES-005") {
		t.Errorf("missing lifecycle warning: %+v", diags)
	}
}

func TestResolveInvalidRef(t *testing.T) {
	r := NewResolver(seedVault(t, nil), Options{})
	_, _, err := r.Resolve(context.Background(), header.ProfileRef{ID: "VA-P1", Version: "@2"})
	if !errors.Is(err, ErrInvalidRef) {
		t.Fatalf("Resolve = %v, want ErrInvalidRef", err)
	}
}

func TestResolveCancelledContextFallsBack(t *testing.T) {
	cv := seedVault(t, map[string]string{"wraith-core@2.1.0": profileYAML("wraith-core", "2.1.0", "public")})
	r := NewResolver(cv, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	table, diags, err := r.Resolve(ctx, header.ProfileRef{ID: "wraith-core", Version: "2.1.0"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if table.Profile() != nil {
		t.Error("cancelled vault call must degrade to canonical fallback")
	}
	if !hasRule(diags, "VAP-RES-002") {
		t.Errorf("missing vault-failure warning: %+v", diags)
	}
}
