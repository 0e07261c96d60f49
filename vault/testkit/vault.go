// Package testkit runs the vault.Vault conformance suite against any
// adapter.
package testkit

import (
	"context"
	"testing"

	"github.com/dmaynor/WraithSpec/vault"
)

// Putter is the write side most adapters expose for seeding.
type Putter interface {
	Put(id, version string, b []byte) error
}

// NewVault constructs a fresh, empty vault for a test, returning the lookup
// interface and a seeding hook. The returned vault MUST be isolated from
// other tests.
type NewVault func(t *testing.T) (vault.Vault, Putter)

func RunVaultConformance(t *testing.T, newVault NewVault) {
	t.Helper()
	ctx := context.Background()

	t.Run("LookupRoundTrip", func(t *testing.T) {
		v, put := newVault(t)
		want := []byte("id: strict-json\nversion: \"2.1.0\"\n")

		if err := put.Put("strict-json", "2.1.0", want); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		got, err := v.Lookup(ctx, "strict-json", "2.1.0")
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if string(got) != string(want) {
			t.Fatalf("Lookup bytes mismatch: got %q want %q", got, want)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		v, _ := newVault(t)
		if v.Has(ctx, "absent", "1.0.0") {
			t.Fatalf("Has returned true for missing profile")
		}
		_, err := v.Lookup(ctx, "absent", "1.0.0")
		if !vault.IsNotFound(err) {
			t.Fatalf("Lookup missing: got err=%v want ErrNotFound", err)
		}
	})

	t.Run("PutImmutable", func(t *testing.T) {
		v, put := newVault(t)
		if err := put.Put("tone", "1.0.0", []byte("a: 1\n")); err != nil {
			t.Fatalf("Put(1) failed: %v", err)
		}
		if err := put.Put("tone", "1.0.0", []byte("a: 1\n")); err != nil {
			t.Fatalf("Put(same bytes) failed: %v", err)
		}
		if err := put.Put("tone", "1.0.0", []byte("a: 2\n")); err == nil {
			t.Fatalf("Put with different bytes should fail")
		}
		got, err := v.Lookup(ctx, "tone", "1.0.0")
		if err != nil || string(got) != "a: 1\n" {
			t.Fatalf("original bytes lost: %q err=%v", got, err)
		}
	})

	t.Run("RejectInvalidRef", func(t *testing.T) {
		v, put := newVault(t)
		for _, ref := range [][2]string{
			{"../escape", "1.0.0"},
			{"ok", "not a version"},
			{"", "1.0.0"},
			{"9starts-with-digit", "1.0.0"},
		} {
			if err := put.Put(ref[0], ref[1], []byte("x: 1\n")); err == nil {
				t.Errorf("Put(%q@%q) should fail", ref[0], ref[1])
			}
			if v.Has(ctx, ref[0], ref[1]) {
				t.Errorf("Has(%q@%q) should be false", ref[0], ref[1])
			}
		}
	})

	t.Run("HonorsContextCancel", func(t *testing.T) {
		v, put := newVault(t)
		if err := put.Put("tone", "1.0.0", []byte("a: 1\n")); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := v.Lookup(cancelled, "tone", "1.0.0"); err == nil {
			t.Fatalf("Lookup with cancelled ctx should fail")
		}
	})
}
