package header

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

func vectorRoot() string {
	return filepath.Join("..", "testdata", "conformance", "header", "wraithspec-vap-1")
}

func readVector(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(vectorRoot(), name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(b)
}

// vectorCID mirrors the frame-identifier derivation: CIDv1, raw codec,
// sha2-256 multihash over canonical bytes.
func vectorCID(t *testing.T, canon []byte) string {
	t.Helper()
	sum, err := multihash.Sum(canon, multihash.SHA2_256, -1)
	if err != nil {
		t.Fatalf("multihash: %v", err)
	}
	return cid.NewCidV1(cid.Raw, sum).String()
}

func TestConformanceVectors_CanonicalAndCID(t *testing.T) {
	cases := []struct {
		name  string
		wires []string // every wire form that must canonicalize identically
	}{
		{"basic_1", []string{"basic_1.compact", "basic_1.full"}},
		{"defaults_1", []string{"defaults_1.compact"}},
		{"escape_1", []string{"escape_1.compact"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wantCanon := readVector(t, tc.name+".canon")
			wantCID := strings.TrimSpace(readVector(t, tc.name+".cid"))

			for _, wire := range tc.wires {
				canon, _, err := CanonicalizeText(readVector(t, wire), nil)
				if err != nil {
					t.Fatalf("CanonicalizeText(%s): %v", wire, err)
				}
				if string(canon) != wantCanon {
					t.Errorf("%s canonical mismatch:\n got:  %s\n want: %s", wire, canon, wantCanon)
				}
				if got := vectorCID(t, canon); got != wantCID {
					t.Errorf("%s CID mismatch: got %s want %s", wire, got, wantCID)
				}
			}

			// Canonicalization idempotence: the canonical bytes, carried in
			// a frame, decode and canonicalize back to themselves.
			framed := "SENTINEL:" + FrameVersion + ":(" + wantCanon + ")"
			again, _, err := CanonicalizeText(framed, nil)
			if err != nil {
				t.Fatalf("CanonicalizeText(framed canonical): %v", err)
			}
			if !bytes.Equal(again, []byte(wantCanon)) {
				t.Errorf("canonicalization not idempotent:\n got:  %s\n want: %s", again, wantCanon)
			}
		})
	}
}

func TestConformanceVectors_InvalidRejected(t *testing.T) {
	files := []string{
		"invalid_multiline.header",
		"invalid_missing_sid.header",
	}
	for _, name := range files {
		if _, err := Decode(readVector(t, name), nil); err == nil {
			t.Errorf("expected Decode to reject %s", name)
		}
	}
}
