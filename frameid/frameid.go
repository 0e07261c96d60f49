// Package frameid derives content identifiers for canonicalized headers.
// The identifier is a CIDv1 with the "raw" multicodec over a sha2-256
// multihash of the canonical byte form, so two headers that canonicalize
// identically share one ID regardless of the form they arrived in.
package frameid

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"github.com/dmaynor/WraithSpec/header"
)

// FromCanonical returns the CIDv1 (raw + sha2-256) of canonical frame bytes.
func FromCanonical(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// New canonicalizes the header and returns its frame ID.
func New(h *header.Header) (cid.Cid, error) {
	data, err := header.Canonicalize(h)
	if err != nil {
		return cid.Undef, err
	}
	return FromCanonical(data)
}

// String is New rendered as the canonical CID string, or "" on error.
func String(h *header.Header) string {
	id, err := New(h)
	if err != nil {
		return ""
	}
	return id.String()
}
