// Package keys signs and verifies canonical frame bytes.
//
// The stable surface is the pure signing and derivation primitives; the
// filesystem-backed KeyStore is a local-first convenience for the CLI and
// may change shape between releases.
package keys
