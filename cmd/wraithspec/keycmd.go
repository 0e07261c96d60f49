package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/dmaynor/WraithSpec/keys"
)

func cmdSign(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var seedHex string
	var signerName string
	var sid string
	var keyFile string
	var profilePath string
	var printSignerKey bool

	fs.StringVar(&seedHex, "seed-hex", "", "ed25519 seed as 64 hex chars")
	fs.StringVar(&signerName, "signer", "", "Use a stored key by name (from 'wraithspec key init')")
	fs.StringVar(&sid, "sid", "", "When using --signer, use the session-derived key for this SID")
	fs.StringVar(&keyFile, "key-file", "", "Path to a seed file (hex) created by 'wraithspec key init/derive'")
	fs.StringVar(&profilePath, "profile", "", "Alias profile YAML for compact-key expansion")
	fs.BoolVar(&printSignerKey, "print-signer-key", true, "Print Signer-Key to stderr")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: wraithspec sign (--seed-hex <64hex> | --signer <name> [--sid <sid>] | --key-file <path>) <header-file|->")
		return 2
	}
	if seedHex == "" && signerName == "" && keyFile == "" {
		fmt.Fprintln(errOut, "missing signer: use --seed-hex, --signer, or --key-file")
		return 2
	}
	if seedHex != "" && (signerName != "" || keyFile != "") {
		fmt.Fprintln(errOut, "conflicting signer flags: --seed-hex cannot be combined with --signer or --key-file")
		return 2
	}
	if signerName != "" && keyFile != "" {
		fmt.Fprintln(errOut, "conflicting signer flags: --signer cannot be combined with --key-file")
		return 2
	}

	ks, err := keys.OpenKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	seed, err := ks.LoadSeed(seedHex, signerName, sid, keyFile)
	if err != nil {
		fmt.Fprintf(errOut, "invalid signer: %v\n", err)
		return 2
	}
	priv := ed25519.NewKeyFromSeed(seed)
	if printSignerKey {
		fmt.Fprintf(errOut, "Signer-Key: %s\n", keys.SignerKeyFromSeed(seed))
	}

	h, _, code := readHeaderArg(fs.Arg(0), profilePath, errOut)
	if code != 0 {
		return code
	}
	sig, err := keys.SignHeader(h, priv)
	if err != nil {
		fmt.Fprintf(errOut, "sign: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, sig)
	return 0
}

func cmdVerify(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var sigB64 string
	var signerKey string
	var profilePath string

	fs.StringVar(&sigB64, "sig", "", "Detached base64 signature")
	fs.StringVar(&signerKey, "signer-key", "", "Signer key string: ed25519:<base64 pubkey>")
	fs.StringVar(&profilePath, "profile", "", "Alias profile YAML for compact-key expansion")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 || sigB64 == "" || signerKey == "" {
		fmt.Fprintln(errOut, "usage: wraithspec verify --sig <base64> --signer-key <ed25519:base64> <header-file|->")
		return 2
	}

	pubB64, found := strings.CutPrefix(signerKey, "ed25519:")
	if !found {
		fmt.Fprintln(errOut, "invalid --signer-key: expected ed25519:<base64> form")
		return 2
	}
	pubBytes, err := base64.StdEncoding.DecodeString(pubB64)
	if err != nil || len(pubBytes) != ed25519.PublicKeySize {
		fmt.Fprintln(errOut, "invalid --signer-key: bad public key encoding")
		return 2
	}

	h, _, code := readHeaderArg(fs.Arg(0), profilePath, errOut)
	if code != 0 {
		return code
	}
	ok, err := keys.VerifyHeader(h, sigB64, ed25519.PublicKey(pubBytes))
	if err != nil {
		fmt.Fprintf(errOut, "verify: %v\n", err)
		return 1
	}
	if !ok {
		fmt.Fprintln(errOut, "signature does not verify")
		return 1
	}
	fmt.Fprintln(out, "OK")
	return 0
}

func cmdKey(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printKeyUsage(errOut)
		return 2
	}
	switch args[0] {
	case "init":
		return cmdKeyInit(args[1:], out, errOut)
	case "derive":
		return cmdKeyDerive(args[1:], out, errOut)
	case "list":
		return cmdKeyList(args[1:], out, errOut)
	case "export":
		return cmdKeyExport(args[1:], out, errOut)
	case "help", "-h", "--help":
		printKeyUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown key subcommand: %s\n\n", args[0])
		printKeyUsage(errOut)
		return 2
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "wraithspec key: minimal local key management")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  wraithspec key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  wraithspec key derive --from <name> --sid <sid> [--force]")
	fmt.Fprintln(w, "  wraithspec key list")
	fmt.Fprintln(w, "  wraithspec key export --name <name> [--sid <sid>]")
}

func cmdKeyInit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key init", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var seedHex string
	var force bool

	fs.StringVar(&name, "name", "", "Key name (directory under ~/.wraithspec/keys)")
	fs.StringVar(&seedHex, "seed-hex", "", "Optional ed25519 seed as 64 hex chars (for reproducible demos)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}
	ks, err := keys.OpenKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}

	var seed []byte
	if seedHex != "" {
		var derr error
		seed, derr = keys.ParseSeedHex(seedHex)
		if derr != nil {
			fmt.Fprintf(errOut, "invalid --seed-hex: %v\n", derr)
			return 2
		}
	} else {
		seed = make([]byte, ed25519.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			fmt.Fprintf(errOut, "rand: %v\n", err)
			return 1
		}
	}

	signerKey, rootPath, err := ks.InitializeRootKey(name, seed, force)
	if err != nil {
		fmt.Fprintf(errOut, "write key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created root key: %s\n", signerKey)
	fmt.Fprintf(out, "Stored at: %s\n", rootPath)
	return 0
}

func cmdKeyDerive(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key derive", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var from string
	var sid string
	var force bool

	fs.StringVar(&from, "from", "", "Root key name")
	fs.StringVar(&sid, "sid", "", "Session identifier")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if from == "" {
		fmt.Fprintln(errOut, "missing --from")
		return 2
	}
	if sid == "" {
		fmt.Fprintln(errOut, "missing --sid")
		return 2
	}
	if err := keys.CheckKeyName(from); err != nil {
		fmt.Fprintf(errOut, "invalid --from: %v\n", err)
		return 2
	}
	if err := keys.CheckSessionID(sid); err != nil {
		fmt.Fprintf(errOut, "invalid --sid: %v\n", err)
		return 2
	}
	ks, err := keys.OpenKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	signerKey, sessionPath, err := ks.DeriveSessionKey(from, sid, force)
	if err != nil {
		fmt.Fprintf(errOut, "derive session key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created session key: %s\n", signerKey)
	fmt.Fprintf(out, "Stored at: %s\n", sessionPath)
	return 0
}

func cmdKeyExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key export", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var sid string

	fs.StringVar(&name, "name", "", "Key name")
	fs.StringVar(&sid, "sid", "", "Optional session id (if set, exports the derived session key)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}
	if sid != "" {
		if err := keys.CheckSessionID(sid); err != nil {
			fmt.Fprintf(errOut, "invalid --sid: %v\n", err)
			return 2
		}
	}
	ks, err := keys.OpenKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	signerKey, err := ks.ExportKey(name, sid)
	if err != nil {
		fmt.Fprintf(errOut, "export key: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, signerKey)
	return 0
}

func cmdKeyList(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key list", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	ks, err := keys.OpenKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	entries, err := ks.ListKeys()
	if err != nil {
		fmt.Fprintf(errOut, "list keys: %v\n", err)
		return 1
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s\n", e.Identifier)
		for _, s := range e.Sessions {
			fmt.Fprintf(out, "  - %s\n", s)
		}
	}
	return 0
}
