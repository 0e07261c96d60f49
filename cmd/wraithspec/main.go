package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmaynor/WraithSpec/header"
	"github.com/dmaynor/WraithSpec/profile"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "decode":
		return cmdDecode(args[1:], out, errOut)
	case "encode":
		return cmdEncode(args[1:], out, errOut)
	case "canon":
		return cmdCanon(args[1:], out, errOut)
	case "cid":
		return cmdCID(args[1:], out, errOut)
	case "validate":
		return cmdValidate(args[1:], out, errOut)
	case "check":
		return cmdCheck(args[1:], out, errOut)
	case "sign":
		return cmdSign(args[1:], out, errOut)
	case "verify":
		return cmdVerify(args[1:], out, errOut)
	case "sid":
		return cmdSID(args[1:], out, errOut)
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "wraithspec: header codec, document validator, and compliance CLI")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  wraithspec decode [--profile <yaml>] <header-file|->")
	fmt.Fprintln(w, "  wraithspec encode [--profile <yaml>] [--form compact|full] [--downgrade] <header-file|->")
	fmt.Fprintln(w, "  wraithspec canon [--profile <yaml>] <header-file|->")
	fmt.Fprintln(w, "  wraithspec cid <header-file|->")
	fmt.Fprintln(w, "  wraithspec validate [--profile <yaml>] <document-file|->")
	fmt.Fprintln(w, "  wraithspec check --doc <file> --output <yaml> [--text <file>]")
	fmt.Fprintln(w, "  wraithspec sign (--seed-hex <64hex> | --signer <name> [--sid <sid>] | --key-file <path>) <header-file|->")
	fmt.Fprintln(w, "  wraithspec verify --sig <base64> --signer-key <ed25519:base64> <header-file|->")
	fmt.Fprintln(w, "  wraithspec sid")
	fmt.Fprintln(w, "  wraithspec key init|derive|list|export ...")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Exit codes: 0 valid/compliant, 1 invalid/non-compliant, 2 usage.")
}

// readInput reads a positional file argument, with "-" meaning stdin.
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// loadTable builds an alias table from a profile YAML file, or returns nil
// when no profile was given so the codec uses canonical spellings only.
func loadTable(path string, errOut io.Writer) (*profile.Table, int) {
	if path == "" {
		return nil, 0
	}
	b, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(errOut, "read profile: %v\n", err)
		return nil, 1
	}
	p, err := profile.ParseYAML(b)
	if err != nil {
		fmt.Fprintf(errOut, "invalid profile: %v\n", err)
		return nil, 1
	}
	return profile.NewTable(p), 0
}

// aliasArg converts the optional table into the codec's interface form; a
// typed nil pointer must not leak into the interface value.
func aliasArg(t *profile.Table) header.AliasTable {
	if t == nil {
		return nil
	}
	return t
}

func printDiags(w io.Writer, diags []header.Diag) {
	for _, d := range diags {
		fmt.Fprintf(w, "%s [%s] %s: %s\n", d.Severity, d.RuleID, d.Field, d.Message)
	}
}

// readHeaderArg decodes the single positional header argument with an
// optional alias profile, returning the table for re-use by the encoder.
func readHeaderArg(path, profilePath string, errOut io.Writer) (*header.Header, *profile.Table, int) {
	table, code := loadTable(profilePath, errOut)
	if code != 0 {
		return nil, nil, code
	}
	b, err := readInput(path)
	if err != nil {
		fmt.Fprintf(errOut, "read header: %v\n", err)
		return nil, nil, 1
	}
	h, err := header.Decode(strings.TrimSpace(string(b)), aliasArg(table))
	if err != nil {
		fmt.Fprintf(errOut, "decode: %v\n", err)
		return nil, nil, 1
	}
	printDiags(errOut, h.Diags)
	return h, table, 0
}
