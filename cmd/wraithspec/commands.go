package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/dmaynor/WraithSpec/compliance"
	"github.com/dmaynor/WraithSpec/document"
	"github.com/dmaynor/WraithSpec/frameid"
	"github.com/dmaynor/WraithSpec/header"
)

func cmdDecode(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	fs.SetOutput(errOut)
	profilePath := fs.String("profile", "", "Alias profile YAML for compact-key expansion")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: wraithspec decode [--profile <yaml>] <header-file|->")
		return 2
	}
	h, _, code := readHeaderArg(fs.Arg(0), *profilePath, errOut)
	if code != 0 {
		return code
	}
	for _, name := range header.RecognizedFields() {
		if v, ok := h.Fields[name]; ok {
			fmt.Fprintf(out, "%s: %s\n", name, v)
		}
	}
	if header.MaxSeverity(h.Diags) >= header.SevError {
		return 1
	}
	return 0
}

func cmdEncode(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	fs.SetOutput(errOut)
	profilePath := fs.String("profile", "", "Alias profile YAML for compression and expansion")
	formName := fs.String("form", "compact", "Output form: compact or full")
	downgrade := fs.Bool("downgrade", false, "Drop optional fields before encoding")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: wraithspec encode [--profile <yaml>] [--form compact|full] [--downgrade] <header-file|->")
		return 2
	}

	var form header.Form
	switch strings.ToLower(*formName) {
	case "compact":
		form = header.FormCompact
	case "full":
		form = header.FormFull
	default:
		fmt.Fprintln(errOut, "invalid --form (expected compact or full)")
		return 2
	}

	h, table, code := readHeaderArg(fs.Arg(0), *profilePath, errOut)
	if code != 0 {
		return code
	}
	if *downgrade {
		h = header.Downgrade(h)
	}
	wire, err := header.Encode(h, form, aliasArg(table))
	if err != nil {
		fmt.Fprintf(errOut, "encode: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, wire)
	return 0
}

func cmdCanon(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("canon", flag.ContinueOnError)
	fs.SetOutput(errOut)
	profilePath := fs.String("profile", "", "Alias profile YAML for compact-key expansion")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: wraithspec canon [--profile <yaml>] <header-file|->")
		return 2
	}
	h, _, code := readHeaderArg(fs.Arg(0), *profilePath, errOut)
	if code != 0 {
		return code
	}
	data, err := header.Canonicalize(h)
	if err != nil {
		fmt.Fprintf(errOut, "canonicalize: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, string(data))
	return 0
}

func cmdCID(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("cid", flag.ContinueOnError)
	fs.SetOutput(errOut)
	profilePath := fs.String("profile", "", "Alias profile YAML for compact-key expansion")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: wraithspec cid <header-file|->")
		return 2
	}
	h, _, code := readHeaderArg(fs.Arg(0), *profilePath, errOut)
	if code != 0 {
		return code
	}
	id, err := frameid.New(h)
	if err != nil {
		fmt.Fprintf(errOut, "cid: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, id.String())
	return 0
}

func cmdValidate(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(errOut)
	profilePath := fs.String("profile", "", "Alias profile YAML for compact-key expansion")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: wraithspec validate [--profile <yaml>] <document-file|->")
		return 2
	}
	table, code := loadTable(*profilePath, errOut)
	if code != 0 {
		return code
	}
	b, err := readInput(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read document: %v\n", err)
		return 1
	}
	doc, err := document.Parse(string(b), aliasArg(table))
	if err != nil {
		fmt.Fprintf(errOut, "invalid: %v\n", err)
		return 1
	}
	printDiags(errOut, doc.Diags)
	fmt.Fprintf(out, "sections=%d capabilities=%d constraints=%d\n",
		len(doc.Sections), len(doc.Capabilities), len(doc.Constraints))
	if header.MaxSeverity(doc.Diags) >= header.SevError {
		return 1
	}
	return 0
}

func cmdCheck(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(errOut)
	docPath := fs.String("doc", "", "Document file declaring the constraints")
	outputPath := fs.String("output", "", "Candidate output fields as YAML")
	textPath := fs.String("text", "", "Optional candidate text for claim-marker counting")
	profilePath := fs.String("profile", "", "Alias profile YAML for compact-key expansion")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *docPath == "" || *outputPath == "" {
		fmt.Fprintln(errOut, "usage: wraithspec check --doc <file> --output <yaml> [--text <file>]")
		return 2
	}

	table, code := loadTable(*profilePath, errOut)
	if code != 0 {
		return code
	}
	docBytes, err := os.ReadFile(*docPath)
	if err != nil {
		fmt.Fprintf(errOut, "read doc: %v\n", err)
		return 1
	}
	doc, err := document.Parse(string(docBytes), aliasArg(table))
	if err != nil {
		fmt.Fprintf(errOut, "invalid doc: %v\n", err)
		return 1
	}

	outputBytes, err := os.ReadFile(*outputPath)
	if err != nil {
		fmt.Fprintf(errOut, "read output: %v\n", err)
		return 1
	}
	var fields map[string]any
	if err := yaml.Unmarshal(outputBytes, &fields); err != nil {
		fmt.Fprintf(errOut, "invalid output yaml: %v\n", err)
		return 1
	}

	candidate := compliance.Output{Fields: fields}
	if *textPath != "" {
		textBytes, rerr := os.ReadFile(*textPath)
		if rerr != nil {
			fmt.Fprintf(errOut, "read text: %v\n", rerr)
			return 1
		}
		candidate.Text = string(textBytes)
	}

	verdict := compliance.Check(doc.Constraints, candidate)
	fmt.Fprintf(out, "%s score=%d retry=%t\n", verdict.Level, verdict.Score, verdict.RetryEligible)
	for _, r := range verdict.Violations {
		fmt.Fprintf(out, "  %s %s: %s (+%d)\n", r.Kind, r.Path, r.Message, r.Weight)
	}
	fmt.Fprintln(errOut, verdict.Message)
	if verdict.Level != compliance.Compliant {
		return 1
	}
	return 0
}

func cmdSID(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("sid", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	id, err := uuid.NewV7()
	if err != nil {
		fmt.Fprintf(errOut, "sid: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, id.String())
	return 0
}
