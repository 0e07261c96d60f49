package header

import (
	"errors"
	"strings"
	"testing"
)

// stubTable is a fixed alias table covering the built-in mode and phase
// shorthands. The real table comes from the profile resolver; the codec
// only needs the lookup shape.
type stubTable struct{}

var expandMap = map[string]string{
	"mode/bs":  "brainstorm",
	"mode/d":   "design",
	"mode/bl":  "build",
	"mode/r":   "review",
	"mode/n":   "narrative",
	"phase/id": "ideation",
	"phase/tr": "tradeoff",
	"phase/cd": "coding",
	"phase/rt": "red-team",
	"phase/ex": "explain",
}

var compressMap = func() map[string]string {
	m := make(map[string]string, len(expandMap))
	for k, v := range expandMap {
		cat, alias, _ := strings.Cut(k, "/")
		m[cat+"/"+v] = alias
	}
	return m
}()

func (stubTable) Expand(category, alias string) (string, bool) {
	v, ok := expandMap[category+"/"+alias]
	return v, ok
}

func (stubTable) Compress(category, canonical string) (string, bool) {
	v, ok := compressMap[category+"/"+canonical]
	return v, ok
}

func mustDecode(t *testing.T, text string) *Header {
	t.Helper()
	h, err := Decode(text, stubTable{})
	if err != nil {
		t.Fatalf("Decode(%q): %v", text, err)
	}
	return h
}

func TestDecodeCompact(t *testing.T) {
	h := mustDecode(t, "SID=x7k2m9|MODE=d|PHASE=cd|AC=1f|RD=3|TALLY=v:3,u:1,s:0")

	if got := h.SID(); got != "x7k2m9" {
		t.Errorf("SID = %q, want x7k2m9", got)
	}
	if got := h.Mode(); got != ModeDesign {
		t.Errorf("Mode = %q, want design", got)
	}
	if got := h.Phase(); got != PhaseCoding {
		t.Errorf("Phase = %q, want coding", got)
	}
	if got := h.AC(); got != 51 {
		t.Errorf("AC = %d, want 51", got)
	}
	if got := h.RD(); got != 3 {
		t.Errorf("RD = %d, want 3", got)
	}
	tally, ok := h.Claims()
	if !ok || tally != (Tally{Validated: 3, Uncertain: 1, Superseded: 0}) {
		t.Errorf("Claims = %+v ok=%v, want {3 1 0}", tally, ok)
	}
	if MaxSeverity(h.Diags) > SevInfo {
		t.Errorf("unexpected diagnostics: %+v", h.Diags)
	}
}

func TestDecodeFull(t *testing.T) {
	h := mustDecode(t, "SENTINEL:7E99:(SID:x7k2m9|MODE:design|PHASE:coding|AC:1f|RD:3|CLAIMS:v=3;u=1;s=0)")

	if h.Version != "7E99" {
		t.Errorf("Version = %q, want 7E99", h.Version)
	}
	if got := h.SID(); got != "x7k2m9" {
		t.Errorf("SID = %q, want x7k2m9", got)
	}
	if got := h.AC(); got != 51 {
		t.Errorf("AC = %d, want 51", got)
	}
	tally, ok := h.Claims()
	if !ok || tally.Sum() != 4 {
		t.Errorf("Claims = %+v ok=%v, want sum 4", tally, ok)
	}
}

func TestDecodeAutoDetect(t *testing.T) {
	full := mustDecode(t, "SENTINEL:7E99:(SID:abc|MODE:build|PHASE:coding)")
	compact := mustDecode(t, "SID=abc|MODE=bl|PHASE=cd")
	if !full.Equal(compact) {
		t.Errorf("full and compact decodes differ:\n full:    %+v\n compact: %+v", full.Fields, compact.Fields)
	}
}

func TestDecodeMissingSID(t *testing.T) {
	_, err := Decode("MODE=d|PHASE=cd", stubTable{})
	if err == nil {
		t.Fatal("want error for missing SID")
	}
	if !IsKind(err, KindParse) {
		t.Errorf("IsKind(Parse) = false for %v", err)
	}
	if got := ErrRuleID(err); got != "VAP-FLD-001" {
		t.Errorf("RuleID = %q, want VAP-FLD-001", got)
	}
}

func TestDecodeInvalidSIDIsFatal(t *testing.T) {
	// An invalid SID value is dropped like any other invalid field, which
	// leaves the header without its one required field.
	_, err := Decode("SID=NOT VALID!|MODE=d", stubTable{})
	if err == nil {
		t.Fatal("want error for unusable SID")
	}
	if got := ErrRuleID(err); got != "VAP-FLD-001" {
		t.Errorf("RuleID = %q, want VAP-FLD-001", got)
	}
}

func TestDecodeDefaultsSubstituted(t *testing.T) {
	h := mustDecode(t, "SID=abc")
	if got := h.Mode(); got != ModeDesign {
		t.Errorf("default Mode = %q, want design", got)
	}
	if got := h.Phase(); got != PhaseIdeation {
		t.Errorf("default Phase = %q, want ideation", got)
	}
	errs := 0
	for _, d := range h.Diags {
		if d.Severity == SevError && d.RuleID == "VAP-FLD-005" {
			errs++
		}
	}
	if errs != 2 {
		t.Errorf("default-substitution diags = %d, want 2 (MODE and PHASE): %+v", errs, h.Diags)
	}
}

func TestDecodeInvalidFieldDropped(t *testing.T) {
	h := mustDecode(t, "SID=abc|RD=77|AC=zzzz")
	if h.Has(FieldRD) {
		t.Error("multi-digit RD should be dropped")
	}
	if h.Has(FieldAC) {
		t.Error("out-of-range AC should be dropped")
	}
	dropped := 0
	for _, d := range h.Diags {
		if d.RuleID == "VAP-FLD-004" {
			dropped++
		}
	}
	if dropped != 2 {
		t.Errorf("drop diags = %d, want 2: %+v", dropped, h.Diags)
	}
}

func TestDecodeMalformedRefDropped(t *testing.T) {
	// A reference that fails the id@version grammar drops like any other
	// invalid value; it never aborts the decode.
	h := mustDecode(t, "SID=abc|MODE=d|CRef=VA-P1@@2")
	if h.Has(FieldCRef) {
		t.Error("malformed CRef should be dropped")
	}
	if _, ok := h.Ref(); ok {
		t.Error("Ref() should report absence after the drop")
	}
	found := false
	for _, d := range h.Diags {
		if d.Severity == SevError && d.RuleID == "VAP-FLD-004" && d.Field == FieldCRef {
			found = true
		}
	}
	if !found {
		t.Errorf("missing drop diag for CRef: %+v", h.Diags)
	}
}

func TestDecodeDuplicateKeepsFirst(t *testing.T) {
	h := mustDecode(t, "SID=abc|MODE=d|MODE=bl")
	if got := h.Mode(); got != ModeDesign {
		t.Errorf("Mode = %q, want first occurrence design", got)
	}
	found := false
	for _, d := range h.Diags {
		if d.RuleID == "VAP-FLD-002" && d.Field == FieldMode {
			found = true
		}
	}
	if !found {
		t.Errorf("missing duplicate-field diag: %+v", h.Diags)
	}
}

func TestDecodeUnknownFieldPreserved(t *testing.T) {
	h := mustDecode(t, "SID=abc|XFOO=bar baz")
	v, ok := h.Fields["XFOO"]
	if !ok || v.Text != "bar baz" {
		t.Errorf("XFOO = %+v ok=%v, want preserved text", v, ok)
	}
}

func TestDecodeBareFlag(t *testing.T) {
	h := mustDecode(t, "SID=abc|DEBUG")
	v, ok := h.Fields["DEBUG"]
	if !ok || v.Text != "true" {
		t.Errorf("bare flag = %+v ok=%v, want text true", v, ok)
	}
}

func TestDecodeFullVersionPrefix(t *testing.T) {
	h := mustDecode(t, "SENTINEL:7E9A:(SID:abc)")
	if h.Version != "7E9A" {
		t.Errorf("Version = %q, want 7E9A", h.Version)
	}
	warned := false
	for _, d := range h.Diags {
		if d.Severity == SevWarning && d.RuleID == "VAP-STR-013" {
			warned = true
		}
	}
	if !warned {
		t.Errorf("missing unknown-version warning: %+v", h.Diags)
	}

	_, err := Decode("SENTINEL:7F99:(SID:abc)", stubTable{})
	if err == nil {
		t.Fatal("want error for incompatible version prefix")
	}
	if got := ErrRuleID(err); got != "VAP-STR-012" {
		t.Errorf("RuleID = %q, want VAP-STR-012", got)
	}
}

func TestDecodeRejectsMultiline(t *testing.T) {
	for _, text := range []string{
		"SID=abc|\nMODE=d",
		"SENTINEL:7E99:(SID:abc)\nSENTINEL:7E99:(SID:def)",
	} {
		_, err := Decode(text, stubTable{})
		if got := ErrRuleID(err); got != "VAP-STR-002" {
			t.Errorf("Decode(%q) RuleID = %q, want VAP-STR-002 (err=%v)", text, got, err)
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, text := range []string{"", "just some prose", "SENTINEL:7E99:missing parens"} {
		_, err := Decode(text, stubTable{})
		var e *Error
		if err == nil || !errors.As(err, &e) {
			t.Errorf("Decode(%q) = %v, want structured parse error", text, err)
		}
	}
}

func TestDecodeSIDUUID(t *testing.T) {
	h := mustDecode(t, "SID=01890a5d-ac96-774b-bcce-b302099a8057|MODE=d")
	if got := h.SID(); got != "01890a5d-ac96-774b-bcce-b302099a8057" {
		t.Errorf("SID = %q", got)
	}

	// v4 identifiers are not time-ordered and are rejected.
	_, err := Decode("SID=9b2e7a44-3f6e-4c27-9d1a-5f0e8c1b2a3d|MODE=d", stubTable{})
	if err == nil {
		t.Fatal("want error for non-v7 UUID SID")
	}
}

func TestDecodeNilAliasTable(t *testing.T) {
	// Canonical spellings decode without any table.
	h, err := Decode("SID=abc|MODE=review|PHASE=explain", nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if h.Mode() != ModeReview || h.Phase() != PhaseExplain {
		t.Errorf("Mode/Phase = %q/%q", h.Mode(), h.Phase())
	}

	// Aliases without a table are invalid values and fall back to defaults.
	h, err = Decode("SID=abc|MODE=r|PHASE=ex", nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if h.Mode() != ModeDesign || h.Phase() != PhaseIdeation {
		t.Errorf("Mode/Phase = %q/%q, want defaults", h.Mode(), h.Phase())
	}
}
