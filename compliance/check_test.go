package compliance

import (
	"context"
	"strings"
	"testing"

	"github.com/dmaynor/WraithSpec/document"
	"github.com/dmaynor/WraithSpec/header"
	"github.com/dmaynor/WraithSpec/profile"
)

func rule(kind document.Kind, path string) document.Constraint {
	return document.Constraint{Kind: kind, Path: path}
}

func fields(m map[string]any) map[string]any {
	return map[string]any{"header": m}
}

func TestCheckCompliant(t *testing.T) {
	rules := []document.Constraint{
		rule(document.Required, "header.SID"),
		rule(document.Forbidden, "output.secrets"),
	}
	out := Output{Fields: fields(map[string]any{"SID": "x7k2m9"})}
	v := Check(rules, out)
	if v.Level != Compliant || v.Score != 0 || v.RetryEligible {
		t.Errorf("verdict = %+v", v)
	}
}

func TestCheckOptionalMissingIsPartial(t *testing.T) {
	rules := []document.Constraint{
		rule(document.Required, "header.SID"),
		rule(document.Optional, "header.CONTEXT"),
	}
	out := Output{Fields: fields(map[string]any{"SID": "x7k2m9"})}
	v := Check(rules, out)
	if v.Level != Partial || v.Score != 10 {
		t.Errorf("verdict = %+v, want PARTIAL score 10", v)
	}
	if !v.RetryEligible {
		t.Error("PARTIAL must be retry eligible")
	}
}

func TestCheckRequiredMissingIsNonCompliant(t *testing.T) {
	v := Check([]document.Constraint{rule(document.Required, "header.SID")}, Output{})
	if v.Level != NonCompliant || v.Score != 50 || !v.RetryEligible {
		t.Errorf("verdict = %+v, want NON_COMPLIANT score 50", v)
	}
}

func TestCheckForbiddenIsViolation(t *testing.T) {
	rules := []document.Constraint{rule(document.Forbidden, "output.secrets")}
	out := Output{Fields: map[string]any{
		"output": map[string]any{"secrets": "hunter2"},
	}}
	v := Check(rules, out)
	if v.Level != Violation || v.Score != 100 {
		t.Errorf("verdict = %+v, want VIOLATION score 100", v)
	}
	if v.RetryEligible {
		t.Error("VIOLATION must not be retry eligible")
	}
	if !strings.Contains(v.Message, "FORBIDDEN output.secrets") {
		t.Errorf("message %q must name the triggering rule", v.Message)
	}
}

func TestCheckConditional(t *testing.T) {
	cond := document.Constraint{
		Kind:       document.Conditional,
		Path:       "output.schema",
		Antecedent: "output.schema",
		Consequent: "output.schema_version",
	}

	out := Output{Fields: map[string]any{"output": map[string]any{"schema": "v2"}}}
	if v := Check([]document.Constraint{cond}, out); v.Score != 25 {
		t.Errorf("antecedent without consequent: %+v", v)
	}

	out.Fields["output"].(map[string]any)["schema_version"] = 2
	if v := Check([]document.Constraint{cond}, out); v.Score != 0 {
		t.Errorf("both present: %+v", v)
	}

	// Vacuously true when the antecedent is absent.
	if v := Check([]document.Constraint{cond}, Output{}); v.Score != 0 {
		t.Errorf("antecedent absent: %+v", v)
	}
}

func TestCheckRangeHeaderBounds(t *testing.T) {
	// No explicit bounds: header.RD falls back to the field's own 0..9.
	r := rule(document.Range, "header.RD")
	if v := Check([]document.Constraint{r}, Output{Fields: fields(map[string]any{"RD": 12})}); v.Score != 20 {
		t.Errorf("RD=12: %+v", v)
	}
	if v := Check([]document.Constraint{r}, Output{Fields: fields(map[string]any{"RD": 3})}); v.Score != 0 {
		t.Errorf("RD=3: %+v", v)
	}

	explicit := document.Constraint{Kind: document.Range, Path: "output.temp", Lo: 0, Hi: 1, HasBounds: true}
	out := Output{Fields: map[string]any{"output": map[string]any{"temp": "1.5"}}}
	if v := Check([]document.Constraint{explicit}, out); v.Score != 20 {
		t.Errorf("temp=1.5: %+v", v)
	}
}

func TestCheckFormatHeaderGrammar(t *testing.T) {
	// No pattern: header.AC validates against its own base36 grammar.
	f := rule(document.Format, "header.AC")
	if v := Check([]document.Constraint{f}, Output{Fields: fields(map[string]any{"AC": "zz!"})}); v.Score != 15 {
		t.Errorf("bad AC: %+v", v)
	}
	if v := Check([]document.Constraint{f}, Output{Fields: fields(map[string]any{"AC": "1f"})}); v.Score != 0 {
		t.Errorf("good AC: %+v", v)
	}
}

func TestCheckReferenceGrammarOnly(t *testing.T) {
	r := rule(document.Reference, "header.CRef")
	if v := Check([]document.Constraint{r}, Output{Fields: fields(map[string]any{"CRef": "wraith-core@2.1.0"})}); v.Score != 0 {
		t.Errorf("valid ref: %+v", v)
	}
	if v := Check([]document.Constraint{r}, Output{Fields: fields(map[string]any{"CRef": "not a ref"})}); v.Score != 30 {
		t.Errorf("invalid ref: %+v", v)
	}
	if v := Check([]document.Constraint{r}, Output{}); v.Score != 30 {
		t.Errorf("missing ref: %+v", v)
	}
}

type tableResolver struct{ known map[string]*profile.Table }

func (f *tableResolver) Resolve(_ context.Context, ref header.ProfileRef) (*profile.Table, []header.Diag, error) {
	if t, ok := f.known[ref.String()]; ok {
		return t, nil, nil
	}
	return profile.Canonical(), nil, nil
}

func TestCheckReferenceResolved(t *testing.T) {
	c := Checker{Resolver: &tableResolver{known: map[string]*profile.Table{
		"wraith-core@2.1.0": profile.NewTable(&profile.Profile{ID: "wraith-core", Version: "2.1.0"}),
	}}}
	r := []document.Constraint{rule(document.Reference, "header.CRef")}

	v := c.Check(context.Background(), r, Output{Fields: fields(map[string]any{"CRef": "wraith-core@2.1.0"})})
	if v.Score != 0 {
		t.Errorf("known ref: %+v", v)
	}
	// Grammar-valid but unknown: the canonical fallback is not a resolution.
	v = c.Check(context.Background(), r, Output{Fields: fields(map[string]any{"CRef": "ghost@1.0.0"})})
	if v.Score != 30 {
		t.Errorf("unknown ref: %+v", v)
	}
}

func TestCheckDegradedRuleFails(t *testing.T) {
	degraded := document.Constraint{Kind: document.Conditional, Path: "output.schema", Degraded: true, Raw: "CONDITIONAL: output.schema"}
	out := Output{Fields: map[string]any{"output": map[string]any{"schema": "v2", "schema_version": 2}}}
	if v := Check([]document.Constraint{degraded}, out); v.Score != 25 {
		t.Errorf("degraded rule must count against its kind: %+v", v)
	}
}

func TestCheckPathCaseInsensitive(t *testing.T) {
	r := rule(document.Required, "header.sid")
	out := Output{Fields: fields(map[string]any{"SID": "x7k2m9"})}
	if v := Check([]document.Constraint{r}, out); v.Score != 0 {
		t.Errorf("case-insensitive fallback: %+v", v)
	}
}

func TestCountMarkers(t *testing.T) {
	text := "Claim one [v✅] and two [V] but [u ⚠️] this, [s❌] that. Not [x] or [vv]."
	got := CountMarkers(text)
	want := header.Tally{Validated: 2, Uncertain: 1, Superseded: 1}
	if got != want {
		t.Errorf("CountMarkers = %+v, want %+v", got, want)
	}
}

func TestTallyIntegrityForcesPartial(t *testing.T) {
	out := Output{
		Fields: fields(map[string]any{"CLAIMS": "v=5;u=2;s=1"}),
		Text:   "[v] [v] [v] [v] [u] [u] [s]",
	}
	v := Check(nil, out)
	if v.Level != Partial {
		t.Errorf("verdict = %+v, want PARTIAL on marker shortfall", v)
	}
	if len(v.Violations) != 1 || v.Violations[0].Path != "output.tally" {
		t.Errorf("violations = %+v", v.Violations)
	}

	// Matching counts stay clean.
	out.Fields = fields(map[string]any{"CLAIMS": "v:4,u:2,s:1"})
	if v := Check(nil, out); v.Level != Compliant {
		t.Errorf("verdict = %+v, want COMPLIANT on matching tally", v)
	}
}

func TestTallyIntegrityAcceptsStructuredTally(t *testing.T) {
	out := Output{
		Fields: fields(map[string]any{"CLAIMS": header.Tally{Validated: 1}}),
		Text:   "[v]",
	}
	if v := Check(nil, out); v.Level != Compliant {
		t.Errorf("verdict = %+v", v)
	}
}

func TestLevelBoundaries(t *testing.T) {
	cases := []struct {
		score int
		want  Level
	}{
		{0, Compliant}, {1, Partial}, {49, Partial},
		{50, NonCompliant}, {99, NonCompliant}, {100, Violation},
	}
	for _, c := range cases {
		if got := levelFor(c.score); got != c.want {
			t.Errorf("levelFor(%d) = %v, want %v", c.score, got, c.want)
		}
	}
}
