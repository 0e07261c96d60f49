package compliance

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmaynor/WraithSpec/document"
	"github.com/dmaynor/WraithSpec/header"
	"github.com/dmaynor/WraithSpec/profile"
	"github.com/dmaynor/WraithSpec/vault"
)

// Output is the candidate under evaluation: a structured field map for path
// lookups plus the raw text for inline claim-marker counting.
type Output struct {
	Fields map[string]any
	Text   string
}

// RefResolver resolves REFERENCE constraint targets. *profile.Resolver
// satisfies it.
type RefResolver interface {
	Resolve(ctx context.Context, ref header.ProfileRef) (*profile.Table, []header.Diag, error)
}

var _ RefResolver = (*profile.Resolver)(nil)

// Checker evaluates constraint rules against outputs. The zero value checks
// REFERENCE rules by grammar only; set Resolver to resolve them for real.
type Checker struct {
	Resolver RefResolver
}

// Check evaluates every rule independently and aggregates the triggered
// weights into a verdict. A degraded rule counts against its own kind's
// weight: a declaration the author got wrong cannot vouch for the output.
func (c *Checker) Check(ctx context.Context, rules []document.Constraint, out Output) Verdict {
	var records []Record
	for _, rule := range rules {
		if rec, ok := c.eval(ctx, rule, out); !ok {
			records = append(records, rec)
		}
	}

	integrity := checkTallyIntegrity(out)
	records = append(records, integrity...)

	return buildVerdict(records, len(integrity) > 0)
}

// Check is the package-level convenience for resolver-less evaluation.
func Check(rules []document.Constraint, out Output) Verdict {
	var c Checker
	return c.Check(context.Background(), rules, out)
}

func (c *Checker) eval(ctx context.Context, rule document.Constraint, out Output) (Record, bool) {
	fail := func(format string, args ...any) (Record, bool) {
		return Record{
			Kind:    rule.Kind,
			Path:    rule.Path,
			Message: fmt.Sprintf(format, args...),
			Weight:  Weight(rule.Kind),
		}, false
	}

	if rule.Degraded {
		return fail("declaration could not be parsed: %s", rule.Raw)
	}

	val, present := lookupPath(out.Fields, rule.Path)

	switch rule.Kind {
	case document.Required:
		if !present {
			return fail("required field missing")
		}
	case document.Optional:
		if !present {
			return fail("optional field missing")
		}
	case document.Forbidden:
		if present {
			return fail("forbidden field present")
		}
	case document.Conditional:
		_, ant := lookupPath(out.Fields, rule.Antecedent)
		_, cons := lookupPath(out.Fields, rule.Consequent)
		if ant && !cons {
			return fail("%s present without %s", rule.Antecedent, rule.Consequent)
		}
	case document.Format:
		if present {
			if msg, ok := checkFormat(rule, val); !ok {
				return fail("%s", msg)
			}
		}
	case document.Range:
		if present {
			if msg, ok := checkRange(rule, val); !ok {
				return fail("%s", msg)
			}
		}
	case document.Reference:
		if msg, ok := c.checkReference(ctx, val, present); !ok {
			return fail("%s", msg)
		}
	}
	return Record{}, true
}

// lookupPath walks a dotted path through nested maps. Each segment tries an
// exact key first, then a case-insensitive match, so "header.sid" finds
// {"header": {"SID": ...}}.
func lookupPath(fields map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	var cur any = fields
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := m[part]
		if !ok {
			for k, mv := range m {
				if strings.EqualFold(k, part) {
					v, ok = mv, true
					break
				}
			}
		}
		if !ok {
			return nil, false
		}
		cur = v
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// headerField returns the field descriptor when path targets a recognized
// header field, e.g. "header.RD".
func headerField(path string) *header.FieldSpec {
	rest, ok := strings.CutPrefix(path, "header.")
	if !ok {
		return nil
	}
	if spec := header.Spec(rest); spec != nil {
		return spec
	}
	// Field names are canonically cased (CRef among the uppercase ones);
	// paths match case-insensitively like the rest of the lookup.
	for _, name := range header.RecognizedFields() {
		if strings.EqualFold(name, rest) {
			return header.Spec(name)
		}
	}
	return nil
}

func checkFormat(rule document.Constraint, val any) (string, bool) {
	s := stringify(val)
	if rule.Pattern != nil {
		if !rule.Pattern.MatchString(s) {
			return fmt.Sprintf("value %q does not match %s", s, rule.Pattern), false
		}
		return "", true
	}
	// Without an explicit pattern, header fields fall back to their own
	// value grammar; anything else has no format to check against.
	if spec := headerField(rule.Path); spec != nil {
		if _, err := spec.Parse(s); err != nil {
			return fmt.Sprintf("value %q is not a valid %s", s, spec.Name), false
		}
	}
	return "", true
}

func checkRange(rule document.Constraint, val any) (string, bool) {
	n, ok := numeric(val)
	if !ok {
		return fmt.Sprintf("value %v is not numeric", val), false
	}
	lo, hi := rule.Lo, rule.Hi
	if !rule.HasBounds {
		spec := headerField(rule.Path)
		if spec == nil || (spec.RangeLo == 0 && spec.RangeHi == 0) {
			return "", true
		}
		lo, hi = float64(spec.RangeLo), float64(spec.RangeHi)
	}
	if n < lo || n > hi {
		return fmt.Sprintf("value %g outside [%g, %g]", n, lo, hi), false
	}
	return "", true
}

func (c *Checker) checkReference(ctx context.Context, val any, present bool) (string, bool) {
	if !present {
		return "reference field missing", false
	}
	s := stringify(val)
	id, version, ok := strings.Cut(s, "@")
	if !ok || !vault.ValidRef(id, version) {
		return fmt.Sprintf("value %q is not a profile reference", s), false
	}
	if c.Resolver == nil {
		return "", true
	}
	table, _, err := c.Resolver.Resolve(ctx, header.ProfileRef{ID: id, Version: version})
	if err != nil {
		return fmt.Sprintf("reference %q: %v", s, err), false
	}
	// The resolver degrades to the canonical table on lookup failure; for a
	// REFERENCE rule that fallback means the target does not exist.
	if table.Profile() == nil {
		return fmt.Sprintf("reference %q does not resolve", s), false
	}
	return "", true
}

func stringify(val any) string {
	if s, ok := val.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", val)
}

func numeric(val any) (float64, bool) {
	switch v := val.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return n, err == nil
	default:
		return 0, false
	}
}
