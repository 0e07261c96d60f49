package header

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ValueKind tags the variant stored in a Value.
type ValueKind int

const (
	ValueText ValueKind = iota
	ValueEnum
	ValueBase36
	ValueDigit
	ValueRef
	ValueTally
)

// Value is the tagged-variant payload of a header field.
//
// Exactly one of the payload members is meaningful for a given Kind:
// Text for ValueText/ValueEnum, Num for ValueBase36/ValueDigit,
// Ref for ValueRef, Tally for ValueTally.
type Value struct {
	Kind  ValueKind
	Text  string
	Num   int
	Ref   ProfileRef
	Tally Tally
}

// Tally counts validated, uncertain, and superseded claims.
//
// The sum is expected to equal the number of inline [v]/[u]/[s] markers in
// associated output text; a mismatch is a compliance finding, never a parse
// failure.
type Tally struct {
	Validated  int
	Uncertain  int
	Superseded int
}

func (t Tally) Sum() int { return t.Validated + t.Uncertain + t.Superseded }

// ProfileRef is a weak reference to an externally stored alias profile.
// The session never owns the resolved table itself.
type ProfileRef struct {
	ID      string
	Version string
}

func (r ProfileRef) String() string { return r.ID + "@" + r.Version }

var (
	base36Re   = regexp.MustCompile(`^[0-9a-z]+$`)
	refRe      = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_-]*)@(\d+(?:\.\d+)*(?:-[0-9A-Za-z.]+)?)$`)
	platformRe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

	tallyCompactRe = regexp.MustCompile(`^v:(\d+),u:(\d+),s:(\d+)$`)
	tallyFullRe    = regexp.MustCompile(`^v=(\d+);u=(\d+);s=(\d+)$`)
)

func textValue(s string) Value { return Value{Kind: ValueText, Text: s} }
func enumValue(s string) Value { return Value{Kind: ValueEnum, Text: s} }
func base36Value(n int) Value { return Value{Kind: ValueBase36, Num: n} }
func digitValue(n int) Value { return Value{Kind: ValueDigit, Num: n} }
func refValue(r ProfileRef) Value {
	return Value{Kind: ValueRef, Ref: r}
}
func tallyValue(t Tally) Value { return Value{Kind: ValueTally, Tally: t} }

func parseSID(raw string) (Value, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return Value{}, fmt.Errorf("empty SID")
	}
	if strings.Contains(s, "-") {
		id, err := uuid.Parse(s)
		if err != nil {
			return Value{}, fmt.Errorf("SID is neither base36 nor a UUID: %v", err)
		}
		if id.Version() != 7 {
			return Value{}, fmt.Errorf("SID UUID must be time-ordered (v7), got v%d", id.Version())
		}
		return textValue(s), nil
	}
	if !base36Re.MatchString(s) {
		return Value{}, fmt.Errorf("SID must be a base36 token or UUIDv7")
	}
	return textValue(s), nil
}

func parseEnum(allowed []string) func(string) (Value, error) {
	return func(raw string) (Value, error) {
		s := strings.ToLower(strings.TrimSpace(raw))
		for _, a := range allowed {
			if s == a {
				return enumValue(s), nil
			}
		}
		return Value{}, fmt.Errorf("%q is not one of %s", raw, strings.Join(allowed, "|"))
	}
}

// parseBase36 parses an activity counter: at most three base36 digits,
// range 0..46655. The counter wraps at 46656; the wrap itself is the state
// machine's business, the codec only bounds the encoded form.
func parseBase36(raw string) (Value, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if !base36Re.MatchString(s) {
		return Value{}, fmt.Errorf("%q is not base36", raw)
	}
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		return base36Value(0), nil
	}
	n, err := strconv.ParseInt(trimmed, 36, 32)
	if err != nil {
		return Value{}, fmt.Errorf("%q is not base36: %v", raw, err)
	}
	if n > ACMax {
		return Value{}, fmt.Errorf("counter %d exceeds max %d", n, ACMax)
	}
	return base36Value(int(n)), nil
}

// parseDigit parses a reasoning depth encoded as a single base36 digit.
// Depths above 9 are representable (a..z) but flag as out of the nominal
// range during RANGE validation, not here.
func parseDigit(raw string) (Value, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if len(s) != 1 || !base36Re.MatchString(s) {
		return Value{}, fmt.Errorf("%q is not a single base36 digit", raw)
	}
	n, _ := strconv.ParseInt(s, 36, 32)
	return digitValue(int(n)), nil
}

func parseRef(raw string) (Value, error) {
	s := strings.TrimSpace(raw)
	m := refRe.FindStringSubmatch(s)
	if m == nil {
		return Value{}, fmt.Errorf("%q is not a profile reference (id@version)", raw)
	}
	return refValue(ProfileRef{ID: m[1], Version: m[2]}), nil
}

func parsePlatform(raw string) (Value, error) {
	s := strings.TrimSpace(raw)
	if !platformRe.MatchString(s) {
		return Value{}, fmt.Errorf("%q is not a platform identifier", raw)
	}
	return textValue(s), nil
}

func parseTally(raw string) (Value, error) {
	s := strings.TrimSpace(raw)
	m := tallyCompactRe.FindStringSubmatch(s)
	if m == nil {
		m = tallyFullRe.FindStringSubmatch(s)
	}
	if m == nil {
		return Value{}, fmt.Errorf("%q is not a tally (v:<n>,u:<n>,s:<n> or v=<n>;u=<n>;s=<n>)", raw)
	}
	v, _ := strconv.Atoi(m[1])
	u, _ := strconv.Atoi(m[2])
	su, _ := strconv.Atoi(m[3])
	return tallyValue(Tally{Validated: v, Uncertain: u, Superseded: su}), nil
}

// ContextMaxLen bounds the free-text CONTEXT field.
const ContextMaxLen = 240

func parseContext(raw string) (Value, error) {
	s := normalizeText(raw, true)
	if len(s) > ContextMaxLen {
		return Value{}, fmt.Errorf("CONTEXT exceeds %d characters", ContextMaxLen)
	}
	return textValue(s), nil
}

func renderBase36(n int) string {
	if n <= 0 {
		return "0"
	}
	return strconv.FormatInt(int64(n), 36)
}

func renderDigit(n int) string {
	if n <= 0 {
		return "0"
	}
	if n > 35 {
		n = 35
	}
	return strconv.FormatInt(int64(n), 36)
}

func renderTallyFull(t Tally) string {
	return fmt.Sprintf("v=%d;u=%d;s=%d", t.Validated, t.Uncertain, t.Superseded)
}

func renderTallyCompact(t Tally) string {
	return fmt.Sprintf("v:%d,u:%d,s:%d", t.Validated, t.Uncertain, t.Superseded)
}
