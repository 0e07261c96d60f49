// Package header implements the WraithSpec VAP session header codec:
// canonicalization, escaping, and alias compression/expansion between the
// compact pipe-delimited form and the full SENTINEL frame.
package header

// FrameVersion is the full-frame version this codec emits.
//
// A decoder accepting the 3-character prefix of this version accepts headers
// from any version sharing that prefix; unknown same-prefix versions decode
// with a WARNING rather than a rejection.
const FrameVersion = "7E99"

// versionPrefixLen is the number of leading version characters that define
// wire compatibility.
const versionPrefixLen = 3

// Header is an ordered mapping of field name to typed value.
//
// The mapping is the identity: canonical encoding is a pure function of
// Fields, so two Headers with identical mappings canonicalize to
// byte-identical output regardless of the order fields were decoded in.
// Unrecognized fields are preserved verbatim as text values.
type Header struct {
	// Version is the frame version decoded from a full frame, or
	// FrameVersion for compact input and programmatic construction.
	Version string

	Fields map[string]Value

	// Diags carries the recoverable findings (INFO/WARNING/ERROR)
	// accumulated while decoding. FATAL conditions surface as errors
	// instead and never produce a Header.
	Diags []Diag
}

// AliasTable expands compact aliases to canonical tokens and, for encoding,
// compresses canonical tokens back to their shortest alias. Tables are owned
// by the profile resolver; the codec only consumes the lookup capability.
type AliasTable interface {
	Expand(category, alias string) (canonical string, ok bool)
	Compress(category, canonical string) (alias string, ok bool)
}

// New returns an empty Header at the current frame version.
func New() *Header {
	return &Header{Version: FrameVersion, Fields: make(map[string]Value)}
}

// Set parses raw through the field's declared grammar and stores the result.
// Unrecognized names are preserved as normalized text.
func (h *Header) Set(name, raw string) error {
	if h.Fields == nil {
		h.Fields = make(map[string]Value)
	}
	spec := fieldSpecs[name]
	if spec == nil {
		h.Fields[name] = textValue(normalizeText(raw, false))
		return nil
	}
	v, err := spec.Parse(raw)
	if err != nil {
		return wrapError(KindParse, "VAP-FLD-100", "invalid value for "+name, err)
	}
	h.Fields[name] = v
	return nil
}

// Has reports whether the field is present.
func (h *Header) Has(name string) bool {
	_, ok := h.Fields[name]
	return ok
}

// SID returns the session identifier, or "" when absent.
func (h *Header) SID() string {
	if v, ok := h.Fields[FieldSID]; ok {
		return v.Text
	}
	return ""
}

func (h *Header) Mode() Mode {
	if v, ok := h.Fields[FieldMode]; ok {
		return Mode(v.Text)
	}
	return ""
}

func (h *Header) Phase() Phase {
	if v, ok := h.Fields[FieldPhase]; ok {
		return Phase(v.Text)
	}
	return ""
}

// AC returns the activity counter, or 0 when absent.
func (h *Header) AC() int {
	if v, ok := h.Fields[FieldAC]; ok {
		return v.Num
	}
	return 0
}

// RD returns the reasoning depth, or 0 when absent.
func (h *Header) RD() int {
	if v, ok := h.Fields[FieldRD]; ok {
		return v.Num
	}
	return 0
}

// Ref returns the alias profile reference, if present.
func (h *Header) Ref() (ProfileRef, bool) {
	if v, ok := h.Fields[FieldCRef]; ok {
		return v.Ref, true
	}
	return ProfileRef{}, false
}

// Reset returns the active reset policy, defaulting to soft when absent.
func (h *Header) Reset() ResetPolicy {
	if v, ok := h.Fields[FieldRSET]; ok {
		return ResetPolicy(v.Text)
	}
	return ResetSoft
}

// Claims returns the claim tally, if present.
func (h *Header) Claims() (Tally, bool) {
	if v, ok := h.Fields[FieldClaims]; ok {
		return v.Tally, true
	}
	return Tally{}, false
}

// Context returns the free-text CONTEXT value, or "" when absent.
func (h *Header) Context() string {
	if v, ok := h.Fields[FieldContext]; ok {
		return v.Text
	}
	return ""
}

// Clone returns a deep copy. Diags are not carried over: a clone starts a
// fresh diagnostic record.
func (h *Header) Clone() *Header {
	out := &Header{Version: h.Version, Fields: make(map[string]Value, len(h.Fields))}
	for k, v := range h.Fields {
		out.Fields[k] = v
	}
	return out
}

// Equal reports whether two headers carry identical canonical field
// mappings. Diags and frame version are excluded: equivalence is defined
// over the mapping, the same way the round-trip property is.
func (h *Header) Equal(other *Header) bool {
	if h == nil || other == nil {
		return h == other
	}
	if len(h.Fields) != len(other.Fields) {
		return false
	}
	for k, v := range h.Fields {
		ov, ok := other.Fields[k]
		if !ok || !valueEqual(v, ov) {
			return false
		}
	}
	return true
}

func valueEqual(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ValueBase36, ValueDigit:
		return a.Num == b.Num
	case ValueRef:
		return a.Ref == b.Ref
	case ValueTally:
		return a.Tally == b.Tally
	default:
		return a.Text == b.Text
	}
}

func (h *Header) addDiag(sev Severity, field, ruleID, msg string) {
	h.Diags = append(h.Diags, Diag{Severity: sev, Field: field, RuleID: ruleID, Message: msg})
}
