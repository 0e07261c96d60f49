package header

import "strings"

// renderCanonical renders a field value in full (canonical) form.
func renderCanonical(name string, v Value) string {
	switch v.Kind {
	case ValueBase36:
		return renderBase36(v.Num)
	case ValueDigit:
		return renderDigit(v.Num)
	case ValueRef:
		return v.Ref.String()
	case ValueTally:
		return renderTallyFull(v.Tally)
	case ValueEnum:
		return v.Text
	default:
		return escapeValue(v.Text)
	}
}

// String renders the value in its canonical full-form spelling.
func (v Value) String() string { return renderCanonical("", v) }

// Canonicalize renders the header's field mapping as canonical bytes:
// `NAME:value` pairs joined by `|`, recognized fields in canonical order
// followed by unrecognized fields sorted by name. The output carries no
// frame wrapper; it is the byte string that frame identifiers are derived
// from and signatures are computed over.
//
// Canonicalization is idempotent: decoding the output and canonicalizing
// again yields byte-identical output.
func Canonicalize(h *Header) ([]byte, error) {
	if h == nil || len(h.Fields) == 0 {
		return nil, newError(KindCanonical, "VAP-CAN-001", "cannot canonicalize an empty header")
	}
	if !h.Has(FieldSID) {
		return nil, newError(KindCanonical, "VAP-CAN-002", "cannot canonicalize a header without SID")
	}
	var parts []string
	for _, name := range FieldOrder {
		v, ok := h.Fields[name]
		if !ok {
			continue
		}
		parts = append(parts, name+":"+renderCanonical(name, v))
	}
	for _, name := range unknownNames(h.Fields) {
		parts = append(parts, name+":"+renderCanonical(name, h.Fields[name]))
	}
	return []byte(strings.Join(parts, "|")), nil
}

// CanonicalizeText parses a header in either wire form and returns its
// canonical bytes. Convenience for callers that hold wire text rather than
// a decoded Header.
func CanonicalizeText(text string, aliases AliasTable) ([]byte, []Diag, error) {
	h, err := Decode(text, aliases)
	if err != nil {
		return nil, nil, err
	}
	b, err := Canonicalize(h)
	if err != nil {
		return nil, h.Diags, err
	}
	return b, h.Diags, nil
}
