package header

import "strings"

// Form selects a wire form for encoding.
type Form int

const (
	FormCompact Form = iota
	FormFull
)

func (f Form) String() string {
	if f == FormFull {
		return "full"
	}
	return "compact"
}

// Encode renders the header in the requested wire form. All fields present
// in the mapping are emitted; dropping May-level fields on a downgrade is
// Downgrade's business, not Encode's. A nil alias table encodes compact form
// with canonical value spellings.
func Encode(h *Header, form Form, aliases AliasTable) (string, error) {
	if h == nil || len(h.Fields) == 0 {
		return "", newError(KindRender, "VAP-ENC-001", "cannot encode an empty header")
	}
	if !h.Has(FieldSID) {
		return "", newError(KindRender, "VAP-ENC-002", "cannot encode a header without SID")
	}
	if form == FormFull {
		b, err := Canonicalize(h)
		if err != nil {
			return "", err
		}
		version := h.Version
		if version == "" {
			version = FrameVersion
		}
		return "SENTINEL:" + version + ":(" + string(b) + ")", nil
	}
	var parts []string
	for _, name := range FieldOrder {
		v, ok := h.Fields[name]
		if !ok {
			continue
		}
		parts = append(parts, fieldSpecs[name].CompactKey+"="+renderCompact(name, v, aliases))
	}
	for _, name := range unknownNames(h.Fields) {
		parts = append(parts, name+"="+escapeValue(h.Fields[name].Text))
	}
	return strings.Join(parts, "|"), nil
}

// renderCompact renders a field value in compact form, compressing aliased
// categories through the table when it offers a shorter spelling.
func renderCompact(name string, v Value, aliases AliasTable) string {
	switch v.Kind {
	case ValueTally:
		return renderTallyCompact(v.Tally)
	case ValueEnum:
		spec := fieldSpecs[name]
		if spec != nil && spec.Category != "" && aliases != nil {
			if alias, ok := aliases.Compress(spec.Category, v.Text); ok {
				return alias
			}
		}
		return v.Text
	default:
		return renderCanonical(name, v)
	}
}

// Downgrade returns a copy of the header suitable for compact transport:
// every Must and Should field is retained, May-level fields are dropped.
// Unrecognized fields are retained; the codec cannot judge their weight.
func Downgrade(h *Header) *Header {
	out := h.Clone()
	for name, spec := range fieldSpecs {
		if spec.Level == May {
			delete(out.Fields, name)
		}
	}
	return out
}
