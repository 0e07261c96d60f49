package header

import (
	"regexp"
	"strings"
)

var frameRe = regexp.MustCompile(`^SENTINEL:([0-9A-Za-z]+):\((.*)\)$`)

type rawPair struct {
	key string
	val string
}

// Decode detects the wire form of text and decodes it. A SENTINEL frame is
// decoded as full form; anything else is tried as compact form.
func Decode(text string, aliases AliasTable) (*Header, error) {
	if strings.HasPrefix(strings.TrimSpace(text), "SENTINEL:") {
		return DecodeFull(text, aliases)
	}
	return DecodeCompact(text, aliases)
}

// DecodeCompact decodes the compact pipe-delimited form
// (`SID=x7k2m9|MODE=d|...`). Aliased values are expanded through the
// supplied table; a nil table falls back to canonical spellings only.
func DecodeCompact(text string, aliases AliasTable) (*Header, error) {
	body := strings.TrimSpace(text)
	if err := checkSingleLine(body); err != nil {
		return nil, err
	}
	if !strings.ContainsAny(body, "=") {
		return nil, newError(KindParse, "VAP-STR-010", "unparseable header: no key=value pairs")
	}
	var pairs []rawPair
	for _, seg := range splitUnescaped(body, '|') {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		k, v, ok := cutUnescaped(seg, '=')
		if !ok {
			// Bare token: a flag that reads as "true".
			pairs = append(pairs, rawPair{key: strings.TrimSpace(seg), val: "true"})
			continue
		}
		pairs = append(pairs, rawPair{key: strings.TrimSpace(k), val: v})
	}
	h := &Header{Version: FrameVersion, Fields: make(map[string]Value)}
	assemble(h, pairs, aliases, true)
	return h, requireSID(h)
}

// DecodeFull decodes the full SENTINEL frame
// (`SENTINEL:7E99:(SID:x7k2m9|MODE:design|...)`). The frame version must
// share the compatibility prefix of FrameVersion; a same-prefix version
// other than FrameVersion decodes with a WARNING.
func DecodeFull(text string, aliases AliasTable) (*Header, error) {
	body := strings.TrimSpace(text)
	if err := checkSingleLine(body); err != nil {
		return nil, err
	}
	m := frameRe.FindStringSubmatch(body)
	if m == nil {
		return nil, newError(KindParse, "VAP-STR-011", "unparseable header: not a SENTINEL frame")
	}
	version, inner := m[1], m[2]
	if len(version) < versionPrefixLen || !strings.EqualFold(version[:versionPrefixLen], FrameVersion[:versionPrefixLen]) {
		return nil, newError(KindParse, "VAP-STR-012", "incompatible frame version "+version)
	}
	h := &Header{Version: strings.ToUpper(version), Fields: make(map[string]Value)}
	if h.Version != FrameVersion {
		h.addDiag(SevWarning, "", "VAP-STR-013", "unknown frame version "+h.Version+", decoding as "+FrameVersion)
	}
	var pairs []rawPair
	for _, seg := range splitUnescaped(inner, '|') {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		k, v, ok := cutUnescaped(seg, ':')
		if !ok {
			h.addDiag(SevError, strings.TrimSpace(seg), "VAP-STR-014", "malformed segment dropped: no separator")
			continue
		}
		pairs = append(pairs, rawPair{key: strings.TrimSpace(k), val: v})
	}
	assemble(h, pairs, aliases, false)
	return h, requireSID(h)
}

func checkSingleLine(body string) error {
	if strings.ContainsAny(body, "\n\r") {
		return newError(KindParse, "VAP-STR-002", "header must be a single line")
	}
	return nil
}

// assemble folds raw pairs into the header's typed field mapping, expanding
// aliases for compact input, dropping invalid values with an ERROR, and
// preserving unrecognized fields verbatim.
func assemble(h *Header, pairs []rawPair, aliases AliasTable, compact bool) {
	for _, p := range pairs {
		name := p.key
		if canon, ok := compactKeyIndex[p.key]; ok {
			name = canon
		}
		spec := fieldSpecs[name]
		if spec == nil {
			if h.Has(name) {
				h.addDiag(SevError, name, "VAP-FLD-002", "duplicate field, first occurrence kept")
				continue
			}
			h.Fields[name] = textValue(normalizeText(unescapeValue(p.val), false))
			h.addDiag(SevInfo, name, "VAP-FLD-003", "unrecognized field preserved")
			continue
		}
		if h.Has(name) {
			h.addDiag(SevError, name, "VAP-FLD-002", "duplicate field, first occurrence kept")
			continue
		}
		raw := unescapeValue(p.val)
		if compact && spec.Category != "" && aliases != nil {
			probe := strings.ToLower(strings.TrimSpace(raw))
			if canon, ok := aliases.Expand(spec.Category, probe); ok {
				raw = canon
			}
		}
		v, err := spec.Parse(raw)
		if err != nil {
			h.addDiag(SevError, name, "VAP-FLD-004", "invalid value dropped: "+err.Error())
			continue
		}
		h.Fields[name] = v
	}
	substituteDefaults(h)
}

// substituteDefaults fills MODE and PHASE from their declared defaults when
// absent, recording an ERROR for each substitution. SID has no default; its
// absence is fatal and handled by requireSID.
func substituteDefaults(h *Header) {
	for _, name := range FieldOrder {
		spec := fieldSpecs[name]
		if spec.Default == "" || h.Has(name) {
			continue
		}
		v, err := spec.Parse(spec.Default)
		if err != nil {
			continue
		}
		h.Fields[name] = v
		h.addDiag(SevError, name, "VAP-FLD-005", "missing field, default "+spec.Default+" substituted")
	}
}

func requireSID(h *Header) error {
	if h.Has(FieldSID) {
		return nil
	}
	return newError(KindParse, "VAP-FLD-001", "missing required field SID")
}
