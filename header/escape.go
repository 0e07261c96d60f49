package header

import "strings"

// reserved lists the seven characters that must be backslash-escaped inside
// free-text values. Structured values (tally, profile reference) render
// through their own grammar and never contain a raw separator.
const reserved = `|;,+=:\`

func isReserved(c byte) bool {
	return strings.IndexByte(reserved, c) >= 0
}

// escapeValue backslash-escapes every reserved character in a value.
func escapeValue(s string) string {
	if !strings.ContainsAny(s, reserved) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i := 0; i < len(s); i++ {
		if isReserved(s[i]) {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// unescapeValue reverses escapeValue. A trailing lone backslash is kept
// verbatim rather than rejected; the grammar of the enclosing field decides
// whether the result is acceptable.
func unescapeValue(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	escaped := false
	for i := 0; i < len(s); i++ {
		if escaped {
			b.WriteByte(s[i])
			escaped = false
			continue
		}
		if s[i] == '\\' {
			escaped = true
			continue
		}
		b.WriteByte(s[i])
	}
	if escaped {
		b.WriteByte('\\')
	}
	return b.String()
}

// splitUnescaped splits s on every unescaped occurrence of sep.
// Escape sequences are preserved in the returned segments.
func splitUnescaped(s string, sep byte) []string {
	var out []string
	var cur strings.Builder
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			cur.WriteByte(c)
			escaped = false
			continue
		}
		if c == '\\' {
			cur.WriteByte(c)
			escaped = true
			continue
		}
		if c == sep {
			out = append(out, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteByte(c)
	}
	out = append(out, cur.String())
	return out
}

// cutUnescaped splits s at the first unescaped occurrence of sep.
func cutUnescaped(s string, sep byte) (string, string, bool) {
	escaped := false
	for i := 0; i < len(s); i++ {
		if escaped {
			escaped = false
			continue
		}
		if s[i] == '\\' {
			escaped = true
			continue
		}
		if s[i] == sep {
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

// normalizeText applies the single-line transport rules to a free-text
// value: newlines are stripped, leading/trailing whitespace trimmed, and
// internal whitespace runs collapsed to one space unless preserveInner is
// set (CONTEXT keeps its internal spacing).
func normalizeText(s string, preserveInner bool) string {
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, s)
	s = strings.Trim(s, " \t")
	if preserveInner {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	inRun := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' || c == '\t' {
			if !inRun {
				b.WriteByte(' ')
				inRun = true
			}
			continue
		}
		inRun = false
		b.WriteByte(c)
	}
	return b.String()
}
