package profile

import (
	"strings"

	"github.com/dmaynor/WraithSpec/header"
)

// Table is a resolved alias table: expansion for decoding and shortest-alias
// compression for encoding. It satisfies header.AliasTable.
type Table struct {
	profile  *Profile
	expand   map[string]string
	compress map[string]string
}

var _ header.AliasTable = (*Table)(nil)

// NewTable builds the lookup maps for a validated profile. When several
// aliases map to one canonical value, compression picks the shortest, ties
// broken lexicographically, so compression is deterministic.
func NewTable(p *Profile) *Table {
	t := &Table{
		profile:  p,
		expand:   make(map[string]string),
		compress: make(map[string]string),
	}
	for cat, dict := range p.Aliases {
		for alias, canonical := range dict {
			t.expand[cat+"/"+alias] = canonical
			ck := cat + "/" + strings.ToLower(canonical)
			if prev, ok := t.compress[ck]; !ok || shorter(alias, prev) {
				t.compress[ck] = alias
			}
		}
	}
	return t
}

func shorter(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// Canonical returns the identity table used as the total-failure fallback:
// no aliases, canonical spellings only.
func Canonical() *Table {
	return &Table{expand: map[string]string{}, compress: map[string]string{}}
}

// Profile returns the source profile, or nil for the canonical table.
func (t *Table) Profile() *Profile { return t.profile }

func (t *Table) Expand(category, alias string) (string, bool) {
	v, ok := t.expand[category+"/"+strings.ToLower(alias)]
	return v, ok
}

func (t *Table) Compress(category, canonical string) (string, bool) {
	v, ok := t.compress[category+"/"+strings.ToLower(canonical)]
	return v, ok
}
