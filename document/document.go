// Package document parses the full text document format: optional YAML
// front-matter, exactly one header (compact or full form), heading-delimited
// sections, capability declarations, and constraint rules.
package document

import (
	"errors"
	"regexp"

	"github.com/dmaynor/WraithSpec/header"
)

var (
	// ErrMissingHeader is the one fatal parse condition besides an empty
	// input: a document without a recognizable header is rejected whole.
	ErrMissingHeader = errors.New("document: no header found")
	ErrEmptyDocument = errors.New("document: empty input")
)

// Document is the parsed tree. Sections, capabilities, and constraints are
// append-only during parse; malformed declarations are retained as degraded
// entries with an attached diagnostic instead of aborting the parse.
type Document struct {
	FrontMatter  map[string]string
	Header       *header.Header
	Sections     []Section
	Capabilities []Capability
	Constraints  []Constraint
	Diags        []header.Diag
}

// Section is one heading-delimited body region. Level is the heading depth
// (number of '#' characters); deeper headings nest under the preceding
// shallower one rather than flattening.
type Section struct {
	Title       string
	Level       int
	Body        []string
	Subsections []Section
}

// Capability is a declared capability line: `CAPABILITY: name(k=v, ...)`.
type Capability struct {
	Name     string
	Params   map[string]string
	Degraded bool
	Raw      string
}

// Kind is a constraint rule kind.
type Kind string

const (
	Required    Kind = "REQUIRED"
	Optional    Kind = "OPTIONAL"
	Forbidden   Kind = "FORBIDDEN"
	Conditional Kind = "CONDITIONAL"
	Format      Kind = "FORMAT"
	Range       Kind = "RANGE"
	Reference   Kind = "REFERENCE"
)

// Constraint is one declared rule: a kind, a dotted target path, and an
// optional kind-specific predicate. Degraded entries keep Raw and a
// diagnostic but fail every evaluation they would otherwise pass.
type Constraint struct {
	Kind      Kind
	Path      string
	Predicate string

	// CONDITIONAL: fails only if Antecedent holds and Consequent does not.
	Antecedent string
	Consequent string

	// RANGE bounds, set when HasBounds.
	Lo, Hi    float64
	HasBounds bool

	// FORMAT `matches <re>` predicate, compiled at parse time.
	Pattern *regexp.Regexp

	Degraded bool
	Raw      string
}

func (d *Document) addDiag(sev header.Severity, field, ruleID, msg string) {
	d.Diags = append(d.Diags, header.Diag{Severity: sev, Field: field, RuleID: ruleID, Message: msg})
}
