package document

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmaynor/WraithSpec/header"
)

var (
	sectionRe    = regexp.MustCompile(`^(#{2,3})\s+(.+)$`)
	capabilityRe = regexp.MustCompile(`^CAPABILITY:\s*(.+)$`)
	capBodyRe    = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_-]*)\s*(?:\((.*)\))?$`)
	constraintRe = regexp.MustCompile(`^(REQUIRED|OPTIONAL|FORBIDDEN|CONDITIONAL|FORMAT|RANGE|REFERENCE):\s*(.+)$`)
	pathRe       = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*(?:\.[A-Za-z0-9_-]+)*$`)
	rangeRe      = regexp.MustCompile(`^(-?\d+(?:\.\d+)?)\.\.(-?\d+(?:\.\d+)?)$`)
)

// Parse parses a complete document in four passes: front-matter, header,
// section segmentation, and declaration scan. Declarations are recognized
// line by line independent of heading structure.
//
// Failures are localized: a malformed capability or constraint becomes a
// degraded entry with an attached diagnostic. Only a missing header is
// fatal for the whole document.
func Parse(text string, aliases header.AliasTable) (*Document, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}
	doc := &Document{FrontMatter: map[string]string{}}
	lines := strings.Split(text, "\n")

	lines = doc.parseFrontMatter(lines)

	rest, err := doc.parseHeader(lines, aliases)
	if err != nil {
		return nil, err
	}

	doc.parseBody(rest)
	return doc, nil
}

// parseFrontMatter consumes a leading `---`-delimited YAML block, if
// present, and returns the remaining lines.
func (doc *Document) parseFrontMatter(lines []string) []string {
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	if start >= len(lines) || strings.TrimSpace(lines[start]) != "---" {
		return lines
	}
	for end := start + 1; end < len(lines); end++ {
		if strings.TrimSpace(lines[end]) != "---" {
			continue
		}
		block := strings.Join(lines[start+1:end], "\n")
		var raw map[string]any
		if err := yaml.Unmarshal([]byte(block), &raw); err != nil {
			doc.addDiag(header.SevError, "", "VAP-DOC-001", "malformed front-matter ignored: "+err.Error())
			return lines[end+1:]
		}
		for k, v := range raw {
			doc.FrontMatter[k] = fmt.Sprintf("%v", v)
		}
		return lines[end+1:]
	}
	// Opening delimiter with no close: not front-matter, reparse as body.
	return lines
}

// parseHeader finds the first recognizable header line, decodes it, and
// returns the remaining body lines. A document without one is rejected.
func (doc *Document) parseHeader(lines []string, aliases header.AliasTable) ([]string, error) {
	var firstErr error
	for i, line := range lines {
		s := strings.TrimSpace(line)
		if s == "" {
			continue
		}
		if !strings.HasPrefix(s, "SENTINEL:") && !(strings.Contains(s, "SID=") && strings.Contains(s, "|")) {
			continue
		}
		h, err := header.Decode(s, aliases)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		doc.Header = h
		doc.Diags = append(doc.Diags, h.Diags...)
		return append(append([]string(nil), lines[:i]...), lines[i+1:]...), nil
	}
	if firstErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingHeader, firstErr)
	}
	return nil, ErrMissingHeader
}

// parseBody runs section segmentation and the declaration scan in one line
// walk. Declarations are recognized wherever they appear; section state
// only decides which Body a plain line lands in.
func (doc *Document) parseBody(lines []string) {
	var topIdx = -1  // index into doc.Sections
	var subIdx = -1  // index into current top section's Subsections
	for _, line := range lines {
		s := strings.TrimSpace(line)
		if s == "" {
			continue
		}

		if m := sectionRe.FindStringSubmatch(s); m != nil {
			level := len(m[1])
			sec := Section{Title: strings.TrimSpace(m[2]), Level: level}
			if level == 2 || topIdx < 0 {
				doc.Sections = append(doc.Sections, sec)
				topIdx = len(doc.Sections) - 1
				subIdx = -1
			} else {
				top := &doc.Sections[topIdx]
				top.Subsections = append(top.Subsections, sec)
				subIdx = len(top.Subsections) - 1
			}
			continue
		}

		if m := capabilityRe.FindStringSubmatch(s); m != nil {
			doc.Capabilities = append(doc.Capabilities, doc.parseCapability(s, m[1]))
			continue
		}

		if m := constraintRe.FindStringSubmatch(s); m != nil {
			doc.Constraints = append(doc.Constraints, doc.parseConstraint(s, Kind(m[1]), m[2]))
			continue
		}

		if topIdx >= 0 {
			top := &doc.Sections[topIdx]
			if subIdx >= 0 {
				top.Subsections[subIdx].Body = append(top.Subsections[subIdx].Body, line)
			} else {
				top.Body = append(top.Body, line)
			}
		}
	}
}

func (doc *Document) parseCapability(raw, body string) Capability {
	m := capBodyRe.FindStringSubmatch(strings.TrimSpace(body))
	if m == nil {
		doc.addDiag(header.SevError, "", "VAP-DOC-010", "malformed capability declaration: "+raw)
		return Capability{Degraded: true, Raw: raw}
	}
	decl := Capability{Name: m[1], Params: map[string]string{}, Raw: raw}
	for _, pair := range strings.Split(m[2], ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		if k, v, ok := strings.Cut(pair, "="); ok {
			decl.Params[strings.TrimSpace(k)] = strings.TrimSpace(v)
		} else {
			decl.Params[pair] = "true"
		}
	}
	return decl
}

func (doc *Document) parseConstraint(raw string, kind Kind, expr string) Constraint {
	c := Constraint{Kind: kind, Raw: raw}
	expr = strings.TrimSpace(expr)

	degrade := func(msg string) Constraint {
		c.Degraded = true
		doc.addDiag(header.SevError, "", "VAP-DOC-011", msg+": "+raw)
		return c
	}

	if kind == Conditional {
		ant, cons, ok := strings.Cut(expr, "=>")
		if !ok {
			return degrade("CONDITIONAL requires antecedent => consequent")
		}
		c.Antecedent = strings.TrimSpace(ant)
		c.Consequent = strings.TrimSpace(cons)
		if !pathRe.MatchString(c.Antecedent) || !pathRe.MatchString(c.Consequent) {
			return degrade("CONDITIONAL paths are malformed")
		}
		c.Path = c.Antecedent
		return c
	}

	path, predicate, _ := strings.Cut(expr, " ")
	c.Path = strings.TrimSpace(path)
	c.Predicate = strings.TrimSpace(predicate)
	if !pathRe.MatchString(c.Path) {
		return degrade("malformed constraint path")
	}

	switch kind {
	case Range:
		m := rangeRe.FindStringSubmatch(c.Predicate)
		if m == nil {
			return degrade("RANGE requires a lo..hi predicate")
		}
		c.Lo, _ = strconv.ParseFloat(m[1], 64)
		c.Hi, _ = strconv.ParseFloat(m[2], 64)
		if c.Lo > c.Hi {
			return degrade("RANGE bounds are inverted")
		}
		c.HasBounds = true
	case Format:
		if c.Predicate != "" {
			pat, ok := strings.CutPrefix(c.Predicate, "matches ")
			if !ok {
				return degrade("FORMAT predicate must be `matches <re>`")
			}
			re, err := regexp.Compile(strings.TrimSpace(pat))
			if err != nil {
				return degrade("FORMAT pattern does not compile")
			}
			c.Pattern = re
		}
	}
	return c
}
