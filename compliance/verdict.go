// Package compliance scores candidate outputs against declared constraint
// rules and produces a verdict: level, numeric score, and the violation
// records that triggered it.
package compliance

import (
	"fmt"

	"github.com/dmaynor/WraithSpec/document"
)

// Level classifies a verdict, ordered from clean to hard violation.
type Level int

const (
	Compliant Level = iota
	Partial
	NonCompliant
	Violation
)

func (l Level) String() string {
	switch l {
	case Compliant:
		return "COMPLIANT"
	case Partial:
		return "PARTIAL"
	case NonCompliant:
		return "NON_COMPLIANT"
	case Violation:
		return "VIOLATION"
	default:
		return "UNKNOWN"
	}
}

// weights is the fixed severity weight per constraint kind.
var weights = map[document.Kind]int{
	document.Required:    50,
	document.Optional:    10,
	document.Forbidden:   100,
	document.Conditional: 25,
	document.Format:      15,
	document.Range:       20,
	document.Reference:   30,
}

// Weight returns the fixed severity weight for a constraint kind.
func Weight(kind document.Kind) int { return weights[kind] }

// Record is one triggered violation.
type Record struct {
	Kind    document.Kind
	Path    string
	Message string
	Weight  int
}

// Verdict is a value object computed fresh per Check call.
//
// RetryEligible is false for both ends of the scale: COMPLIANT has nothing
// to retry, and VIOLATION requires manual intervention rather than an
// automatic retry.
type Verdict struct {
	Level         Level
	Score         int
	Violations    []Record
	RetryEligible bool
	Message       string
}

// levelFor maps a score to its level: 0, 1-49, 50-99, >=100.
func levelFor(score int) Level {
	switch {
	case score == 0:
		return Compliant
	case score < 50:
		return Partial
	case score < 100:
		return NonCompliant
	default:
		return Violation
	}
}

func buildVerdict(records []Record, forcePartial bool) Verdict {
	score := 0
	for _, r := range records {
		score += r.Weight
	}
	level := levelFor(score)
	if forcePartial && level == Compliant {
		level = Partial
	}

	v := Verdict{
		Level:         level,
		Score:         score,
		Violations:    records,
		RetryEligible: level == Partial || level == NonCompliant,
	}
	switch level {
	case Compliant:
		v.Message = "output fully complies with the declared constraints"
	case Partial:
		v.Message = fmt.Sprintf("output partially compliant, %d minor violation(s)", len(records))
	case NonCompliant:
		v.Message = fmt.Sprintf("output non-compliant, %d violation(s)", len(records))
	default:
		v.Message = "output violates hard constraints and is not safely retryable: " + hardTrigger(records)
	}
	return v
}

// hardTrigger names the rule(s) that pushed the verdict to VIOLATION.
func hardTrigger(records []Record) string {
	for _, r := range records {
		if r.Kind == document.Forbidden {
			return fmt.Sprintf("FORBIDDEN %s", r.Path)
		}
	}
	for _, r := range records {
		if r.Weight >= 100 {
			return fmt.Sprintf("%s %s", r.Kind, r.Path)
		}
	}
	if len(records) > 0 {
		return fmt.Sprintf("%d accumulated violations", len(records))
	}
	return "unspecified"
}
