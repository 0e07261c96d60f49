package header

// Severity grades a decode-time finding.
//
// Only Fatal aborts a decode; everything below it is recovered locally
// (default substitution, field drop, or verbatim preservation) and attached
// to the decoded Header.
type Severity int

const (
	SevInfo Severity = iota
	SevWarning
	SevError
	SevFatal
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	case SevFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Diag is a recoverable decode finding attached to a Header or Document.
type Diag struct {
	Severity Severity
	Field    string
	RuleID   string
	Message  string
}

// MaxSeverity returns the highest severity present in diags, or SevInfo for none.
func MaxSeverity(diags []Diag) Severity {
	max := SevInfo
	for _, d := range diags {
		if d.Severity > max {
			max = d.Severity
		}
	}
	return max
}
