package header

import "sort"

// Recognized mode and phase tokens. The pairing between the two is advisory
// and enforced (softly) by the session package, not the codec.
type Mode string

const (
	ModeBrainstorm Mode = "brainstorm"
	ModeDesign     Mode = "design"
	ModeBuild      Mode = "build"
	ModeReview     Mode = "review"
	ModeNarrative  Mode = "narrative"
)

type Phase string

const (
	PhaseIdeation Phase = "ideation"
	PhaseTradeoff Phase = "tradeoff"
	PhaseCoding   Phase = "coding"
	PhaseRedTeam  Phase = "red-team"
	PhaseExplain  Phase = "explain"
)

type ResetPolicy string

const (
	ResetHard     ResetPolicy = "hard"
	ResetSoft     ResetPolicy = "soft"
	ResetTransfer ResetPolicy = "transfer"
)

// ACMax is the largest encodable activity counter: three base36 digits
// ("zzz"). The counter wraps to 0 past this value.
const ACMax = 46655

// ACModulus is the wrap modulus for the activity counter.
const ACModulus = ACMax + 1

// Level is a field's requirement level. It governs which fields survive a
// full-to-compact downgrade: Must and Should are always retained, May fields
// may be dropped.
type Level int

const (
	May Level = iota
	Should
	Must
)

// FieldSpec describes one recognized header field: its grammar, default,
// requirement level, and canonical rendering. The descriptor table drives
// the codec on both directions and the compliance validator's FORMAT and
// RANGE checks, so per-field type logic lives in exactly one place.
type FieldSpec struct {
	Name       string // canonical field name (full form key)
	CompactKey string // compact form key; equals Name unless renamed (CLAIMS -> TALLY)
	Level      Level
	Default    string // raw default substituted when the field is absent; "" means none
	Category   string // alias-table category for value expansion; "" means none

	Parse func(raw string) (Value, error)

	// RangeLo/RangeHi bound numeric kinds for RANGE validation.
	// Both zero means unbounded.
	RangeLo, RangeHi int
}

var modeTokens = []string{
	string(ModeBrainstorm), string(ModeDesign), string(ModeBuild),
	string(ModeReview), string(ModeNarrative),
}

var phaseTokens = []string{
	string(PhaseIdeation), string(PhaseTradeoff), string(PhaseCoding),
	string(PhaseRedTeam), string(PhaseExplain),
}

var rsetTokens = []string{
	string(ResetHard), string(ResetSoft), string(ResetTransfer),
}

// FieldOrder is the canonical emission order. Unrecognized fields follow,
// sorted lexicographically by name.
var FieldOrder = []string{
	FieldSID, FieldMode, FieldPhase, FieldAC, FieldRD,
	FieldCRef, FieldRSET, FieldOrigin, FieldTarget, FieldClaims, FieldContext,
}

const (
	FieldSID     = "SID"
	FieldMode    = "MODE"
	FieldPhase   = "PHASE"
	FieldAC      = "AC"
	FieldRD      = "RD"
	FieldCRef    = "CRef"
	FieldRSET    = "RSET"
	FieldOrigin  = "ORIGIN"
	FieldTarget  = "TARGET"
	FieldClaims  = "CLAIMS"
	FieldContext = "CONTEXT"
)

var fieldSpecs = map[string]*FieldSpec{
	FieldSID: {
		Name: FieldSID, CompactKey: FieldSID, Level: Must,
		Parse: parseSID,
	},
	FieldMode: {
		Name: FieldMode, CompactKey: FieldMode, Level: Should,
		Default: string(ModeDesign), Category: "mode",
		Parse: parseEnum(modeTokens),
	},
	FieldPhase: {
		Name: FieldPhase, CompactKey: FieldPhase, Level: Should,
		Default: string(PhaseIdeation), Category: "phase",
		Parse: parseEnum(phaseTokens),
	},
	FieldAC: {
		Name: FieldAC, CompactKey: FieldAC, Level: Should,
		Parse: parseBase36, RangeLo: 0, RangeHi: ACMax,
	},
	FieldRD: {
		Name: FieldRD, CompactKey: FieldRD, Level: Should,
		Parse: parseDigit, RangeLo: 0, RangeHi: 9,
	},
	FieldCRef: {
		Name: FieldCRef, CompactKey: FieldCRef, Level: Should,
		Parse: parseRef,
	},
	FieldRSET: {
		Name: FieldRSET, CompactKey: FieldRSET, Level: Should,
		Parse: parseEnum(rsetTokens),
	},
	FieldOrigin: {
		Name: FieldOrigin, CompactKey: FieldOrigin, Level: May,
		Parse: parsePlatform,
	},
	FieldTarget: {
		Name: FieldTarget, CompactKey: FieldTarget, Level: May,
		Parse: parsePlatform,
	},
	FieldClaims: {
		Name: FieldClaims, CompactKey: "TALLY", Level: Should,
		Parse: parseTally,
	},
	FieldContext: {
		Name: FieldContext, CompactKey: FieldContext, Level: May,
		Parse: parseContext,
	},
}

// compactKeyIndex maps compact form keys back to canonical field names.
var compactKeyIndex = func() map[string]string {
	m := make(map[string]string, len(fieldSpecs))
	for name, spec := range fieldSpecs {
		m[spec.CompactKey] = name
	}
	return m
}()

// Spec returns the descriptor for a canonical field name, or nil for
// unrecognized fields.
func Spec(name string) *FieldSpec {
	return fieldSpecs[name]
}

// RecognizedFields returns the canonical field names in canonical order.
func RecognizedFields() []string {
	return append([]string(nil), FieldOrder...)
}

func unknownNames(fields map[string]Value) []string {
	var out []string
	for name := range fields {
		if fieldSpecs[name] == nil {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
