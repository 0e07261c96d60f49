// Package session is the operational state machine: mode, phase, activity
// counter, reasoning depth, and reset policy transitions. State is a value
// owned by the caller and threaded through Advance, so concurrent sessions
// are trivially independent and the machine is testable in isolation.
package session

import (
	"fmt"
	"strconv"

	"github.com/dmaynor/WraithSpec/header"
)

// State is one session's operational state. RD is kept as a plain int and
// escalates without bound; only the wire encoding caps it.
type State struct {
	SID    string
	Mode   header.Mode
	Phase  header.Phase
	AC     int
	RD     int
	Ref    header.ProfileRef
	HasRef bool
	Reset  header.ResetPolicy
	Tally  header.Tally
	Origin string
	Target string

	// Handoff marks the session for cross-platform transfer.
	Handoff bool

	// needsRequalify is set by a hard reset and consumed by the next
	// action, which escalates RD once.
	needsRequalify bool
}

// Effect is a side obligation raised by a transition, consumed by the
// caller and never enforced here.
type Effect string

const (
	// EffectCheckpointDue: the activity counter crossed a checkpoint
	// boundary; the caller owes a context checkpoint.
	EffectCheckpointDue    Effect = "checkpoint-due"
	EffectDepthEscalated   Effect = "depth-escalated"
	EffectAdvisoryMismatch Effect = "advisory-mismatch"
	EffectHandoffMarked    Effect = "handoff-marked"
	EffectRequalified      Effect = "requalified"
)

// EventKind selects a transition.
type EventKind int

const (
	// EventAction is one discrete action: AC increments, tally updates,
	// escalation rules apply.
	EventAction EventKind = iota
	// EventReset applies the event's reset policy.
	EventReset
)

// Event is one input to Advance.
type Event struct {
	Kind EventKind

	// Mode/Phase switch the operational pairing when non-empty (actions only).
	Mode  header.Mode
	Phase header.Phase

	// Tally replaces the claim tally when set (actions only).
	Tally *header.Tally

	// Reset selects the policy for EventReset; Target carries the handoff
	// destination for a transfer reset.
	Reset  header.ResetPolicy
	Target string
}

// advisory mode/phase pairing. Any combination is allowed; a mismatch is
// flagged, not rejected.
var pairing = map[header.Mode]header.Phase{
	header.ModeBrainstorm: header.PhaseIdeation,
	header.ModeDesign:     header.PhaseTradeoff,
	header.ModeBuild:      header.PhaseCoding,
	header.ModeReview:     header.PhaseRedTeam,
	header.ModeNarrative:  header.PhaseExplain,
}

// FromHeader seeds a session state from a decoded header.
func FromHeader(h *header.Header) State {
	s := State{
		SID:   h.SID(),
		Mode:  h.Mode(),
		Phase: h.Phase(),
		AC:    h.AC(),
		RD:    h.RD(),
		Reset: h.Reset(),
	}
	if ref, ok := h.Ref(); ok {
		s.Ref, s.HasRef = ref, true
	}
	if tally, ok := h.Claims(); ok {
		s.Tally = tally
	}
	if v, ok := h.Fields[header.FieldOrigin]; ok {
		s.Origin = v.Text
	}
	if v, ok := h.Fields[header.FieldTarget]; ok {
		s.Target = v.Text
	}
	return s
}

// Header renders the state back into a header value for encoding.
func (s State) Header() *header.Header {
	h := header.New()
	set := func(name, raw string) {
		if raw != "" {
			_ = h.Set(name, raw)
		}
	}
	set(header.FieldSID, s.SID)
	set(header.FieldMode, string(s.Mode))
	set(header.FieldPhase, string(s.Phase))
	_ = h.Set(header.FieldAC, acToken(s.AC))
	_ = h.Set(header.FieldRD, rdToken(s.RD))
	if s.HasRef {
		set(header.FieldCRef, s.Ref.String())
	}
	set(header.FieldRSET, string(s.Reset))
	set(header.FieldOrigin, s.Origin)
	set(header.FieldTarget, s.Target)
	set(header.FieldClaims, tallyToken(s.Tally))
	return h
}

// Advance applies one event and returns the successor state plus the side
// effects the caller must consume. The input state is never mutated.
func Advance(s State, ev Event, p Policy) (State, []Effect) {
	if ev.Kind == EventReset {
		return applyReset(s, ev, p)
	}
	return applyAction(s, ev, p)
}

func applyAction(s State, ev Event, p Policy) (State, []Effect) {
	var effects []Effect

	if s.needsRequalify && p.RequalifyAfterHardReset {
		s.RD++
		s.needsRequalify = false
		effects = append(effects, EffectRequalified, EffectDepthEscalated)
	}

	if ev.Mode != "" {
		s.Mode = ev.Mode
	}
	if ev.Phase != "" {
		s.Phase = ev.Phase
	}
	if ev.Tally != nil {
		s.Tally = *ev.Tally
	}

	// A zero-value Policy must still be safe to use: an unset interval
	// falls back to the default instead of dividing by zero.
	interval := p.CheckpointInterval
	if interval <= 0 {
		interval = DefaultPolicy().CheckpointInterval
	}
	s.AC = (s.AC + 1) % header.ACModulus
	if s.AC%interval == 0 {
		effects = append(effects, EffectCheckpointDue)
	}

	if p.EscalateOnUncertainty && s.Tally.Uncertain > s.Tally.Validated {
		s.RD++
		effects = append(effects, EffectDepthEscalated)
	}

	// Mature sessions skip the advisory pairing check: an established
	// context is evidence the operator paired mode and phase on purpose.
	mature := s.AC > p.MatureAC && s.RD >= p.MatureRD
	if !mature && s.Mode != "" && s.Phase != "" && pairing[s.Mode] != s.Phase {
		effects = append(effects, EffectAdvisoryMismatch)
	}

	return s, effects
}

func applyReset(s State, ev Event, p Policy) (State, []Effect) {
	policy := ev.Reset
	if policy == "" {
		policy = s.Reset
	}
	switch policy {
	case header.ResetHard:
		// Identity survives; everything operational clears.
		next := State{
			SID:    s.SID,
			Origin: s.Origin,
			Mode:   header.ModeDesign,
			Phase:  header.PhaseIdeation,
			Reset:  header.ResetHard,
		}
		next.needsRequalify = p.RequalifyAfterHardReset
		return next, nil
	case header.ResetTransfer:
		// CRef, RD, and AC persist unchanged across the handoff.
		s.Reset = header.ResetTransfer
		s.Handoff = true
		if ev.Target != "" {
			s.Target = ev.Target
		}
		return s, []Effect{EffectHandoffMarked}
	default:
		// Soft: validated claims and RD survive, AC continues
		// uninterrupted, unresolved bookkeeping clears.
		s.Reset = header.ResetSoft
		s.Tally = header.Tally{Validated: s.Tally.Validated}
		return s, nil
	}
}

func acToken(n int) string {
	if n <= 0 {
		return "0"
	}
	return strconv.FormatInt(int64(n%header.ACModulus), 36)
}

func rdToken(n int) string {
	if n <= 0 {
		return "0"
	}
	if n > 35 {
		n = 35
	}
	return strconv.FormatInt(int64(n), 36)
}

func tallyToken(t header.Tally) string {
	return fmt.Sprintf("v:%d,u:%d,s:%d", t.Validated, t.Uncertain, t.Superseded)
}
