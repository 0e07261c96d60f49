package session

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Policy carries the tunable transition thresholds. The escalation and
// maturity rules are advisory in strength, so their constants are
// configuration, not invariants.
type Policy struct {
	// EscalateOnUncertainty bumps RD after an action whose tally shows
	// more uncertain than validated claims.
	EscalateOnUncertainty bool `yaml:"escalate_on_uncertainty"`

	// MatureAC/MatureRD define the established-context threshold past
	// which the advisory mode/phase pairing check is skipped.
	MatureAC int `yaml:"mature_ac"`
	MatureRD int `yaml:"mature_rd"`

	// RequalifyAfterHardReset makes the first action after a hard reset
	// escalate RD once.
	RequalifyAfterHardReset bool `yaml:"requalify_after_hard_reset"`

	// CheckpointInterval raises a checkpoint obligation every N actions.
	CheckpointInterval int `yaml:"checkpoint_interval"`
}

func DefaultPolicy() Policy {
	return Policy{
		EscalateOnUncertainty:   true,
		MatureAC:                24,
		MatureRD:                3,
		RequalifyAfterHardReset: true,
		CheckpointInterval:      6,
	}
}

// LoadPolicy overlays a YAML document onto the defaults, so a config file
// only needs to state what it changes.
func LoadPolicy(b []byte) (Policy, error) {
	p := DefaultPolicy()
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Policy{}, fmt.Errorf("session: invalid policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

func (p Policy) Validate() error {
	if p.CheckpointInterval <= 0 {
		return fmt.Errorf("session: checkpoint_interval must be positive, got %d", p.CheckpointInterval)
	}
	if p.MatureAC < 0 || p.MatureRD < 0 {
		return fmt.Errorf("session: maturity thresholds must be non-negative")
	}
	return nil
}
