package dynamics

import "fmt"

// Snapshot is the per-block copy of the control values. A block is processed
// with exactly one Snapshot, so a parameter change becomes audible at the
// next block boundary.
type Snapshot struct {
	ThresholdDB float64
	Ratio       float64
	AttackMs    float64
	ReleaseMs   float64
}

// DefaultSnapshot returns the parameter defaults.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		ThresholdDB: paramSpecs[ParamThreshold].Default,
		Ratio:       paramSpecs[ParamRatio].Default,
		AttackMs:    paramSpecs[ParamAttack].Default,
		ReleaseMs:   paramSpecs[ParamRelease].Default,
	}
}

// Clamped returns s with every value limited to its declared range. NaN
// maps to the lower bound, which keeps ratio >= 1 and both time constants
// positive.
func (s Snapshot) Clamped() Snapshot {
	return Snapshot{
		ThresholdDB: paramSpecs[ParamThreshold].Clamp(s.ThresholdDB),
		Ratio:       paramSpecs[ParamRatio].Clamp(s.Ratio),
		AttackMs:    paramSpecs[ParamAttack].Clamp(s.AttackMs),
		ReleaseMs:   paramSpecs[ParamRelease].Clamp(s.ReleaseMs),
	}
}

func (s Snapshot) String() string {
	return fmt.Sprintf("threshold=%.1fdB ratio=%.1f:1 attack=%.1fms release=%.0fms",
		s.ThresholdDB, s.Ratio, s.AttackMs, s.ReleaseMs)
}
