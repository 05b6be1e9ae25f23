package dynamics

import "github.com/cwbudde/silentroom/dsp/core"

// EnvelopeFollower smooths the target gain reduction with a one-pole filter
// whose coefficient depends on direction. Its state is in dB and never
// positive as long as every target is <= 0.
type EnvelopeFollower struct {
	state float64
}

// Next advances the follower by one sample and returns the new state.
func (e *EnvelopeFollower) Next(target float64, b Ballistics) float64 {
	alpha := b.Release
	if target < e.state {
		alpha = b.Attack
	}

	e.state = core.FlushDenormals(target + alpha*(e.state-target))
	return e.state
}

// Value returns the current smoothed reduction in dB.
func (e *EnvelopeFollower) Value() float64 {
	return e.state
}

// Reset returns the follower to 0 dB (no reduction).
func (e *EnvelopeFollower) Reset() {
	e.state = 0
}
