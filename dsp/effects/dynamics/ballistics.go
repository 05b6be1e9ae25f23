package dynamics

// Ballistics holds the one-pole smoothing coefficients for both directions
// of gain-reduction movement.
type Ballistics struct {
	Attack  float64 // used while reduction deepens
	Release float64 // used while reduction recovers
}

// NewBallistics derives coefficients from attack and release times in
// milliseconds. Both times and the sample rate must be positive; every
// coefficient then lies in (0, 1).
func NewBallistics(attackMs, releaseMs, sampleRate float64) Ballistics {
	return Ballistics{
		Attack:  timeCoeff(attackMs, sampleRate),
		Release: timeCoeff(releaseMs, sampleRate),
	}
}

// timeCoeff: exp(-1 / (time_sec * sample_rate))
func timeCoeff(ms, sampleRate float64) float64 {
	return mathExp(-1.0 / (ms * 0.001 * sampleRate))
}
