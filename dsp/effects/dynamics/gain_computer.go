package dynamics

// TargetReduction maps a detected level to the hard-knee gain reduction in
// dB. The result is 0 at or above the threshold and -(threshold-level) *
// (1 - 1/ratio) below it. s should already be clamped.
func TargetReduction(levelDB float64, s Snapshot) float64 {
	return newGainComputer(s).reduction(levelDB)
}

// gainComputer caches the slope of a snapshot for the per-sample loop.
type gainComputer struct {
	thresholdDB float64
	slope       float64 // 1 - 1/ratio, in [0, 1)
}

func newGainComputer(s Snapshot) gainComputer {
	return gainComputer{
		thresholdDB: s.ThresholdDB,
		slope:       1.0 - 1.0/s.Ratio,
	}
}

func (gc gainComputer) reduction(levelDB float64) float64 {
	if levelDB >= gc.thresholdDB {
		return 0
	}
	below := gc.thresholdDB - levelDB
	return -below * gc.slope
}
