package dynamics

const (
	// LevelFloorDB is the level reported for silence and sub-floor input.
	LevelFloorDB = -100.0

	// levelFloorLin is 10^(LevelFloorDB/20).
	levelFloorLin = 1e-5
)

// LinkedPeak returns the largest absolute sample across channels at index
// i. Every channel shares this one level, so the gate opens and closes all
// channels together.
func LinkedPeak(channels [][]float64, i int) float64 {
	peak := 0.0
	for _, ch := range channels {
		v := ch[i]
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	return peak
}

// LevelDB converts a peak magnitude to dB, substituting [LevelFloorDB] for
// zero or sub-floor magnitudes.
func LevelDB(peak float64) float64 {
	if !(peak > levelFloorLin) {
		return LevelFloorDB
	}
	return 20 * mathLog10(peak)
}
