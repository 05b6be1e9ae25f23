package dynamics_test

import (
	"fmt"

	"github.com/cwbudde/silentroom/dsp/core"
	"github.com/cwbudde/silentroom/dsp/effects/dynamics"
)

// ExampleGate shows a quiet stereo signal being pulled down by the gate.
func ExampleGate() {
	gate, err := dynamics.NewGate(core.WithSampleRate(48000), core.WithBlockSize(480))
	if err != nil {
		panic(err)
	}

	params := gate.Parameters()
	_ = params.Set(dynamics.ParamThreshold, -20)
	_ = params.Set(dynamics.ParamRatio, 10)
	_ = params.Set(dynamics.ParamAttack, 1)
	_ = params.Set(dynamics.ParamRelease, 100)

	// -60 dBFS on both channels for 50 ms.
	level := core.DBToLinear(-60)
	left := make([]float64, 480)
	right := make([]float64, 480)

	for block := 0; block < 5; block++ {
		for i := range left {
			left[i], right[i] = level, level
		}
		gate.Process([][]float64{left, right}, 480, 2, 48000)
	}

	fmt.Printf("reduction: %.1f dB\n", gate.Read())
	fmt.Printf("gain: %.4f\n", left[479]/level)
	// Output:
	// reduction: -36.0 dB
	// gain: 0.0158
}

// ExampleTargetReduction evaluates the static gain law.
func ExampleTargetReduction() {
	s := dynamics.Snapshot{ThresholdDB: -20, Ratio: 4, AttackMs: 10, ReleaseMs: 100}

	for _, level := range []float64{0, -20, -30, -40} {
		fmt.Printf("%4.0f dB -> %5.1f dB\n", level, dynamics.TargetReduction(level, s))
	}
	// Output:
	//    0 dB ->   0.0 dB
	//  -20 dB ->   0.0 dB
	//  -30 dB ->  -7.5 dB
	//  -40 dB -> -15.0 dB
}
