// Package config loads gate simulation scenarios from YAML.
//
// A scenario fixes the stream format, the gate controls, the input signal
// and an optional automation list. Omitted keys keep the values of
// [Default].
package config

import (
	"github.com/cwbudde/silentroom/dsp/signal"
)

// Scenario is the top-level configuration of a simulation run.
type Scenario struct {
	SampleRate float64 `yaml:"sample_rate"`
	BlockSize  int     `yaml:"block_size"`
	Channels   int     `yaml:"channels"`

	// MeterRate is the display refresh rate in Hz.
	MeterRate float64 `yaml:"meter_rate"`

	// Seed drives noise segments.
	Seed int64 `yaml:"seed"`

	Params Params `yaml:"params"`

	// Signal is rendered when Segments is empty.
	Signal Segment `yaml:"signal"`

	// Segments are rendered back to back.
	Segments []Segment `yaml:"segments"`

	Automation []Automation `yaml:"automation"`
}

// Params holds the gate controls. Nil fields keep the gate defaults.
type Params struct {
	Threshold *float64 `yaml:"threshold"`
	Ratio     *float64 `yaml:"ratio"`
	Attack    *float64 `yaml:"attack"`
	Release   *float64 `yaml:"release"`
}

// Segment is one stretch of input signal.
type Segment struct {
	Kind       signal.Kind `yaml:"kind"`
	LevelDB    float64     `yaml:"level_db"`
	FreqHz     float64     `yaml:"freq_hz"`
	DurationMs float64     `yaml:"duration_ms"`
}

// Automation changes one control before a given block. Param is a
// parameter identifier such as "THRESHOLD" (case-insensitive).
type Automation struct {
	Block int     `yaml:"block"`
	Param string  `yaml:"param"`
	Value float64 `yaml:"value"`
}

// Default returns a one-second stereo scenario: a quiet 1 kHz tone through
// the gate at its default controls.
func Default() *Scenario {
	return &Scenario{
		SampleRate: 48000,
		BlockSize:  512,
		Channels:   2,
		MeterRate:  60,
		Seed:       1,
		Signal: Segment{
			Kind:       signal.KindTone,
			LevelDB:    -50,
			FreqHz:     1000,
			DurationMs: 1000,
		},
	}
}
