package host

import (
	"github.com/cwbudde/silentroom/dsp/effects/dynamics"
)

// Processor is the processing and lifecycle boundary a host calls.
//
// Prepare is called when the stream starts or the sample rate changes and
// must leave the processor in its initial state. Process handles one block
// in place and returns the block's deepest gain reduction in dB. The host
// never calls the two concurrently.
type Processor interface {
	Prepare(sampleRate float64, maxBlockSize int) error
	Process(buf [][]float64, numSamples, numChannels int, sampleRate float64) float64
}

// MeterReader exposes the most recently published gain reduction.
type MeterReader interface {
	Read() float64
}

// ParameterSetter accepts control changes from automation or a UI.
type ParameterSetter interface {
	Set(id dynamics.ParamID, v float64) error
}

// Plugin bundles the three roles. *dynamics.Gate together with its
// parameter store satisfies it through [GatePlugin].
type Plugin interface {
	Processor
	MeterReader
	ParameterSetter
}

type gatePlugin struct {
	*dynamics.Gate
}

func (p gatePlugin) Set(id dynamics.ParamID, v float64) error {
	return p.Parameters().Set(id, v)
}

// GatePlugin adapts a gate to the [Plugin] interface.
func GatePlugin(g *dynamics.Gate) Plugin {
	return gatePlugin{Gate: g}
}
