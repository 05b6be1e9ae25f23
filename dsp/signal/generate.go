// Package signal generates deterministic test material for dynamics
// processing: tones and DC at a given dBFS level, seeded noise, silence and
// level-step sequences.
package signal

import (
	"fmt"
	"math"
	"math/rand"

	vecmath "github.com/cwbudde/algo-vecmath"
	"github.com/cwbudde/silentroom/dsp/buffer"
	"github.com/cwbudde/silentroom/dsp/core"
)

// Generator creates deterministic signals from a shared configuration.
type Generator struct {
	cfg  core.ProcessorConfig
	seed int64
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed sets deterministic random seed for noise generation.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// NewGenerator creates a configured signal generator.
func NewGenerator(opts ...core.ProcessorOption) *Generator {
	return NewGeneratorWithOptions(opts)
}

// NewGeneratorWithOptions creates a configured signal generator with signal-specific options.
func NewGeneratorWithOptions(coreOpts []core.ProcessorOption, opts ...Option) *Generator {
	g := &Generator{
		cfg:  core.ApplyProcessorOptions(coreOpts...),
		seed: 1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Config returns the generator processor configuration.
func (g *Generator) Config() core.ProcessorConfig {
	return g.cfg
}

// Samples converts a duration in milliseconds to a sample count at the
// generator's sample rate.
func (g *Generator) Samples(durationMs float64) int {
	return int(math.Round(durationMs * 0.001 * g.cfg.SampleRate))
}

// Sine generates a sine wave with the given peak amplitude.
func (g *Generator) Sine(freqHz, amplitude float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("sine samples must be > 0: %d", samples)
	}
	if freqHz <= 0 || freqHz >= g.cfg.SampleRate/2 {
		return nil, fmt.Errorf("sine frequency must be in (0, nyquist): %f", freqHz)
	}

	out := make([]float64, samples)
	step := 2 * math.Pi * freqHz / g.cfg.SampleRate
	for i := range out {
		out[i] = math.Sin(step * float64(i))
	}
	vecmath.ScaleBlock(out, out, amplitude)
	return out, nil
}

// Tone generates a sine whose peak sits at levelDB dBFS.
func (g *Generator) Tone(freqHz, levelDB float64, samples int) ([]float64, error) {
	return g.Sine(freqHz, core.DBToLinear(levelDB), samples)
}

// DC generates a constant signal at levelDB dBFS. A constant has the same
// peak on every sample, which makes detector behaviour easy to predict.
func (g *Generator) DC(levelDB float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("dc samples must be > 0: %d", samples)
	}

	out := make([]float64, samples)
	amp := core.DBToLinear(levelDB)
	for i := range out {
		out[i] = amp
	}
	return out, nil
}

// Silence returns samples zeros.
func (g *Generator) Silence(samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("silence samples must be > 0: %d", samples)
	}
	return make([]float64, samples), nil
}

// WhiteNoise generates deterministic white noise in [-amplitude, amplitude].
func (g *Generator) WhiteNoise(amplitude float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("noise samples must be > 0: %d", samples)
	}
	if amplitude < 0 {
		return nil, fmt.Errorf("noise amplitude must be >= 0: %f", amplitude)
	}
	out := make([]float64, samples)
	rng := rand.New(rand.NewSource(g.seed))
	for i := range out {
		out[i] = rng.Float64()*2 - 1
	}
	vecmath.ScaleBlock(out, out, amplitude)
	return out, nil
}

// Kind selects the waveform of a Segment.
type Kind string

const (
	KindTone    Kind = "tone"
	KindDC      Kind = "dc"
	KindNoise   Kind = "noise"
	KindSilence Kind = "silence"
)

// Segment describes one constant-level stretch of a step sequence.
type Segment struct {
	Kind       Kind
	LevelDB    float64
	FreqHz     float64
	DurationMs float64
}

// Steps renders segments back to back. Tone phase restarts at each segment.
func (g *Generator) Steps(segments []Segment) ([]float64, error) {
	var out []float64
	for i, seg := range segments {
		n := g.Samples(seg.DurationMs)

		var (
			part []float64
			err  error
		)

		switch seg.Kind {
		case KindTone:
			part, err = g.Tone(seg.FreqHz, seg.LevelDB, n)
		case KindDC:
			part, err = g.DC(seg.LevelDB, n)
		case KindNoise:
			part, err = g.WhiteNoise(core.DBToLinear(seg.LevelDB), n)
		case KindSilence:
			part, err = g.Silence(n)
		default:
			err = fmt.Errorf("unknown kind %q", seg.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		out = append(out, part...)
	}
	return out, nil
}

// Spread copies a mono signal into every channel of a new planar buffer.
func Spread(mono []float64, channels int) *buffer.Planar {
	p := buffer.NewPlanar(channels, len(mono))
	for ch := 0; ch < p.NumChannels(); ch++ {
		copy(p.Channel(ch), mono)
	}
	return p
}
