package dynamics

import (
	"fmt"

	vecmath "github.com/cwbudde/algo-vecmath"
	"github.com/cwbudde/silentroom/dsp/core"
)

// Gate is a linked-peak noise gate / downward expander with a hard knee and
// asymmetric attack/release ballistics in the dB domain.
//
// Per block, Process takes one [Snapshot] from the gate's [Parameters] and
// derives one set of [Ballistics]. Per sample it detects the linked peak,
// computes the target reduction, smooths it with the [EnvelopeFollower] and
// stores the linear gain in a preallocated vector, which is then multiplied
// into every active channel. The deepest smoothed reduction of the block is
// published to the gate's [Meter].
//
// Parameters and the meter may be used from any goroutine. Prepare, Reset
// and Process must not run concurrently with each other; the host
// serialises them. Process does not allocate, lock or block.
type Gate struct {
	params *Parameters
	meter  Meter
	env    EnvelopeFollower

	sampleRate float64

	// gains holds one linear gain per sample of the current chunk.
	gains []float64
}

// NewGate creates a gate with a fresh parameter store at default values.
//
// Options set the initial sample rate and the largest block size that can
// be processed without chunking (defaults 48 kHz and 512 samples).
func NewGate(opts ...core.ProcessorOption) (*Gate, error) {
	return NewGateWithParameters(NewParameters(), opts...)
}

// NewGateWithParameters creates a gate reading its controls from params.
func NewGateWithParameters(params *Parameters, opts ...core.ProcessorOption) (*Gate, error) {
	if params == nil {
		return nil, fmt.Errorf("gate parameters must not be nil")
	}

	cfg := core.ApplyProcessorOptions(opts...)
	g := &Gate{params: params}

	if err := g.Prepare(cfg.SampleRate, cfg.BlockSize); err != nil {
		return nil, err
	}

	return g, nil
}

// Prepare sets the sample rate, sizes the gain vector for blocks of up to
// maxBlockSize samples and resets envelope and meter. It is the only
// method that may allocate.
func (g *Gate) Prepare(sampleRate float64, maxBlockSize int) error {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return fmt.Errorf("gate sample rate must be positive and finite: %f", sampleRate)
	}
	if maxBlockSize <= 0 {
		return fmt.Errorf("gate block size must be positive: %d", maxBlockSize)
	}

	g.sampleRate = sampleRate
	if cap(g.gains) < maxBlockSize {
		g.gains = make([]float64, maxBlockSize)
	}
	g.gains = g.gains[:maxBlockSize]

	g.Reset()

	return nil
}

// Reset clears the envelope and the published gain reduction.
func (g *Gate) Reset() {
	g.env.Reset()
	g.meter.Reset()
}

// Parameters returns the store the control side writes to.
func (g *Gate) Parameters() *Parameters { return g.params }

// Meter returns the gain-reduction meter.
func (g *Gate) Meter() *Meter { return &g.meter }

// Read returns the most recently published block gain reduction in dB.
func (g *Gate) Read() float64 { return g.meter.Read() }

// Envelope returns the current smoothed gain reduction in dB.
func (g *Gate) Envelope() float64 { return g.env.Value() }

// SampleRate returns the prepared sample rate in Hz.
func (g *Gate) SampleRate() float64 { return g.sampleRate }

// MaxBlockSize returns the number of samples processed per inner chunk.
func (g *Gate) MaxBlockSize() int { return len(g.gains) }

// Process gates the first numSamples samples of buf in place and returns the
// deepest smoothed reduction of the block in dB (<= 0).
//
// Channels from numChannels on are cleared. sampleRate is the current host
// rate; a non-positive or non-finite value falls back to the prepared rate.
// numChannels and numSamples are clamped to what buf holds.
func (g *Gate) Process(buf [][]float64, numSamples, numChannels int, sampleRate float64) float64 {
	return g.ProcessBlock(buf, numSamples, numChannels, sampleRate, g.params.Snapshot())
}

// ProcessBlock is Process with an explicit snapshot. snap is clamped before use.
func (g *Gate) ProcessBlock(buf [][]float64, numSamples, numChannels int, sampleRate float64, snap Snapshot) float64 {
	numChannels = min(max(numChannels, 0), len(buf))

	for _, ch := range buf[numChannels:] {
		clear(ch[:min(max(numSamples, 0), len(ch))])
	}

	active := buf[:numChannels]
	for _, ch := range active {
		numSamples = min(numSamples, len(ch))
	}

	if !(sampleRate > 0) || !core.IsFinite(sampleRate) {
		sampleRate = g.sampleRate
	}

	snap = snap.Clamped()
	coeffs := NewBallistics(snap.AttackMs, snap.ReleaseMs, sampleRate)
	gc := newGainComputer(snap)

	peakReduction := 0.0

	for start := 0; start < numSamples; start += len(g.gains) {
		n := min(len(g.gains), numSamples-start)
		gains := g.gains[:n]

		for i := range gains {
			levelDB := LevelDB(LinkedPeak(active, start+i))
			env := g.env.Next(gc.reduction(levelDB), coeffs)

			// env >= -98 dB for clamped controls, so the gain stays in (0, 1].
			gains[i] = mathPower10(env * 0.05)

			if env < peakReduction {
				peakReduction = env
			}
		}

		for _, ch := range active {
			vecmath.MulBlockInPlace(ch[start:start+n], gains)
		}
	}

	g.meter.Publish(peakReduction)

	return peakReduction
}

// StaticReduction returns the steady-state reduction in dB the current
// parameters apply to a constant input at levelDB. It ignores ballistics and
// is meant for drawing the transfer curve.
func (g *Gate) StaticReduction(levelDB float64) float64 {
	return TargetReduction(levelDB, g.params.Snapshot())
}
