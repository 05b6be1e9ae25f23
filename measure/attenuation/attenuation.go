// Package attenuation measures how much a processor attenuated a signal.
//
// Broadband figures (peak, RMS) come straight from the samples. Tone figures
// isolate a single frequency with a Hann-windowed FFT so that a gated tone
// can be measured in the presence of noise or other tones.
package attenuation

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/silentroom/dsp/core"
)

const (
	// FloorDB is reported for silent or empty signals.
	FloorDB = -100.0

	defaultCaptureBins = 4
)

// ErrEmptySignal is returned when a measurement has no samples to work on.
var ErrEmptySignal = errors.New("attenuation: empty signal")

// Config holds tone measurement parameters.
type Config struct {
	SampleRate float64

	// FFTSize is rounded up to a power of two. Zero sizes the FFT to the
	// signal on each call.
	FFTSize int

	// CaptureBins is the number of bins either side of the tone bin whose
	// power is attributed to the tone.
	CaptureBins int
}

// Analyzer measures tone levels. It caches its FFT plan and scratch buffers
// and is not safe for concurrent use.
type Analyzer struct {
	cfg  Config
	plan *algofft.Plan[complex128]

	in, out []complex128
	win     []float64
	winSq   float64
	seg     []float64
	re, im  []float64
	power   []float64
}

// NewAnalyzer validates cfg and returns an analyzer.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if !(cfg.SampleRate > 0) || !core.IsFinite(cfg.SampleRate) {
		return nil, fmt.Errorf("attenuation: sample rate must be > 0 and finite: %f", cfg.SampleRate)
	}

	if cfg.FFTSize < 0 {
		return nil, fmt.Errorf("attenuation: fft size must be >= 0: %d", cfg.FFTSize)
	}

	if cfg.CaptureBins <= 0 {
		cfg.CaptureBins = defaultCaptureBins
	}

	if cfg.FFTSize > 0 {
		cfg.FFTSize = nextPowerOf2(cfg.FFTSize)
	}

	return &Analyzer{cfg: cfg}, nil
}

// Config returns the effective configuration.
func (a *Analyzer) Config() Config {
	return a.cfg
}

// ToneLevelDB returns the amplitude of the freqHz component of signal in dB
// relative to full scale. A full-scale sine reads 0 dB. Signals longer than
// a fixed FFTSize are truncated to it.
func (a *Analyzer) ToneLevelDB(signal []float64, freqHz float64) (float64, error) {
	if len(signal) == 0 {
		return 0, ErrEmptySignal
	}

	nyquist := a.cfg.SampleRate / 2
	if !(freqHz > 0) || freqHz >= nyquist {
		return 0, fmt.Errorf("attenuation: frequency must be in (0, %g): %f", nyquist, freqHz)
	}

	size := a.cfg.FFTSize
	if size == 0 {
		size = nextPowerOf2(len(signal))
	}

	if size < 2 {
		return 0, fmt.Errorf("attenuation: fft size too small: %d", size)
	}

	if err := a.ensure(size, min(len(signal), size)); err != nil {
		return 0, err
	}

	n := len(a.seg)
	copy(a.seg, signal[:n])
	vecmath.MulBlockInPlace(a.seg, a.win)

	for i := range a.in {
		a.in[i] = 0
	}

	for i, v := range a.seg {
		a.in[i] = complex(v, 0)
	}

	if err := a.plan.Forward(a.out, a.in); err != nil {
		return 0, fmt.Errorf("attenuation: fft: %w", err)
	}

	bins := size/2 + 1
	for i := range bins {
		a.re[i] = real(a.out[i])
		a.im[i] = imag(a.out[i])
	}

	vecmath.Power(a.power[:bins], a.re[:bins], a.im[:bins])

	center := int(math.Round(freqHz * float64(size) / a.cfg.SampleRate))
	lo := max(center-a.cfg.CaptureBins, 1)
	hi := min(center+a.cfg.CaptureBins, bins-1)

	sum := 0.0
	for k := lo; k <= hi; k++ {
		sum += a.power[k]
	}

	// Parseval: one side of a windowed sine of amplitude A carries
	// size * A^2/4 * sum(w^2).
	if a.winSq == 0 {
		return FloorDB, nil
	}

	amp := 2 * math.Sqrt(sum/(float64(size)*a.winSq))

	return core.GainToDB(amp, FloorDB), nil
}

// ToneGainDB returns the change in level of the freqHz component from in to
// out. Negative values are attenuation.
func (a *Analyzer) ToneGainDB(in, out []float64, freqHz float64) (float64, error) {
	inDB, err := a.ToneLevelDB(in, freqHz)
	if err != nil {
		return 0, fmt.Errorf("attenuation: input: %w", err)
	}

	outDB, err := a.ToneLevelDB(out, freqHz)
	if err != nil {
		return 0, fmt.Errorf("attenuation: output: %w", err)
	}

	return outDB - inDB, nil
}

func (a *Analyzer) ensure(size, n int) error {
	if a.plan == nil || len(a.in) != size {
		plan, err := algofft.NewPlan64(size)
		if err != nil {
			return fmt.Errorf("attenuation: fft plan: %w", err)
		}

		a.plan = plan
		a.in = make([]complex128, size)
		a.out = make([]complex128, size)

		bins := size/2 + 1
		a.re = make([]float64, bins)
		a.im = make([]float64, bins)
		a.power = make([]float64, bins)
	}

	if len(a.win) != n {
		a.win = hann(n)
		a.seg = make([]float64, n)

		a.winSq = 0
		for _, w := range a.win {
			a.winSq += w * w
		}
	}

	return nil
}

// PeakDB returns the largest absolute sample in dB, or FloorDB.
func PeakDB(signal []float64) float64 {
	peak := 0.0
	for _, v := range signal {
		peak = max(peak, math.Abs(v))
	}

	return core.GainToDB(peak, FloorDB)
}

// RMSDB returns the RMS level in dB, or FloorDB.
func RMSDB(signal []float64) float64 {
	if len(signal) == 0 {
		return FloorDB
	}

	sum := 0.0
	for _, v := range signal {
		sum += v * v
	}

	return core.GainToDB(math.Sqrt(sum/float64(len(signal))), FloorDB)
}

// GainDB returns RMSDB(out) - RMSDB(in).
func GainDB(in, out []float64) (float64, error) {
	if len(in) == 0 || len(out) == 0 {
		return 0, ErrEmptySignal
	}

	return RMSDB(out) - RMSDB(in), nil
}

// Profile returns the RMS level of consecutive windows of size samples. A
// trailing partial window is measured over the samples it has.
func Profile(signal []float64, size int) ([]float64, error) {
	if len(signal) == 0 {
		return nil, ErrEmptySignal
	}

	if size <= 0 {
		return nil, fmt.Errorf("attenuation: window size must be > 0: %d", size)
	}

	out := make([]float64, 0, (len(signal)+size-1)/size)
	for start := 0; start < len(signal); start += size {
		out = append(out, RMSDB(signal[start:min(start+size, len(signal))]))
	}

	return out, nil
}

func hann(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}

	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}

	return w
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
