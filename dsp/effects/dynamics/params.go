package dynamics

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/cwbudde/silentroom/dsp/core"
)

// ParamID identifies one of the gate's automatable parameters.
type ParamID int

const (
	// ParamThreshold is the level in dB below which attenuation begins.
	ParamThreshold ParamID = iota
	// ParamRatio is the attenuation strength N:1; 1 bypasses the gate.
	ParamRatio
	// ParamAttack is the time constant in ms while reduction deepens.
	ParamAttack
	// ParamRelease is the time constant in ms while reduction recovers.
	ParamRelease

	numParams
)

// ErrUnknownParam is returned for identifiers outside the parameter set.
var ErrUnknownParam = errors.New("unknown parameter")

// ParamSpec describes the range, default and control feel of a parameter.
type ParamSpec struct {
	ID      ParamID
	Key     string // stable host identifier
	Name    string
	Suffix  string // unit suffix for display
	Min     float64
	Max     float64
	Step    float64
	Default float64

	// SkewCentre is the value that sits at the middle of a normalised
	// control. Zero means the mapping is linear.
	SkewCentre float64
}

var paramSpecs = [numParams]ParamSpec{
	ParamThreshold: {
		ID: ParamThreshold, Key: "THRESHOLD", Name: "Threshold", Suffix: " dB",
		Min: -60, Max: 0, Step: 0.1, Default: -60,
	},
	ParamRatio: {
		ID: ParamRatio, Key: "RATIO", Name: "Ratio", Suffix: ":1",
		Min: 1, Max: 50, Step: 0.1, Default: 1,
	},
	ParamAttack: {
		ID: ParamAttack, Key: "ATTACK", Name: "Attack", Suffix: " ms",
		Min: 1, Max: 100, Step: 0.1, Default: 10, SkewCentre: 20,
	},
	ParamRelease: {
		ID: ParamRelease, Key: "RELEASE", Name: "Release", Suffix: " ms",
		Min: 10, Max: 2000, Step: 1, Default: 100, SkewCentre: 200,
	},
}

// String returns the stable host identifier of id.
func (id ParamID) String() string {
	if id < 0 || id >= numParams {
		return fmt.Sprintf("ParamID(%d)", int(id))
	}
	return paramSpecs[id].Key
}

// Valid reports whether id names a parameter.
func (id ParamID) Valid() bool {
	return id >= 0 && id < numParams
}

// Specs returns the parameter table in identifier order.
func Specs() []ParamSpec {
	out := make([]ParamSpec, numParams)
	copy(out, paramSpecs[:])
	return out
}

// Spec returns the description of id.
func Spec(id ParamID) (ParamSpec, error) {
	if !id.Valid() {
		return ParamSpec{}, fmt.Errorf("%w: %d", ErrUnknownParam, int(id))
	}
	return paramSpecs[id], nil
}

// LookupParam resolves a host identifier such as "RATIO". Matching is
// case-insensitive.
func LookupParam(key string) (ParamID, error) {
	for _, s := range paramSpecs {
		if strings.EqualFold(s.Key, key) {
			return s.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownParam, key)
}

// Clamp limits v to the parameter range.
func (s ParamSpec) Clamp(v float64) float64 {
	return core.Clamp(v, s.Min, s.Max)
}

func (s ParamSpec) skew() float64 {
	if s.SkewCentre <= s.Min || s.SkewCentre >= s.Max {
		return 1
	}
	return math.Log(0.5) / math.Log((s.SkewCentre-s.Min)/(s.Max-s.Min))
}

// Normalize maps v to [0, 1] following the skew of the control.
func (s ParamSpec) Normalize(v float64) float64 {
	p := (s.Clamp(v) - s.Min) / (s.Max - s.Min)
	if k := s.skew(); k != 1 && p > 0 {
		p = math.Pow(p, k)
	}
	return p
}

// Denormalize maps a [0, 1] control position back to a value snapped to the
// parameter step.
func (s ParamSpec) Denormalize(n float64) float64 {
	n = core.Clamp(n, 0, 1)
	if k := s.skew(); k != 1 && n > 0 {
		n = math.Exp(math.Log(n) / k)
	}

	v := s.Min + (s.Max-s.Min)*n
	if s.Step > 0 {
		v = s.Min + math.Round((v-s.Min)/s.Step)*s.Step
	}
	return s.Clamp(v)
}

// atomicFloat is a float64 cell with atomic load and store.
type atomicFloat struct {
	bits atomic.Uint64
}

func (a *atomicFloat) Load() float64 {
	return math.Float64frombits(a.bits.Load())
}

func (a *atomicFloat) Store(v float64) {
	a.bits.Store(math.Float64bits(v))
}

// Parameters is the write entry point for the control side. Every
// parameter lives in its own atomic cell; loads of different cells are not
// mutually consistent, so a [Snapshot] may combine an old and a new value
// for one block.
//
// All methods are safe for concurrent use and never block.
type Parameters struct {
	cells [numParams]atomicFloat
}

// NewParameters returns a store holding the default value of every parameter.
func NewParameters() *Parameters {
	p := &Parameters{}
	p.Reset()
	return p
}

// Reset restores every parameter to its default.
func (p *Parameters) Reset() {
	for id := range paramSpecs {
		p.cells[id].Store(paramSpecs[id].Default)
	}
}

// Set stores v for id. Out-of-range values are kept as given and clamped
// when a snapshot is taken; non-finite values are rejected.
func (p *Parameters) Set(id ParamID, v float64) error {
	if !id.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownParam, int(id))
	}
	if !core.IsFinite(v) {
		return fmt.Errorf("%s must be finite: %f", paramSpecs[id].Name, v)
	}

	p.cells[id].Store(v)
	return nil
}

// SetNormalized stores the value at control position n in [0, 1].
func (p *Parameters) SetNormalized(id ParamID, n float64) error {
	s, err := Spec(id)
	if err != nil {
		return err
	}
	return p.Set(id, s.Denormalize(n))
}

// Get returns the raw stored value of id, or NaN for an unknown id.
func (p *Parameters) Get(id ParamID) float64 {
	if !id.Valid() {
		return math.NaN()
	}
	return p.cells[id].Load()
}

// Snapshot loads each parameter once and clamps it to range.
func (p *Parameters) Snapshot() Snapshot {
	return Snapshot{
		ThresholdDB: p.cells[ParamThreshold].Load(),
		Ratio:       p.cells[ParamRatio].Load(),
		AttackMs:    p.cells[ParamAttack].Load(),
		ReleaseMs:   p.cells[ParamRelease].Load(),
	}.Clamped()
}
