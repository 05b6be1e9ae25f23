package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/silentroom/dsp/effects/dynamics"
	"github.com/cwbudde/silentroom/dsp/signal"
)

// Load reads the YAML scenario at path and returns a validated [Scenario].
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	s, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return s, nil
}

// LoadFromReader decodes a YAML scenario from r over [Default] and validates
// the result. An empty document yields the defaults.
func LoadFromReader(r io.Reader) (*Scenario, error) {
	s := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that s describes a runnable scenario. It returns a joined
// error listing every problem found.
func Validate(s *Scenario) error {
	var errs []error

	if !finitePositive(s.SampleRate) {
		errs = append(errs, fmt.Errorf("sample_rate must be > 0: %v", s.SampleRate))
	}
	if s.BlockSize <= 0 {
		errs = append(errs, fmt.Errorf("block_size must be > 0: %d", s.BlockSize))
	}
	if s.Channels <= 0 {
		errs = append(errs, fmt.Errorf("channels must be > 0: %d", s.Channels))
	}
	if !finitePositive(s.MeterRate) {
		errs = append(errs, fmt.Errorf("meter_rate must be > 0: %v", s.MeterRate))
	}

	params := []struct {
		key string
		id  dynamics.ParamID
		v   *float64
	}{
		{"threshold", dynamics.ParamThreshold, s.Params.Threshold},
		{"ratio", dynamics.ParamRatio, s.Params.Ratio},
		{"attack", dynamics.ParamAttack, s.Params.Attack},
		{"release", dynamics.ParamRelease, s.Params.Release},
	}
	for _, p := range params {
		if p.v == nil {
			continue
		}
		spec, _ := dynamics.Spec(p.id)
		if err := checkRange(spec, *p.v); err != nil {
			errs = append(errs, fmt.Errorf("params.%s: %w", p.key, err))
		}
	}

	if len(s.Segments) == 0 {
		if err := validateSegment(s.Signal, s.SampleRate); err != nil {
			errs = append(errs, fmt.Errorf("signal: %w", err))
		}
	}
	for i, seg := range s.Segments {
		if err := validateSegment(seg, s.SampleRate); err != nil {
			errs = append(errs, fmt.Errorf("segments[%d]: %w", i, err))
		}
	}

	for i, a := range s.Automation {
		if a.Block < 0 {
			errs = append(errs, fmt.Errorf("automation[%d].block must be >= 0: %d", i, a.Block))
		}
		id, err := dynamics.LookupParam(a.Param)
		if err != nil {
			errs = append(errs, fmt.Errorf("automation[%d].param: %w", i, err))
			continue
		}
		spec, _ := dynamics.Spec(id)
		if err := checkRange(spec, a.Value); err != nil {
			errs = append(errs, fmt.Errorf("automation[%d].value: %w", i, err))
		}
	}

	return errors.Join(errs...)
}

func validateSegment(seg Segment, sampleRate float64) error {
	var errs []error

	switch seg.Kind {
	case signal.KindTone:
		if !(seg.FreqHz > 0) || seg.FreqHz >= sampleRate/2 {
			errs = append(errs, fmt.Errorf("freq_hz must be in (0, %g): %v", sampleRate/2, seg.FreqHz))
		}
	case signal.KindDC, signal.KindNoise, signal.KindSilence:
	default:
		errs = append(errs, fmt.Errorf("kind %q is invalid; valid values: tone, dc, noise, silence", seg.Kind))
	}

	if math.IsNaN(seg.LevelDB) || math.IsInf(seg.LevelDB, 0) || seg.LevelDB > 0 {
		errs = append(errs, fmt.Errorf("level_db must be finite and <= 0: %v", seg.LevelDB))
	}
	if !finitePositive(seg.DurationMs) {
		errs = append(errs, fmt.Errorf("duration_ms must be > 0: %v", seg.DurationMs))
	}

	return errors.Join(errs...)
}

func checkRange(spec dynamics.ParamSpec, v float64) error {
	if math.IsNaN(v) || v < spec.Min || v > spec.Max {
		return fmt.Errorf("%v out of range [%g, %g]", v, spec.Min, spec.Max)
	}
	return nil
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
