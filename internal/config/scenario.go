package config

import (
	"fmt"

	"github.com/cwbudde/silentroom/dsp/buffer"
	"github.com/cwbudde/silentroom/dsp/core"
	"github.com/cwbudde/silentroom/dsp/effects/dynamics"
	"github.com/cwbudde/silentroom/dsp/signal"
	"github.com/cwbudde/silentroom/host"
)

// ProcessorOptions returns the stream format as core options.
func (s *Scenario) ProcessorOptions() []core.ProcessorOption {
	return []core.ProcessorOption{
		core.WithSampleRate(s.SampleRate),
		core.WithBlockSize(s.BlockSize),
		core.WithChannels(s.Channels),
	}
}

// ApplyParams writes the configured controls into p. Unset controls are
// left alone.
func (s *Scenario) ApplyParams(p *dynamics.Parameters) error {
	set := []struct {
		id dynamics.ParamID
		v  *float64
	}{
		{dynamics.ParamThreshold, s.Params.Threshold},
		{dynamics.ParamRatio, s.Params.Ratio},
		{dynamics.ParamAttack, s.Params.Attack},
		{dynamics.ParamRelease, s.Params.Release},
	}
	for _, c := range set {
		if c.v == nil {
			continue
		}
		if err := p.Set(c.id, *c.v); err != nil {
			return fmt.Errorf("config: %s: %w", c.id, err)
		}
	}
	return nil
}

// HostAutomation resolves parameter identifiers into host automation events.
func (s *Scenario) HostAutomation() ([]host.Automation, error) {
	out := make([]host.Automation, 0, len(s.Automation))
	for i, a := range s.Automation {
		id, err := dynamics.LookupParam(a.Param)
		if err != nil {
			return nil, fmt.Errorf("config: automation[%d]: %w", i, err)
		}
		out = append(out, host.Automation{Block: a.Block, Param: id, Value: a.Value})
	}
	return out, nil
}

// SignalSegments returns the segments to render: Segments, or Signal alone.
func (s *Scenario) SignalSegments() []signal.Segment {
	src := s.Segments
	if len(src) == 0 {
		src = []Segment{s.Signal}
	}

	out := make([]signal.Segment, len(src))
	for i, seg := range src {
		out[i] = signal.Segment{
			Kind:       seg.Kind,
			LevelDB:    seg.LevelDB,
			FreqHz:     seg.FreqHz,
			DurationMs: seg.DurationMs,
		}
	}
	return out
}

// Render generates the input signal and copies it to every channel.
func (s *Scenario) Render() (*buffer.Planar, error) {
	gen := signal.NewGeneratorWithOptions(s.ProcessorOptions(), signal.WithSeed(s.Seed))

	mono, err := gen.Steps(s.SignalSegments())
	if err != nil {
		return nil, fmt.Errorf("config: render: %w", err)
	}
	return signal.Spread(mono, s.Channels), nil
}
