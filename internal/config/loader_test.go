package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/silentroom/dsp/effects/dynamics"
	"github.com/cwbudde/silentroom/dsp/signal"
)

const fullScenario = `
sample_rate: 44100
block_size: 256
channels: 1
meter_rate: 30
seed: 7
params:
  threshold: -35
  ratio: 4
  attack: 2.5
  release: 300
segments:
  - kind: tone
    level_db: -20
    freq_hz: 440
    duration_ms: 100
  - kind: silence
    duration_ms: 50
  - kind: noise
    level_db: -70
    duration_ms: 50
automation:
  - block: 10
    param: threshold
    value: -50
  - block: 12
    param: RELEASE
    value: 50
`

func TestLoadFromReader_Full(t *testing.T) {
	s, err := LoadFromReader(strings.NewReader(fullScenario))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if s.SampleRate != 44100 || s.BlockSize != 256 || s.Channels != 1 || s.MeterRate != 30 || s.Seed != 7 {
		t.Fatalf("stream = %+v", s)
	}
	if s.Params.Threshold == nil || *s.Params.Threshold != -35 {
		t.Fatalf("threshold = %v", s.Params.Threshold)
	}
	if s.Params.Release == nil || *s.Params.Release != 300 {
		t.Fatalf("release = %v", s.Params.Release)
	}
	if len(s.Segments) != 3 || s.Segments[1].Kind != signal.KindSilence {
		t.Fatalf("segments = %+v", s.Segments)
	}
	if len(s.Automation) != 2 || s.Automation[1].Param != "RELEASE" {
		t.Fatalf("automation = %+v", s.Automation)
	}
}

func TestLoadFromReader_EmptyIsDefault(t *testing.T) {
	s, err := LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	d := Default()
	if s.SampleRate != d.SampleRate || s.BlockSize != d.BlockSize || s.Channels != d.Channels {
		t.Fatalf("got %+v, want defaults %+v", s, d)
	}
	if s.Signal != d.Signal {
		t.Fatalf("signal = %+v, want %+v", s.Signal, d.Signal)
	}
	if s.Params.Threshold != nil {
		t.Fatal("params must stay unset")
	}
}

func TestLoadFromReader_PartialKeepsDefaults(t *testing.T) {
	s, err := LoadFromReader(strings.NewReader("block_size: 64\nsignal:\n  level_db: -10\n"))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if s.BlockSize != 64 || s.SampleRate != 48000 {
		t.Fatalf("stream = %+v", s)
	}
	if s.Signal.LevelDB != -10 || s.Signal.FreqHz != 1000 || s.Signal.Kind != signal.KindTone {
		t.Fatalf("signal = %+v", s.Signal)
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("sample_rate: 48000\nthreshhold: -20\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
	if !strings.Contains(err.Error(), "decode yaml") {
		t.Fatalf("error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	ptr := func(v float64) *float64 { return &v }

	tests := []struct {
		name    string
		mutate  func(*Scenario)
		wantErr []string
	}{
		{name: "defaults", mutate: func(*Scenario) {}},
		{
			name: "stream format",
			mutate: func(s *Scenario) {
				s.SampleRate = 0
				s.BlockSize = -1
				s.Channels = 0
				s.MeterRate = 0
			},
			wantErr: []string{"sample_rate", "block_size", "channels", "meter_rate"},
		},
		{
			name: "params out of range",
			mutate: func(s *Scenario) {
				s.Params.Threshold = ptr(5)
				s.Params.Ratio = ptr(0.5)
				s.Params.Attack = ptr(1)
				s.Params.Release = ptr(5000)
			},
			wantErr: []string{"params.threshold", "params.ratio", "params.release"},
		},
		{
			name:    "signal kind",
			mutate:  func(s *Scenario) { s.Signal.Kind = "square" },
			wantErr: []string{`kind "square"`},
		},
		{
			name:    "tone above nyquist",
			mutate:  func(s *Scenario) { s.Signal.FreqHz = 30000 },
			wantErr: []string{"freq_hz"},
		},
		{
			name: "segments replace signal",
			mutate: func(s *Scenario) {
				s.Signal.Kind = "bogus"
				s.Segments = []Segment{{Kind: signal.KindDC, LevelDB: 3, DurationMs: 0}}
			},
			wantErr: []string{"segments[0]", "level_db", "duration_ms"},
		},
		{
			name: "automation",
			mutate: func(s *Scenario) {
				s.Automation = []Automation{
					{Block: -1, Param: "ratio", Value: 2},
					{Block: 0, Param: "knee", Value: 1},
					{Block: 0, Param: "attack", Value: 0},
				}
			},
			wantErr: []string{"automation[0].block", "automation[1].param", "automation[2].value"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(s)

			err := Validate(s)
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			for _, want := range tt.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error %q does not mention %q", err, want)
				}
			}
			if strings.Contains(err.Error(), "params.attack") {
				t.Errorf("attack 1 ms is in range: %v", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(fullScenario), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.SampleRate != 44100 {
		t.Fatalf("sample_rate = %v", s.SampleRate)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestScenarioWiring(t *testing.T) {
	s, err := LoadFromReader(strings.NewReader(fullScenario))
	if err != nil {
		t.Fatal(err)
	}

	params := dynamics.NewParameters()
	if err := s.ApplyParams(params); err != nil {
		t.Fatalf("ApplyParams: %v", err)
	}
	snap := params.Snapshot()
	if snap.ThresholdDB != -35 || snap.Ratio != 4 || snap.AttackMs != 2.5 || snap.ReleaseMs != 300 {
		t.Fatalf("snapshot = %+v", snap)
	}

	auto, err := s.HostAutomation()
	if err != nil {
		t.Fatalf("HostAutomation: %v", err)
	}
	if len(auto) != 2 || auto[0].Param != dynamics.ParamThreshold || auto[1].Param != dynamics.ParamRelease {
		t.Fatalf("automation = %+v", auto)
	}

	in, err := s.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	// 200 ms at 44.1 kHz.
	if in.NumChannels() != 1 || in.Frames() != 8820 {
		t.Fatalf("rendered %d x %d", in.NumChannels(), in.Frames())
	}
	for i, v := range in.Channel(0)[4410:6615] {
		if v != 0 {
			t.Fatalf("silence segment sample %d = %v", i, v)
		}
	}
}

func TestHostAutomationUnknownParam(t *testing.T) {
	s := Default()
	s.Automation = []Automation{{Param: "knee"}}

	if _, err := s.HostAutomation(); err == nil {
		t.Fatal("expected error for unknown parameter")
	}
}
