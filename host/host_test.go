package host

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/cwbudde/silentroom/dsp/buffer"
	"github.com/cwbudde/silentroom/dsp/core"
	"github.com/cwbudde/silentroom/dsp/effects/dynamics"
	"github.com/cwbudde/silentroom/internal/testutil"
)

var (
	_ Processor   = (*dynamics.Gate)(nil)
	_ MeterReader = (*dynamics.Gate)(nil)
	_ MeterReader = (*dynamics.Meter)(nil)
	_ Plugin      = GatePlugin(nil)
)

func newGateHost(t *testing.T, opts ...Option) (*Host, *dynamics.Gate) {
	t.Helper()

	g, err := dynamics.NewGate()
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}

	params := g.Parameters()
	_ = params.Set(dynamics.ParamThreshold, -40)
	_ = params.Set(dynamics.ParamRatio, 10)

	h, err := New(GatePlugin(g), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return h, g
}

func TestNewRejectsNilPlugin(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil plugin")
	}
}

func TestNewDefaults(t *testing.T) {
	h, err := New(newRecorder(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := h.Config(), core.DefaultProcessorConfig(); got != want {
		t.Fatalf("Config() = %+v, want %+v", got, want)
	}
	if h.meterRate != DefaultMeterRate {
		t.Fatalf("meterRate = %f, want %f", h.meterRate, DefaultMeterRate)
	}

	WithMeterRate(-1)(h)
	WithMeterRate(math.Inf(1))(h)
	WithLogger(nil)(h)
	if h.meterRate != DefaultMeterRate || h.logger == nil {
		t.Fatal("invalid options must be ignored")
	}
}

func TestRunGatesSilence(t *testing.T) {
	h, g := newGateHost(t, WithProcessorOptions(core.WithBlockSize(512)))

	in := buffer.FromChannels(testutil.Channels(testutil.DeterministicNoise(1, 1e-4, 4800), 2))
	orig := testutil.CloneChannels(in.Channels())

	report, err := h.Run(context.Background(), in, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := len(report.BlockReduction); got != 10 {
		t.Fatalf("blocks = %d, want 10", got)
	}
	for i, gr := range report.BlockReduction {
		if gr >= 0 {
			t.Fatalf("block %d reduction = %f, want < 0", i, gr)
		}
	}
	if got := report.DeepestReduction(); got > g.Read() {
		t.Fatalf("deepest %f shallower than last block %f", got, g.Read())
	}

	for c := range orig {
		testutil.RequireSliceNearlyEqual(t, in.Channel(c), orig[c], 0)
		testutil.RequireAttenuated(t, orig[c], report.Output.Channel(c))
	}
}

func TestRunPartialLastBlock(t *testing.T) {
	rec := newRecorder()
	h, err := New(rec, WithProcessorOptions(core.WithBlockSize(100), core.WithChannels(1)))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := h.Run(context.Background(), buffer.NewPlanar(1, 250), nil); err != nil {
		t.Fatal(err)
	}

	want := []int{100, 100, 50}
	if len(rec.lengths) != len(want) {
		t.Fatalf("lengths = %v, want %v", rec.lengths, want)
	}
	for i := range want {
		if rec.lengths[i] != want[i] || rec.channels[i] != 1 {
			t.Fatalf("call %d: samples %d channels %d", i, rec.lengths[i], rec.channels[i])
		}
	}
	if rec.prepared != 1 {
		t.Fatalf("prepared %d times, want 1", rec.prepared)
	}
}

func TestRunAppliesAutomationAtBlockBoundaries(t *testing.T) {
	rec := newRecorder()
	h, err := New(rec, WithProcessorOptions(core.WithBlockSize(64)))
	if err != nil {
		t.Fatal(err)
	}

	automation := []Automation{
		{Block: 5, Param: dynamics.ParamThreshold, Value: -20},
		{Block: 2, Param: dynamics.ParamThreshold, Value: -30},
		{Block: -1, Param: dynamics.ParamThreshold, Value: -50},
		{Block: 99, Param: dynamics.ParamThreshold, Value: -10},
	}

	report, err := h.Run(context.Background(), buffer.NewPlanar(2, 64*8), automation)
	if err != nil {
		t.Fatal(err)
	}

	want := []float64{-50, -50, -30, -30, -30, -20, -20, -20}
	if len(rec.seen) != len(want) {
		t.Fatalf("seen %v, want %v", rec.seen, want)
	}
	for i := range want {
		if rec.seen[i] != want[i] {
			t.Fatalf("block %d saw threshold %f, want %f", i, rec.seen[i], want[i])
		}
	}
	if report.Applied != 3 {
		t.Fatalf("Applied = %d, want 3", report.Applied)
	}
}

func TestRunAutomationChangesGate(t *testing.T) {
	h, g := newGateHost(t, WithProcessorOptions(core.WithBlockSize(256), core.WithChannels(1)))

	in := buffer.FromChannels([][]float64{testutil.DCAtDB(-30, 256*40)})
	automation := []Automation{{Block: 20, Param: dynamics.ParamThreshold, Value: -20}}

	report, err := h.Run(context.Background(), in, automation)
	if err != nil {
		t.Fatal(err)
	}

	// -30 dB sits above the -40 dB threshold, then below the automated one.
	if gr := report.BlockReduction[19]; gr != 0 {
		t.Fatalf("block 19 reduction = %f, want 0", gr)
	}
	if gr := report.BlockReduction[39]; gr >= 0 {
		t.Fatalf("block 39 reduction = %f, want < 0", gr)
	}
	if got := g.Parameters().Get(dynamics.ParamThreshold); got != -20 {
		t.Fatalf("threshold = %f, want -20", got)
	}
}

func TestRunAutomationErrorAborts(t *testing.T) {
	rec := newRecorder()
	h, err := New(rec, WithProcessorOptions(core.WithBlockSize(32)))
	if err != nil {
		t.Fatal(err)
	}

	_, err = h.Run(context.Background(), buffer.NewPlanar(1, 32*10), []Automation{
		{Block: 3, Param: dynamics.ParamRatio, Value: rec.rejectAt},
	})
	if !errors.Is(err, errRejected) {
		t.Fatalf("Run error = %v, want errRejected", err)
	}
	if len(rec.seen) > 3 {
		t.Fatalf("processed %d blocks after failed automation", len(rec.seen))
	}
}

func TestRunErrors(t *testing.T) {
	rec := newRecorder()
	rec.prepareErr = errors.New("boom")
	h, err := New(rec)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := h.Run(context.Background(), buffer.NewPlanar(1, 10), nil); !errors.Is(err, rec.prepareErr) {
		t.Fatalf("prepare error = %v", err)
	}
	if _, err := h.Run(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error for nil input")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := h.Run(ctx, buffer.NewPlanar(1, 10), nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled error = %v", err)
	}
}

func TestRunDisplayTicks(t *testing.T) {
	rec := newRecorder()
	rec.reading = -20

	// 48 kHz at 60 Hz is one display tick every 800 samples.
	h, err := New(rec, WithProcessorOptions(core.WithBlockSize(512)), WithMeterRate(60))
	if err != nil {
		t.Fatal(err)
	}

	report, err := h.Run(context.Background(), buffer.NewPlanar(2, 4800), nil)
	if err != nil {
		t.Fatal(err)
	}

	if got := len(report.Display); got != 6 {
		t.Fatalf("display ticks = %d, want 6", got)
	}

	want := 0.0
	for i, v := range report.Display {
		want = want*0.8 + -20*0.2
		if math.Abs(v-want) > 1e-12 {
			t.Fatalf("tick %d = %f, want %f", i, v, want)
		}
	}
}

func TestRunClearsInactiveChannels(t *testing.T) {
	h, _ := newGateHost(t, WithProcessorOptions(core.WithChannels(1), core.WithBlockSize(128)))

	in := buffer.FromChannels(testutil.Channels(testutil.DC(0.5, 1000), 2))
	report, err := h.Run(context.Background(), in, nil)
	if err != nil {
		t.Fatal(err)
	}

	for i, v := range report.Output.Channel(1) {
		if v != 0 {
			t.Fatalf("inactive channel sample %d = %f", i, v)
		}
	}
	if v := report.Output.Channel(0)[999]; v != 0.5 {
		t.Fatalf("active channel sample = %f, want 0.5", v)
	}
}

func TestRunRealtimePacing(t *testing.T) {
	rec := newRecorder()

	// 480 samples per block at 48 kHz is 10 ms.
	h, err := New(rec, WithProcessorOptions(core.WithBlockSize(480)), WithRealtime(true))
	if err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	if _, err := h.Run(context.Background(), buffer.NewPlanar(1, 480*3), nil); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("realtime run took %v, want at least 20ms", elapsed)
	}
}

func TestRunRepeatedIsDeterministic(t *testing.T) {
	h, _ := newGateHost(t, WithProcessorOptions(core.WithBlockSize(300)))

	in := buffer.FromChannels(testutil.Channels(testutil.DeterministicNoise(7, 0.02, 6000), 2))
	first, err := h.Run(context.Background(), in, nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := h.Run(context.Background(), in, nil)
	if err != nil {
		t.Fatal(err)
	}

	// Prepare resets the gate, so a second run starts from the same state.
	for c := range 2 {
		testutil.RequireSliceNearlyEqual(t, second.Output.Channel(c), first.Output.Channel(c), 0)
	}
}
