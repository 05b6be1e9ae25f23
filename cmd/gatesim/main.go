// Command gatesim renders a scenario through the noise gate and prints a
// metering table.
//
// Usage:
//
//	gatesim [flags]
//
// Without -config it gates a one-second -50 dBFS 1 kHz stereo tone. Flags
// override values from the scenario file.
//
// Examples:
//
//	gatesim -threshold -40 -ratio 10
//	gatesim -config scenario.yaml -every 4
//	gatesim -kind noise -level -70 -attack 1 -release 500
//	gatesim -curve -threshold -30 -ratio 4
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	ossignal "os/signal"
	"strings"
	"text/tabwriter"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/cwbudde/silentroom/dsp/core"
	"github.com/cwbudde/silentroom/dsp/effects/dynamics"
	"github.com/cwbudde/silentroom/dsp/signal"
	"github.com/cwbudde/silentroom/host"
	"github.com/cwbudde/silentroom/internal/config"
	"github.com/cwbudde/silentroom/measure/attenuation"
)

const barWidth = 24

type options struct {
	configPath string
	every      int
	curve      bool
	realtime   bool
	verbose    bool

	// set holds the flags given on the command line, so that only those
	// override the scenario.
	set map[string]bool

	sampleRate float64
	blockSize  int
	channels   int
	threshold  float64
	ratio      float64
	attack     float64
	release    float64
	kind       string
	level      float64
	freq       float64
	duration   float64
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "YAML scenario file")
	flag.IntVar(&o.every, "every", 0, "print every n-th block (0 picks about 20 rows)")
	flag.BoolVar(&o.curve, "curve", false, "print the static transfer curve and exit")
	flag.BoolVar(&o.realtime, "realtime", false, "pace processing at the nominal block rate")
	flag.BoolVar(&o.verbose, "v", false, "log automation and lifecycle events")
	flag.Float64Var(&o.sampleRate, "rate", 48000, "sample rate in Hz")
	flag.IntVar(&o.blockSize, "block", 512, "block size in samples")
	flag.IntVar(&o.channels, "channels", 2, "channel count")
	flag.Float64Var(&o.threshold, "threshold", -60, "threshold in dB [-60, 0]")
	flag.Float64Var(&o.ratio, "ratio", 1, "ratio [1, 50]")
	flag.Float64Var(&o.attack, "attack", 10, "attack in ms [1, 100]")
	flag.Float64Var(&o.release, "release", 100, "release in ms [10, 2000]")
	flag.StringVar(&o.kind, "kind", "tone", "input kind: tone, dc, noise, silence")
	flag.Float64Var(&o.level, "level", -50, "input level in dBFS")
	flag.Float64Var(&o.freq, "freq", 1000, "tone frequency in Hz")
	flag.Float64Var(&o.duration, "duration", 1000, "input duration in ms")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: gatesim [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Renders a test signal through the noise gate and prints block metering.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  gatesim -threshold -40 -ratio 10\n")
		fmt.Fprintf(os.Stderr, "  gatesim -config scenario.yaml -every 4\n")
		fmt.Fprintf(os.Stderr, "  gatesim -curve -threshold -30 -ratio 4\n")
	}
	flag.Parse()

	o.set = make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { o.set[f.Name] = true })

	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, o, os.Stdout, logger); err != nil {
		logger.Error("gatesim failed", slog.Any("error", err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, o options, w io.Writer, logger *slog.Logger) error {
	scenario, err := loadScenario(o)
	if err != nil {
		return err
	}

	gate, err := dynamics.NewGate(scenario.ProcessorOptions()...)
	if err != nil {
		return err
	}
	if err := scenario.ApplyParams(gate.Parameters()); err != nil {
		return err
	}

	if o.curve {
		return printCurve(w, gate)
	}

	input, err := scenario.Render()
	if err != nil {
		return err
	}
	automation, err := scenario.HostAutomation()
	if err != nil {
		return err
	}

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	metrics, err := host.NewMetrics(mp, gate)
	if err != nil {
		return err
	}
	defer func() { _ = metrics.Close() }()

	h, err := host.New(host.GatePlugin(gate),
		host.WithProcessorOptions(scenario.ProcessorOptions()...),
		host.WithLogger(logger),
		host.WithMeterRate(scenario.MeterRate),
		host.WithMetrics(metrics),
		host.WithRealtime(o.realtime),
	)
	if err != nil {
		return err
	}

	logger.Info("running scenario",
		slog.String("params", gate.Parameters().Snapshot().String()),
		slog.Int("frames", input.Frames()),
	)

	report, err := h.Run(ctx, input, automation)
	if err != nil {
		return err
	}

	if err := printBlocks(w, scenario, input.Channel(0), report, o.every); err != nil {
		return err
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		return fmt.Errorf("collect metrics: %w", err)
	}

	return printSummary(w, scenario, input.Channel(0), report, rm)
}

func loadScenario(o options) (*config.Scenario, error) {
	s := config.Default()
	if o.configPath != "" {
		var err error
		if s, err = config.Load(o.configPath); err != nil {
			return nil, err
		}
	}

	overrides := map[string]func(){
		"rate":      func() { s.SampleRate = o.sampleRate },
		"block":     func() { s.BlockSize = o.blockSize },
		"channels":  func() { s.Channels = o.channels },
		"threshold": func() { s.Params.Threshold = &o.threshold },
		"ratio":     func() { s.Params.Ratio = &o.ratio },
		"attack":    func() { s.Params.Attack = &o.attack },
		"release":   func() { s.Params.Release = &o.release },
		"kind":      func() { s.Signal.Kind = signal.Kind(strings.ToLower(o.kind)) },
		"level":     func() { s.Signal.LevelDB = o.level },
		"freq":      func() { s.Signal.FreqHz = o.freq },
		"duration":  func() { s.Signal.DurationMs = o.duration },
	}

	signalFlag := false
	for name, apply := range overrides {
		if o.set[name] {
			apply()
			signalFlag = signalFlag || name == "kind" || name == "level" || name == "freq" || name == "duration"
		}
	}

	// Signal flags describe a single segment and replace any sequence.
	if signalFlag {
		s.Segments = nil
	}

	if err := config.Validate(s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return s, nil
}

func printCurve(w io.Writer, gate *dynamics.Gate) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Gate: %s\n\n", gate.Parameters().Snapshot())
	fmt.Fprintf(tw, "Input [dB]\tGR [dB]\tOutput [dB]\n")
	fmt.Fprintf(tw, "----------\t-------\t-----------\n")

	for level := 0.0; level >= dynamics.LevelFloorDB; level -= 10 {
		gr := gate.StaticReduction(level)
		fmt.Fprintf(tw, "%.0f\t%.1f\t%.1f\n", level, gr, level+gr)
	}
	return tw.Flush()
}

func printBlocks(w io.Writer, s *config.Scenario, in []float64, report *host.Report, every int) error {
	blocks := len(report.BlockReduction)
	if every <= 0 {
		every = max(1, blocks/20)
	}

	inDB, err := attenuation.Profile(in, s.BlockSize)
	if err != nil {
		return err
	}
	outDB, err := attenuation.Profile(report.Output.Channel(0), s.BlockSize)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Block\tTime [ms]\tIn [dB]\tOut [dB]\tGR [dB]\tMeter\n")
	fmt.Fprintf(tw, "-----\t---------\t-------\t--------\t-------\t-----\n")

	for b := 0; b < blocks; b += every {
		gr := report.BlockReduction[b]
		fill := int(core.Clamp(-gr/host.DisplayRangeDB, 0, 1) * barWidth)
		fmt.Fprintf(tw, "%d\t%.1f\t%.1f\t%.1f\t%.1f\t%s\n",
			b,
			float64(b*s.BlockSize)/s.SampleRate*1000,
			inDB[b],
			outDB[b],
			gr,
			strings.Repeat("#", fill)+strings.Repeat(".", barWidth-fill),
		)
	}
	return tw.Flush()
}

func printSummary(w io.Writer, s *config.Scenario, in []float64, report *host.Report, rm metricdata.ResourceMetrics) error {
	display := host.NewDisplayMeter()
	if n := len(report.Display); n > 0 {
		display = host.NewDisplayMeterWithSmoothing(0)
		display.Update(report.Display[n-1])
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "\nSummary\n-------\n")
	fmt.Fprintf(tw, "Deepest reduction\t%.1f dB\n", report.DeepestReduction())
	fmt.Fprintf(tw, "Display\t%s\n", display)
	fmt.Fprintf(tw, "Automation applied\t%d\n", report.Applied)

	if gain, err := attenuation.GainDB(in, report.Output.Channel(0)); err == nil {
		fmt.Fprintf(tw, "Broadband gain\t%.1f dB\n", gain)
	}

	for _, seg := range s.SignalSegments() {
		if seg.Kind != signal.KindTone {
			continue
		}
		a, err := attenuation.NewAnalyzer(attenuation.Config{SampleRate: s.SampleRate})
		if err != nil {
			return err
		}
		if gain, err := a.ToneGainDB(in, report.Output.Channel(0), seg.FreqHz); err == nil {
			fmt.Fprintf(tw, "Tone gain @ %.0f Hz\t%.1f dB\n", seg.FreqHz, gain)
		}
		break
	}

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					fmt.Fprintf(tw, "%s\t%d\n", m.Name, dp.Value)
				}
			case metricdata.Gauge[float64]:
				for _, dp := range data.DataPoints {
					fmt.Fprintf(tw, "%s\t%.1f %s\n", m.Name, dp.Value, m.Unit)
				}
			}
		}
	}

	return tw.Flush()
}
