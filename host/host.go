package host

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/silentroom/dsp/buffer"
	"github.com/cwbudde/silentroom/dsp/core"
	"github.com/cwbudde/silentroom/dsp/effects/dynamics"
)

// DefaultMeterRate is the display refresh rate in Hz.
const DefaultMeterRate = 60.0

// Automation is a parameter change that takes effect before block Block is
// processed.
type Automation struct {
	Block int
	Param dynamics.ParamID
	Value float64
}

// Report summarises a run.
type Report struct {
	// Output is the processed copy of the input.
	Output *buffer.Planar

	// BlockReduction holds the value Process returned for every block.
	BlockReduction []float64

	// Display holds the smoothed meter value at every display tick.
	Display []float64

	// Applied counts automation events that reached the processor.
	Applied int
}

// DeepestReduction returns the most negative block reduction of the run.
func (r *Report) DeepestReduction() float64 {
	deepest := 0.0
	for _, v := range r.BlockReduction {
		deepest = min(deepest, v)
	}
	return deepest
}

// Option configures a Host.
type Option func(*Host)

// WithProcessorOptions sets sample rate, block size and channel count.
func WithProcessorOptions(opts ...core.ProcessorOption) Option {
	return func(h *Host) {
		h.cfg = core.ApplyProcessorOptions(opts...)
	}
}

// WithLogger sets the logger used for run lifecycle and automation events.
func WithLogger(l *slog.Logger) Option {
	return func(h *Host) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithMeterRate sets the display polling rate in Hz.
func WithMeterRate(hz float64) Option {
	return func(h *Host) {
		if hz > 0 && core.IsFinite(hz) {
			h.meterRate = hz
		}
	}
}

// WithMetrics records block counts on m.
func WithMetrics(m *Metrics) Option {
	return func(h *Host) {
		h.metrics = m
	}
}

// WithRealtime paces the audio actor at the nominal block period instead of
// running as fast as possible.
func WithRealtime(enabled bool) Option {
	return func(h *Host) {
		h.realtime = enabled
	}
}

// Host feeds a [Plugin] with blocks of audio and automation.
type Host struct {
	plugin    Plugin
	cfg       core.ProcessorConfig
	logger    *slog.Logger
	meterRate float64
	realtime  bool
	metrics   *Metrics
}

// New creates a host for plugin.
func New(plugin Plugin, opts ...Option) (*Host, error) {
	if plugin == nil {
		return nil, errors.New("host: plugin must not be nil")
	}

	h := &Host{
		plugin:    plugin,
		cfg:       core.DefaultProcessorConfig(),
		logger:    slog.New(slog.DiscardHandler),
		meterRate: DefaultMeterRate,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}

	return h, nil
}

// Config returns the stream configuration.
func (h *Host) Config() core.ProcessorConfig {
	return h.cfg
}

// Run prepares the plugin and streams input through it. Only the first
// Config().Channels channels of input are active; the rest are cleared by
// the processor. input is not modified.
func (h *Host) Run(ctx context.Context, input *buffer.Planar, automation []Automation) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if input == nil || input.NumChannels() == 0 {
		return nil, errors.New("host: input has no channels")
	}

	events := slices.Clone(automation)
	slices.SortStableFunc(events, func(a, b Automation) int { return cmp.Compare(a.Block, b.Block) })

	if err := h.plugin.Prepare(h.cfg.SampleRate, h.cfg.BlockSize); err != nil {
		return nil, fmt.Errorf("host: prepare: %w", err)
	}

	blocks := (input.Frames() + h.cfg.BlockSize - 1) / h.cfg.BlockSize
	report := &Report{
		Output:         input.Copy(),
		BlockReduction: make([]float64, blocks),
	}

	h.logger.Info("stream started",
		slog.Float64("sample_rate", h.cfg.SampleRate),
		slog.Int("block_size", h.cfg.BlockSize),
		slog.Int("channels", h.cfg.Channels),
		slog.Int("blocks", blocks),
		slog.Int("automation", len(events)),
	)

	// boundary carries the index of the block about to be processed; the
	// audio actor waits for ack before processing it.
	boundary := make(chan int)
	ack := make(chan struct{})

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return h.runAudio(egCtx, report, boundary, ack)
	})
	eg.Go(func() error {
		return h.runControl(egCtx, events, report, boundary, ack)
	})

	if err := eg.Wait(); err != nil {
		h.logger.Warn("stream aborted", slog.Any("error", err))
		return nil, err
	}

	h.logger.Info("stream finished",
		slog.Float64("deepest_reduction_db", report.DeepestReduction()),
		slog.Int("automation_applied", report.Applied),
	)

	return report, nil
}

func (h *Host) runAudio(ctx context.Context, report *Report, boundary chan<- int, ack <-chan struct{}) error {
	defer close(boundary)

	var tick <-chan time.Time
	if h.realtime {
		period := time.Duration(float64(h.cfg.BlockSize) / h.cfg.SampleRate * float64(time.Second))
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		tick = ticker.C
	}

	out := report.Output
	view := make([][]float64, 0, out.NumChannels())

	for b := range report.BlockReduction {
		select {
		case boundary <- b:
		case <-ctx.Done():
			return ctx.Err()
		}
		select {
		case <-ack:
		case <-ctx.Done():
			return ctx.Err()
		}

		view = out.View(view, b*h.cfg.BlockSize, h.cfg.BlockSize)
		report.BlockReduction[b] = h.plugin.Process(view, len(view[0]), h.cfg.Channels, h.cfg.SampleRate)

		if h.metrics != nil {
			h.metrics.Blocks.Add(ctx, 1)
		}

		if tick != nil {
			select {
			case <-tick:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return nil
}

func (h *Host) runControl(ctx context.Context, events []Automation, report *Report, boundary <-chan int, ack chan<- struct{}) error {
	display := NewDisplayMeter()
	ticks := h.cfg.SampleRate / h.meterRate
	nextTick := ticks

	poll := func(now float64) {
		for nextTick <= now {
			report.Display = append(report.Display, display.Update(h.plugin.Read()))
			nextTick += ticks
		}
	}

	for {
		select {
		case b, ok := <-boundary:
			if !ok {
				poll(float64(report.Output.Frames()))
				return nil
			}
			poll(float64(b * h.cfg.BlockSize))

			for len(events) > 0 && events[0].Block <= b {
				ev := events[0]
				events = events[1:]

				if err := h.plugin.Set(ev.Param, ev.Value); err != nil {
					return fmt.Errorf("host: automation at block %d: %w", ev.Block, err)
				}
				report.Applied++
				h.logger.Debug("automation applied",
					slog.Int("block", b),
					slog.String("param", ev.Param.String()),
					slog.Float64("value", ev.Value),
				)
			}

			select {
			case ack <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
