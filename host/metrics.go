package host

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope for all gate metrics.
const meterName = "github.com/cwbudde/silentroom"

// Metrics exports the gate's meter and block throughput through the
// OpenTelemetry Metrics API. The gain-reduction gauge is observable: the
// SDK reads the [MeterReader] at collection time, so the audio path never
// touches OpenTelemetry.
type Metrics struct {
	// Blocks counts processed audio blocks.
	Blocks metric.Int64Counter

	// GainReduction reports the latest block gain reduction in dB.
	GainReduction metric.Float64ObservableGauge

	registration metric.Registration
}

// NewMetrics creates the instruments on mp and registers the gauge
// callback against reader.
func NewMetrics(mp metric.MeterProvider, reader MeterReader) (*Metrics, error) {
	m := mp.Meter(meterName)
	met := &Metrics{}

	var err error
	if met.Blocks, err = m.Int64Counter("silentroom.blocks",
		metric.WithDescription("Audio blocks processed."),
		metric.WithUnit("{block}"),
	); err != nil {
		return nil, fmt.Errorf("host: blocks counter: %w", err)
	}
	if met.GainReduction, err = m.Float64ObservableGauge("silentroom.gain_reduction",
		metric.WithDescription("Deepest gain reduction of the most recent block."),
		metric.WithUnit("dB"),
	); err != nil {
		return nil, fmt.Errorf("host: gain reduction gauge: %w", err)
	}

	met.registration, err = m.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveFloat64(met.GainReduction, reader.Read())
		return nil
	}, met.GainReduction)
	if err != nil {
		return nil, fmt.Errorf("host: register gauge callback: %w", err)
	}

	return met, nil
}

// Close unregisters the gauge callback.
func (m *Metrics) Close() error {
	return m.registration.Unregister()
}
