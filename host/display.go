package host

import (
	"fmt"

	"github.com/cwbudde/silentroom/dsp/core"
)

const (
	// DefaultDisplaySmoothing is the weight kept from the previous display
	// value on each update.
	DefaultDisplaySmoothing = 0.8

	// DisplayRangeDB is the reduction shown as a full meter bar.
	DisplayRangeDB = 60.0
)

// DisplayMeter smooths raw per-block gain-reduction readings for display.
// Raw values jump from block to block; the display eases toward them.
//
// A DisplayMeter belongs to the polling goroutine and is not safe for
// concurrent use.
type DisplayMeter struct {
	smoothing float64
	value     float64
}

// NewDisplayMeter returns a meter using [DefaultDisplaySmoothing].
func NewDisplayMeter() *DisplayMeter {
	return &DisplayMeter{smoothing: DefaultDisplaySmoothing}
}

// NewDisplayMeterWithSmoothing returns a meter keeping the given fraction of
// the previous value per update. smoothing is clamped to [0, 1).
func NewDisplayMeterWithSmoothing(smoothing float64) *DisplayMeter {
	return &DisplayMeter{smoothing: core.Clamp(smoothing, 0, 0.999)}
}

// Update folds a raw reading into the display value and returns it.
func (d *DisplayMeter) Update(raw float64) float64 {
	d.value = d.value*d.smoothing + raw*(1-d.smoothing)
	return d.value
}

// Value returns the smoothed reduction in dB.
func (d *DisplayMeter) Value() float64 {
	return d.value
}

// Normalized returns the bar length in [0, 1]: 0 for no reduction, 1 for
// [DisplayRangeDB] or more.
func (d *DisplayMeter) Normalized() float64 {
	return core.Clamp(-d.value/DisplayRangeDB, 0, 1)
}

// Reset returns the display to 0 dB.
func (d *DisplayMeter) Reset() {
	d.value = 0
}

func (d *DisplayMeter) String() string {
	return fmt.Sprintf("GR: %.1f dB", d.value)
}
