package host

import (
	"errors"
	"sync"

	"github.com/cwbudde/silentroom/dsp/effects/dynamics"
)

// recorder is a Plugin that records what the host does to it.
type recorder struct {
	mu sync.Mutex

	prepareErr error
	rejectAt   float64
	reading    float64

	prepared  int
	threshold float64
	seen      []float64
	lengths   []int
	channels  []int
}

var errRejected = errors.New("rejected")

func newRecorder() *recorder {
	return &recorder{threshold: dynamics.DefaultSnapshot().ThresholdDB, rejectAt: 1}
}

func (r *recorder) Prepare(float64, int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prepared++
	return r.prepareErr
}

func (r *recorder) Process(buf [][]float64, numSamples, numChannels int, _ float64) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, r.threshold)
	r.lengths = append(r.lengths, numSamples)
	r.channels = append(r.channels, numChannels)
	return r.reading
}

func (r *recorder) Read() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reading
}

func (r *recorder) Set(id dynamics.ParamID, v float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v == r.rejectAt {
		return errRejected
	}
	if id == dynamics.ParamThreshold {
		r.threshold = v
	}
	return nil
}
