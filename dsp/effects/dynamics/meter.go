package dynamics

// Meter carries the deepest gain reduction of the most recent block from
// the audio path to a display. Publish and Read never block; a reader polling
// slower than the block rate simply misses intermediate values.
type Meter struct {
	value atomicFloat
}

// Publish makes db visible to readers.
func (m *Meter) Publish(db float64) {
	m.value.Store(db)
}

// Read returns the last published value, or 0 before the first publish.
func (m *Meter) Read() float64 {
	return m.value.Load()
}

// Reset publishes 0.
func (m *Meter) Reset() {
	m.value.Store(0)
}
