package buffer

import "fmt"

// Planar holds one sample slice per channel, all of equal length.
type Planar struct {
	channels [][]float64
	frames   int
}

// NewPlanar returns a zero-filled buffer with the given channel and frame
// counts. Negative counts are treated as zero.
func NewPlanar(channels, frames int) *Planar {
	if channels < 0 {
		channels = 0
	}
	if frames < 0 {
		frames = 0
	}

	backing := make([]float64, channels*frames)
	p := &Planar{channels: make([][]float64, channels), frames: frames}
	for ch := range p.channels {
		p.channels[ch] = backing[ch*frames : (ch+1)*frames : (ch+1)*frames]
	}
	return p
}

// FromChannels wraps existing channel slices without copying. The frame
// count is the length of the shortest channel.
func FromChannels(channels [][]float64) *Planar {
	frames := 0
	for i, ch := range channels {
		if i == 0 || len(ch) < frames {
			frames = len(ch)
		}
	}

	wrapped := make([][]float64, len(channels))
	for i, ch := range channels {
		wrapped[i] = ch[:frames]
	}
	return &Planar{channels: wrapped, frames: frames}
}

// Channels returns the per-channel slices.
func (p *Planar) Channels() [][]float64 {
	return p.channels
}

// Channel returns the samples of channel i.
func (p *Planar) Channel(i int) []float64 {
	return p.channels[i]
}

// NumChannels returns the channel count.
func (p *Planar) NumChannels() int {
	return len(p.channels)
}

// Frames returns the number of samples per channel.
func (p *Planar) Frames() int {
	return p.frames
}

// View fills dst with per-channel sub-slices covering [start, start+n) and
// returns it. dst is reused when it has enough capacity, so a caller that
// keeps dst across blocks does not allocate. The range is clamped to the
// buffer.
func (p *Planar) View(dst [][]float64, start, n int) [][]float64 {
	if start < 0 {
		start = 0
	}
	if start > p.frames {
		start = p.frames
	}
	end := start + n
	if n < 0 || end > p.frames {
		end = p.frames
	}

	if cap(dst) < len(p.channels) {
		dst = make([][]float64, len(p.channels))
	}
	dst = dst[:len(p.channels)]
	for ch := range p.channels {
		dst[ch] = p.channels[ch][start:end]
	}
	return dst
}

// Zero sets all samples to 0.
func (p *Planar) Zero() {
	for _, ch := range p.channels {
		for i := range ch {
			ch[i] = 0
		}
	}
}

// Copy returns a deep copy of the buffer.
func (p *Planar) Copy() *Planar {
	out := NewPlanar(len(p.channels), p.frames)
	for ch := range p.channels {
		copy(out.channels[ch], p.channels[ch])
	}
	return out
}

// Deinterleave splits interleaved frames from src into dst. len(src) must
// equal dst.NumChannels()*dst.Frames().
func Deinterleave(dst *Planar, src []float64) error {
	n := len(dst.channels)
	if n == 0 {
		return fmt.Errorf("deinterleave into buffer without channels")
	}
	if len(src) != n*dst.frames {
		return fmt.Errorf("deinterleave length mismatch: got %d samples, want %d", len(src), n*dst.frames)
	}

	for i := 0; i < dst.frames; i++ {
		frame := src[i*n : i*n+n]
		for ch, v := range frame {
			dst.channels[ch][i] = v
		}
	}
	return nil
}

// Interleave writes src as interleaved frames into dst. len(dst) must equal
// src.NumChannels()*src.Frames().
func Interleave(dst []float64, src *Planar) error {
	n := len(src.channels)
	if len(dst) != n*src.frames {
		return fmt.Errorf("interleave length mismatch: got %d samples, want %d", len(dst), n*src.frames)
	}

	for i := 0; i < src.frames; i++ {
		for ch := 0; ch < n; ch++ {
			dst[i*n+ch] = src.channels[ch][i]
		}
	}
	return nil
}
