// Package buffer provides a planar multi-channel sample buffer and helpers
// to convert to and from interleaved layouts.
//
// The dynamics processors operate on planar [][]float64 blocks (one slice
// per channel). Hosts that deliver interleaved frames can use [Deinterleave]
// and [Interleave] around the processing call. A [Planar] owns its backing
// storage so block views can be taken without allocating.
package buffer
