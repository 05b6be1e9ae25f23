// Package host drives a block processor the way an audio plugin host does.
//
// It owns the collaborators that sit around the gate's signal path: the
// processing and lifecycle boundary ([Processor]), block-synchronous
// parameter automation, a smoothed display meter polled at its own rate,
// and OpenTelemetry export of the gain-reduction meter.
//
// [Host.Run] runs two actors concurrently. The audio actor processes the
// input block by block and never waits on anything but the block handshake.
// The control actor applies automation at block boundaries and polls the
// meter into a [DisplayMeter] on a virtual clock derived from the sample
// count, so runs are reproducible.
package host
