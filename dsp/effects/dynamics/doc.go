// Package dynamics implements the signal path of a linked-peak noise gate
// (downward expander) for real-time use.
//
// Components, leaf first:
//   - [Parameters]: one atomic cell per control (threshold, ratio, attack,
//     release), written by the control side at any time.
//   - [Snapshot]: the clamped per-block copy of the controls.
//   - [Ballistics]: one-pole attack/release coefficients, derived per block.
//   - [LinkedPeak] and [LevelDB]: stereo-linked peak level in dB with a
//     -100 dB floor.
//   - [TargetReduction]: the hard-knee gain law, 0 dB at and above the
//     threshold, -(threshold-level)*(1-1/ratio) below it.
//   - [EnvelopeFollower]: direction-dependent one-pole smoothing of the
//     target reduction, persistent across blocks.
//   - [Gate]: the block processor tying the above together.
//   - [Meter]: lock-free hand-off of the block's deepest reduction to a
//     display.
//
// Build with -tags fastmath to use approximated exp/log in the per-sample
// loop.
package dynamics
