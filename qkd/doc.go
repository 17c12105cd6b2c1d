// Package qkd provides the core simulation engine for BB84 and B92
// quantum key distribution runs.
//
// # Reading Guide
//
// Start with these three files to understand the engine:
//   - qubit.go: bits, bases, symbolic states, measurement outcomes, and
//     the per-protocol encoders
//   - channel.go: loss, bit-flip noise, and the intercept-resend
//     eavesdropper
//   - run.go: the stage machine (INIT -> TRANSMITTING -> SIFTING ->
//     ESTIMATING -> KEY_READY/ABORTED/CANCELLED) and its events
//
// # Architecture
//
// A Run is built from a RunConfig and driven with Advance (or
// RunToCompletion). Each stage's output feeds the next: the transmission
// record into the reconciler, the sifted key into the error estimator, the
// undisclosed remainder into the key extractor. Protocol variants plug in
// as an Encoder plus a reconciler predicate; the run itself is
// protocol-agnostic.
//
// All randomness flows from a per-run PartitionedRNG (rng.go) that derives
// isolated subsystem generators from a single seed, so identical
// configurations with identical seeds reproduce identical records, keys,
// and results, and independent runs can execute concurrently
// (experiment.go).
//
// Sub-package trace collects stage events for post-run inspection.
package qkd
