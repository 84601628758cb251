// Package aec implements a Normalized Least Mean Squares acoustic echo
// canceller.
//
// A Canceller estimates the echo of a known render (far-end) signal
// inside a capture (near-end) signal and emits the residual. The
// normalization divides each gradient step by the energy of the render
// history, which makes a single fixed step size usable across widely
// varying signal levels.
//
// Canceller.ProcessBlock takes the per-block adapt decision as an
// argument so the caller can plug in any double-talk policy; Processor
// bundles a Canceller with the block-level gate from
// github.com/cwbudde/algo-aec/dsp/gate for the common case.
//
// The hot path performs no allocation and no I/O. A Canceller is not
// safe for concurrent use; each processing loop owns its own instance.
package aec
