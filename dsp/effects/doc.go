// Package effects provides reusable non-I/O DSP effect kernels.
//
// Effects in this package:
//   - Jammer: Fixed delayed-auditory-feedback line for speech jamming.
//
// All effects are designed for real-time processing with zero-allocation
// hot paths and support both single-sample and buffer-based processing.
package effects
