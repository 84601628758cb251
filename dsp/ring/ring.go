// Package ring provides a fixed-capacity sample ring with a running
// sum-of-squares energy estimate, the storage backbone for adaptive
// filters that need O(1) window maintenance per sample.
package ring

import (
	"fmt"
	"math"
)

const defaultEnergyFloor = 1e-3

// Option mutates ring construction parameters.
type Option func(*config) error

type config struct {
	energyFloor float64
}

// WithEnergyFloor sets the lower bound kept on the energy estimate.
// Without a positive floor a silent stretch can drive the estimate to
// zero or, through floating-point cancellation, slightly negative.
func WithEnergyFloor(floor float64) Option {
	return func(cfg *config) error {
		if floor <= 0 || math.IsNaN(floor) || math.IsInf(floor, 0) {
			return fmt.Errorf("ring energy floor must be > 0 and finite: %f", floor)
		}
		cfg.energyFloor = floor
		return nil
	}
}

// Buffer is a fixed-capacity circular sample buffer that tracks the
// energy (sum of squares) of the samples it currently holds. The raw
// running sum is kept exact; the floor is applied when the energy is
// read, so loud windows are never biased by it.
//
// Samples are addressed by age: Recent(0) is the newest sample,
// Recent(k) the one pushed k steps earlier. The mapping is independent
// of where the internal cursor sits, so a caller pairing coefficient k
// with Recent(k) sees the same lag on every call.
type Buffer struct {
	samples []float64
	pos     int
	energy  float64
	floor   float64
}

// New returns a zero-filled ring of the given capacity.
func New(size int, opts ...Option) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("ring size must be > 0: %d", size)
	}

	cfg := config{energyFloor: defaultEnergyFloor}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	return &Buffer{
		samples: make([]float64, size),
		floor:   cfg.energyFloor,
	}, nil
}

// Len returns the ring capacity.
func (b *Buffer) Len() int {
	return len(b.samples)
}

// Push overwrites the oldest sample with x and returns the evicted
// value. The running sum of squares is updated incrementally; mass
// cancellation after a loud burst can leave a tiny negative residue,
// which is snapped back to zero.
func (b *Buffer) Push(x float64) float64 {
	old := b.samples[b.pos]
	b.samples[b.pos] = x

	b.energy += x*x - old*old
	if b.energy < 0 {
		b.energy = 0
	}

	b.pos++
	if b.pos >= len(b.samples) {
		b.pos = 0
	}

	return old
}

// Recent returns the sample pushed k steps ago; k = 0 is the newest.
// k is clamped to the ring capacity.
func (b *Buffer) Recent(k int) float64 {
	size := len(b.samples)
	if k < 0 {
		k = 0
	}
	if k >= size {
		k = size - 1
	}

	idx := b.pos - 1 - k
	if idx < 0 {
		idx += size
	}
	return b.samples[idx]
}

// Energy returns the sum-of-squares energy of the held samples, never
// below the configured floor.
func (b *Buffer) Energy() float64 {
	if b.energy < b.floor {
		return b.floor
	}
	return b.energy
}

// Floor returns the configured energy floor.
func (b *Buffer) Floor() float64 {
	return b.floor
}

// Reset clears all samples and the running energy sum.
func (b *Buffer) Reset() {
	for i := range b.samples {
		b.samples[i] = 0
	}
	b.pos = 0
	b.energy = 0
}
