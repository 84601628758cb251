package aec

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-aec/dsp/core"
	"github.com/cwbudde/algo-aec/dsp/ring"
)

const defaultEpsilon = 1e-3

// ErrLengthMismatch is returned when render, capture and output blocks
// do not share the same length.
var ErrLengthMismatch = errors.New("aec: render, capture and output lengths must match")

// Option mutates canceller construction parameters.
type Option func(*config) error

type config struct {
	epsilon float64
}

// WithEpsilon sets the regularization floor added to the normalization
// denominator and enforced as the lower bound of the energy estimate.
func WithEpsilon(epsilon float64) Option {
	return func(cfg *config) error {
		if epsilon <= 0 || math.IsNaN(epsilon) || math.IsInf(epsilon, 0) {
			return fmt.Errorf("aec epsilon must be > 0 and finite: %f", epsilon)
		}
		cfg.epsilon = epsilon
		return nil
	}
}

// Canceller is an adaptive NLMS echo canceller over 16-bit samples.
//
// taps[k] models the echo path at a delay of k samples and is always
// paired with history.Recent(k); the estimate and the update walk the
// same mapping, which is what keeps the filter converging. All internal
// accumulation is float64.
type Canceller struct {
	taps    []float64
	history *ring.Buffer
	mu      float64
	epsilon float64
}

// New creates a canceller that models tapLen samples of echo path with
// adaptation step size mu. tapLen must be positive and mu finite.
func New(tapLen int, mu float64, opts ...Option) (*Canceller, error) {
	if tapLen <= 0 {
		return nil, fmt.Errorf("aec tap length must be > 0: %d", tapLen)
	}
	if math.IsNaN(mu) || math.IsInf(mu, 0) {
		return nil, fmt.Errorf("aec step size must be finite: %f", mu)
	}

	cfg := config{epsilon: defaultEpsilon}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	history, err := ring.New(tapLen, ring.WithEnergyFloor(cfg.epsilon))
	if err != nil {
		return nil, err
	}

	return &Canceller{
		taps:    make([]float64, tapLen),
		history: history,
		mu:      mu,
		epsilon: cfg.epsilon,
	}, nil
}

// TapLen returns the number of filter taps.
func (c *Canceller) TapLen() int {
	return len(c.taps)
}

// Taps returns a copy of the current tap weights.
func (c *Canceller) Taps() []float64 {
	out := make([]float64, len(c.taps))
	copy(out, c.taps)
	return out
}

// StepSize returns the adaptation step size.
func (c *Canceller) StepSize() float64 { return c.mu }

// Epsilon returns the regularization floor.
func (c *Canceller) Epsilon() float64 { return c.epsilon }

// Reset zeroes the tap weights and the render history.
func (c *Canceller) Reset() {
	for i := range c.taps {
		c.taps[i] = 0
	}
	c.history.Reset()
}

// ProcessBlock runs one block through the canceller, writing the
// saturated residual into output. render carries the far-end samples
// that produced the echo, capture the microphone samples containing it.
//
// When adapt is true the tap weights are updated after every sample
// using the just-computed residual as the error signal; when false the
// history and energy still advance, only the weight update is skipped.
//
// All three slices must share the same length. On a length mismatch no
// sample is processed and no state is mutated.
func (c *Canceller) ProcessBlock(render, capture []int16, output []int16, adapt bool) error {
	if len(render) != len(capture) || len(capture) != len(output) {
		return fmt.Errorf("%w: render=%d capture=%d output=%d",
			ErrLengthMismatch, len(render), len(capture), len(output))
	}

	for i := range render {
		c.history.Push(float64(render[i]))

		estimate := c.estimate()
		residual := float64(capture[i]) - estimate
		output[i] = saturate(residual)

		if adapt {
			c.update(residual)
		}
	}

	return nil
}

// estimate returns the echo predicted from the current render history.
func (c *Canceller) estimate() float64 {
	acc := 0.0
	for k, w := range c.taps {
		acc += w * c.history.Recent(k)
	}
	return acc
}

// update applies one normalized gradient step. The traversal order must
// mirror estimate exactly so tap k keeps modeling the same delay.
func (c *Canceller) update(err float64) {
	scale := c.mu * err / (c.history.Energy() + c.epsilon)
	for k := range c.taps {
		c.taps[k] += scale * c.history.Recent(k)
	}
}

// saturate clamps v to the int16 range instead of wrapping.
func saturate(v float64) int16 {
	return int16(core.Clamp(v, math.MinInt16, math.MaxInt16))
}
