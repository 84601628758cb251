package pitch

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-aec/dsp/core"
)

const (
	defaultMaxOutputGain = 1.0
	defaultGainSmoothing = 0.15
)

// SynthOption mutates synthesizer construction parameters.
type SynthOption func(*synthConfig) error

type synthConfig struct {
	maxVoices     int
	maxOutputGain float64
	gainSmoothing float64
}

// WithSynthMaxVoices sets the number of voice oscillators.
func WithSynthMaxVoices(voices int) SynthOption {
	return func(cfg *synthConfig) error {
		if voices <= 0 {
			return fmt.Errorf("synth max voices must be > 0: %d", voices)
		}
		cfg.maxVoices = voices
		return nil
	}
}

// WithSynthMaxGain sets the output gain ceiling in [0, 1].
func WithSynthMaxGain(gain float64) SynthOption {
	return func(cfg *synthConfig) error {
		if gain < 0 || gain > 1 || math.IsNaN(gain) {
			return fmt.Errorf("synth max gain must be in [0, 1]: %f", gain)
		}
		cfg.maxOutputGain = gain
		return nil
	}
}

// WithSynthGainSmoothing sets the per-block gain smoothing factor in
// (0, 1]; 1 follows the target instantly.
func WithSynthGainSmoothing(smoothing float64) SynthOption {
	return func(cfg *synthConfig) error {
		if smoothing <= 0 || smoothing > 1 || math.IsNaN(smoothing) {
			return fmt.Errorf("synth gain smoothing must be in (0, 1]: %f", smoothing)
		}
		cfg.gainSmoothing = smoothing
		return nil
	}
}

// Synthesizer renders a bank of phase-continuous sine voices. Phases
// persist across blocks so a steady voice produces a click-free tone;
// the output gain follows the supplied input level with first-order
// smoothing to avoid amplitude jumps.
type Synthesizer struct {
	sampleRate    float64
	maxOutputGain float64
	gainSmoothing float64

	phases      []float64
	currentGain float64
}

// NewSynthesizer creates a synthesizer with the given sample rate.
func NewSynthesizer(sampleRate float64, opts ...SynthOption) (*Synthesizer, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("synth sample rate must be > 0: %f", sampleRate)
	}

	cfg := synthConfig{
		maxVoices:     defaultMaxVoices,
		maxOutputGain: defaultMaxOutputGain,
		gainSmoothing: defaultGainSmoothing,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	return &Synthesizer{
		sampleRate:    sampleRate,
		maxOutputGain: cfg.maxOutputGain,
		gainSmoothing: cfg.gainSmoothing,
		phases:        make([]float64, cfg.maxVoices),
	}, nil
}

// MaxVoices returns the oscillator count.
func (s *Synthesizer) MaxVoices() int { return len(s.phases) }

// Gain returns the current smoothed output gain.
func (s *Synthesizer) Gain() float64 { return s.currentGain }

// Render writes one block of summed sine voices into out. freqs holds
// the voice fundamentals in Hz (at most MaxVoices are used) and level
// the normalized input level in [0, 1] that drives the output gain.
// With no active voices the block is silence and all phases reset.
func (s *Synthesizer) Render(out []int16, freqs []float64, level float64) {
	target := level * s.maxOutputGain
	if target > s.maxOutputGain {
		target = s.maxOutputGain
	}
	if target < 0 {
		target = 0
	}
	s.currentGain += (target - s.currentGain) * s.gainSmoothing

	if len(freqs) > len(s.phases) {
		freqs = freqs[:len(s.phases)]
	}
	if len(freqs) == 0 {
		for i := range out {
			out[i] = 0
		}
		for i := range s.phases {
			s.phases[i] = 0
		}
		return
	}

	gain := s.currentGain
	if gain < 0 {
		gain = 0
	}
	if gain > 1 {
		gain = 1
	}
	amplitude := float64(math.MaxInt16) * gain / float64(len(freqs))

	for i := range out {
		acc := 0.0
		for v, freq := range freqs {
			acc += math.Sin(s.phases[v])
			s.phases[v] += 2 * math.Pi * freq / s.sampleRate
			if s.phases[v] > 2*math.Pi {
				s.phases[v] -= 2 * math.Pi
			}
		}

		out[i] = int16(core.Clamp(acc*amplitude, math.MinInt16, math.MaxInt16))
	}

	// Unused oscillators restart cleanly on their next voice.
	for i := len(freqs); i < len(s.phases); i++ {
		s.phases[i] = 0
	}
}

// Reset clears phases and the smoothed gain.
func (s *Synthesizer) Reset() {
	for i := range s.phases {
		s.phases[i] = 0
	}
	s.currentGain = 0
}
