package effects

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-aec/dsp/delay"
)

const (
	defaultJammerDelaySeconds = 0.25
	minJammerDelaySeconds     = 0.01
	maxJammerDelaySeconds     = 2.0
)

// JammerOption mutates jammer construction parameters.
type JammerOption func(*jammerConfig) error

type jammerConfig struct {
	delaySeconds float64
}

// WithJammerDelay sets the playback delay in seconds.
func WithJammerDelay(seconds float64) JammerOption {
	return func(cfg *jammerConfig) error {
		if seconds < minJammerDelaySeconds || seconds > maxJammerDelaySeconds ||
			math.IsNaN(seconds) || math.IsInf(seconds, 0) {
			return fmt.Errorf("jammer delay must be in [%f, %f]: %f",
				minJammerDelaySeconds, maxJammerDelaySeconds, seconds)
		}
		cfg.delaySeconds = seconds
		return nil
	}
}

// Jammer is a speech jammer: it plays the input back after a fixed
// delay, the delayed-auditory-feedback effect that makes fluent speech
// difficult for the talker hearing their own voice.
type Jammer struct {
	sampleRate   float64
	delaySeconds float64
	line         *delay.Line
}

// NewJammer creates a jammer with the classic 250 ms default delay.
func NewJammer(sampleRate float64, opts ...JammerOption) (*Jammer, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("jammer sample rate must be > 0: %f", sampleRate)
	}

	cfg := jammerConfig{delaySeconds: defaultJammerDelaySeconds}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	delayFrames := int(math.Round(cfg.delaySeconds * sampleRate))
	if delayFrames < 1 {
		delayFrames = 1
	}
	line, err := delay.New(delayFrames)
	if err != nil {
		return nil, err
	}

	return &Jammer{
		sampleRate:   sampleRate,
		delaySeconds: cfg.delaySeconds,
		line:         line,
	}, nil
}

// SampleRate returns the sample rate in Hz.
func (j *Jammer) SampleRate() float64 { return j.sampleRate }

// Delay returns the configured delay in seconds.
func (j *Jammer) Delay() float64 { return j.delaySeconds }

// DelayFrames returns the delay in whole samples.
func (j *Jammer) DelayFrames() int { return j.line.Len() }

// ProcessSample pushes one input sample and returns the sample delayed
// by the configured time.
func (j *Jammer) ProcessSample(sample int16) int16 {
	return int16(j.line.Tick(float64(sample)))
}

// ProcessBlock writes the delayed input into out. Both slices must
// share the same length.
func (j *Jammer) ProcessBlock(in, out []int16) error {
	if len(in) != len(out) {
		return fmt.Errorf("jammer input and output lengths must match: in=%d out=%d", len(in), len(out))
	}

	for i, s := range in {
		out[i] = int16(j.line.Tick(float64(s)))
	}
	return nil
}

// ProcessInPlace applies the jammer delay to buf in place.
func (j *Jammer) ProcessInPlace(buf []int16) {
	for i, s := range buf {
		buf[i] = int16(j.line.Tick(float64(s)))
	}
}

// Reset clears the delay line.
func (j *Jammer) Reset() {
	j.line.Reset()
}
