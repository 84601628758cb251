// Package gate implements the block-level double-talk gate that decides
// whether an adaptive echo canceller may update its weights.
//
// The gate compares coarse RMS levels of the render (far-end) and
// capture (near-end) blocks. Adaptation is only sound when the render
// path carries a usable echo reference and the capture level stays
// within what that reference could plausibly have produced as echo;
// anything louder indicates a near-end talker speaking over the far
// end, the classical condition that corrupts NLMS weights.
package gate

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-aec/dsp/core"
)

const (
	defaultMinRenderLevel  = 0.01
	defaultDoubleTalkRatio = 2.0
)

// Level returns the RMS level of block normalized to [0, 1] against
// full scale. An empty block has level 0.
func Level(block []int16) float64 {
	if len(block) == 0 {
		return 0
	}

	sum := 0.0
	for _, s := range block {
		v := float64(s)
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(len(block)))

	return core.Clamp(rms/float64(math.MaxInt16), 0, 1)
}

// Option mutates gate construction parameters.
type Option func(*config) error

type config struct {
	minRenderLevel  float64
	doubleTalkRatio float64
}

// WithMinRenderLevel sets the render level in [0, 1] below which the
// reference is treated as silence and adaptation is suppressed.
func WithMinRenderLevel(level float64) Option {
	return func(cfg *config) error {
		if level < 0 || level > 1 || math.IsNaN(level) {
			return fmt.Errorf("gate min render level must be in [0, 1]: %f", level)
		}
		cfg.minRenderLevel = level
		return nil
	}
}

// WithDoubleTalkRatio sets the capture/render level ratio above which
// near-end speech is assumed and adaptation is suppressed.
func WithDoubleTalkRatio(ratio float64) Option {
	return func(cfg *config) error {
		if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
			return fmt.Errorf("gate double-talk ratio must be > 0 and finite: %f", ratio)
		}
		cfg.doubleTalkRatio = ratio
		return nil
	}
}

// Gate holds the threshold configuration for per-block adapt decisions.
type Gate struct {
	minRenderLevel  float64
	doubleTalkRatio float64
}

// New creates a gate with practical defaults and optional overrides.
func New(opts ...Option) (*Gate, error) {
	cfg := config{
		minRenderLevel:  defaultMinRenderLevel,
		doubleTalkRatio: defaultDoubleTalkRatio,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	return &Gate{
		minRenderLevel:  cfg.minRenderLevel,
		doubleTalkRatio: cfg.doubleTalkRatio,
	}, nil
}

// ShouldAdapt reports whether a filter may adapt during a block with
// the given normalized render and capture levels.
func (g *Gate) ShouldAdapt(renderLevel, captureLevel float64) bool {
	if renderLevel <= g.minRenderLevel {
		return false
	}
	return captureLevel <= renderLevel*g.doubleTalkRatio
}

// ShouldAdaptBlocks computes both levels and applies ShouldAdapt.
func (g *Gate) ShouldAdaptBlocks(render, capture []int16) bool {
	return g.ShouldAdapt(Level(render), Level(capture))
}

// MinRenderLevel returns the configured silence threshold.
func (g *Gate) MinRenderLevel() float64 { return g.minRenderLevel }

// DoubleTalkRatio returns the configured capture/render ratio.
func (g *Gate) DoubleTalkRatio() float64 { return g.doubleTalkRatio }
