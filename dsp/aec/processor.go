package aec

import (
	"fmt"

	"github.com/cwbudde/algo-aec/dsp/gate"
)

// ProcessorOption mutates processor construction parameters.
type ProcessorOption func(*processorConfig) error

type processorConfig struct {
	bypass     bool
	gateOpts   []gate.Option
	cancelOpts []Option
}

// WithBypass disables cancellation entirely; capture blocks are copied
// to the output untouched and the filter state is left alone.
func WithBypass(bypass bool) ProcessorOption {
	return func(cfg *processorConfig) error {
		cfg.bypass = bypass
		return nil
	}
}

// WithGateOptions forwards options to the embedded double-talk gate.
func WithGateOptions(opts ...gate.Option) ProcessorOption {
	return func(cfg *processorConfig) error {
		cfg.gateOpts = append(cfg.gateOpts, opts...)
		return nil
	}
}

// WithCancellerOptions forwards options to the embedded canceller.
func WithCancellerOptions(opts ...Option) ProcessorOption {
	return func(cfg *processorConfig) error {
		cfg.cancelOpts = append(cfg.cancelOpts, opts...)
		return nil
	}
}

// Processor wires a Canceller to the block-level double-talk gate: per
// block it computes the render and capture levels, asks the gate for
// the adapt decision, and runs the canceller.
type Processor struct {
	canceller *Canceller
	gate      *gate.Gate
	bypass    bool

	blocks  uint64
	adapted uint64
}

// NewProcessor creates a gate-wired canceller.
func NewProcessor(tapLen int, mu float64, opts ...ProcessorOption) (*Processor, error) {
	var cfg processorConfig
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	canceller, err := New(tapLen, mu, cfg.cancelOpts...)
	if err != nil {
		return nil, err
	}

	g, err := gate.New(cfg.gateOpts...)
	if err != nil {
		return nil, err
	}

	return &Processor{
		canceller: canceller,
		gate:      g,
		bypass:    cfg.bypass,
	}, nil
}

// Canceller exposes the underlying filter, e.g. for tap inspection.
func (p *Processor) Canceller() *Canceller {
	return p.canceller
}

// ProcessBlock gates and cancels one block. In bypass mode it only
// copies capture to output; lengths must still match.
func (p *Processor) ProcessBlock(render, capture []int16, output []int16) error {
	if p.bypass {
		if len(render) != len(capture) || len(capture) != len(output) {
			return fmt.Errorf("%w: render=%d capture=%d output=%d",
				ErrLengthMismatch, len(render), len(capture), len(output))
		}
		copy(output, capture)
		return nil
	}

	adapt := p.gate.ShouldAdaptBlocks(render, capture)
	if err := p.canceller.ProcessBlock(render, capture, output, adapt); err != nil {
		return err
	}

	p.blocks++
	if adapt {
		p.adapted++
	}
	return nil
}

// Stats reports how many blocks have been processed and how many of
// those the gate allowed to adapt.
func (p *Processor) Stats() (blocks, adapted uint64) {
	return p.blocks, p.adapted
}
