package pitch

import (
	"fmt"
	"math"
	"sort"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

const (
	defaultMinFrequencyHz = 60.0
	defaultMaxFrequencyHz = 1000.0
	defaultMaxVoices      = 3
	defaultMinCorrelation = 0.35

	// Detected fundamentals closer than this are treated as the same
	// voice and deduplicated.
	distinctFrequencyHz = 5.0

	correlationDenomFloor = 1e-9
)

// DetectorOption mutates detector construction parameters.
type DetectorOption func(*detectorConfig) error

type detectorConfig struct {
	minFrequencyHz float64
	maxFrequencyHz float64
	maxVoices      int
	minCorrelation float64
}

// WithFrequencyRange sets the fundamental search range in Hz.
func WithFrequencyRange(minHz, maxHz float64) DetectorOption {
	return func(cfg *detectorConfig) error {
		if minHz <= 0 || maxHz <= minHz || math.IsNaN(minHz) || math.IsNaN(maxHz) || math.IsInf(maxHz, 0) {
			return fmt.Errorf("pitch frequency range must satisfy 0 < min < max: [%f, %f]", minHz, maxHz)
		}
		cfg.minFrequencyHz = minHz
		cfg.maxFrequencyHz = maxHz
		return nil
	}
}

// WithMaxVoices sets how many simultaneous fundamentals are reported.
func WithMaxVoices(voices int) DetectorOption {
	return func(cfg *detectorConfig) error {
		if voices <= 0 {
			return fmt.Errorf("pitch max voices must be > 0: %d", voices)
		}
		cfg.maxVoices = voices
		return nil
	}
}

// WithMinCorrelation sets the normalized correlation in (0, 1] a lag
// must reach to count as a voice.
func WithMinCorrelation(corr float64) DetectorOption {
	return func(cfg *detectorConfig) error {
		if corr <= 0 || corr > 1 || math.IsNaN(corr) {
			return fmt.Errorf("pitch min correlation must be in (0, 1]: %f", corr)
		}
		cfg.minCorrelation = corr
		return nil
	}
}

// Detector finds simultaneous fundamentals by normalized
// autocorrelation. The lag-domain correlation is computed via FFT
// (Wiener-Khinchin) and normalized per lag with prefix energies, so a
// partial-overlap lag is not penalized against a full-overlap one.
type Detector struct {
	sampleRate     float64
	minFrequencyHz float64
	maxFrequencyHz float64
	maxVoices      int
	minCorrelation float64

	// plan and scratch are rebuilt when the input length changes.
	plan     *algofft.Plan[complex128]
	planSize int
	window   []float64
	scratch  detectorScratch
}

type detectorScratch struct {
	floated  []float64
	prefix   []float64
	packed   []complex128
	spectrum []complex128
	corr     []complex128
	re       []float64
	im       []float64
	power    []float64
}

// NewDetector creates a detector with the given sample rate.
func NewDetector(sampleRate float64, opts ...DetectorOption) (*Detector, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("pitch sample rate must be > 0: %f", sampleRate)
	}

	cfg := detectorConfig{
		minFrequencyHz: defaultMinFrequencyHz,
		maxFrequencyHz: defaultMaxFrequencyHz,
		maxVoices:      defaultMaxVoices,
		minCorrelation: defaultMinCorrelation,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if cfg.maxFrequencyHz >= sampleRate/2 {
		return nil, fmt.Errorf("pitch max frequency %f must be below Nyquist (%f)",
			cfg.maxFrequencyHz, sampleRate/2)
	}

	return &Detector{
		sampleRate:     sampleRate,
		minFrequencyHz: cfg.minFrequencyHz,
		maxFrequencyHz: cfg.maxFrequencyHz,
		maxVoices:      cfg.maxVoices,
		minCorrelation: cfg.minCorrelation,
	}, nil
}

// SampleRate returns the configured sample rate in Hz.
func (d *Detector) SampleRate() float64 { return d.sampleRate }

// MaxVoices returns the configured voice cap.
func (d *Detector) MaxVoices() int { return d.maxVoices }

// Detect returns the detected fundamentals in Hz, strongest first.
// The input is analysed as one frame; an empty or too-short frame
// yields no result.
func (d *Detector) Detect(block []float64) ([]float64, error) {
	n := len(block)
	if n < 2 {
		return nil, nil
	}

	minPeriod := int(math.Floor(d.sampleRate / d.maxFrequencyHz))
	maxPeriod := int(math.Ceil(d.sampleRate / d.minFrequencyHz))
	if minPeriod < 2 || maxPeriod >= n || minPeriod >= maxPeriod {
		return nil, nil
	}

	if err := d.prepare(n); err != nil {
		return nil, err
	}
	s := &d.scratch

	// Remove DC, then window. The window suppresses edge discontinuity
	// bias in the correlation.
	mean := 0.0
	for _, v := range block {
		mean += v
	}
	mean /= float64(n)
	for i, v := range block {
		s.floated[i] = v - mean
	}
	vecmath.MulBlockInPlace(s.floated, d.window)

	// Prefix energies for per-lag normalization.
	s.prefix[0] = 0
	for i, v := range s.floated {
		s.prefix[i+1] = s.prefix[i] + v*v
	}

	if err := d.autocorrelate(); err != nil {
		return nil, err
	}

	type lagCorr struct {
		lag  int
		corr float64
	}
	candidates := make([]lagCorr, 0, maxPeriod-minPeriod+1)

	for lag := minPeriod; lag <= maxPeriod; lag++ {
		segment := n - lag
		if segment < 2 {
			continue
		}

		energyA := s.prefix[segment]
		energyB := s.prefix[n] - s.prefix[lag]
		denom := math.Sqrt(energyA * energyB)
		if denom <= correlationDenomFloor {
			continue
		}

		normalized := real(s.corr[lag]) / denom
		if normalized > 1 {
			normalized = 1
		}
		if normalized < -1 {
			normalized = -1
		}
		candidates = append(candidates, lagCorr{lag: lag, corr: normalized})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].corr > candidates[j].corr
	})

	var results []float64
	for _, c := range candidates {
		if c.corr < d.minCorrelation {
			break
		}

		freq := d.sampleRate / float64(c.lag)
		distinct := true
		for _, existing := range results {
			if math.Abs(existing-freq) <= distinctFrequencyHz {
				distinct = false
				break
			}
		}
		if distinct {
			results = append(results, freq)
		}
		if len(results) == d.maxVoices {
			break
		}
	}

	return results, nil
}

// DetectInt16 converts a 16-bit block and runs Detect.
func (d *Detector) DetectInt16(block []int16) ([]float64, error) {
	floated := make([]float64, len(block))
	for i, s := range block {
		floated[i] = float64(s)
	}
	return d.Detect(floated)
}

// prepare sizes the FFT plan, window and scratch buffers for frame
// length n, reusing them while the length is stable.
func (d *Detector) prepare(n int) error {
	fftSize := nextPowerOfTwo(2 * n)
	if d.plan != nil && d.planSize == fftSize && len(d.window) == n {
		return nil
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return fmt.Errorf("pitch: failed to create FFT plan: %w", err)
	}
	d.plan = plan
	d.planSize = fftSize
	d.window = hann(n)

	d.scratch = detectorScratch{
		floated:  make([]float64, n),
		prefix:   make([]float64, n+1),
		packed:   make([]complex128, fftSize),
		spectrum: make([]complex128, fftSize),
		corr:     make([]complex128, fftSize),
		re:       make([]float64, fftSize),
		im:       make([]float64, fftSize),
		power:    make([]float64, fftSize),
	}
	return nil
}

// autocorrelate fills scratch.corr with the linear autocorrelation of
// scratch.floated: corr[lag] = sum_i x[i]*x[i+lag].
func (d *Detector) autocorrelate() error {
	s := &d.scratch

	for i := range s.packed {
		s.packed[i] = 0
	}
	for i, v := range s.floated {
		s.packed[i] = complex(v, 0)
	}

	if err := d.plan.Forward(s.spectrum, s.packed); err != nil {
		return err
	}

	for i, c := range s.spectrum {
		s.re[i] = real(c)
		s.im[i] = imag(c)
	}
	vecmath.Power(s.power, s.re, s.im)
	for i, p := range s.power {
		s.spectrum[i] = complex(p, 0)
	}

	return d.plan.Inverse(s.corr, s.spectrum)
}

func hann(n int) []float64 {
	coeffs := make([]float64, n)
	if n < 2 {
		for i := range coeffs {
			coeffs[i] = 1
		}
		return coeffs
	}

	denom := float64(n - 1)
	for i := range coeffs {
		coeffs[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/denom)
	}
	return coeffs
}

func nextPowerOfTwo(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}
