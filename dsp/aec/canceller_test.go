package aec

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-aec/dsp/signal"
)

// noiseInt16 returns deterministic white-noise PCM for filter input.
func noiseInt16(t *testing.T, seed int64, amplitude float64, samples int) []int16 {
	t.Helper()
	g := signal.NewGeneratorWithOptions(nil, signal.WithSeed(seed))
	noise, err := g.WhiteNoise(amplitude, samples)
	if err != nil {
		t.Fatalf("WhiteNoise: %v", err)
	}
	return signal.ToInt16(noise)
}

func TestNewValidation(t *testing.T) {
	if _, err := New(0, 0.1); err == nil {
		t.Fatal("New(0, 0.1) expected error")
	}
	if _, err := New(-8, 0.1); err == nil {
		t.Fatal("New(-8, 0.1) expected error")
	}
	if _, err := New(8, math.NaN()); err == nil {
		t.Fatal("expected error for NaN step size")
	}
	if _, err := New(8, 0.1, WithEpsilon(0)); err == nil {
		t.Fatal("expected error for zero epsilon")
	}
	if _, err := New(8, 0.1, WithEpsilon(math.Inf(1))); err == nil {
		t.Fatal("expected error for infinite epsilon")
	}
}

func TestZeroStepSizeIsTransparent(t *testing.T) {
	c, err := New(16, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	render := noiseInt16(t, 7, 10000, 2560)
	capture := noiseInt16(t, 8, 10000, 2560)
	output := make([]int16, 256)

	for block := 0; block < 10; block++ {
		lo := block * 256
		in := capture[lo : lo+256]
		if err := c.ProcessBlock(render[lo:lo+256], in, output, true); err != nil {
			t.Fatalf("ProcessBlock: %v", err)
		}
		for i := range output {
			if output[i] != in[i] {
				t.Fatalf("block %d sample %d: output=%d, want capture %d", block, i, output[i], in[i])
			}
		}
	}

	for k, w := range c.Taps() {
		if w != 0 {
			t.Fatalf("tap %d = %v after mu=0 adaptation, want 0", k, w)
		}
	}
}

func TestEnergyFloorOnSilence(t *testing.T) {
	c, err := New(32, 0.1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	zero := make([]int16, 128)
	output := make([]int16, 128)

	for block := 0; block < 100; block++ {
		if err := c.ProcessBlock(zero, zero, output, true); err != nil {
			t.Fatalf("ProcessBlock: %v", err)
		}
		for i, s := range output {
			if s != 0 {
				t.Fatalf("block %d sample %d = %d, want 0", block, i, s)
			}
		}
		if e := c.history.Energy(); e < c.epsilon {
			t.Fatalf("block %d: energy %v below epsilon %v", block, e, c.epsilon)
		}
	}

	for k, w := range c.Taps() {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			t.Fatalf("tap %d = %v after silence, want finite", k, w)
		}
	}
}

func TestFixedLagCorrespondence(t *testing.T) {
	c, err := New(4, 0.1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	const w = 0.5
	for k := range c.taps {
		c.taps[k] = w
	}

	// After pushing a single render sample r the history holds r at
	// delay 0 and zeros elsewhere, so the estimate must be exactly w*r
	// and the residual -w*r.
	const r = 1000
	render := []int16{r}
	capture := []int16{0}
	output := []int16{0}
	if err := c.ProcessBlock(render, capture, output, false); err != nil {
		t.Fatalf("ProcessBlock: %v", err)
	}

	want := int16(-w * r)
	if output[0] != want {
		t.Fatalf("residual = %d, want %d (estimate/update lag mapping broken)", output[0], want)
	}
}

func TestConvergenceOnScaledEcho(t *testing.T) {
	const (
		tapLen    = 8
		mu        = 0.4
		blockSize = 256
		blocks    = 200
		echoGain  = 0.5
	)

	c, err := New(tapLen, mu)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	render := noiseInt16(t, 42, 12000, blockSize*blocks)
	capture := make([]int16, len(render))
	for i := range render {
		capture[i] = int16(echoGain * float64(render[i]))
	}
	output := make([]int16, blockSize)

	mse := func() float64 {
		sum := 0.0
		for _, s := range output {
			v := float64(s)
			sum += v * v
		}
		return sum / float64(len(output))
	}

	var initial, final float64
	for block := 0; block < blocks; block++ {
		lo := block * blockSize
		if err := c.ProcessBlock(render[lo:lo+blockSize], capture[lo:lo+blockSize], output, true); err != nil {
			t.Fatalf("ProcessBlock: %v", err)
		}
		if block == 0 {
			initial = mse()
		}
		if block == blocks-1 {
			final = mse()
		}
	}

	if final >= initial/100 {
		t.Fatalf("residual MSE did not converge: initial=%v final=%v", initial, final)
	}

	taps := c.Taps()
	if math.Abs(taps[0]-echoGain) > 0.05 {
		t.Fatalf("taps[0] = %v, want ~%v", taps[0], echoGain)
	}
	for k := 1; k < tapLen; k++ {
		if math.Abs(taps[k]) > 0.05 {
			t.Fatalf("taps[%d] = %v, want ~0", k, taps[k])
		}
	}
}

func TestConvergenceOnDelayedEcho(t *testing.T) {
	const (
		tapLen    = 8
		mu        = 0.4
		blockSize = 256
		blocks    = 300
		echoLag   = 3
		echoGain  = 0.6
	)

	c, err := New(tapLen, mu)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	render := noiseInt16(t, 99, 12000, blockSize*blocks)
	capture := make([]int16, len(render))
	for i := range render {
		if i >= echoLag {
			capture[i] = int16(echoGain * float64(render[i-echoLag]))
		}
	}

	output := make([]int16, blockSize)
	for block := 0; block < blocks; block++ {
		lo := block * blockSize
		if err := c.ProcessBlock(render[lo:lo+blockSize], capture[lo:lo+blockSize], output, true); err != nil {
			t.Fatalf("ProcessBlock: %v", err)
		}
	}

	taps := c.Taps()
	if math.Abs(taps[echoLag]-echoGain) > 0.05 {
		t.Fatalf("taps[%d] = %v, want ~%v", echoLag, taps[echoLag], echoGain)
	}
	for k := range taps {
		if k == echoLag {
			continue
		}
		if math.Abs(taps[k]) > 0.05 {
			t.Fatalf("taps[%d] = %v, want ~0", k, taps[k])
		}
	}
}

func TestSaturation(t *testing.T) {
	c, err := New(2, 0.1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// A strongly negative tap turns the render sample into a large
	// negative estimate, pushing the residual past int16 range.
	c.taps[0] = -2

	render := []int16{20000}
	capture := []int16{30000}
	output := []int16{0}
	if err := c.ProcessBlock(render, capture, output, false); err != nil {
		t.Fatalf("ProcessBlock: %v", err)
	}
	if output[0] != math.MaxInt16 {
		t.Fatalf("positive overflow: output = %d, want %d", output[0], math.MaxInt16)
	}

	c.Reset()
	c.taps[0] = 2

	capture[0] = -30000
	if err := c.ProcessBlock(render, capture, output, false); err != nil {
		t.Fatalf("ProcessBlock: %v", err)
	}
	if output[0] != math.MinInt16 {
		t.Fatalf("negative overflow: output = %d, want %d", output[0], math.MinInt16)
	}
}

func TestLengthMismatchLeavesStateUntouched(t *testing.T) {
	c, err := New(8, 0.2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	render := make([]int16, 10)
	capture := make([]int16, 10)
	short := make([]int16, 9)
	for i := range render {
		render[i] = int16(1000 * (i + 1))
		capture[i] = int16(500 * (i + 1))
	}

	err = c.ProcessBlock(render, capture, short, true)
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("ProcessBlock error = %v, want ErrLengthMismatch", err)
	}
	if err := c.ProcessBlock(render, short, capture, true); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("ProcessBlock error = %v, want ErrLengthMismatch", err)
	}

	for k, w := range c.Taps() {
		if w != 0 {
			t.Fatalf("tap %d = %v after failed call, want 0", k, w)
		}
	}
	if e := c.history.Energy(); e != c.history.Floor() {
		t.Fatalf("history energy = %v after failed call, want untouched floor %v", e, c.history.Floor())
	}
	for k := 0; k < c.TapLen(); k++ {
		if s := c.history.Recent(k); s != 0 {
			t.Fatalf("history sample %d = %v after failed call, want 0", k, s)
		}
	}
}

func TestStateContinuityAcrossBlockSplits(t *testing.T) {
	const (
		tapLen = 16
		mu     = 0.3
		l1     = 100
		l2     = 156
	)

	split, err := New(tapLen, mu)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	whole, err := New(tapLen, mu)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	render := noiseInt16(t, 5, 10000, l1+l2)
	capture := make([]int16, l1+l2)
	for i := range render {
		capture[i] = int16(0.4 * float64(render[i]))
	}

	outSplit := make([]int16, l1+l2)
	if err := split.ProcessBlock(render[:l1], capture[:l1], outSplit[:l1], true); err != nil {
		t.Fatalf("ProcessBlock(first): %v", err)
	}
	if err := split.ProcessBlock(render[l1:], capture[l1:], outSplit[l1:], true); err != nil {
		t.Fatalf("ProcessBlock(second): %v", err)
	}

	outWhole := make([]int16, l1+l2)
	if err := whole.ProcessBlock(render, capture, outWhole, true); err != nil {
		t.Fatalf("ProcessBlock(whole): %v", err)
	}

	for i := range outWhole {
		if outSplit[i] != outWhole[i] {
			t.Fatalf("output sample %d: split=%d whole=%d", i, outSplit[i], outWhole[i])
		}
	}

	tapsSplit := split.Taps()
	tapsWhole := whole.Taps()
	for k := range tapsWhole {
		if tapsSplit[k] != tapsWhole[k] {
			t.Fatalf("tap %d: split=%v whole=%v", k, tapsSplit[k], tapsWhole[k])
		}
	}
	if split.history.Energy() != whole.history.Energy() {
		t.Fatalf("energy: split=%v whole=%v", split.history.Energy(), whole.history.Energy())
	}
	for k := 0; k < tapLen; k++ {
		if split.history.Recent(k) != whole.history.Recent(k) {
			t.Fatalf("history sample %d: split=%v whole=%v", k, split.history.Recent(k), whole.history.Recent(k))
		}
	}
}

func TestAdaptFlagFreezesWeightsOnly(t *testing.T) {
	c, err := New(8, 0.3)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	render := noiseInt16(t, 11, 10000, 64)
	capture := make([]int16, 64)
	output := make([]int16, 64)
	for i := range render {
		capture[i] = render[i] / 2
	}

	if err := c.ProcessBlock(render, capture, output, false); err != nil {
		t.Fatalf("ProcessBlock: %v", err)
	}

	// Weights frozen, but the history kept advancing.
	for k, w := range c.Taps() {
		if w != 0 {
			t.Fatalf("tap %d = %v with adapt=false, want 0", k, w)
		}
	}
	if got := c.history.Recent(0); got != float64(render[63]) {
		t.Fatalf("history newest = %v, want %v", got, float64(render[63]))
	}
}

func TestResetRestoresFreshState(t *testing.T) {
	c, err := New(8, 0.4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	render := noiseInt16(t, 3, 10000, 128)
	capture := make([]int16, 128)
	output := make([]int16, 128)
	for i := range render {
		capture[i] = render[i] / 3
	}
	if err := c.ProcessBlock(render, capture, output, true); err != nil {
		t.Fatalf("ProcessBlock: %v", err)
	}

	c.Reset()

	for k, w := range c.Taps() {
		if w != 0 {
			t.Fatalf("tap %d = %v after Reset, want 0", k, w)
		}
	}
	if e := c.history.Energy(); e != c.history.Floor() {
		t.Fatalf("energy after Reset = %v, want %v", e, c.history.Floor())
	}
}
