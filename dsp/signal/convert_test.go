package signal

import (
	"math"
	"testing"
)

func TestToInt16Saturates(t *testing.T) {
	in := []float64{0, 100.7, -100.7, math.MaxInt16, math.MinInt16, 1e6, -1e6}
	want := []int16{0, 100, -100, math.MaxInt16, math.MinInt16, math.MaxInt16, math.MinInt16}

	got := ToInt16(in)
	if len(got) != len(want) {
		t.Fatalf("length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestFromInt16RoundTrip(t *testing.T) {
	in := []int16{0, 1, -1, math.MaxInt16, math.MinInt16}
	back := ToInt16(FromInt16(in))
	for i := range in {
		if back[i] != in[i] {
			t.Fatalf("sample %d = %d, want %d", i, back[i], in[i])
		}
	}
}

func TestConvertEmpty(t *testing.T) {
	if got := ToInt16(nil); len(got) != 0 {
		t.Fatalf("ToInt16(nil) length = %d, want 0", len(got))
	}
	if got := FromInt16(nil); len(got) != 0 {
		t.Fatalf("FromInt16(nil) length = %d, want 0", len(got))
	}
}
