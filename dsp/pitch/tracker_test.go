package pitch

import "testing"

func TestNewTrackerValidation(t *testing.T) {
	if _, err := NewTracker(0, 6); err == nil {
		t.Fatal("expected error for zero max voices")
	}
	if _, err := NewTracker(3, -1); err == nil {
		t.Fatal("expected error for negative hold frames")
	}
}

func TestTrackerHoldsThroughDropout(t *testing.T) {
	tr, err := NewTracker(3, 2)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}

	voices := tr.Observe([]float64{220, 330})
	if len(voices) != 2 {
		t.Fatalf("Observe = %v, want 2 voices", voices)
	}

	// Two silent frames: voices held.
	for frame := 0; frame < 2; frame++ {
		voices = tr.Observe(nil)
		if len(voices) != 2 {
			t.Fatalf("silent frame %d: Observe = %v, want held voices", frame, voices)
		}
	}

	// Third silent frame exhausts the hold and clears.
	voices = tr.Observe(nil)
	if len(voices) != 0 {
		t.Fatalf("Observe after hold = %v, want empty", voices)
	}
}

func TestTrackerNewDetectionResetsHold(t *testing.T) {
	tr, err := NewTracker(3, 2)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}

	tr.Observe([]float64{220})
	tr.Observe(nil)
	tr.Observe(nil)

	// Fresh detection restarts the hold window.
	tr.Observe([]float64{150})
	for frame := 0; frame < 2; frame++ {
		if got := tr.Observe(nil); len(got) != 1 || got[0] != 150 {
			t.Fatalf("silent frame %d after redetection: Observe = %v, want [150]", frame, got)
		}
	}
}

func TestTrackerCapsVoices(t *testing.T) {
	tr, err := NewTracker(2, 1)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}

	voices := tr.Observe([]float64{100, 200, 300, 400})
	if len(voices) != 2 {
		t.Fatalf("Observe = %v, want capped to 2 voices", voices)
	}
}

func TestTrackerSilenceStaysSilent(t *testing.T) {
	tr, err := NewTracker(3, 6)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}

	for frame := 0; frame < 10; frame++ {
		if got := tr.Observe(nil); len(got) != 0 {
			t.Fatalf("frame %d: Observe = %v, want empty", frame, got)
		}
	}
}

func TestTrackerReset(t *testing.T) {
	tr, err := NewTracker(3, 6)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}

	tr.Observe([]float64{220})
	tr.Reset()

	if got := tr.Active(); len(got) != 0 {
		t.Fatalf("Active after Reset = %v, want empty", got)
	}
	if got := tr.Observe(nil); len(got) != 0 {
		t.Fatalf("Observe after Reset = %v, want empty", got)
	}
}
