package pitch

import "fmt"

const defaultHoldFrames = 6

// Tracker keeps detected voices alive across short detection dropouts.
// A frame with no detections does not immediately clear the active
// voices; they are held for a configurable number of frames first, so
// brief dips (consonants, breaths) do not cut the resynthesis.
type Tracker struct {
	maxVoices  int
	holdFrames int

	active      []float64
	framesSince int
}

// NewTracker creates a tracker for up to maxVoices voices that holds
// them for holdFrames silent frames.
func NewTracker(maxVoices, holdFrames int) (*Tracker, error) {
	if maxVoices <= 0 {
		return nil, fmt.Errorf("tracker max voices must be > 0: %d", maxVoices)
	}
	if holdFrames < 0 {
		return nil, fmt.Errorf("tracker hold frames must be >= 0: %d", holdFrames)
	}

	return &Tracker{
		maxVoices:   maxVoices,
		holdFrames:  holdFrames,
		active:      make([]float64, 0, maxVoices),
		framesSince: holdFrames,
	}, nil
}

// Observe feeds one frame of detections and returns the currently
// active voices. The returned slice is reused between calls.
func (t *Tracker) Observe(detected []float64) []float64 {
	if len(detected) > 0 {
		if len(detected) > t.maxVoices {
			detected = detected[:t.maxVoices]
		}
		t.active = t.active[:0]
		t.active = append(t.active, detected...)
		t.framesSince = 0
		return t.active
	}

	if len(t.active) > 0 {
		if t.framesSince < t.holdFrames {
			t.framesSince++
			return t.active
		}
		t.active = t.active[:0]
		t.framesSince = t.holdFrames
	}
	return t.active
}

// Active returns the currently held voices without consuming a frame.
func (t *Tracker) Active() []float64 {
	return t.active
}

// Reset clears all held voices.
func (t *Tracker) Reset() {
	t.active = t.active[:0]
	t.framesSince = t.holdFrames
}
