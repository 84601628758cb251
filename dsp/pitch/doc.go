// Package pitch provides multi-voice pitch detection and sinusoidal
// resynthesis for monophonic and lightly polyphonic material.
//
// Detector finds up to a configurable number of simultaneous
// fundamentals by normalized autocorrelation, computed in the frequency
// domain via github.com/MeKo-Christian/algo-fft. Tracker adds
// hold-frame hysteresis so short detection dropouts do not cut voices.
// Synthesizer renders the detected voices back as phase-continuous
// sines with smoothed gain, the building block of a pitch-shifting
// voice effect.
package pitch
