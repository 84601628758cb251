// Command voiceshift re-synthesizes the dominant voices of a recording
// at a shifted pitch. Each block is analyzed for up to a few
// fundamental frequencies; the detected voices are held across short
// dropouts, scaled by the shift factor and rendered as sine voices at
// the input's level.
//
// Usage:
//
//	voiceshift [flags] in.wav out.wav
//
// Examples:
//
//	voiceshift voice.wav shifted.wav
//	voiceshift -shift 0.5 -voices 1 voice.wav octave-down.wav
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-aec/dsp/gate"
	"github.com/cwbudde/algo-aec/dsp/pitch"
	"github.com/cwbudde/algo-aec/internal/wavio"
)

const (
	blockFrames    = 4096
	holdFrames     = 6
	silenceLevel   = 0.01
	defaultShiftUp = 1.4142135623730951 // one tritone, sqrt(2)
)

func main() {
	shift := flag.Float64("shift", defaultShiftUp, "pitch shift factor applied to detected voices")
	voices := flag.Int("voices", 3, "maximum simultaneous voices")
	verbose := flag.Bool("verbose", false, "log per-block detections")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: voiceshift [flags] in.wav out.wav\n\n")
		fmt.Fprintf(os.Stderr, "Detects voice pitches and re-synthesizes them shifted.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	if *shift <= 0 {
		logrus.WithField("shift", *shift).Fatal("Shift factor must be positive")
	}

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	samples, rate, err := wavio.ReadMono(flag.Arg(0))
	if err != nil {
		logrus.WithError(err).Fatal("Failed to read input file")
	}

	detector, err := pitch.NewDetector(float64(rate), pitch.WithMaxVoices(*voices))
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create detector")
	}
	tracker, err := pitch.NewTracker(*voices, holdFrames)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create tracker")
	}
	synth, err := pitch.NewSynthesizer(float64(rate), pitch.WithSynthMaxVoices(*voices))
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create synthesizer")
	}

	logrus.WithFields(logrus.Fields{
		"frames":      len(samples),
		"sample_rate": rate,
		"shift":       *shift,
		"voices":      *voices,
	}).Info("Starting voice shift")

	output := make([]int16, len(samples))
	voicedBlocks := 0
	totalBlocks := 0
	for offset := 0; offset < len(samples); offset += blockFrames {
		end := offset + blockFrames
		if end > len(samples) {
			end = len(samples)
		}
		block := samples[offset:end]
		totalBlocks++

		level := gate.Level(block)
		var detected []float64
		if level > silenceLevel {
			detected, err = detector.DetectInt16(block)
			if err != nil {
				logrus.WithError(err).Fatal("Pitch detection failed")
			}
		}

		active := tracker.Observe(detected)
		shifted := make([]float64, len(active))
		for i, f := range active {
			shifted[i] = f * *shift
		}
		if len(shifted) > 0 {
			voicedBlocks++
		}
		logrus.WithFields(logrus.Fields{
			"offset": offset,
			"level":  fmt.Sprintf("%.4f", level),
			"voices": shifted,
		}).Debug("Processed block")

		synth.Render(output[offset:end], shifted, level)
	}

	if err := wavio.WriteMono(flag.Arg(1), output, rate); err != nil {
		logrus.WithError(err).Fatal("Failed to write output file")
	}

	logrus.WithFields(logrus.Fields{
		"blocks":        totalBlocks,
		"voiced_blocks": voicedBlocks,
		"output":        flag.Arg(1),
	}).Info("Voice shift complete")
}
