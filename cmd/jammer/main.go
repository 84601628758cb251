// Command jammer applies a delayed-auditory-feedback effect to a WAV
// recording: the output is the input shifted by a fixed delay, the
// classic speech-jammer playback signal.
//
// Usage:
//
//	jammer [flags] in.wav out.wav
//
// Examples:
//
//	jammer voice.wav jammed.wav
//	jammer -delay 0.18 voice.wav jammed.wav
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-aec/dsp/effects"
	"github.com/cwbudde/algo-aec/internal/wavio"
)

func main() {
	delay := flag.Float64("delay", 0.25, "feedback delay in seconds")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: jammer [flags] in.wav out.wav\n\n")
		fmt.Fprintf(os.Stderr, "Delays the input signal for delayed-auditory-feedback playback.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}

	samples, rate, err := wavio.ReadMono(flag.Arg(0))
	if err != nil {
		logrus.WithError(err).Fatal("Failed to read input file")
	}

	jam, err := effects.NewJammer(float64(rate), effects.WithJammerDelay(*delay))
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create jammer")
	}

	logrus.WithFields(logrus.Fields{
		"frames":       len(samples),
		"sample_rate":  rate,
		"delay_s":      *delay,
		"delay_frames": jam.DelayFrames(),
	}).Info("Applying delayed feedback")

	output := make([]int16, len(samples))
	if err := jam.ProcessBlock(samples, output); err != nil {
		logrus.WithError(err).Fatal("Processing failed")
	}

	if err := wavio.WriteMono(flag.Arg(1), output, rate); err != nil {
		logrus.WithError(err).Fatal("Failed to write output file")
	}

	logrus.WithField("output", flag.Arg(1)).Info("Done")
}
