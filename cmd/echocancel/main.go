// Command echocancel removes acoustic echo from a capture recording
// using the far-end render signal as a reference.
//
// Usage:
//
//	echocancel [flags] render.wav capture.wav out.wav
//
// Both inputs must share one sample rate; the shorter one bounds the
// processed length. The output holds the residual (echo-cancelled)
// capture signal.
//
// Examples:
//
//	echocancel render.wav capture.wav clean.wav
//	echocancel -taps 2048 -mu 0.1 render.wav capture.wav clean.wav
//	echocancel -bypass render.wav capture.wav passthrough.wav
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-aec/dsp/aec"
	"github.com/cwbudde/algo-aec/dsp/gate"
	"github.com/cwbudde/algo-aec/internal/wavio"
)

func main() {
	taps := flag.Int("taps", 1024, "adaptive filter length in samples")
	mu := flag.Float64("mu", 0.05, "NLMS step size")
	block := flag.Int("block", 4096, "processing block size in frames")
	minRender := flag.Float64("min-render", 0.01, "minimum normalized render level for adaptation")
	dtRatio := flag.Float64("dt-ratio", 2.0, "capture/render level ratio above which adaptation freezes")
	bypass := flag.Bool("bypass", false, "copy capture to output unprocessed")
	verbose := flag.Bool("verbose", false, "log per-block progress")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: echocancel [flags] render.wav capture.wav out.wav\n\n")
		fmt.Fprintf(os.Stderr, "Removes acoustic echo of the render signal from the capture signal.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 3 {
		flag.Usage()
		os.Exit(2)
	}
	if *block <= 0 {
		logrus.WithField("block", *block).Fatal("Block size must be positive")
	}

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	renderPath, capturePath, outPath := flag.Arg(0), flag.Arg(1), flag.Arg(2)

	render, renderRate, err := wavio.ReadMono(renderPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to read render file")
	}
	capture, captureRate, err := wavio.ReadMono(capturePath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to read capture file")
	}
	if renderRate != captureRate {
		logrus.WithFields(logrus.Fields{
			"render_rate":  renderRate,
			"capture_rate": captureRate,
		}).Fatal("Sample rates do not match")
	}

	frames := len(render)
	if len(capture) < frames {
		frames = len(capture)
	}
	logrus.WithFields(logrus.Fields{
		"frames":      frames,
		"sample_rate": renderRate,
		"taps":        *taps,
		"mu":          *mu,
		"block":       *block,
	}).Info("Starting echo cancellation")

	processor, err := aec.NewProcessor(*taps, *mu,
		aec.WithBypass(*bypass),
		aec.WithGateOptions(
			gate.WithMinRenderLevel(*minRender),
			gate.WithDoubleTalkRatio(*dtRatio),
		),
	)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create processor")
	}

	output := make([]int16, frames)
	for offset := 0; offset < frames; offset += *block {
		end := offset + *block
		if end > frames {
			end = frames
		}
		if err := processor.ProcessBlock(render[offset:end], capture[offset:end], output[offset:end]); err != nil {
			logrus.WithError(err).Fatal("Processing failed")
		}
		logrus.WithFields(logrus.Fields{
			"offset": offset,
			"frames": end - offset,
		}).Debug("Processed block")
	}

	if err := wavio.WriteMono(outPath, output, renderRate); err != nil {
		logrus.WithError(err).Fatal("Failed to write output file")
	}

	blocks, adapted := processor.Stats()
	logrus.WithFields(logrus.Fields{
		"blocks":         blocks,
		"adapted":        adapted,
		"residual_level": fmt.Sprintf("%.4f", gate.Level(output)),
		"output":         outPath,
	}).Info("Echo cancellation complete")
}
