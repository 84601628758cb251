// Package wavio reads and writes 16-bit mono WAV files for the
// command-line tools. Multi-channel input is downmixed by averaging.
package wavio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const readChunkFrames = 8192

// ReadMono decodes a WAV file into mono int16 samples. Files with more
// than one channel are downmixed by averaging across channels. The
// second return value is the file's sample rate.
func ReadMono(path string) ([]int16, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("invalid WAV file: %s", path)
	}

	format := decoder.Format()
	channels := format.NumChannels
	if channels <= 0 {
		return nil, 0, fmt.Errorf("invalid channel count: %d", channels)
	}

	shift := 0
	if decoder.BitDepth > 16 {
		shift = int(decoder.BitDepth) - 16
	}

	buf := &audio.IntBuffer{
		Data:   make([]int, readChunkFrames*channels),
		Format: format,
	}

	var samples []int16
	for {
		n, err := decoder.PCMBuffer(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, 0, fmt.Errorf("read audio data: %w", err)
		}
		if n == 0 {
			break
		}
		for frame := 0; frame+channels <= n; frame += channels {
			sum := 0
			for ch := 0; ch < channels; ch++ {
				sum += buf.Data[frame+ch] >> shift
			}
			samples = append(samples, saturate(sum/channels))
		}
	}

	return samples, format.SampleRate, nil
}

// WriteMono encodes int16 samples as a 16-bit mono PCM WAV file.
func WriteMono(path string, samples []int16, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", sampleRate)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	encoder := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Data:   make([]int, len(samples)),
		Format: &audio.Format{NumChannels: 1, SampleRate: sampleRate},
	}
	for i, s := range samples {
		buf.Data[i] = int(s)
	}

	if err := encoder.Write(buf); err != nil {
		_ = encoder.Close()
		_ = f.Close()
		return fmt.Errorf("write audio data: %w", err)
	}
	if err := encoder.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("finalize WAV: %w", err)
	}
	return f.Close()
}

func saturate(v int) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
