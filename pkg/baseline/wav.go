package baseline

import (
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// ReadWAV decodes a WAV file into mono float64 samples in [-1, 1].
// Multi-channel audio is downmixed by averaging. The file must be sampled
// at SampleRate; the model has no resampler.
func ReadWAV(path string) ([]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("baseline: decode %s: %w", path, err)
	}
	if buf.Format == nil || len(buf.Data) == 0 {
		return nil, fmt.Errorf("baseline: %s: empty or invalid wav", path)
	}
	if buf.Format.SampleRate != SampleRate {
		return nil, fmt.Errorf("baseline: %s: sample rate %d, model requires %d",
			path, buf.Format.SampleRate, SampleRate)
	}

	bitDepth := int(decoder.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	channels := buf.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}

	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c]) / scale
		}
		samples[i] = sum / float64(channels)
	}
	return samples, nil
}
