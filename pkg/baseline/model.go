// Package baseline implements the trivial benchmark baseline: a log-mel
// spectrogram followed by fixed-seed random projections. The model is
// untrained by design; its only job is to give the benchmark a floor.
package baseline

import (
	"context"
	"errors"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/mat"
)

const (
	// SampleRate is the only input rate the model accepts.
	SampleRate = 44100
	// FFTSize is the analysis window length in samples.
	FFTSize = 4096
	// MelBands is the number of mel filterbank channels.
	MelBands = 256
	// Seed fixes the random projections so every process builds the
	// same model.
	Seed = 0

	logOffset        = 1e-4
	defaultBatchSize = 512
)

// Version tags cached embeddings; bump on any change to the forward pass.
const Version = "hearbaseline-go-1"

// layerWidths are the chained projection output widths.
var layerWidths = []int{4096, 2048, 512, 128, 20}

// Model holds the mel filterbank and the fixed-seed projection matrices.
type Model struct {
	fft         *fourier.FFT
	window      []float64
	filterbank  *mat.Dense
	projections []*mat.Dense
}

// Embeddings is the model output for one audio clip: one embedding matrix
// per projection width (frames x width), the int8-quantized 20-dim layer,
// and the timestamp of every frame in seconds.
type Embeddings struct {
	ByWidth    map[int]*mat.Dense
	Quantized  [][]int8
	Timestamps []float64
}

// NewModel builds the baseline. Construction is deterministic: the same
// seed always yields the same projection weights.
func NewModel() *Model {
	rng := rand.New(rand.NewSource(Seed))

	projections := make([]*mat.Dense, len(layerWidths))
	fanIn := MelBands
	for i, width := range layerWidths {
		scale := 1 / math.Sqrt(float64(fanIn))
		weights := make([]float64, fanIn*width)
		for j := range weights {
			weights[j] = rng.Float64() * scale
		}
		projections[i] = mat.NewDense(fanIn, width, weights)
		fanIn = width
	}

	return &Model{
		fft:         fourier.NewFFT(FFTSize),
		window:      hannWindow(FFTSize),
		filterbank:  melFilterbank(SampleRate, FFTSize, MelBands),
		projections: projections,
	}
}

// Embed computes embeddings for a mono clip sampled at SampleRate. Frames
// are centered at multiples of hopSize, including one at the very end of
// the clip, so a clip of N samples yields N/hopSize+1 frames.
func (m *Model) Embed(ctx context.Context, samples []float64, hopSize int) (Embeddings, error) {
	if hopSize <= 0 {
		return Embeddings{}, errors.New("baseline: hop size must be > 0")
	}
	if len(samples) == 0 {
		return Embeddings{}, errors.New("baseline: empty input")
	}

	frames := len(samples)/hopSize + 1
	timestamps := make([]float64, frames)
	for i := range timestamps {
		timestamps[i] = float64(i*hopSize) / SampleRate
	}

	logmel := mat.NewDense(frames, MelBands, nil)
	padded := padReflect(samples, FFTSize/2)

	frame := make([]float64, FFTSize)
	melRow := make([]float64, MelBands)
	power := mat.NewVecDense(FFTSize/2+1, nil)

	for i := 0; i < frames; i++ {
		if i%defaultBatchSize == 0 {
			if err := ctx.Err(); err != nil {
				return Embeddings{}, err
			}
		}

		copy(frame, padded[i*hopSize:i*hopSize+FFTSize])
		for j := range frame {
			frame[j] *= m.window[j]
		}

		coeffs := m.fft.Coefficients(nil, frame)
		for j, c := range coeffs {
			re, im := real(c), imag(c)
			power.SetVec(j, re*re+im*im)
		}

		for j := range melRow {
			melRow[j] = math.Log(mat.Dot(power, m.filterbank.ColView(j)) + logOffset)
		}
		logmel.SetRow(i, melRow)
	}

	byWidth := make(map[int]*mat.Dense, len(layerWidths))
	activation := logmel
	for i, width := range layerWidths {
		next := mat.NewDense(frames, width, nil)
		next.Mul(activation, m.projections[i])
		byWidth[width] = next
		activation = next
	}

	quantized := quantize(byWidth[layerWidths[len(layerWidths)-1]])

	return Embeddings{
		ByWidth:    byWidth,
		Quantized:  quantized,
		Timestamps: timestamps,
	}, nil
}

// padReflect mirrors pad samples on each side of the clip.
func padReflect(samples []float64, pad int) []float64 {
	n := len(samples)
	out := make([]float64, n+2*pad)
	copy(out[pad:], samples)
	for i := 0; i < pad; i++ {
		out[pad-1-i] = samples[reflectIndex(i+1, n)]
		out[pad+n+i] = samples[reflectIndex(n-2-i, n)]
	}
	return out
}

// reflectIndex clamps an index into [0, n) by reflecting at the edges.
// Needed when the clip is shorter than the pad width.
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * (n - 1)
	i = ((i % period) + period) % period
	if i >= n {
		i = period - i
	}
	return i
}

// quantize maps the sigmoid of the final layer onto the int8 range.
func quantize(emb *mat.Dense) [][]int8 {
	rows, cols := emb.Dims()
	out := make([][]int8, rows)
	for i := 0; i < rows; i++ {
		row := make([]int8, cols)
		for j := 0; j < cols; j++ {
			v := sigmoid(emb.At(i, j))*255 - 128
			if v > 127 {
				v = 127
			}
			if v < -128 {
				v = -128
			}
			row[j] = int8(v)
		}
		out[i] = row
	}
	return out
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
