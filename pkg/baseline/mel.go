package baseline

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// hz2mel converts Hz to mel (HTK scale).
func hz2mel(hz float64) float64 {
	return 2595 * math.Log10(1+hz/700)
}

// mel2hz converts mel (HTK scale) back to Hz.
func mel2hz(mel float64) float64 {
	return 700 * (math.Pow(10, mel/2595) - 1)
}

// hannWindow returns a periodic Hann window of the given size.
func hannWindow(size int) []float64 {
	window := make([]float64, size)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size)))
	}
	return window
}

// melFilterbank builds a (bins x mels) matrix of triangular filters spanning
// 0 Hz to Nyquist on the mel scale.
func melFilterbank(sampleRate, fftSize, mels int) *mat.Dense {
	bins := fftSize/2 + 1
	melMax := hz2mel(float64(sampleRate) / 2)

	// Filter edge frequencies, mels+2 points evenly spaced in mel.
	edges := make([]float64, mels+2)
	for i := range edges {
		edges[i] = mel2hz(melMax * float64(i) / float64(mels+1))
	}

	binHz := make([]float64, bins)
	for i := range binHz {
		binHz[i] = float64(i) * float64(sampleRate) / float64(fftSize)
	}

	fb := mat.NewDense(bins, mels, nil)
	for m := 0; m < mels; m++ {
		lower, center, upper := edges[m], edges[m+1], edges[m+2]
		for b := 0; b < bins; b++ {
			hz := binHz[b]
			switch {
			case hz <= lower || hz >= upper:
				// outside the triangle
			case hz <= center:
				if center > lower {
					fb.Set(b, m, (hz-lower)/(center-lower))
				}
			default:
				if upper > center {
					fb.Set(b, m, (upper-hz)/(upper-center))
				}
			}
		}
	}
	return fb
}
