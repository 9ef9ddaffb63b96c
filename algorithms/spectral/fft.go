package spectral

import (
	"github.com/mjibson/go-dsp/fft"
)

// FFT wraps the go-dsp real FFT
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute returns the full complex spectrum of a real signal.
// go-dsp handles non power-of-two sizes.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	return fft.FFTReal(x)
}
