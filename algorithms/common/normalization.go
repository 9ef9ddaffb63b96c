package common

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// SilenceThreshold is the peak amplitude at or below which a signal is treated
// as digital silence.
const SilenceThreshold = 1e-10

// Peak returns max |x| of the signal
func Peak(signal []float64) float64 {
	peak := 0.0
	for _, v := range signal {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return peak
}

// PeakNormalize scales a copy of the signal so that max |x| == 1.
// Signals whose peak is at or below SilenceThreshold are returned unchanged
// together with ok=false.
func PeakNormalize(signal []float64) (normalized []float64, ok bool) {
	normalized = make([]float64, len(signal))
	copy(normalized, signal)

	peak := Peak(signal)
	if peak <= SilenceThreshold || math.IsNaN(peak) || math.IsInf(peak, 0) {
		return normalized, false
	}

	floats.Scale(1.0/peak, normalized)
	return normalized, true
}

// DownmixToMono averages interleaved channels into a single channel
func DownmixToMono(interleaved []float64, channels int) ([]float64, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d", channels)
	}
	if channels == 1 {
		out := make([]float64, len(interleaved))
		copy(out, interleaved)
		return out, nil
	}

	frames := len(interleaved) / channels
	mono := make([]float64, frames)
	scale := 1.0 / float64(channels)
	for i := range frames {
		sum := 0.0
		base := i * channels
		for ch := range channels {
			sum += interleaved[base+ch]
		}
		mono[i] = sum * scale
	}
	return mono, nil
}
