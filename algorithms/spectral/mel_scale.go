package spectral

import (
	"fmt"
	"math"
)

// MelScale converts between Hz and mel and builds triangular filter banks.
// The default is the Slaney scale (linear below 1 kHz, logarithmic above) with
// area-normalized filters; HTK selects the 2595*log10(1+f/700) formula.
type MelScale struct {
	HTK bool
}

const (
	slaneyFSp       = 200.0 / 3.0
	slaneyMinLogHz  = 1000.0
	slaneyMinLogMel = slaneyMinLogHz / slaneyFSp
)

var slaneyLogStep = math.Log(6.4) / 27.0

// NewMelScale creates a Slaney mel scale converter
func NewMelScale() *MelScale {
	return &MelScale{}
}

// HzToMel converts frequency in Hz to mel scale
func (ms *MelScale) HzToMel(hz float64) float64 {
	if ms.HTK {
		return 2595.0 * math.Log10(1.0+hz/700.0)
	}
	if hz >= slaneyMinLogHz {
		return slaneyMinLogMel + math.Log(hz/slaneyMinLogHz)/slaneyLogStep
	}
	return hz / slaneyFSp
}

// MelToHz converts mel scale to frequency in Hz
func (ms *MelScale) MelToHz(mel float64) float64 {
	if ms.HTK {
		return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
	}
	if mel >= slaneyMinLogMel {
		return slaneyMinLogHz * math.Exp(slaneyLogStep*(mel-slaneyMinLogMel))
	}
	return slaneyFSp * mel
}

// CreateMelFilterBank returns numFilters rows of fftSize/2+1 weights.
// Filters are triangles between consecutive mel points evaluated at the exact
// bin frequencies, scaled by 2/(upper-lower) so each has unit area.
func (ms *MelScale) CreateMelFilterBank(numFilters int, fftSize int, sampleRate int, lowFreq, highFreq float64) ([][]float64, error) {
	if numFilters <= 0 {
		return nil, fmt.Errorf("number of mel filters must be positive, got %d", numFilters)
	}
	if fftSize <= 0 || sampleRate <= 0 {
		return nil, fmt.Errorf("invalid fft size %d or sample rate %d", fftSize, sampleRate)
	}
	if highFreq <= 0 {
		highFreq = float64(sampleRate) / 2.0
	}
	if lowFreq < 0 || lowFreq >= highFreq {
		return nil, fmt.Errorf("invalid mel frequency range [%g, %g]", lowFreq, highFreq)
	}

	numBins := fftSize/2 + 1
	binFreqs := make([]float64, numBins)
	for i := range binFreqs {
		binFreqs[i] = float64(i) * float64(sampleRate) / float64(fftSize)
	}

	lowMel := ms.HzToMel(lowFreq)
	highMel := ms.HzToMel(highFreq)
	hzPoints := make([]float64, numFilters+2)
	melStep := (highMel - lowMel) / float64(numFilters+1)
	for i := range hzPoints {
		hzPoints[i] = ms.MelToHz(lowMel + float64(i)*melStep)
	}

	filterBank := make([][]float64, numFilters)
	for m := range numFilters {
		left, center, right := hzPoints[m], hzPoints[m+1], hzPoints[m+2]
		enorm := 2.0 / (right - left)

		filter := make([]float64, numBins)
		for k, f := range binFreqs {
			lower := (f - left) / (center - left)
			upper := (right - f) / (right - center)
			if w := math.Min(lower, upper); w > 0 {
				filter[k] = w * enorm
			}
		}
		filterBank[m] = filter
	}

	return filterBank, nil
}

// ApplyFilterBank applies a mel filter bank to one power spectrum
func (ms *MelScale) ApplyFilterBank(powerSpectrum []float64, filterBank [][]float64) []float64 {
	if len(filterBank) == 0 || len(powerSpectrum) == 0 {
		return []float64{}
	}

	melSpectrum := make([]float64, len(filterBank))
	for i, filter := range filterBank {
		sum := 0.0
		for j := 0; j < len(filter) && j < len(powerSpectrum); j++ {
			sum += powerSpectrum[j] * filter[j]
		}
		melSpectrum[i] = sum
	}

	return melSpectrum
}
