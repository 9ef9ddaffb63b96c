package spectral

import (
	"fmt"
	"math"
)

// MFCC computes Mel-Frequency Cepstral Coefficients from a power spectrogram:
// mel filter bank, decibel conversion with a dynamic range limit over the whole
// clip, then an orthonormal DCT-II.
type MFCC struct {
	numCoefficients int
	numMelFilters   int
	sampleRate      int
	lowFreq         float64
	highFreq        float64
	amin            float64
	topDB           float64

	melScale   *MelScale
	filterBank [][]float64
	dctMatrix  [][]float64
	fftSize    int
}

// MFCCParams contains parameters for MFCC computation
type MFCCParams struct {
	NumCoefficients int     `json:"num_coefficients"` // default 40
	NumMelFilters   int     `json:"num_mel_filters"`  // default 128
	LowFreq         float64 `json:"low_freq"`
	HighFreq        float64 `json:"high_freq"` // default sampleRate/2
	Amin            float64 `json:"amin"`      // power floor before log, default 1e-10
	TopDB           float64 `json:"top_db"`    // <= 0 disables the range limit
}

// DefaultMFCCParams returns the parameters used by the fingerprint pipeline
func DefaultMFCCParams() MFCCParams {
	return MFCCParams{
		NumCoefficients: 40,
		NumMelFilters:   128,
		Amin:            1e-10,
		TopDB:           80.0,
	}
}

// NewMFCCWithParams creates a new MFCC computer with custom parameters
func NewMFCCWithParams(sampleRate int, params MFCCParams) (*MFCC, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if params.NumMelFilters <= 0 {
		return nil, fmt.Errorf("number of mel filters must be positive, got %d", params.NumMelFilters)
	}
	if params.NumCoefficients <= 0 || params.NumCoefficients > params.NumMelFilters {
		return nil, fmt.Errorf("number of coefficients must be in [1, %d], got %d",
			params.NumMelFilters, params.NumCoefficients)
	}
	if params.HighFreq <= 0 {
		params.HighFreq = float64(sampleRate) / 2.0
	}
	if params.Amin <= 0 {
		params.Amin = 1e-10
	}

	m := &MFCC{
		numCoefficients: params.NumCoefficients,
		numMelFilters:   params.NumMelFilters,
		sampleRate:      sampleRate,
		lowFreq:         params.LowFreq,
		highFreq:        params.HighFreq,
		amin:            params.Amin,
		topDB:           params.TopDB,
		melScale:        NewMelScale(),
	}
	m.createDCTMatrix()
	return m, nil
}

// Initialize prepares the filter bank for the given FFT size
func (m *MFCC) Initialize(fftSize int) error {
	if fftSize <= 0 {
		return fmt.Errorf("invalid FFT size: %d", fftSize)
	}
	if m.fftSize == fftSize && m.filterBank != nil {
		return nil
	}

	filterBank, err := m.melScale.CreateMelFilterBank(m.numMelFilters, fftSize, m.sampleRate, m.lowFreq, m.highFreq)
	if err != nil {
		return fmt.Errorf("failed to create mel filter bank: %w", err)
	}
	m.filterBank = filterBank
	m.fftSize = fftSize
	return nil
}

// ComputeFrames returns one coefficient vector per frame of the power spectrogram
func (m *MFCC) ComputeFrames(powerSpectrogram [][]float64, fftSize int) ([][]float64, error) {
	if len(powerSpectrogram) == 0 {
		return nil, fmt.Errorf("empty power spectrogram")
	}
	if err := m.Initialize(fftSize); err != nil {
		return nil, err
	}

	// mel power in dB, ref=1.0
	melDB := make([][]float64, len(powerSpectrogram))
	peakDB := math.Inf(-1)
	for t, spectrum := range powerSpectrogram {
		if len(spectrum) != fftSize/2+1 {
			return nil, fmt.Errorf("frame %d has %d bins, expected %d", t, len(spectrum), fftSize/2+1)
		}
		mel := m.melScale.ApplyFilterBank(spectrum, m.filterBank)
		for i, v := range mel {
			mel[i] = 10.0 * math.Log10(math.Max(m.amin, v))
			if mel[i] > peakDB {
				peakDB = mel[i]
			}
		}
		melDB[t] = mel
	}

	if m.topDB > 0 {
		floor := peakDB - m.topDB
		for _, frame := range melDB {
			for i, v := range frame {
				if v < floor {
					frame[i] = floor
				}
			}
		}
	}

	coeffs := make([][]float64, len(melDB))
	for t, frame := range melDB {
		coeffs[t] = m.applyDCT(frame)
	}
	return coeffs, nil
}

// createDCTMatrix builds the orthonormal DCT-II rows for the kept coefficients
func (m *MFCC) createDCTMatrix() {
	n := float64(m.numMelFilters)
	m.dctMatrix = make([][]float64, m.numCoefficients)

	for k := range m.numCoefficients {
		m.dctMatrix[k] = make([]float64, m.numMelFilters)
		scale := math.Sqrt(2.0 / n)
		if k == 0 {
			scale = math.Sqrt(1.0 / n)
		}
		for j := range m.numMelFilters {
			m.dctMatrix[k][j] = scale * math.Cos(math.Pi*float64(k)*(2.0*float64(j)+1.0)/(2.0*n))
		}
	}
}

func (m *MFCC) applyDCT(logMel []float64) []float64 {
	out := make([]float64, m.numCoefficients)
	for k, row := range m.dctMatrix {
		sum := 0.0
		for j, w := range row {
			sum += w * logMel[j]
		}
		out[k] = sum
	}
	return out
}

// NumCoefficients returns the number of coefficients per frame
func (m *MFCC) NumCoefficients() int {
	return m.numCoefficients
}
