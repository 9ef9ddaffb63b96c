package chroma

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-plagio/algorithms/spectral"
)

// ChromaSTFT folds a power spectrogram into pitch classes.
//
// Every FFT bin is assigned to the nearest pitch class relative to the tuning
// frequency (A4), octaves folded together. With 12 bins, bin 0 is C.
type ChromaSTFT struct {
	sampleRate int
	tuningFreq float64
	chromaBins int
}

// NewChromaSTFT creates a chromagram calculator covering the whole spectrum
func NewChromaSTFT(sampleRate int, tuningFreq float64, chromaBins int) (*ChromaSTFT, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if tuningFreq <= 0 {
		return nil, fmt.Errorf("tuning frequency must be positive, got %g", tuningFreq)
	}
	if chromaBins <= 0 {
		return nil, fmt.Errorf("chroma bins must be positive, got %d", chromaBins)
	}
	return &ChromaSTFT{
		sampleRate: sampleRate,
		tuningFreq: tuningFreq,
		chromaBins: chromaBins,
	}, nil
}

// NewChromaSTFTDefault creates a 12-bin chromagram with A4=440Hz tuning
func NewChromaSTFTDefault(sampleRate int) (*ChromaSTFT, error) {
	return NewChromaSTFT(sampleRate, 440.0, 12)
}

// ComputeFromSTFT returns one chroma vector per frame, each scaled so its
// largest pitch class is 1. Frames with no energy stay all zero.
func (cs *ChromaSTFT) ComputeFromSTFT(stftResult *spectral.STFTResult) ([][]float64, error) {
	if stftResult == nil || stftResult.TimeFrames == 0 {
		return nil, fmt.Errorf("empty spectrogram")
	}
	if len(stftResult.Power) != stftResult.TimeFrames {
		return nil, fmt.Errorf("spectrogram has %d power frames, expected %d", len(stftResult.Power), stftResult.TimeFrames)
	}

	mapping := cs.calculateChromaMapping(stftResult.FreqBins, stftResult.FreqResolution)

	chromagram := make([][]float64, stftResult.TimeFrames)
	for t, spectrum := range stftResult.Power {
		frame := make([]float64, cs.chromaBins)
		for f, energy := range spectrum {
			if bin := mapping[f]; bin >= 0 {
				frame[bin] += energy
			}
		}
		normalizeMax(frame)
		chromagram[t] = frame
	}

	return chromagram, nil
}

// calculateChromaMapping maps FFT bins to chroma bins, -1 for excluded bins
func (cs *ChromaSTFT) calculateChromaMapping(freqBins int, freqResolution float64) []int {
	mapping := make([]int, freqBins)

	nyquist := float64(cs.sampleRate) / 2.0

	for f := range freqBins {
		frequency := float64(f) * freqResolution
		if frequency <= 0 || frequency > nyquist {
			mapping[f] = -1
			continue
		}
		mapping[f] = cs.frequencyToChroma(frequency)
	}

	return mapping
}

// frequencyToChroma generalizes MIDI note % 12 to any number of bins.
// A4 sits 9/12 of an octave above C.
func (cs *ChromaSTFT) frequencyToChroma(frequency float64) int {
	n := float64(cs.chromaBins)
	pitch := n*math.Log2(frequency/cs.tuningFreq) + 9.0*n/12.0
	bin := int(math.Round(pitch)) % cs.chromaBins
	if bin < 0 {
		bin += cs.chromaBins
	}
	return bin
}

func normalizeMax(frame []float64) {
	peak := 0.0
	for _, v := range frame {
		if v > peak {
			peak = v
		}
	}
	if peak <= 1e-10 {
		return
	}
	for i := range frame {
		frame[i] /= peak
	}
}
