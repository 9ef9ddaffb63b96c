package temporal

import (
	"math"

	"github.com/RyanBlaney/sonido-plagio/algorithms/common"
	"gonum.org/v1/gonum/floats"
)

// Energy computes frame-level energy of a waveform
type Energy struct {
	frameSize  int
	hopSize    int
	sampleRate int
}

// NewEnergy creates a new energy calculator
func NewEnergy(frameSize, hopSize, sampleRate int) *Energy {
	return &Energy{
		frameSize:  frameSize,
		hopSize:    hopSize,
		sampleRate: sampleRate,
	}
}

// ComputeRMS returns sqrt(mean(x^2)) for every centered, zero-padded frame
func (e *Energy) ComputeRMS(signal []float64) ([]float64, error) {
	frames, err := common.NewCenteredFramer(e.frameSize, e.hopSize).Frames(signal)
	if err != nil {
		return nil, err
	}

	energies := make([]float64, len(frames))
	for i, frame := range frames {
		energies[i] = math.Sqrt(floats.Dot(frame, frame) / float64(e.frameSize))
	}
	return energies, nil
}

// ComputeLogEnergy returns the RMS curve in dB, floored at floor
func (e *Energy) ComputeLogEnergy(signal []float64, floor float64) ([]float64, error) {
	energies, err := e.ComputeRMS(signal)
	if err != nil {
		return nil, err
	}

	logEnergies := make([]float64, len(energies))
	for i, energy := range energies {
		logEnergies[i] = 20.0 * math.Log10(math.Max(energy, floor))
	}
	return logEnergies, nil
}
