package spectral

import (
	"math"

	"github.com/RyanBlaney/sonido-plagio/algorithms/common"
)

// zcrThreshold treats tiny magnitudes as zero so numerical dither around
// silence does not count as crossings
const zcrThreshold = 1e-10

// ZeroCrossingRate computes the fraction of sign changes per frame
type ZeroCrossingRate struct {
	frameSize int
	hopSize   int
}

// NewZeroCrossingRateWithParams creates calculator with custom parameters
func NewZeroCrossingRateWithParams(frameSize, hopSize int) *ZeroCrossingRate {
	return &ZeroCrossingRate{
		frameSize: frameSize,
		hopSize:   hopSize,
	}
}

// Compute returns crossings / len(frame) for a single frame. Zero counts as
// positive.
func (zcr *ZeroCrossingRate) Compute(frame []float64) float64 {
	if len(frame) < 2 {
		return 0.0
	}

	crossings := 0
	prev := zcrSign(frame[0])
	for _, v := range frame[1:] {
		s := zcrSign(v)
		if s != prev {
			crossings++
		}
		prev = s
	}

	return float64(crossings) / float64(len(frame))
}

// ComputeFrames returns one rate per centered, edge-padded frame of the raw
// signal
func (zcr *ZeroCrossingRate) ComputeFrames(signal []float64) ([]float64, error) {
	framer := &common.Framer{
		FrameSize: zcr.frameSize,
		HopSize:   zcr.hopSize,
		Center:    true,
		Pad:       common.PadEdge,
	}
	frames, err := framer.Frames(signal)
	if err != nil {
		return nil, err
	}

	rates := make([]float64, len(frames))
	for i, frame := range frames {
		rates[i] = zcr.Compute(frame)
	}
	return rates, nil
}

func zcrSign(v float64) bool {
	if math.Abs(v) <= zcrThreshold {
		return false
	}
	return math.Signbit(v)
}
