package common

import "fmt"

// PadMode selects how a signal is extended before centered framing
type PadMode int

const (
	// PadConstant pads with zeros
	PadConstant PadMode = iota
	// PadEdge repeats the first and last sample
	PadEdge
)

// Framer slices a signal into overlapping frames. With Center set the signal is
// padded by FrameSize/2 on both sides so frame t is centered on sample t*HopSize,
// giving 1 + len(signal)/HopSize frames for any non-empty signal.
type Framer struct {
	FrameSize int
	HopSize   int
	Center    bool
	Pad       PadMode
}

// NewCenteredFramer returns a zero-padded centered framer
func NewCenteredFramer(frameSize, hopSize int) *Framer {
	return &Framer{
		FrameSize: frameSize,
		HopSize:   hopSize,
		Center:    true,
		Pad:       PadConstant,
	}
}

// Validate checks the framing parameters
func (f *Framer) Validate() error {
	if f.FrameSize <= 0 {
		return fmt.Errorf("frame size must be positive, got %d", f.FrameSize)
	}
	if f.HopSize <= 0 {
		return fmt.Errorf("hop size must be positive, got %d", f.HopSize)
	}
	return nil
}

// NumFrames returns the number of frames produced for a signal of length n
func (f *Framer) NumFrames(n int) int {
	if n <= 0 || f.HopSize <= 0 {
		return 0
	}
	if f.Center {
		return 1 + n/f.HopSize
	}
	if n < f.FrameSize {
		return 0
	}
	return 1 + (n-f.FrameSize)/f.HopSize
}

// Padded returns the signal the frames are cut from
func (f *Framer) Padded(signal []float64) []float64 {
	if !f.Center || len(signal) == 0 {
		return signal
	}

	pad := f.FrameSize / 2
	padded := make([]float64, len(signal)+2*pad)
	copy(padded[pad:], signal)

	if f.Pad == PadEdge {
		first, last := signal[0], signal[len(signal)-1]
		for i := range pad {
			padded[i] = first
			padded[len(padded)-1-i] = last
		}
	}
	return padded
}

// Frames returns views into the padded signal, one per frame. Frames share
// memory with the padded copy, so callers that mutate must copy first.
func (f *Framer) Frames(signal []float64) ([][]float64, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}

	numFrames := f.NumFrames(len(signal))
	if numFrames == 0 {
		return nil, fmt.Errorf("signal too short for frame size %d", f.FrameSize)
	}

	padded := f.Padded(signal)
	frames := make([][]float64, 0, numFrames)
	for i := range numFrames {
		start := i * f.HopSize
		end := start + f.FrameSize
		if end > len(padded) {
			break
		}
		frames = append(frames, padded[start:end])
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("signal too short for frame size %d", f.FrameSize)
	}
	return frames, nil
}
