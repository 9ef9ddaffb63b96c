package spectral

import (
	"fmt"
	"math/cmplx"
	"runtime"
	"sync"

	"github.com/RyanBlaney/sonido-plagio/algorithms/common"
)

// STFT provides Short-Time Fourier Transform functionality
type STFT struct {
	fft *FFT
}

// STFTResult holds a one-sided spectrogram. Rows are frames, columns are bins.
type STFTResult struct {
	Magnitude      [][]float64 `json:"magnitude"`
	Power          [][]float64 `json:"-"`
	TimeFrames     int         `json:"time_frames"`
	FreqBins       int         `json:"freq_bins"`
	SampleRate     int         `json:"sample_rate"`
	WindowSize     int         `json:"window_size"`
	HopSize        int         `json:"hop_size"`
	FreqResolution float64     `json:"freq_resolution"` // Hz per bin
	TimeResolution float64     `json:"time_resolution"` // seconds per frame
}

// Window interface for windowing functions
type Window interface {
	ApplyInPlace(signal []float64) error
}

// NewSTFT creates a new STFT calculator
func NewSTFT() *STFT {
	return &STFT{
		fft: NewFFT(),
	}
}

// ComputeWithWindow computes a centered, zero-padded STFT. Frames are
// distributed over a worker pool; each worker owns its frame buffer and writes
// only its own rows.
func (s *STFT) ComputeWithWindow(signal []float64, windowSize int, hopSize int, sampleRate int, window Window) (*STFTResult, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	framer := common.NewCenteredFramer(windowSize, hopSize)
	frames, err := framer.Frames(signal)
	if err != nil {
		return nil, err
	}

	numFrames := len(frames)
	freqBins := windowSize/2 + 1

	magnitude := make([][]float64, numFrames)
	power := make([][]float64, numFrames)
	for i := range numFrames {
		magnitude[i] = make([]float64, freqBins)
		power[i] = make([]float64, freqBins)
	}

	numWorkers := max(1, s.getOptimalWorkerCount(numFrames))
	jobs := make(chan int, numFrames)
	errs := make(chan error, numWorkers)

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			frameBuffer := make([]float64, windowSize)
			for frameIdx := range jobs {
				copy(frameBuffer, frames[frameIdx])

				if window != nil {
					if err := window.ApplyInPlace(frameBuffer); err != nil {
						errs <- fmt.Errorf("frame %d: %w", frameIdx, err)
						return
					}
				}

				spectrum := s.fft.Compute(frameBuffer)
				for i := range freqBins {
					mag := cmplx.Abs(spectrum[i])
					magnitude[frameIdx][i] = mag
					power[frameIdx][i] = mag * mag
				}
			}
		}()
	}

	for frameIdx := range numFrames {
		jobs <- frameIdx
	}
	close(jobs)
	wg.Wait()
	close(errs)

	if err := <-errs; err != nil {
		return nil, err
	}

	return &STFTResult{
		Magnitude:      magnitude,
		Power:          power,
		TimeFrames:     numFrames,
		FreqBins:       freqBins,
		SampleRate:     sampleRate,
		WindowSize:     windowSize,
		HopSize:        hopSize,
		FreqResolution: float64(sampleRate) / float64(windowSize),
		TimeResolution: float64(hopSize) / float64(sampleRate),
	}, nil
}

// getOptimalWorkerCount determines the number of workers for a workload
func (s *STFT) getOptimalWorkerCount(numFrames int) int {
	numCPU := runtime.NumCPU()

	// small workloads don't benefit from many goroutines
	if numFrames < 100 {
		return min(max(numCPU/2, 1), numFrames)
	}

	if numFrames < 1000 {
		return min(numCPU, 8)
	}

	return numCPU
}
