package transcode

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEmptyAudio means the source decoded to zero samples
	ErrEmptyAudio = errors.New("audio contains no samples")

	// ErrSilentAudio means every sample is (numerically) zero, so the clip
	// cannot be peak normalized
	ErrSilentAudio = errors.New("audio is silent")

	// ErrUnsupportedFormat means no decoder recognised the content
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrInvalidSampleRate means the decoder reported a non-positive rate
	ErrInvalidSampleRate = errors.New("invalid sample rate")
)

// Waveform is a mono, peak-normalized clip at the source's native sample rate
type Waveform struct {
	Samples    []float64     `json:"-"`
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"` // channel count of the source before downmix
	Duration   time.Duration `json:"duration"`
	Source     string        `json:"source"`
	Format     Format        `json:"format"`
}

// NumSamples returns the number of mono samples
func (w *Waveform) NumSamples() int {
	return len(w.Samples)
}

// LoadError reports why a source could not be turned into a Waveform
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("load audio: %v", e.Err)
	}
	return fmt.Sprintf("load audio %q: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func newLoadError(source string, err error) *LoadError {
	return &LoadError{Source: source, Err: err}
}
