// Package audiotest synthesizes deterministic signals and WAV fixtures for tests.
package audiotest

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Sine returns n samples of a unit-amplitude sine
func Sine(freq float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return out
}

// Noise returns n samples of uniform white noise in [-1, 1) from a fixed seed
func Noise(seed int64, n int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.Float64()*2 - 1
	}
	return out
}

// Scale returns a copy of signal multiplied by gain
func Scale(signal []float64, gain float64) []float64 {
	out := make([]float64, len(signal))
	for i, v := range signal {
		out[i] = v * gain
	}
	return out
}

// Interleave builds an interleaved buffer from per-channel signals of equal length
func Interleave(channels ...[]float64) []float64 {
	if len(channels) == 0 {
		return nil
	}
	n := len(channels[0])
	out := make([]float64, n*len(channels))
	for i := range n {
		for c, ch := range channels {
			out[i*len(channels)+c] = ch[i]
		}
	}
	return out
}

// WriteWAV writes interleaved samples in [-1, 1] as 16-bit PCM
func WriteWAV(path string, sampleRate, channels int, interleaved []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	data := make([]int, len(interleaved))
	for i, v := range interleaved {
		v = math.Max(-1, math.Min(1, v))
		data[i] = int(math.Round(v * 32767))
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return f.Close()
}

// WAVBytes encodes samples through a file in dir and returns the bytes
func WAVBytes(dir string, sampleRate, channels int, interleaved []float64) ([]byte, error) {
	f, err := os.CreateTemp(dir, "fixture-*.wav")
	if err != nil {
		return nil, err
	}
	path := f.Name()
	f.Close()

	if err := WriteWAV(path, sampleRate, channels, interleaved); err != nil {
		return nil, err
	}
	return os.ReadFile(filepath.Clean(path))
}
