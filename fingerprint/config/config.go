package config

import (
	"errors"
	"fmt"
	"math"
)

// StatsPerRow is the number of summary statistics kept per feature row:
// mean, standard deviation, skewness and excess kurtosis
const StatsPerRow = 4

// FeatureConfig controls framing and the shape of every descriptor family.
// The fingerprint length is a pure function of this config.
type FeatureConfig struct {
	// Framing
	FrameSize int `json:"frame_size" yaml:"frame_size"`
	HopSize   int `json:"hop_size" yaml:"hop_size"`

	// MFCC
	NumMFCC       int     `json:"num_mfcc" yaml:"num_mfcc"`
	NumMelFilters int     `json:"num_mel_filters" yaml:"num_mel_filters"`
	TopDB         float64 `json:"top_db" yaml:"top_db"` // <= 0 disables the dB range limit

	// Chroma
	ChromaBins int     `json:"chroma_bins" yaml:"chroma_bins"`
	TuningFreq float64 `json:"tuning_freq" yaml:"tuning_freq"` // A4 in Hz

	// Roll-off
	RolloffPercent float64 `json:"rolloff_percent" yaml:"rolloff_percent"`
}

// DefaultFeatureConfig returns the configuration that yields 224-value fingerprints
func DefaultFeatureConfig() *FeatureConfig {
	return &FeatureConfig{
		FrameSize:      2048,
		HopSize:        512,
		NumMFCC:        40,
		NumMelFilters:  128,
		TopDB:          80.0,
		ChromaBins:     12,
		TuningFreq:     440.0,
		RolloffPercent: 0.85,
	}
}

// Validate checks the feature configuration
func (c *FeatureConfig) Validate() error {
	var errs []error
	if c.FrameSize <= 1 {
		errs = append(errs, fmt.Errorf("frame_size must be > 1, got %d", c.FrameSize))
	}
	if c.HopSize <= 0 {
		errs = append(errs, fmt.Errorf("hop_size must be positive, got %d", c.HopSize))
	}
	if c.NumMelFilters <= 0 {
		errs = append(errs, fmt.Errorf("num_mel_filters must be positive, got %d", c.NumMelFilters))
	}
	if c.NumMFCC <= 0 || c.NumMFCC > c.NumMelFilters {
		errs = append(errs, fmt.Errorf("num_mfcc must be in [1, num_mel_filters], got %d", c.NumMFCC))
	}
	if c.ChromaBins <= 0 {
		errs = append(errs, fmt.Errorf("chroma_bins must be positive, got %d", c.ChromaBins))
	}
	if c.TuningFreq <= 0 {
		errs = append(errs, fmt.Errorf("tuning_freq must be positive, got %g", c.TuningFreq))
	}
	if c.RolloffPercent <= 0 || c.RolloffPercent >= 1 {
		errs = append(errs, fmt.Errorf("rolloff_percent must be in (0, 1), got %g", c.RolloffPercent))
	}
	return errors.Join(errs...)
}

// RowCount is the total number of feature rows across all six families
func (c FeatureConfig) RowCount() int {
	// mfcc + centroid + chroma + zcr + rolloff + rms
	return c.NumMFCC + 1 + c.ChromaBins + 1 + 1 + 1
}

// VectorLength is the fingerprint length produced with this config
func (c FeatureConfig) VectorLength() int {
	return StatsPerRow * c.RowCount()
}

// Signature identifies every parameter that changes fingerprint values
func (c FeatureConfig) Signature() string {
	return fmt.Sprintf("fs=%d;hop=%d;mfcc=%d;mel=%d;topdb=%g;chroma=%d;tune=%g;roll=%g",
		c.FrameSize, c.HopSize, c.NumMFCC, c.NumMelFilters, c.TopDB, c.ChromaBins, c.TuningFreq, c.RolloffPercent)
}

// ComparisonConfig configures how two fingerprints are scored
type ComparisonConfig struct {
	CosineWeight    float64 `json:"cosine_weight" yaml:"cosine_weight"`
	EuclideanWeight float64 `json:"euclidean_weight" yaml:"euclidean_weight"`

	// Logistic calibration 1/(1+exp(-Steepness*(combined-Center)))
	Steepness float64 `json:"steepness" yaml:"steepness"`
	Center    float64 `json:"center" yaml:"center"`

	// Threshold is a percentage; scores strictly above it are plagiarized
	Threshold float64 `json:"threshold" yaml:"threshold"`
}

// DefaultComparisonConfig returns the standard weights and calibration
func DefaultComparisonConfig() *ComparisonConfig {
	return &ComparisonConfig{
		CosineWeight:    0.7,
		EuclideanWeight: 0.3,
		Steepness:       12.0,
		Center:          0.5,
		Threshold:       75.0,
	}
}

// Validate checks the comparison configuration
func (c *ComparisonConfig) Validate() error {
	var errs []error
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"cosine_weight", c.CosineWeight},
		{"euclidean_weight", c.EuclideanWeight},
		{"steepness", c.Steepness},
		{"center", c.Center},
		{"threshold", c.Threshold},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			errs = append(errs, fmt.Errorf("%s must be finite, got %g", f.name, f.value))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	if c.CosineWeight < 0 || c.EuclideanWeight < 0 {
		errs = append(errs, fmt.Errorf("weights must not be negative"))
	}
	if c.CosineWeight+c.EuclideanWeight <= 0 {
		errs = append(errs, fmt.Errorf("at least one weight must be positive"))
	}
	if c.Steepness <= 0 {
		errs = append(errs, fmt.Errorf("steepness must be positive, got %g", c.Steepness))
	}
	if c.Threshold < 0 || c.Threshold > 100 {
		errs = append(errs, fmt.Errorf("threshold must be a percentage, got %g", c.Threshold))
	}
	return errors.Join(errs...)
}
