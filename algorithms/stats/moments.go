package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// MomentResult holds the first four population moments of a sample
type MomentResult struct {
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"` // population (biased) variance
	StdDev   float64 `json:"std_dev"`
	Skewness float64 `json:"skewness"` // m3 / m2^1.5, NaN when undefined
	Kurtosis float64 `json:"kurtosis"` // m4 / m2^2 - 3, NaN when undefined

	NumSamples int `json:"num_samples"`
}

// MomentParams contains parameters for moment calculation
type MomentParams struct {
	// Resolution decides when a sample counts as constant: the shape moments
	// are undefined when m2 <= (Resolution * mean)^2.
	Resolution float64 `json:"resolution"`
}

// Moments computes descriptive moments with population (bias=True)
// normalization. Shape statistics of constant samples are NaN rather than an
// arbitrary number so callers can decide how to fill them.
type Moments struct {
	params MomentParams
}

// NewMoments creates a new moment analyzer with default parameters
func NewMoments() *Moments {
	return &Moments{
		params: MomentParams{
			Resolution: 1e-15,
		},
	}
}

// Analyze computes mean, standard deviation, skewness and excess kurtosis
func (m *Moments) Analyze(data []float64) (*MomentResult, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty data")
	}

	mean := stat.Mean(data, nil)
	m2 := stat.Moment(2, data, nil)

	result := &MomentResult{
		Mean:       mean,
		Variance:   m2,
		StdDev:     math.Sqrt(m2),
		Skewness:   math.NaN(),
		Kurtosis:   math.NaN(),
		NumSamples: len(data),
	}

	threshold := m.params.Resolution * mean
	if m2 <= threshold*threshold {
		return result, nil
	}

	m3 := stat.Moment(3, data, nil)
	m4 := stat.Moment(4, data, nil)
	result.Skewness = m3 / math.Pow(m2, 1.5)
	result.Kurtosis = m4/(m2*m2) - 3.0

	return result, nil
}
