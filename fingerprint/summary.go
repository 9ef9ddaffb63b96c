package fingerprint

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-plagio/algorithms/stats"
	"github.com/RyanBlaney/sonido-plagio/fingerprint/config"
	"github.com/RyanBlaney/sonido-plagio/fingerprint/extractors"
	"github.com/RyanBlaney/sonido-plagio/logging"
)

// SummaryResult is the fail-soft output of summarizing one feature. Values
// always has length 4*rows; when Err is set it is all zeros.
type SummaryResult struct {
	Values []float64
	Err    error
}

// Failed reports whether the summary fell back to zeros
func (r SummaryResult) Failed() bool {
	return r.Err != nil
}

type momentAnalyzer interface {
	Analyze(data []float64) (*stats.MomentResult, error)
}

// Summarizer reduces each feature row to mean, standard deviation, skewness
// and excess kurtosis, laid out as [means..., stds..., skews..., kurtoses...].
type Summarizer struct {
	moments momentAnalyzer
	logger  logging.Logger
}

// NewSummarizer creates a summarizer using population moments
func NewSummarizer() *Summarizer {
	return &Summarizer{
		moments: stats.NewMoments(),
		logger: logging.WithFields(logging.Fields{
			"component": "summarizer",
		}),
	}
}

// WithLogger replaces the summarizer's logger
func (s *Summarizer) WithLogger(logger logging.Logger) *Summarizer {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Summarize never fails outright. Any error, including a panic in the
// statistics code, yields a zero vector of the expected length and is
// reported in the result and logged at warn level.
func Summarize(feature extractors.Feature, expectedRows int) SummaryResult {
	return NewSummarizer().Summarize(feature, expectedRows)
}

// Summarize computes the statistics for one feature
func (s *Summarizer) Summarize(feature extractors.Feature, expectedRows int) (result SummaryResult) {
	defer func() {
		if r := recover(); r != nil {
			result = s.fallback(feature.Family, expectedRows, fmt.Errorf("panic: %v", r))
		}
	}()

	values, err := s.summarizeRows(feature.Rows(), expectedRows)
	if err != nil {
		return s.fallback(feature.Family, expectedRows, err)
	}
	return SummaryResult{Values: values}
}

func (s *Summarizer) summarizeRows(rows [][]float64, expectedRows int) ([]float64, error) {
	if len(rows) != expectedRows {
		return nil, fmt.Errorf("got %d rows, expected %d", len(rows), expectedRows)
	}

	n := len(rows)
	values := make([]float64, config.StatsPerRow*n)
	for i, row := range rows {
		m, err := s.moments.Analyze(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		values[i] = finiteOrZero(m.Mean)
		values[n+i] = finiteOrZero(m.StdDev)
		values[2*n+i] = finiteOrZero(m.Skewness)
		values[3*n+i] = finiteOrZero(m.Kurtosis)
	}
	return values, nil
}

func (s *Summarizer) fallback(family extractors.Family, expectedRows int, err error) SummaryResult {
	s.logger.Warn("Summary statistics failed, using zeros", logging.Fields{
		"family": family,
		"error":  err.Error(),
	})
	return SummaryResult{
		Values: make([]float64, config.StatsPerRow*max(expectedRows, 0)),
		Err:    err,
	}
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
