package fingerprint

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-plagio/algorithms/stats"
	"github.com/RyanBlaney/sonido-plagio/fingerprint/config"
	"github.com/RyanBlaney/sonido-plagio/logging"
)

// SimilarityResult holds the score of one comparison and its intermediate terms
type SimilarityResult struct {
	SimilarityPercentage float64 `json:"similarity_percentage"`
	IsPlagiarized        bool    `json:"is_plagiarized"`

	Cosine     float64 `json:"cosine"`
	Euclidean  float64 `json:"euclidean_similarity"` // 1 - ‖a-b‖/sqrt(n), may be negative
	Combined   float64 `json:"combined"`
	Calibrated float64 `json:"calibrated"`
}

// FingerprintComparator scores pairs of fingerprints
type FingerprintComparator struct {
	config *config.ComparisonConfig
	logger logging.Logger
}

// NewFingerprintComparator creates a new fingerprint comparator
func NewFingerprintComparator(cfg *config.ComparisonConfig) *FingerprintComparator {
	if cfg == nil {
		cfg = config.DefaultComparisonConfig()
	}
	return &FingerprintComparator{
		config: cfg,
		logger: logging.WithFields(logging.Fields{
			"component": "fingerprint_comparator",
		}),
	}
}

// WithLogger replaces the comparator's logger
func (fc *FingerprintComparator) WithLogger(logger logging.Logger) *FingerprintComparator {
	if logger != nil {
		fc.logger = logger
	}
	return fc
}

// Compare scores two fingerprints
func (fc *FingerprintComparator) Compare(a, b *Fingerprint) (*SimilarityResult, error) {
	if a == nil || b == nil {
		return nil, &ComparisonError{Err: fmt.Errorf("fingerprints cannot be nil")}
	}
	return fc.CompareVectors(a.Vector, b.Vector)
}

// CompareVectors blends cosine and normalized Euclidean similarity, then
// squashes the blend through a logistic curve. The score is symmetric in its
// arguments.
func (fc *FingerprintComparator) CompareVectors(a, b []float64) (*SimilarityResult, error) {
	if len(a) != len(b) {
		return nil, &ComparisonError{Err: &LengthMismatchError{Left: len(a), Right: len(b)}}
	}

	cosine, err := stats.CosineSimilarity(a, b)
	if err != nil {
		return nil, &ComparisonError{Err: err}
	}
	euclidean, err := stats.NormalizedEuclideanSimilarity(a, b)
	if err != nil {
		return nil, &ComparisonError{Err: err}
	}

	cfg := fc.config
	combined := cfg.CosineWeight*cosine + cfg.EuclideanWeight*euclidean
	calibrated := 1.0 / (1.0 + math.Exp(-cfg.Steepness*(combined-cfg.Center)))
	percentage := calibrated * 100.0

	result := &SimilarityResult{
		SimilarityPercentage: percentage,
		IsPlagiarized:        percentage > cfg.Threshold,
		Cosine:               cosine,
		Euclidean:            euclidean,
		Combined:             combined,
		Calibrated:           calibrated,
	}

	fc.logger.Debug("Fingerprints compared", logging.Fields{
		"length":     len(a),
		"cosine":     cosine,
		"euclidean":  euclidean,
		"combined":   combined,
		"percentage": percentage,
	})

	return result, nil
}
