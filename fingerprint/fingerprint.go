package fingerprint

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/RyanBlaney/sonido-plagio/fingerprint/config"
	"github.com/RyanBlaney/sonido-plagio/fingerprint/extractors"
	"github.com/RyanBlaney/sonido-plagio/logging"
	"github.com/RyanBlaney/sonido-plagio/transcode"
)

// Diagnostic records a fail-soft event during fingerprint generation
type Diagnostic struct {
	Family  extractors.Family `json:"family" msgpack:"family"`
	Message string            `json:"message" msgpack:"message"`
}

// Fingerprint is the fixed-length summary vector of one clip
type Fingerprint struct {
	Vector      []float64     `json:"vector" msgpack:"vector"`
	SampleRate  int           `json:"sample_rate" msgpack:"sample_rate"`
	Duration    time.Duration `json:"duration" msgpack:"duration"`
	Frames      int           `json:"frames" msgpack:"frames"`
	Source      string        `json:"source,omitempty" msgpack:"source"`
	Signature   string        `json:"config_signature" msgpack:"signature"`
	Diagnostics []Diagnostic  `json:"diagnostics,omitempty" msgpack:"diagnostics"`
}

// Len returns the vector length
func (f *Fingerprint) Len() int {
	return len(f.Vector)
}

// FamilySummary pairs a summary with the family it came from
type FamilySummary struct {
	Family extractors.Family
	SummaryResult
}

// Assemble concatenates family summaries in the order given and rejects any
// non-finite value
func Assemble(summaries []FamilySummary) ([]float64, error) {
	total := 0
	for _, s := range summaries {
		total += len(s.Values)
	}

	vector := make([]float64, 0, total)
	for _, s := range summaries {
		for _, v := range s.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &FingerprintError{Family: s.Family, Index: len(vector), Value: v}
			}
			vector = append(vector, v)
		}
	}
	return vector, nil
}

// FingerprintGenerator runs extraction, summarization and assembly
type FingerprintGenerator struct {
	config     config.FeatureConfig
	extractor  extractors.FeatureExtractor
	summarizer *Summarizer
	logger     logging.Logger
}

// NewFingerprintGenerator creates a generator with the descriptor extractor.
// A nil config uses the defaults.
func NewFingerprintGenerator(cfg *config.FeatureConfig) (*FingerprintGenerator, error) {
	extractor, err := extractors.NewDescriptorExtractor(cfg)
	if err != nil {
		return nil, err
	}
	return NewFingerprintGeneratorWithExtractor(extractor), nil
}

// NewFingerprintGeneratorWithExtractor creates a generator around any extractor
func NewFingerprintGeneratorWithExtractor(extractor extractors.FeatureExtractor) *FingerprintGenerator {
	return &FingerprintGenerator{
		config:     extractor.Config(),
		extractor:  extractor,
		summarizer: NewSummarizer(),
		logger: logging.WithFields(logging.Fields{
			"component": "fingerprint_generator",
		}),
	}
}

// WithLogger replaces the generator's logger, including the summarizer's
func (fg *FingerprintGenerator) WithLogger(logger logging.Logger) *FingerprintGenerator {
	if logger != nil {
		fg.logger = logger
		fg.summarizer.WithLogger(logger)
	}
	return fg
}

// Config returns the feature configuration
func (fg *FingerprintGenerator) Config() config.FeatureConfig {
	return fg.config
}

// Generate computes the fingerprint of a waveform
func (fg *FingerprintGenerator) Generate(ctx context.Context, wave *transcode.Waveform) (*Fingerprint, error) {
	if wave == nil {
		return nil, fmt.Errorf("waveform cannot be nil")
	}

	logger := fg.logger.WithFields(logging.Fields{
		"function":    "Generate",
		"source":      wave.Source,
		"sample_rate": wave.SampleRate,
		"samples":     len(wave.Samples),
	})

	logger.Debug("Starting fingerprint generation")

	features, err := fg.extractor.ExtractFeatures(ctx, wave.Samples, wave.SampleRate)
	if err != nil {
		logger.Error(err, "Failed to extract features")
		return nil, err
	}

	summaries := make([]FamilySummary, 0, len(features.Features))
	var diagnostics []Diagnostic
	for _, feature := range features.Features {
		summary := fg.summarizer.Summarize(feature, fg.expectedRows(feature.Family))
		if summary.Failed() {
			diagnostics = append(diagnostics, Diagnostic{
				Family:  feature.Family,
				Message: summary.Err.Error(),
			})
		}
		summaries = append(summaries, FamilySummary{Family: feature.Family, SummaryResult: summary})
	}

	vector, err := Assemble(summaries)
	if err != nil {
		logger.Error(err, "Failed to assemble fingerprint")
		return nil, err
	}

	fp := &Fingerprint{
		Vector:      vector,
		SampleRate:  wave.SampleRate,
		Duration:    wave.Duration,
		Frames:      features.Frames,
		Source:      wave.Source,
		Signature:   fg.config.Signature(),
		Diagnostics: diagnostics,
	}

	logger.Debug("Fingerprint generation completed", logging.Fields{
		"length":      len(vector),
		"frames":      fp.Frames,
		"diagnostics": len(diagnostics),
	})

	return fp, nil
}

func (fg *FingerprintGenerator) expectedRows(family extractors.Family) int {
	switch family {
	case extractors.FamilyMFCC:
		return fg.config.NumMFCC
	case extractors.FamilyChroma:
		return fg.config.ChromaBins
	default:
		return 1
	}
}
