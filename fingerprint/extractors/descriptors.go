package extractors

import (
	"context"
	"fmt"

	"github.com/RyanBlaney/sonido-plagio/algorithms/chroma"
	"github.com/RyanBlaney/sonido-plagio/algorithms/spectral"
	"github.com/RyanBlaney/sonido-plagio/algorithms/temporal"
	"github.com/RyanBlaney/sonido-plagio/algorithms/windowing"
	"github.com/RyanBlaney/sonido-plagio/fingerprint/config"
	"github.com/RyanBlaney/sonido-plagio/logging"
)

// DescriptorExtractor computes the six timbre/pitch/energy families used for
// plagiarism fingerprints: MFCC, spectral centroid, chroma, zero-crossing rate,
// spectral roll-off and RMS energy. Spectral families share one STFT.
//
// The extractor holds only configuration, so one instance can serve
// concurrent calls with different sample rates.
type DescriptorExtractor struct {
	config config.FeatureConfig
	logger logging.Logger
	stft   *spectral.STFT
}

// NewDescriptorExtractor creates an extractor for the given config. A nil
// config uses the defaults.
func NewDescriptorExtractor(cfg *config.FeatureConfig) (*DescriptorExtractor, error) {
	if cfg == nil {
		cfg = config.DefaultFeatureConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid feature config: %w", err)
	}

	return &DescriptorExtractor{
		config: *cfg,
		logger: logging.WithFields(logging.Fields{
			"component": "descriptor_extractor",
		}),
		stft: spectral.NewSTFT(),
	}, nil
}

// WithLogger replaces the extractor's logger
func (d *DescriptorExtractor) WithLogger(logger logging.Logger) *DescriptorExtractor {
	if logger != nil {
		d.logger = logger
	}
	return d
}

// GetName returns the extractor name
func (d *DescriptorExtractor) GetName() string {
	return "descriptor"
}

// Config returns a copy of the feature configuration
func (d *DescriptorExtractor) Config() config.FeatureConfig {
	return d.config
}

// ExtractFeatures runs every family in canonical order. The first failing
// family aborts extraction with an *ExtractionError.
func (d *DescriptorExtractor) ExtractFeatures(ctx context.Context, pcm []float64, sampleRate int) (*ExtractedFeatures, error) {
	logger := d.logger.WithFields(logging.Fields{
		"function":    "ExtractFeatures",
		"samples":     len(pcm),
		"sample_rate": sampleRate,
	})

	if len(pcm) == 0 {
		return nil, &ExtractionError{Family: FamilyMFCC, Err: fmt.Errorf("empty signal")}
	}
	if sampleRate <= 0 {
		return nil, &ExtractionError{Family: FamilyMFCC, Err: fmt.Errorf("invalid sample rate %d", sampleRate)}
	}

	cfg := d.config
	stftResult, err := d.stft.ComputeWithWindow(pcm, cfg.FrameSize, cfg.HopSize, sampleRate,
		windowing.NewPeriodicHann(cfg.FrameSize))
	if err != nil {
		return nil, &ExtractionError{Family: FamilyMFCC, Err: fmt.Errorf("stft: %w", err)}
	}

	steps := []struct {
		family Family
		run    func() (Feature, error)
	}{
		{FamilyMFCC, func() (Feature, error) { return d.extractMFCC(stftResult, sampleRate) }},
		{FamilySpectralCentroid, func() (Feature, error) {
			values := spectral.NewSpectralCentroid(sampleRate).ComputeFrames(stftResult.Magnitude)
			return NewSeries(FamilySpectralCentroid, values), nil
		}},
		{FamilyChroma, func() (Feature, error) { return d.extractChroma(stftResult, sampleRate) }},
		{FamilyZeroCrossingRate, func() (Feature, error) {
			values, err := spectral.NewZeroCrossingRateWithParams(cfg.FrameSize, cfg.HopSize).ComputeFrames(pcm)
			return NewSeries(FamilyZeroCrossingRate, values), err
		}},
		{FamilySpectralRolloff, func() (Feature, error) {
			values := spectral.NewSpectralRolloff(sampleRate).ComputeFrames(stftResult.Magnitude, cfg.RolloffPercent)
			return NewSeries(FamilySpectralRolloff, values), nil
		}},
		{FamilyRMS, func() (Feature, error) {
			values, err := temporal.NewEnergy(cfg.FrameSize, cfg.HopSize, sampleRate).ComputeRMS(pcm)
			return NewSeries(FamilyRMS, values), err
		}},
	}

	features := make([]Feature, 0, len(steps))
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, &ExtractionError{Family: step.family, Err: err}
		}

		feature, err := step.run()
		if err != nil {
			logger.Debug("Feature family failed", logging.Fields{
				"family": step.family,
				"error":  err.Error(),
			})
			return nil, &ExtractionError{Family: step.family, Err: err}
		}
		if want := d.expectedRows(step.family); feature.NumRows() != want {
			return nil, &ExtractionError{
				Family: step.family,
				Err:    fmt.Errorf("produced %d rows, expected %d", feature.NumRows(), want),
			}
		}
		features = append(features, feature)
	}

	logger.Debug("Features extracted", logging.Fields{
		"frames":   stftResult.TimeFrames,
		"families": len(features),
	})

	return &ExtractedFeatures{
		Features:   features,
		Frames:     stftResult.TimeFrames,
		SampleRate: sampleRate,
	}, nil
}

func (d *DescriptorExtractor) extractMFCC(stftResult *spectral.STFTResult, sampleRate int) (Feature, error) {
	params := spectral.DefaultMFCCParams()
	params.NumCoefficients = d.config.NumMFCC
	params.NumMelFilters = d.config.NumMelFilters
	params.TopDB = d.config.TopDB

	mfcc, err := spectral.NewMFCCWithParams(sampleRate, params)
	if err != nil {
		return Feature{}, err
	}
	frames, err := mfcc.ComputeFrames(stftResult.Power, d.config.FrameSize)
	if err != nil {
		return Feature{}, err
	}
	return NewMatrixFromFrames(FamilyMFCC, frames), nil
}

func (d *DescriptorExtractor) extractChroma(stftResult *spectral.STFTResult, sampleRate int) (Feature, error) {
	cs, err := chroma.NewChromaSTFT(sampleRate, d.config.TuningFreq, d.config.ChromaBins)
	if err != nil {
		return Feature{}, err
	}
	frames, err := cs.ComputeFromSTFT(stftResult)
	if err != nil {
		return Feature{}, err
	}
	return NewMatrixFromFrames(FamilyChroma, frames), nil
}

func (d *DescriptorExtractor) expectedRows(family Family) int {
	switch family {
	case FamilyMFCC:
		return d.config.NumMFCC
	case FamilyChroma:
		return d.config.ChromaBins
	default:
		return 1
	}
}
