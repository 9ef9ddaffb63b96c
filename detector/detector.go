// Package detector is the entry point of the similarity pipeline: it loads
// two clips, fingerprints them concurrently and scores the pair.
package detector

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/RyanBlaney/sonido-plagio/cache"
	"github.com/RyanBlaney/sonido-plagio/fingerprint"
	"github.com/RyanBlaney/sonido-plagio/fingerprint/config"
	"github.com/RyanBlaney/sonido-plagio/logging"
	"github.com/RyanBlaney/sonido-plagio/transcode"
)

// Options configures a Detector. Nil fields use defaults.
type Options struct {
	Features   *config.FeatureConfig
	Comparison *config.ComparisonConfig
	Decoder    *transcode.DecoderConfig

	// Cache is optional
	Cache *cache.Store

	Logger logging.Logger
}

// Detector compares audio clips
type Detector struct {
	loader     *transcode.Loader
	generator  *fingerprint.FingerprintGenerator
	comparator *fingerprint.FingerprintComparator
	cache      *cache.Store
	signature  string
	logger     logging.Logger
}

// New builds a detector, validating both configs
func New(opts Options) (*Detector, error) {
	if opts.Comparison == nil {
		opts.Comparison = config.DefaultComparisonConfig()
	}
	if err := opts.Comparison.Validate(); err != nil {
		return nil, fmt.Errorf("invalid comparison config: %w", err)
	}

	generator, err := fingerprint.NewFingerprintGenerator(opts.Features)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.WithFields(logging.Fields{
			"component": "detector",
		})
	}

	loader := transcode.NewLoader(opts.Decoder)
	d := &Detector{
		loader:     loader,
		generator:  generator,
		comparator: fingerprint.NewFingerprintComparator(opts.Comparison),
		cache:      opts.Cache,
		signature:  cacheSignature(generator.Config(), loader.Config()),
		logger:     logger,
	}
	if opts.Logger != nil {
		d.loader.WithLogger(opts.Logger)
		d.generator.WithLogger(opts.Logger)
		d.comparator.WithLogger(opts.Logger)
	}
	return d, nil
}

// CompareFiles loads and fingerprints both files, then scores them
func (d *Detector) CompareFiles(ctx context.Context, path1, path2 string) (*fingerprint.SimilarityResult, error) {
	logger := d.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "CompareFiles",
		"file1":    path1,
		"file2":    path2,
	})

	var fp1, fp2 *fingerprint.Fingerprint
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fp1, err = d.Fingerprint(gctx, path1)
		return err
	})
	g.Go(func() error {
		var err error
		fp2, err = d.Fingerprint(gctx, path2)
		return err
	})
	if err := g.Wait(); err != nil {
		logger.Error(err, "Failed to fingerprint inputs")
		return nil, err
	}

	result, err := d.comparator.Compare(fp1, fp2)
	if err != nil {
		logger.Error(err, "Failed to compare fingerprints")
		return nil, err
	}

	logger.Info("Comparison completed", logging.Fields{
		"similarity_percentage": result.SimilarityPercentage,
		"is_plagiarized":        result.IsPlagiarized,
	})
	return result, nil
}

// CompareWaveforms fingerprints two decoded waveforms and scores them
func (d *Detector) CompareWaveforms(ctx context.Context, w1, w2 *transcode.Waveform) (*fingerprint.SimilarityResult, error) {
	var fp1, fp2 *fingerprint.Fingerprint
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fp1, err = d.generator.Generate(gctx, w1)
		return err
	})
	g.Go(func() error {
		var err error
		fp2, err = d.generator.Generate(gctx, w2)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d.comparator.Compare(fp1, fp2)
}

// Compare scores two existing fingerprints
func (d *Detector) Compare(fp1, fp2 *fingerprint.Fingerprint) (*fingerprint.SimilarityResult, error) {
	return d.comparator.Compare(fp1, fp2)
}

// Fingerprint loads one file and computes its fingerprint, consulting the
// cache when one is configured
func (d *Detector) Fingerprint(ctx context.Context, path string) (*fingerprint.Fingerprint, error) {
	if d.cache == nil {
		wave, err := d.loader.Load(ctx, path)
		if err != nil {
			return nil, err
		}
		return d.generator.Generate(ctx, wave)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &transcode.LoadError{Source: path, Err: err}
	}
	return d.FingerprintBytes(ctx, path, data)
}

// FingerprintBytes computes the fingerprint of in-memory audio
func (d *Detector) FingerprintBytes(ctx context.Context, name string, data []byte) (*fingerprint.Fingerprint, error) {
	var key []byte
	if d.cache != nil && len(data) > 0 {
		key = cache.Key(data, d.signature)
		fp, ok, err := d.cache.Get(ctx, key)
		if err != nil {
			d.logger.Warn("Cache lookup failed", logging.Fields{
				"source": name,
				"error":  err.Error(),
			})
		} else if ok {
			d.logger.Debug("Cache hit", logging.Fields{"source": name})
			fp.Source = name
			return fp, nil
		}
	}

	wave, err := d.loader.LoadBytes(ctx, name, data)
	if err != nil {
		return nil, err
	}
	fp, err := d.generator.Generate(ctx, wave)
	if err != nil {
		return nil, err
	}

	if key != nil {
		if err := d.cache.Put(ctx, key, fp); err != nil {
			d.logger.Warn("Cache store failed", logging.Fields{
				"source": name,
				"error":  err.Error(),
			})
		}
	}
	return fp, nil
}

// ValidateDecoder checks the decoder settings, including ffmpeg
// availability when it is enabled
func (d *Detector) ValidateDecoder(ctx context.Context) error {
	return d.loader.Validate(ctx)
}

// cacheSignature covers every setting that changes the fingerprint of the
// same input bytes
func cacheSignature(features config.FeatureConfig, decoder transcode.DecoderConfig) string {
	return fmt.Sprintf("%s;maxdur=%s", features.Signature(), decoder.MaxDuration)
}

// FeatureConfig returns the extraction settings in effect
func (d *Detector) FeatureConfig() config.FeatureConfig {
	return d.generator.Config()
}
