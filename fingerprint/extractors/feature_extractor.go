package extractors

import (
	"context"

	"github.com/RyanBlaney/sonido-plagio/fingerprint/config"
)

// FeatureExtractor turns a mono waveform into per-frame descriptor families
type FeatureExtractor interface {
	ExtractFeatures(ctx context.Context, pcm []float64, sampleRate int) (*ExtractedFeatures, error)
	Config() config.FeatureConfig
	GetName() string
}
