package extractors

import (
	"context"
	"errors"
	"testing"

	"github.com/RyanBlaney/sonido-plagio/fingerprint/config"
	"github.com/RyanBlaney/sonido-plagio/internal/audiotest"
	"github.com/RyanBlaney/sonido-plagio/logging"
)

func newExtractor(t *testing.T, cfg *config.FeatureConfig) *DescriptorExtractor {
	t.Helper()
	d, err := NewDescriptorExtractor(cfg)
	if err != nil {
		t.Fatalf("NewDescriptorExtractor: %v", err)
	}
	return d.WithLogger(&logging.NoOpLogger{})
}

func TestExtractFeaturesCanonicalOrder(t *testing.T) {
	const sr = 22050
	d := newExtractor(t, nil)

	features, err := d.ExtractFeatures(context.Background(), audiotest.Sine(440, sr, sr), sr)
	if err != nil {
		t.Fatalf("ExtractFeatures: %v", err)
	}
	if len(features.Features) != len(CanonicalFamilies) {
		t.Fatalf("families = %d, want %d", len(features.Features), len(CanonicalFamilies))
	}

	wantFrames := 1 + sr/512
	if features.Frames != wantFrames {
		t.Errorf("frames = %d, want %d", features.Frames, wantFrames)
	}

	wantRows := map[Family]int{
		FamilyMFCC:             40,
		FamilySpectralCentroid: 1,
		FamilyChroma:           12,
		FamilyZeroCrossingRate: 1,
		FamilySpectralRolloff:  1,
		FamilyRMS:              1,
	}
	for i, f := range features.Features {
		if f.Family != CanonicalFamilies[i] {
			t.Fatalf("position %d = %s, want %s", i, f.Family, CanonicalFamilies[i])
		}
		if f.NumRows() != wantRows[f.Family] {
			t.Errorf("%s rows = %d, want %d", f.Family, f.NumRows(), wantRows[f.Family])
		}
		if f.NumFrames() != wantFrames {
			t.Errorf("%s frames = %d, want %d", f.Family, f.NumFrames(), wantFrames)
		}
	}

	mfcc, _ := features.Get(FamilyMFCC)
	if mfcc.Kind != KindMatrix {
		t.Errorf("mfcc kind = %v, want matrix", mfcc.Kind)
	}
	rms, _ := features.Get(FamilyRMS)
	if rms.Kind != KindSeries {
		t.Errorf("rms kind = %v, want series", rms.Kind)
	}
}

func TestExtractFeaturesShortClip(t *testing.T) {
	// shorter than one frame still yields one centered frame
	d := newExtractor(t, nil)
	features, err := d.ExtractFeatures(context.Background(), audiotest.Noise(1, 300), 8000)
	if err != nil {
		t.Fatalf("ExtractFeatures: %v", err)
	}
	if features.Frames != 1 {
		t.Fatalf("frames = %d, want 1", features.Frames)
	}
}

func TestExtractFeaturesErrors(t *testing.T) {
	d := newExtractor(t, nil)

	_, err := d.ExtractFeatures(context.Background(), nil, 22050)
	var extErr *ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("empty signal err = %v, want *ExtractionError", err)
	}

	if _, err := d.ExtractFeatures(context.Background(), []float64{1, 2}, 0); !errors.As(err, &extErr) {
		t.Fatalf("zero rate err = %v, want *ExtractionError", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.ExtractFeatures(ctx, audiotest.Sine(220, 8000, 8000), 8000)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled err = %v, want context.Canceled", err)
	}
}

func TestNewDescriptorExtractorRejectsBadConfig(t *testing.T) {
	cfg := config.DefaultFeatureConfig()
	cfg.HopSize = 0
	if _, err := NewDescriptorExtractor(cfg); err == nil {
		t.Fatal("expected error for invalid config")
	}
}

func TestFeatureRowsUniform(t *testing.T) {
	s := NewSeries(FamilyRMS, []float64{1, 2, 3})
	if len(s.Rows()) != 1 || s.NumFrames() != 3 {
		t.Fatalf("series rows = %v", s.Rows())
	}

	m := NewMatrixFromFrames(FamilyChroma, [][]float64{{1, 2}, {3, 4}, {5, 6}})
	if m.NumRows() != 2 || m.NumFrames() != 3 {
		t.Fatalf("matrix shape = %dx%d", m.NumRows(), m.NumFrames())
	}
	if m.Matrix[1][2] != 6 {
		t.Fatalf("transpose wrong: %v", m.Matrix)
	}

	err := &ExtractionError{Family: FamilyChroma, Err: errors.New("boom")}
	if err.Error() != "extract chroma_stft: boom" {
		t.Fatalf("Error() = %q", err.Error())
	}
}
