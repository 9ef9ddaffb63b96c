package detector

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/RyanBlaney/sonido-plagio/cache"
	"github.com/RyanBlaney/sonido-plagio/fingerprint/config"
	"github.com/RyanBlaney/sonido-plagio/internal/audiotest"
	"github.com/RyanBlaney/sonido-plagio/logging"
	"github.com/RyanBlaney/sonido-plagio/transcode"
)

const sr = 22050

func newDetector(t *testing.T, store *cache.Store) *Detector {
	t.Helper()
	d, err := New(Options{
		Cache:  store,
		Logger: &logging.NoOpLogger{},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func writeWAV(t *testing.T, name string, samples []float64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := audiotest.WriteWAV(path, sr, 1, samples); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	return path
}

func TestCompareFilesSelf(t *testing.T) {
	d := newDetector(t, nil)
	path := writeWAV(t, "tone.wav", audiotest.Scale(audiotest.Sine(440, sr, sr), 0.5))

	res, err := d.CompareFiles(context.Background(), path, path)
	if err != nil {
		t.Fatalf("CompareFiles: %v", err)
	}
	if res.SimilarityPercentage < 95 || !res.IsPlagiarized {
		t.Errorf("self comparison = %+v", res)
	}
}

func TestCompareFilesToneVsNoise(t *testing.T) {
	d := newDetector(t, nil)
	tone := writeWAV(t, "tone.wav", audiotest.Scale(audiotest.Sine(440, sr, sr), 0.5))
	noise := writeWAV(t, "noise.wav", audiotest.Scale(audiotest.Noise(11, sr), 0.5))

	res, err := d.CompareFiles(context.Background(), tone, noise)
	if err != nil {
		t.Fatalf("CompareFiles: %v", err)
	}
	if res.SimilarityPercentage >= 75 || res.IsPlagiarized {
		t.Errorf("tone vs noise = %+v", res)
	}
}

func TestCompareFilesLoadErrors(t *testing.T) {
	d := newDetector(t, nil)
	tone := writeWAV(t, "tone.wav", audiotest.Sine(440, sr, sr/2))
	silent := writeWAV(t, "silent.wav", make([]float64, sr/2))

	_, err := d.CompareFiles(context.Background(), tone, filepath.Join(t.TempDir(), "missing.wav"))
	var loadErr *transcode.LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("missing file err = %v, want *LoadError", err)
	}

	_, err = d.CompareFiles(context.Background(), silent, tone)
	if !errors.Is(err, transcode.ErrSilentAudio) {
		t.Fatalf("silent file err = %v, want ErrSilentAudio", err)
	}
}

func TestCompareWaveforms(t *testing.T) {
	d := newDetector(t, nil)
	wave := &transcode.Waveform{
		Samples:    audiotest.Sine(330, sr, sr),
		SampleRate: sr,
		Channels:   1,
	}
	res, err := d.CompareWaveforms(context.Background(), wave, wave)
	if err != nil {
		t.Fatalf("CompareWaveforms: %v", err)
	}
	if !res.IsPlagiarized {
		t.Errorf("identical waveforms = %+v", res)
	}
}

func TestFingerprintUsesCache(t *testing.T) {
	store, err := cache.Open(cache.Options{InMemory: true})
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	d := newDetector(t, store)
	path := writeWAV(t, "tone.wav", audiotest.Sine(440, sr, sr/2))

	first, err := d.Fingerprint(context.Background(), path)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	second, err := d.Fingerprint(context.Background(), path)
	if err != nil {
		t.Fatalf("Fingerprint (cached): %v", err)
	}

	n, err := store.Len()
	if err != nil || n != 1 {
		t.Fatalf("cache entries = %d, %v", n, err)
	}
	if len(first.Vector) != len(second.Vector) {
		t.Fatalf("lengths differ: %d vs %d", len(first.Vector), len(second.Vector))
	}
	for i := range first.Vector {
		if first.Vector[i] != second.Vector[i] {
			t.Fatalf("value %d differs after cache round trip", i)
		}
	}

	if _, err := d.Fingerprint(context.Background(), filepath.Join(t.TempDir(), "nope.wav")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestCacheKeyCoversMaxDuration(t *testing.T) {
	store, err := cache.Open(cache.Options{InMemory: true})
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	full := newDetector(t, store)
	decoder := transcode.DefaultDecoderConfig()
	decoder.MaxDuration = 500 * time.Millisecond
	truncated, err := New(Options{
		Decoder: decoder,
		Cache:   store,
		Logger:  &logging.NoOpLogger{},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	path := writeWAV(t, "tone.wav", audiotest.Sine(440, sr, 3*sr))
	ctx := context.Background()

	fp, err := full.Fingerprint(ctx, path)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if fp.Duration != 3*time.Second || fp.Frames != 130 {
		t.Fatalf("full fingerprint duration/frames = %v/%d, want 3s/130", fp.Duration, fp.Frames)
	}

	short, err := truncated.Fingerprint(ctx, path)
	if err != nil {
		t.Fatalf("Fingerprint (truncated): %v", err)
	}
	if short.Duration != 500*time.Millisecond {
		t.Errorf("truncated duration = %v, want 500ms", short.Duration)
	}
	if short.Frames == fp.Frames {
		t.Errorf("truncated fingerprint reused the full-length entry (%d frames)", short.Frames)
	}

	n, err := store.Len()
	if err != nil || n != 2 {
		t.Fatalf("cache entries = %d, %v; want one per decoder setting", n, err)
	}
}

func TestValidateDecoder(t *testing.T) {
	decoder := transcode.DefaultDecoderConfig()
	decoder.EnableFFmpeg = false
	d, err := New(Options{Decoder: decoder, Logger: &logging.NoOpLogger{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.ValidateDecoder(context.Background()); err != nil {
		t.Fatalf("ValidateDecoder without ffmpeg: %v", err)
	}

	decoder = transcode.DefaultDecoderConfig()
	decoder.EnableFFmpeg = true
	decoder.FFmpegPath = filepath.Join(t.TempDir(), "no-such-ffmpeg")
	d, err = New(Options{Decoder: decoder, Logger: &logging.NoOpLogger{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.ValidateDecoder(context.Background()); err == nil {
		t.Fatal("expected error for a missing ffmpeg binary")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cmp := config.DefaultComparisonConfig()
	cmp.Steepness = 0
	if _, err := New(Options{Comparison: cmp}); err == nil {
		t.Fatal("expected error for invalid comparison config")
	}

	feat := config.DefaultFeatureConfig()
	feat.NumMFCC = 0
	if _, err := New(Options{Features: feat}); err == nil {
		t.Fatal("expected error for invalid feature config")
	}
}
