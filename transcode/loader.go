package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/RyanBlaney/sonido-plagio/algorithms/common"
	"github.com/RyanBlaney/sonido-plagio/logging"
)

// Loader turns files or uploaded bytes into normalized mono Waveforms.
// WAV and MP3 are decoded in process; anything else goes through ffmpeg when
// it is enabled.
type Loader struct {
	config  *DecoderConfig
	decoder *Decoder
	logger  logging.Logger
}

// NewLoader creates a loader. A nil config uses DefaultDecoderConfig.
func NewLoader(config *DecoderConfig) *Loader {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Loader{
		config:  config,
		decoder: NewDecoder(config),
		logger: logging.WithFields(logging.Fields{
			"component": "waveform_loader",
		}),
	}
}

// WithLogger replaces the loader's logger
func (l *Loader) WithLogger(logger logging.Logger) *Loader {
	if logger != nil {
		l.logger = logger
	}
	return l
}

// Config returns the decoder settings in effect
func (l *Loader) Config() DecoderConfig {
	return *l.config
}

// Validate checks the decoder settings and, when ffmpeg is enabled, that
// the binaries can be run
func (l *Loader) Validate(ctx context.Context) error {
	return l.decoder.ValidateConfig(ctx)
}

// Load reads and decodes the file at path
func (l *Loader) Load(ctx context.Context, path string) (*Waveform, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newLoadError(path, err)
	}
	return l.load(ctx, path, path, data)
}

// LoadBytes decodes in-memory audio; name is only used for errors and logs
func (l *Loader) LoadBytes(ctx context.Context, name string, data []byte) (*Waveform, error) {
	return l.load(ctx, name, "", data)
}

func (l *Loader) load(ctx context.Context, source, path string, data []byte) (*Waveform, error) {
	logger := l.logger.WithFields(logging.Fields{
		"source": source,
		"bytes":  len(data),
	})

	if err := ctx.Err(); err != nil {
		return nil, newLoadError(source, err)
	}
	if len(data) == 0 {
		return nil, newLoadError(source, ErrEmptyAudio)
	}

	format := DetectFormat(data)
	audio, err := l.decode(ctx, format, path, data)
	if err != nil {
		logger.Debug("Decode failed", logging.Fields{
			"format": format,
			"error":  err.Error(),
		})
		return nil, newLoadError(source, err)
	}

	wave, err := l.finalize(audio, source, format)
	if err != nil {
		return nil, newLoadError(source, err)
	}

	logger.Debug("Waveform loaded", logging.Fields{
		"format":      format,
		"sample_rate": wave.SampleRate,
		"channels":    wave.Channels,
		"samples":     len(wave.Samples),
		"duration":    wave.Duration.Seconds(),
	})

	return wave, nil
}

func (l *Loader) decode(ctx context.Context, format Format, path string, data []byte) (*AudioData, error) {
	var (
		audio *AudioData
		err   error
	)

	switch format {
	case FormatWAV:
		audio, err = decodeWAV(bytes.NewReader(data))
	case FormatMP3:
		audio, err = decodeMP3(bytes.NewReader(data))
	default:
		err = errNeedsFFmpeg
	}

	if err == nil || !errors.Is(err, errNeedsFFmpeg) {
		return audio, err
	}

	if !l.config.EnableFFmpeg {
		return nil, fmt.Errorf("%s input without ffmpeg: %w", format, ErrUnsupportedFormat)
	}
	if path != "" {
		return l.decoder.DecodeFile(ctx, path)
	}
	return l.decoder.DecodeBytes(ctx, data)
}

// finalize downmixes, truncates, and peak normalizes decoder output
func (l *Loader) finalize(audio *AudioData, source string, format Format) (*Waveform, error) {
	if audio.SampleRate <= 0 {
		return nil, fmt.Errorf("%d Hz: %w", audio.SampleRate, ErrInvalidSampleRate)
	}
	channels := max(audio.Channels, 1)

	mono, err := common.DownmixToMono(audio.PCM, channels)
	if err != nil {
		return nil, err
	}

	if l.config.MaxDuration > 0 {
		limit := int(l.config.MaxDuration.Seconds() * float64(audio.SampleRate))
		if limit > 0 && len(mono) > limit {
			mono = mono[:limit]
		}
	}

	if len(mono) == 0 {
		return nil, ErrEmptyAudio
	}

	normalized, ok := common.PeakNormalize(mono)
	if !ok {
		return nil, ErrSilentAudio
	}

	return &Waveform{
		Samples:    normalized,
		SampleRate: audio.SampleRate,
		Channels:   channels,
		Duration:   time.Duration(len(normalized)) * time.Second / time.Duration(audio.SampleRate),
		Source:     source,
		Format:     format,
	}, nil
}
