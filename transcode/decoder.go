package transcode

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-plagio/logging"
)

// AudioData is decoder output before downmix and normalization
type AudioData struct {
	PCM        []float64      `json:"-"` // interleaved samples
	SampleRate int            `json:"sample_rate"`
	Channels   int            `json:"channels"`
	Duration   time.Duration  `json:"duration"`
	Timestamp  time.Time      `json:"timestamp"`
	Metadata   *AudioMetadata `json:"metadata,omitempty"`
}

// AudioMetadata holds detected audio properties
type AudioMetadata struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Codec      string  `json:"codec"`
	Duration   float64 `json:"duration"`
	Bitrate    int     `json:"bitrate"`
	Format     string  `json:"format"`
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	FFmpegPath   string        `json:"ffmpeg_path"`
	FFprobePath  string        `json:"ffprobe_path"`
	Timeout      time.Duration `json:"timeout"`      // per ffmpeg/ffprobe invocation
	MaxDuration  time.Duration `json:"max_duration"` // 0 decodes everything
	EnableFFmpeg bool          `json:"enable_ffmpeg"`
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		FFmpegPath:   "ffmpeg",  // assume in PATH
		FFprobePath:  "ffprobe", // assume in PATH
		Timeout:      30 * time.Second,
		MaxDuration:  0,
		EnableFFmpeg: true,
	}
}

// Decoder decodes arbitrary containers through ffmpeg at the source's native
// sample rate and channel count
type Decoder struct {
	config *DecoderConfig
	logger logging.Logger
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{
		config: config,
		logger: logging.WithFields(logging.Fields{
			"component": "audio_decoder",
		}),
	}
}

// DecodeFile probes and decodes an audio file
func (d *Decoder) DecodeFile(ctx context.Context, filename string) (*AudioData, error) {
	logger := d.logger.WithFields(logging.Fields{
		"function": "DecodeFile",
		"filename": filename,
	})

	logger.Debug("Starting audio file decode")

	metadata, err := d.probe(ctx, filename, nil)
	if err != nil {
		logger.Error(err, "Failed to probe audio file")
		return nil, err
	}

	logger.Debug("Audio metadata detected", logging.Fields{
		"input_sample_rate": metadata.SampleRate,
		"input_channels":    metadata.Channels,
		"input_codec":       metadata.Codec,
		"input_duration":    metadata.Duration,
	})

	args := append([]string{"-i", filename}, d.buildFFmpegArgs(metadata)...)
	output, err := d.run(ctx, d.config.FFmpegPath, args, nil)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode failed: %w", err)
	}

	return d.processFFmpegOutput(output, metadata, logger)
}

// DecodeBytes probes and decodes in-memory audio by piping it to ffmpeg's stdin
func (d *Decoder) DecodeBytes(ctx context.Context, data []byte) (*AudioData, error) {
	logger := d.logger.WithFields(logging.Fields{
		"function":  "DecodeBytes",
		"data_size": len(data),
	})

	if len(data) == 0 {
		return nil, ErrEmptyAudio
	}

	metadata, err := d.probe(ctx, "pipe:0", data)
	if err != nil {
		logger.Error(err, "Failed to probe audio metadata")
		return nil, err
	}

	args := append([]string{"-i", "pipe:0"}, d.buildFFmpegArgs(metadata)...)
	output, err := d.run(ctx, d.config.FFmpegPath, args, data)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode failed: %w", err)
	}

	return d.processFFmpegOutput(output, metadata, logger)
}

// probe runs ffprobe on a file, or on stdin when data is non-nil
func (d *Decoder) probe(ctx context.Context, input string, data []byte) (*AudioMetadata, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "a:0", // first audio stream only
		input,
	}

	output, err := d.run(ctx, d.config.FFprobePath, args, data)
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	return d.parseFFprobeOutput(output)
}

// run executes a tool with the configured timeout, feeding stdin when given
func (d *Decoder) run(ctx context.Context, tool string, args []string, stdin []byte) ([]byte, error) {
	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, tool, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	d.logger.Debug("Running command", logging.Fields{
		"command": tool,
		"args":    strings.Join(args, " "),
	})

	output, err := cmd.Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return nil, fmt.Errorf("%w, stderr: %s", err, strings.TrimSpace(string(exitError.Stderr)))
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return output, nil
}

// parseFFprobeOutput parses ffprobe JSON to extract audio metadata
func (d *Decoder) parseFFprobeOutput(jsonData []byte) (*AudioMetadata, error) {
	var probe struct {
		Streams []struct {
			CodecType     string `json:"codec_type"`
			CodecName     string `json:"codec_name"`
			SampleRate    string `json:"sample_rate"`
			Channels      int    `json:"channels"`
			Duration      string `json:"duration"`
			BitRate       string `json:"bit_rate"`
			CodecLongName string `json:"codec_long_name"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	if len(probe.Streams) == 0 {
		return nil, fmt.Errorf("no audio streams found: %w", ErrUnsupportedFormat)
	}

	stream := probe.Streams[0]
	if stream.CodecType != "audio" {
		return nil, fmt.Errorf("stream is not audio type: %s", stream.CodecType)
	}

	// the native rate is part of the fingerprint, so no fallback here
	sampleRate, err := strconv.Atoi(stream.SampleRate)
	if err != nil || sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate %q: %w", stream.SampleRate, ErrInvalidSampleRate)
	}

	duration, err := strconv.ParseFloat(stream.Duration, 64)
	if err != nil {
		duration = 0
	}

	bitrate, err := strconv.Atoi(stream.BitRate)
	if err != nil {
		bitrate = 0
	}

	if stream.Channels <= 0 || stream.Channels > 8 {
		return nil, fmt.Errorf("invalid channel count: %d", stream.Channels)
	}

	return &AudioMetadata{
		SampleRate: sampleRate,
		Channels:   stream.Channels,
		Codec:      stream.CodecName,
		Duration:   duration,
		Bitrate:    bitrate,
		Format:     stream.CodecLongName,
	}, nil
}

// buildFFmpegArgs keeps the probed rate and channel layout; downmix happens in Go
func (d *Decoder) buildFFmpegArgs(metadata *AudioMetadata) []string {
	args := []string{
		"-vn",
		"-f", "f64le",
		"-ac", strconv.Itoa(metadata.Channels),
		"-ar", strconv.Itoa(metadata.SampleRate),
	}

	if d.config.MaxDuration > 0 {
		args = append(args, "-t", fmt.Sprintf("%.2f", d.config.MaxDuration.Seconds()))
	}

	return append(args, "-v", "error", "pipe:1")
}

// processFFmpegOutput processes the raw output from ffmpeg
func (d *Decoder) processFFmpegOutput(output []byte, metadata *AudioMetadata, logger logging.Logger) (*AudioData, error) {
	samples := d.bytesToFloat64(output)
	if len(samples) == 0 {
		return nil, ErrEmptyAudio
	}

	duration := durationOf(len(samples), metadata.Channels, metadata.SampleRate)

	logger.Debug("FFmpeg decode completed successfully", logging.Fields{
		"output_samples":  len(samples),
		"sample_rate":     metadata.SampleRate,
		"channels":        metadata.Channels,
		"output_duration": duration.Seconds(),
	})

	return &AudioData{
		PCM:        samples,
		SampleRate: metadata.SampleRate,
		Channels:   metadata.Channels,
		Duration:   duration,
		Timestamp:  time.Now(),
		Metadata:   metadata,
	}, nil
}

// bytesToFloat64 converts raw float64 little-endian bytes to []float64
func (d *Decoder) bytesToFloat64(data []byte) []float64 {
	data = data[:len(data)-(len(data)%8)]
	if len(data) == 0 {
		return nil
	}

	samples := make([]float64, len(data)/8)
	for i := range samples {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}

	return samples
}

// ValidateConfig validates the decoder configuration
func (d *Decoder) ValidateConfig(ctx context.Context) error {
	if d.config.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative: %v", d.config.Timeout)
	}
	if d.config.MaxDuration < 0 {
		return fmt.Errorf("max duration must not be negative: %v", d.config.MaxDuration)
	}
	if !d.config.EnableFFmpeg {
		return nil
	}

	if err := d.checkFFmpegAvailability(ctx); err != nil {
		return fmt.Errorf("ffmpeg not available: %w", err)
	}
	return nil
}

// checkFFmpegAvailability checks if ffmpeg and ffprobe are available
func (d *Decoder) checkFFmpegAvailability(ctx context.Context) error {
	if err := exec.CommandContext(ctx, d.config.FFmpegPath, "-version").Run(); err != nil {
		return fmt.Errorf("ffmpeg not found at %s: %w", d.config.FFmpegPath, err)
	}
	if err := exec.CommandContext(ctx, d.config.FFprobePath, "-version").Run(); err != nil {
		return fmt.Errorf("ffprobe not found at %s: %w", d.config.FFprobePath, err)
	}
	return nil
}
