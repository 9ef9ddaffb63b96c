package transcode

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-audio/wav"
)

// errNeedsFFmpeg marks inputs the native decoders recognise but cannot decode
var errNeedsFFmpeg = errors.New("encoding not handled natively")

const wavFormatPCM = 1

// decodeWAV decodes integer PCM WAV data into interleaved samples in [-1, 1)
func decodeWAV(r io.ReadSeeker) (*AudioData, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("invalid wav file: %w", ErrUnsupportedFormat)
	}
	if d.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("wav audio format %d: %w", d.WavAudioFormat, errNeedsFFmpeg)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav decode failed: %w", err)
	}
	if buf == nil || buf.Format == nil {
		return nil, fmt.Errorf("wav decode failed: missing format")
	}

	channels := buf.Format.NumChannels
	sampleRate := buf.Format.SampleRate
	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(d.BitDepth)
	}
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, fmt.Errorf("unsupported wav bit depth %d: %w", bitDepth, ErrUnsupportedFormat)
	}

	samples := make([]float64, len(buf.Data))
	if bitDepth == 8 {
		// 8-bit PCM is unsigned
		for i, v := range buf.Data {
			samples[i] = float64(v-128) / 128.0
		}
	} else {
		scale := float64(int64(1) << (bitDepth - 1))
		for i, v := range buf.Data {
			samples[i] = float64(v) / scale
		}
	}

	return &AudioData{
		PCM:        samples,
		SampleRate: sampleRate,
		Channels:   channels,
		Duration:   durationOf(len(samples), channels, sampleRate),
		Timestamp:  time.Now(),
		Metadata: &AudioMetadata{
			SampleRate: sampleRate,
			Channels:   channels,
			Codec:      fmt.Sprintf("pcm_s%d", bitDepth),
			Format:     string(FormatWAV),
		},
	}, nil
}

func durationOf(numSamples, channels, sampleRate int) time.Duration {
	if channels <= 0 || sampleRate <= 0 {
		return 0
	}
	frames := numSamples / channels
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}
