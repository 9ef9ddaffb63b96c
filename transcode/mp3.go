package transcode

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

// go-mp3 always produces signed 16-bit little-endian stereo
const mp3Channels = 2

// decodeMP3 decodes an MPEG layer III stream into interleaved samples
func decodeMP3(r io.Reader) (*AudioData, error) {
	d, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3 decode failed: %w", err)
	}

	raw, err := io.ReadAll(d)
	if err != nil {
		return nil, fmt.Errorf("mp3 decode failed: %w", err)
	}

	// trim a trailing partial sample
	raw = raw[:len(raw)-len(raw)%2]
	samples := make([]float64, len(raw)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		samples[i] = float64(v) / 32768.0
	}

	sampleRate := d.SampleRate()
	return &AudioData{
		PCM:        samples,
		SampleRate: sampleRate,
		Channels:   mp3Channels,
		Duration:   durationOf(len(samples), mp3Channels, sampleRate),
		Timestamp:  time.Now(),
		Metadata: &AudioMetadata{
			SampleRate: sampleRate,
			Channels:   mp3Channels,
			Codec:      "mp3",
			Format:     string(FormatMP3),
		},
	}, nil
}
