package transcode

import "bytes"

// Format identifies the container/codec family picked by content sniffing
type Format string

const (
	FormatWAV     Format = "wav"
	FormatMP3     Format = "mp3"
	FormatUnknown Format = "unknown"
)

// DetectFormat sniffs the first bytes of a file. File extensions are ignored
// since uploads arrive under arbitrary names.
func DetectFormat(header []byte) Format {
	if len(header) >= 12 && bytes.Equal(header[0:4], []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WAVE")) {
		return FormatWAV
	}
	if len(header) >= 3 && bytes.Equal(header[0:3], []byte("ID3")) {
		return FormatMP3
	}
	// MPEG audio frame sync with layer III; ADTS (AAC) shares the sync word
	// but has layer bits 00
	if len(header) >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0 && (header[1]>>1)&0x3 == 0x1 {
		return FormatMP3
	}
	return FormatUnknown
}
