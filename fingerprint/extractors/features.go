package extractors

import "fmt"

// Family names a descriptor family
type Family string

const (
	FamilyMFCC             Family = "mfcc"
	FamilySpectralCentroid Family = "spectral_centroid"
	FamilyChroma           Family = "chroma_stft"
	FamilyZeroCrossingRate Family = "zero_crossing_rate"
	FamilySpectralRolloff  Family = "spectral_rolloff"
	FamilyRMS              Family = "rms"
)

// CanonicalFamilies is the fixed order families appear in a fingerprint
var CanonicalFamilies = []Family{
	FamilyMFCC,
	FamilySpectralCentroid,
	FamilyChroma,
	FamilyZeroCrossingRate,
	FamilySpectralRolloff,
	FamilyRMS,
}

// Kind tells whether a feature is one value per frame or several rows per frame
type Kind int

const (
	KindSeries Kind = iota
	KindMatrix
)

func (k Kind) String() string {
	switch k {
	case KindSeries:
		return "series"
	case KindMatrix:
		return "matrix"
	default:
		return "unknown"
	}
}

// Feature is the output of one family. Exactly one of Series or Matrix is
// set, according to Kind. Matrix rows are coefficients, columns are frames.
type Feature struct {
	Family Family      `json:"family"`
	Kind   Kind        `json:"kind"`
	Series []float64   `json:"series,omitempty"`
	Matrix [][]float64 `json:"matrix,omitempty"`
}

// NewSeries builds a single-row feature
func NewSeries(family Family, values []float64) Feature {
	return Feature{Family: family, Kind: KindSeries, Series: values}
}

// NewMatrix builds a multi-row feature from rows of per-frame values
func NewMatrix(family Family, rows [][]float64) Feature {
	return Feature{Family: family, Kind: KindMatrix, Matrix: rows}
}

// NewMatrixFromFrames builds a matrix feature from frame-major data
// ([frame][coefficient]), transposing it to coefficient rows
func NewMatrixFromFrames(family Family, frames [][]float64) Feature {
	if len(frames) == 0 {
		return NewMatrix(family, nil)
	}
	rows := make([][]float64, len(frames[0]))
	for r := range rows {
		rows[r] = make([]float64, len(frames))
		for t, frame := range frames {
			rows[r][t] = frame[r]
		}
	}
	return NewMatrix(family, rows)
}

// Rows exposes both kinds uniformly as rows over the frame axis
func (f Feature) Rows() [][]float64 {
	if f.Kind == KindSeries {
		return [][]float64{f.Series}
	}
	return f.Matrix
}

// NumRows returns how many rows the feature contributes
func (f Feature) NumRows() int {
	if f.Kind == KindSeries {
		return 1
	}
	return len(f.Matrix)
}

// NumFrames returns the length of the frame axis
func (f Feature) NumFrames() int {
	rows := f.Rows()
	if len(rows) == 0 {
		return 0
	}
	return len(rows[0])
}

// ExtractedFeatures holds every family in canonical order
type ExtractedFeatures struct {
	Features   []Feature `json:"features"`
	Frames     int       `json:"frames"`
	SampleRate int       `json:"sample_rate"`
}

// Get returns the feature for a family
func (e *ExtractedFeatures) Get(family Family) (Feature, bool) {
	for _, f := range e.Features {
		if f.Family == family {
			return f, true
		}
	}
	return Feature{}, false
}

// ExtractionError reports a failure inside one descriptor family
type ExtractionError struct {
	Family Family
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Family, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
