package fingerprint

import (
	"fmt"

	"github.com/RyanBlaney/sonido-plagio/fingerprint/extractors"
)

// FingerprintError reports an assembled vector that contains NaN or Inf
type FingerprintError struct {
	Family extractors.Family
	Index  int
	Value  float64
}

func (e *FingerprintError) Error() string {
	return fmt.Sprintf("fingerprint value %d (%s) is not finite: %v", e.Index, e.Family, e.Value)
}

// LengthMismatchError reports fingerprints produced with different feature configs
type LengthMismatchError struct {
	Left  int
	Right int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("fingerprint lengths differ: %d vs %d", e.Left, e.Right)
}

// ComparisonError wraps any failure of the similarity engine
type ComparisonError struct {
	Err error
}

func (e *ComparisonError) Error() string {
	return fmt.Sprintf("compare fingerprints: %v", e.Err)
}

func (e *ComparisonError) Unwrap() error {
	return e.Err
}
