package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrZeroVector is returned when a similarity needs a direction and one
	// operand has zero norm
	ErrZeroVector = errors.New("zero-norm vector")

	// ErrNonFinite is returned when an operand contains NaN or Inf
	ErrNonFinite = errors.New("vector contains NaN or Inf")
)

// DistanceMetric represents different distance/similarity measures
type DistanceMetric int

const (
	EuclideanDistance DistanceMetric = iota
	ManhattanDistance
	CosineDistance
)

// DistanceFunction is a function type for computing distance between two vectors
type DistanceFunction func(a, b []float64) float64

// GetDistanceFunction returns the appropriate distance function for the given metric
func GetDistanceFunction(metric DistanceMetric) DistanceFunction {
	switch metric {
	case ManhattanDistance:
		return ManhattanDistanceFunc
	case CosineDistance:
		return CosineDistanceFunc
	default:
		return EuclideanDistanceFunc
	}
}

// EuclideanDistanceFunc calculates the L2 distance between two vectors of equal length
func EuclideanDistanceFunc(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}

// ManhattanDistanceFunc calculates the L1 distance between two vectors of equal length
func ManhattanDistanceFunc(a, b []float64) float64 {
	return floats.Distance(a, b, 1)
}

// CosineDistanceFunc calculates 1 - cosine similarity. Zero vectors are at distance 1.
func CosineDistanceFunc(a, b []float64) float64 {
	sim, err := CosineSimilarity(a, b)
	if err != nil {
		return 1.0
	}
	return 1.0 - sim
}

// CosineSimilarity returns a·b / (‖a‖‖b‖). It fails on length mismatch,
// non-finite values and zero-norm operands.
func CosineSimilarity(a, b []float64) (float64, error) {
	if err := checkOperands(a, b); err != nil {
		return 0, err
	}

	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0, ErrZeroVector
	}

	return floats.Dot(a, b) / (normA * normB), nil
}

// NormalizedEuclideanSimilarity returns 1 - ‖a-b‖/sqrt(n). The result is not
// clamped and goes negative when the average per-component gap exceeds 1.
func NormalizedEuclideanSimilarity(a, b []float64) (float64, error) {
	if err := checkOperands(a, b); err != nil {
		return 0, err
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("empty vectors")
	}

	return 1.0 - floats.Distance(a, b, 2)/math.Sqrt(float64(len(a))), nil
}

func checkOperands(a, b []float64) error {
	if len(a) != len(b) {
		return fmt.Errorf("vector lengths differ: %d vs %d", len(a), len(b))
	}
	if floats.HasNaN(a) || floats.HasNaN(b) || hasInf(a) || hasInf(b) {
		return ErrNonFinite
	}
	return nil
}

func hasInf(v []float64) bool {
	for _, x := range v {
		if math.IsInf(x, 0) {
			return true
		}
	}
	return false
}
