package windowing

import (
	"math"
	"testing"
)

func TestPeriodicHannCoefficients(t *testing.T) {
	h := NewPeriodicHann(4)
	want := []float64{0, 0.5, 1, 0.5}
	got := h.GetCoefficients()
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("coeff[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if h.GetType() != "hann" {
		t.Errorf("type = %q", h.GetType())
	}
}

func TestSymmetricHannEndpoints(t *testing.T) {
	h := NewHann(5, true)
	c := h.GetCoefficients()
	if c[0] != 0 || math.Abs(c[4]) > 1e-12 || math.Abs(c[2]-1) > 1e-12 {
		t.Fatalf("unexpected symmetric window %v", c)
	}
}

func TestApplyInPlaceLengthMismatch(t *testing.T) {
	h := NewPeriodicHann(8)
	if err := h.ApplyInPlace(make([]float64, 7)); err == nil {
		t.Fatal("expected length mismatch error")
	}
	buf := []float64{1, 1, 1, 1, 1, 1, 1, 1}
	if err := h.ApplyInPlace(buf); err != nil {
		t.Fatalf("ApplyInPlace: %v", err)
	}
	if buf[0] != 0 || math.Abs(buf[4]-1) > 1e-12 {
		t.Fatalf("window not applied: %v", buf)
	}
}
