package spectral

import (
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-plagio/algorithms/windowing"
)

func sine(freq float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return out
}

func TestSTFTShapeAndPeak(t *testing.T) {
	const sr = 8000
	signal := sine(1000, sr, sr)

	res, err := NewSTFT().ComputeWithWindow(signal, 1024, 256, sr, windowing.NewPeriodicHann(1024))
	if err != nil {
		t.Fatalf("ComputeWithWindow: %v", err)
	}
	if res.TimeFrames != 1+sr/256 {
		t.Fatalf("frames = %d, want %d", res.TimeFrames, 1+sr/256)
	}
	if res.FreqBins != 513 {
		t.Fatalf("bins = %d, want 513", res.FreqBins)
	}

	// 1 kHz at 7.8125 Hz/bin lands on bin 128
	mid := res.Magnitude[res.TimeFrames/2]
	peak := 0
	for i, v := range mid {
		if v > mid[peak] {
			peak = i
		}
	}
	if peak != 128 {
		t.Fatalf("peak bin = %d, want 128", peak)
	}
	if math.Abs(res.Power[res.TimeFrames/2][peak]-mid[peak]*mid[peak]) > 1e-9 {
		t.Fatal("power is not magnitude squared")
	}
}

func TestSTFTRejectsBadInput(t *testing.T) {
	s := NewSTFT()
	if _, err := s.ComputeWithWindow(nil, 1024, 256, 8000, nil); err == nil {
		t.Error("expected error for empty signal")
	}
	if _, err := s.ComputeWithWindow(make([]float64, 10), 1024, 0, 8000, nil); err == nil {
		t.Error("expected error for zero hop")
	}
	if _, err := s.ComputeWithWindow(make([]float64, 10), 1024, 256, 0, nil); err == nil {
		t.Error("expected error for zero sample rate")
	}
	if _, err := s.ComputeWithWindow(make([]float64, 4096), 1024, 256, 8000, windowing.NewPeriodicHann(512)); err == nil {
		t.Error("expected error for mismatched window")
	}
}

func TestMelScaleRoundTrip(t *testing.T) {
	for _, htk := range []bool{false, true} {
		ms := &MelScale{HTK: htk}
		for _, hz := range []float64{0, 440, 1000, 4000, 11025} {
			if back := ms.MelToHz(ms.HzToMel(hz)); math.Abs(back-hz) > 1e-6 {
				t.Errorf("htk=%v: %v Hz round-tripped to %v", htk, hz, back)
			}
		}
	}
	// Slaney scale is linear below 1 kHz
	if got := NewMelScale().HzToMel(200); math.Abs(got-3) > 1e-12 {
		t.Errorf("HzToMel(200) = %v, want 3", got)
	}
}

func TestMelFilterBank(t *testing.T) {
	bank, err := NewMelScale().CreateMelFilterBank(40, 2048, 22050, 0, 0)
	if err != nil {
		t.Fatalf("CreateMelFilterBank: %v", err)
	}
	if len(bank) != 40 || len(bank[0]) != 1025 {
		t.Fatalf("bank shape = %dx%d", len(bank), len(bank[0]))
	}
	for m, filter := range bank {
		nonZero := 0
		for _, w := range filter {
			if w < 0 {
				t.Fatalf("filter %d has negative weight", m)
			}
			if w > 0 {
				nonZero++
			}
		}
		if nonZero == 0 {
			t.Errorf("filter %d is empty", m)
		}
	}

	if _, err := NewMelScale().CreateMelFilterBank(0, 2048, 22050, 0, 0); err == nil {
		t.Error("expected error for zero filters")
	}
}

func TestMFCCShapeAndFloor(t *testing.T) {
	const sr = 22050
	res, err := NewSTFT().ComputeWithWindow(sine(440, sr, sr/2), 2048, 512, sr, windowing.NewPeriodicHann(2048))
	if err != nil {
		t.Fatalf("stft: %v", err)
	}

	m, err := NewMFCCWithParams(sr, DefaultMFCCParams())
	if err != nil {
		t.Fatalf("NewMFCCWithParams: %v", err)
	}
	coeffs, err := m.ComputeFrames(res.Power, 2048)
	if err != nil {
		t.Fatalf("ComputeFrames: %v", err)
	}
	if len(coeffs) != res.TimeFrames || len(coeffs[0]) != 40 {
		t.Fatalf("shape = %dx%d", len(coeffs), len(coeffs[0]))
	}
	for _, frame := range coeffs {
		for _, c := range frame {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				t.Fatal("non-finite coefficient")
			}
		}
	}
}

func TestMFCCSilentFramesAreFinite(t *testing.T) {
	m, err := NewMFCCWithParams(16000, DefaultMFCCParams())
	if err != nil {
		t.Fatalf("NewMFCCWithParams: %v", err)
	}
	power := [][]float64{make([]float64, 1025), make([]float64, 1025)}
	coeffs, err := m.ComputeFrames(power, 2048)
	if err != nil {
		t.Fatalf("ComputeFrames: %v", err)
	}
	// all bands floored at -100 dB: only c0 is non-zero
	want0 := -100 * math.Sqrt(128)
	if math.Abs(coeffs[0][0]-want0) > 1e-6 {
		t.Fatalf("c0 = %v, want %v", coeffs[0][0], want0)
	}
	if math.Abs(coeffs[0][1]) > 1e-6 {
		t.Fatalf("c1 = %v, want 0", coeffs[0][1])
	}
}

func TestMFCCParamValidation(t *testing.T) {
	p := DefaultMFCCParams()
	p.NumCoefficients = 200
	if _, err := NewMFCCWithParams(22050, p); err == nil {
		t.Error("expected error when coefficients exceed mel filters")
	}
	if _, err := NewMFCCWithParams(0, DefaultMFCCParams()); err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func TestSpectralCentroid(t *testing.T) {
	sc := NewSpectralCentroid(8000)
	// 5 bins over 0..4000 Hz
	spectrum := []float64{0, 0, 1, 0, 0}
	if got := sc.Compute(spectrum); got != 2000 {
		t.Fatalf("centroid = %v, want 2000", got)
	}
	if got := sc.Compute(make([]float64, 5)); got != 0 {
		t.Fatalf("silent centroid = %v, want 0", got)
	}
	frames := sc.ComputeFrames([][]float64{{1, 0, 0, 0, 1}, {0, 1, 0, 1, 0}})
	if frames[0] != 2000 || frames[1] != 2000 {
		t.Fatalf("frames = %v", frames)
	}
}

func TestSpectralRolloff(t *testing.T) {
	sr := NewSpectralRolloff(8000)
	spectrum := []float64{1, 1, 1, 1, 6}
	// total 10, 85% = 8.5, reached at the last bin
	if got := sr.Compute(spectrum, 0.85); got != 4000 {
		t.Fatalf("rolloff = %v, want 4000", got)
	}
	if got := sr.Compute(spectrum, 0.25); got != 2000 {
		t.Fatalf("rolloff(0.25) = %v, want 2000", got)
	}
	if got := sr.Compute(make([]float64, 5), 0.85); got != 0 {
		t.Fatalf("silent rolloff = %v, want 0", got)
	}
}

func TestZeroCrossingRate(t *testing.T) {
	zcr := NewZeroCrossingRateWithParams(4, 2)
	if got := zcr.Compute([]float64{1, -1, 1, -1}); got != 0.75 {
		t.Fatalf("alternating = %v, want 0.75", got)
	}
	if got := zcr.Compute([]float64{0, 1, 0, 1}); got != 0 {
		t.Fatalf("zero counts as positive, got %v", got)
	}

	rates, err := zcr.ComputeFrames([]float64{1, 1, 1, 1, 1})
	if err != nil {
		t.Fatalf("ComputeFrames: %v", err)
	}
	if len(rates) != 3 {
		t.Fatalf("frames = %d, want 3", len(rates))
	}
	for _, r := range rates {
		if r != 0 {
			t.Fatalf("edge padding should not add crossings: %v", rates)
		}
	}
}
