package temporal

import (
	"math"
	"testing"
)

func TestComputeRMSConstantSignal(t *testing.T) {
	signal := make([]float64, 4096)
	for i := range signal {
		signal[i] = 0.5
	}

	e := NewEnergy(2048, 512, 22050)
	rms, err := e.ComputeRMS(signal)
	if err != nil {
		t.Fatalf("ComputeRMS: %v", err)
	}
	if len(rms) != 1+4096/512 {
		t.Fatalf("frames = %d, want %d", len(rms), 1+4096/512)
	}

	// first frame is half zero padding: sqrt(0.25 * 1024/2048)
	if want := math.Sqrt(0.125); math.Abs(rms[0]-want) > 1e-12 {
		t.Errorf("rms[0] = %v, want %v", rms[0], want)
	}
	if math.Abs(rms[4]-0.5) > 1e-12 {
		t.Errorf("rms[4] = %v, want 0.5", rms[4])
	}
}

func TestComputeLogEnergyFloor(t *testing.T) {
	e := NewEnergy(4, 2, 8000)
	logE, err := e.ComputeLogEnergy(make([]float64, 8), 1e-5)
	if err != nil {
		t.Fatalf("ComputeLogEnergy: %v", err)
	}
	for _, v := range logE {
		if math.Abs(v-(-100)) > 1e-9 {
			t.Fatalf("floored energy = %v, want -100 dB", v)
		}
	}
}

func TestComputeRMSEmpty(t *testing.T) {
	if _, err := NewEnergy(2048, 512, 22050).ComputeRMS(nil); err == nil {
		t.Fatal("expected error for empty signal")
	}
}
