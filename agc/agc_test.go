package agc

import (
	"math"
	"testing"
)

func TestGainSmootherMonotonicity(t *testing.T) {
	s := NewGainSmoother(SmoothMedium)
	targets := []float64{5, 50, 0.1, 100, 1, 1000}
	prev := s.GetCurrentGain()
	for _, tgt := range targets {
		cur := s.Process(tgt)
		if math.Abs(cur-prev) > MaxGainChangePerSample+1e-9 {
			t.Fatalf("gain changed by %v in one call, want <= %v", math.Abs(cur-prev), MaxGainChangePerSample)
		}
		prev = cur
	}
}

func TestGainSmootherAlwaysPositive(t *testing.T) {
	s := NewGainSmoother(SmoothFast)
	for i := 0; i < 1000; i++ {
		g := s.Process(-100)
		if g <= 0 {
			t.Fatalf("gain went non-positive: %v", g)
		}
	}
}

func TestFixedAGCConvergence(t *testing.T) {
	sampleRate := 8000
	f := NewFixed(sampleRate, FixedSlow)

	// Sustained 440 Hz tone of amplitude 16000 from t=0.
	n := sampleRate * 5 // 5 seconds, matching SLOW's ~4s decay constant.
	x := make([]float64, n)
	for i := range x {
		t := float64(i) / float64(sampleRate)
		x[i] = 16000 * math.Sin(2*math.Pi*440*t)
	}
	f.Process(x)

	// Near the end, the average amplitude should have pulled toward
	// DesiredAvgAmplitude (so the applied gain should have stabilized well
	// below 1, since 16000 >> DesiredAvgAmplitude/LowerBound range).
	tailRMS := rms(x[n-sampleRate:])
	if tailRMS >= 16000/math.Sqrt2 {
		t.Fatalf("AGC did not attenuate a loud sustained tone: tail rms = %v", tailRMS)
	}
}

func TestNoAGCAppliesFixedGain(t *testing.T) {
	f := NewFixed(8000, NoAGC)
	x := []float64{1, 2, 3}
	f.Process(x)
	want := []float64{5, 10, 15}
	for i := range x {
		if x[i] != want[i] {
			t.Fatalf("x[%d] = %v, want %v", i, x[i], want[i])
		}
	}
}

func TestAdaptiveProcessDoesNotPanic(t *testing.T) {
	a := NewAdaptive(8000, 128)
	for i := 0; i < 20; i++ {
		block := make([]float64, 128)
		for j := range block {
			block[j] = float64((i*128+j)%1000) - 500
		}
		a.Process(block)
	}
}

func rms(x []float64) float64 {
	var sumSq float64
	for _, v := range x {
		sumSq += v * v
	}
	return math.Sqrt(sumSq / float64(len(x)))
}
