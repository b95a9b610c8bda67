package resample

import (
	"math"
	"testing"
)

func TestProcessIdentityWhenRatesEqual(t *testing.T) {
	r, err := New(48000, 48000, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in := []float64{1, 2, 3, 4}
	out := r.Process(0, in)
	if len(out) != len(in) {
		t.Fatalf("got len %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("out[%d] = %v, want %v", i, out[i], in[i])
		}
	}
}

func TestProcessDownsampleLength(t *testing.T) {
	r, err := New(48000, 24000, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in := make([]float64, 480)
	out := r.Process(0, in)
	if math.Abs(float64(len(out))-240) > 2 {
		t.Fatalf("got len %d, want ~240", len(out))
	}
}

func TestNeedsReinitOnFrameSizeChange(t *testing.T) {
	r, _ := New(48000, 48000, 2)
	if r.NeedsReinit(1024) {
		t.Fatalf("first call should never require reinit")
	}
	r.Reinit(1024)
	if r.NeedsReinit(1024) {
		t.Fatalf("same frame size should not require reinit")
	}
	if !r.NeedsReinit(768) {
		t.Fatalf("changed frame size should require reinit")
	}
}

func TestInvalidConstruction(t *testing.T) {
	if _, err := New(0, 48000, 1); err == nil {
		t.Fatalf("expected error for zero fromRate")
	}
	if _, err := New(48000, 48000, 0); err == nil {
		t.Fatalf("expected error for zero channels")
	}
}
