package reverb

import "testing"

func TestIdempotentOnGoodOnlyStream(t *testing.T) {
	r := New(8000, false)
	block := make([]float64, 100)
	for i := range block {
		block[i] = float64(i)
	}

	var lastOutLeft []float64
	for tick := 0; tick < 150; tick++ {
		outL, outR, status := r.Apply(true, block, block)
		if status != 0 {
			t.Fatalf("tick %d: status = %v, want StatusOK(0)", tick, status)
		}
		lastOutLeft = outL
		_ = outR
	}
	// Once the FIFO has filled (MaxFrameSize samples), output should equal
	// the (constant, repeated) input block delayed by the FIFO. The delay is
	// not a whole number of blocks, so the output is the block rotated by
	// MaxFrameSize mod len(block) samples.
	if len(lastOutLeft) != len(block) {
		t.Fatalf("output length changed: got %d want %d", len(lastOutLeft), len(block))
	}
	shift := len(block) - MaxFrameSize%len(block)
	for i, got := range lastOutLeft {
		if want := block[(i+shift)%len(block)]; got != want {
			t.Fatalf("output[%d] = %v, want %v (input delayed by %d)", i, got, want, MaxFrameSize)
		}
	}
}

func TestNoNaNOnGoodBadGoodTransition(t *testing.T) {
	r := New(8000, true)
	good := make([]float64, 64)
	for i := range good {
		good[i] = 1000
	}
	bad := make([]float64, 64)

	sequences := []bool{true, true, false, false, true, true}
	for _, ok := range sequences {
		in := bad
		if ok {
			in = good
		}
		outL, outR, _ := r.Apply(ok, in, in)
		for i := range outL {
			if outL[i] != outL[i] || outR[i] != outR[i] { // NaN check.
				t.Fatalf("NaN detected in reverb output")
			}
		}
	}
}

func TestStatusTransitions(t *testing.T) {
	r := New(8000, false)
	block := make([]float64, 16)

	_, _, s := r.Apply(true, block, block)
	if s != 0 {
		t.Fatalf("good->good status = %v, want 0 (StatusOK)", s)
	}
	_, _, s = r.Apply(false, block, block)
	if s != 2 {
		t.Fatalf("good->bad status = %v, want 2 (StatusDataError)", s)
	}
	_, _, s = r.Apply(false, block, block)
	if s != 1 {
		t.Fatalf("bad->bad status = %v, want 1 (StatusCRCError)", s)
	}
	_, _, s = r.Apply(true, block, block)
	if s != 0 {
		t.Fatalf("bad->good status = %v, want 0 (StatusOK)", s)
	}
}
