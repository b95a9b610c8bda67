/*
NAME
  fixed.go

DESCRIPTION
  fixed.go implements AgcFixed: a selectable SLOW/MEDIUM/FAST/NO_AGC
  amplitude estimator driving the shared GainSmoother.

AUTHORS
  DRM Core Contributors <drmcore@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package agc

import "math"

// Fixed-mode AGC constants, matching the DRM reference receiver.
const (
	DesiredAvgAmplitude  = 8000.0
	LowerBoundAmplitude  = 10.0
	NoAGCCorrectionGain  = 5.0
)

// FixedMode selects one of the four fixed AGC behaviors.
type FixedMode int

const (
	FixedSlow FixedMode = iota
	FixedMedium
	FixedFast
	NoAGC
)

// timeConstants returns (attack, decay) in seconds for the given mode.
func (m FixedMode) timeConstants() (attack, decay float64) {
	switch m {
	case FixedSlow:
		return 0.025, 4.0
	case FixedMedium:
		return 0.015, 2.0
	case FixedFast:
		return 0.005, 0.2
	default:
		return 0.015, 2.0
	}
}

// smoothMode maps a fixed AGC mode to the GainSmoother mode the source
// pairs it with.
func (m FixedMode) smoothMode() SmoothMode {
	switch m {
	case FixedSlow:
		return SmoothSlow
	case FixedFast:
		return SmoothFast
	default:
		return SmoothMedium
	}
}

// iir1Lam converts a one-pole time constant in seconds to a per-sample
// recursion coefficient at the given sample rate.
func iir1Lam(seconds float64, sampleRate int) float64 {
	if seconds <= 0 {
		return 0
	}
	return math.Exp(-1.0 / (seconds * float64(sampleRate)))
}

// Fixed implements the fixed-mode AGC.
type Fixed struct {
	mode       FixedMode
	sampleRate int
	attackLam  float64
	decayLam   float64
	avgAmpl    float64
	smoother   *GainSmoother
}

// NewFixed returns a Fixed AGC for the given sample rate and mode.
func NewFixed(sampleRate int, mode FixedMode) *Fixed {
	f := &Fixed{sampleRate: sampleRate, avgAmpl: LowerBoundAmplitude}
	f.smoother = NewGainSmoother(mode.smoothMode())
	f.SetType(mode)
	return f
}

// SetType changes the fixed-mode selection and recomputes time constants.
func (f *Fixed) SetType(mode FixedMode) {
	f.mode = mode
	attack, decay := mode.timeConstants()
	f.attackLam = iir1Lam(attack, f.sampleRate)
	f.decayLam = iir1Lam(decay, f.sampleRate)
	f.smoother.SetMode(mode.smoothMode())
}

// GetType returns the current fixed-mode selection.
func (f *Fixed) GetType() FixedMode {
	return f.mode
}

// Process applies the AGC in place to x, a block of real-valued samples.
func (f *Fixed) Process(x []float64) {
	if f.mode == NoAGC {
		for i := range x {
			x[i] *= NoAGCCorrectionGain
		}
		return
	}

	for i, v := range x {
		abs := math.Abs(v)
		if abs > f.avgAmpl {
			f.avgAmpl = f.attackLam*f.avgAmpl + (1-f.attackLam)*abs
		} else {
			f.avgAmpl = f.decayLam*f.avgAmpl + (1-f.decayLam)*abs
		}
		if f.avgAmpl < LowerBoundAmplitude {
			f.avgAmpl = LowerBoundAmplitude
		}
		target := DesiredAvgAmplitude / f.avgAmpl
		gain := f.smoother.Process(target)
		x[i] = v * gain
	}
}
