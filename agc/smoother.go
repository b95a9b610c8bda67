/*
NAME
  smoother.go

DESCRIPTION
  smoother.go implements the one-pole gain limiter shared by both AGC
  variants, clamping the per-call gain change to guarantee no zipper-click.

AUTHORS
  DRM Core Contributors <drmcore@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package agc implements the receiver's automatic gain control stack: a
// shared one-pole gain smoother, a fixed-mode AGC with selectable time
// constants, and an adaptive-mode AGC that derives its time constants from
// windowed signal statistics.
package agc

// MaxGainChangePerSample bounds how much GainSmoother.Process may move the
// applied gain in a single call, guaranteeing no zipper-click.
const MaxGainChangePerSample = 0.5

// SmoothMode selects a GainSmoother's smoothing factor.
type SmoothMode int

const (
	SmoothFast SmoothMode = iota
	SmoothMedium
	SmoothSlow
)

// alpha returns the smoothing factor for the given mode.
func (m SmoothMode) alpha() float64 {
	switch m {
	case SmoothFast:
		return 0.7
	case SmoothMedium:
		return 0.9
	case SmoothSlow:
		return 0.95
	default:
		return 0.9
	}
}

// GainSmoother is a one-pole gain limiter: a single Process call changes
// the applied gain by at most MaxGainChangePerSample, and the result
// settles toward target at a rate set by the smoothing mode.
type GainSmoother struct {
	mode    SmoothMode
	current float64
}

// NewGainSmoother returns a GainSmoother starting at gain 1.0 in the given
// mode.
func NewGainSmoother(mode SmoothMode) *GainSmoother {
	return &GainSmoother{mode: mode, current: 1.0}
}

// SetMode changes the smoothing mode.
func (s *GainSmoother) SetMode(mode SmoothMode) {
	s.mode = mode
}

// Reset sets the current gain back to 1.0.
func (s *GainSmoother) Reset() {
	s.current = 1.0
}

// GetCurrentGain returns the most recently applied gain.
func (s *GainSmoother) GetCurrentGain() float64 {
	return s.current
}

// Process clamps target to within MaxGainChangePerSample of the current
// gain, blends toward it by (1-alpha), and returns the new current gain.
func (s *GainSmoother) Process(target float64) float64 {
	delta := target - s.current
	if delta > MaxGainChangePerSample {
		delta = MaxGainChangePerSample
	} else if delta < -MaxGainChangePerSample {
		delta = -MaxGainChangePerSample
	}
	s.current += delta * (1 - s.mode.alpha())
	if s.current <= 0 {
		s.current = 1e-9 // GainState invariant: current_gain > 0.
	}
	return s.current
}
