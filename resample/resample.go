/*
NAME
  resample.go

DESCRIPTION
  resample.go provides a rational-ratio, per-channel resampler used to
  convert decoded codec-rate PCM to the receiver's output rate. It
  generalizes the teacher package's integer-downsample-only resampler to
  arbitrary from:to ratios via linear interpolation, and supports
  re-initialization when the codec's per-call frame size changes (the
  xHE-AAC case).

AUTHORS
  DRM Core Contributors <drmcore@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package resample provides a rational-ratio resampler operating on
// per-channel real-valued sample slices.
package resample

import "github.com/pkg/errors"

// Resampler converts a stream sampled at FromRate to ToRate, one channel at
// a time, using linear interpolation. A Resampler keeps per-channel
// fractional-position state across calls so consecutive blocks are
// continuous.
type Resampler struct {
	fromRate int
	toRate   int

	// Per-channel state carried across Process calls: the previous call's
	// final sample (lastSample, valid once havePrev is set) and the
	// fractional read position relative to it (frac).
	lastSample []float64
	havePrev   []bool
	frac       []float64

	// lastFrameSize is the codec frame size this Resampler was last sized
	// for; xHE-AAC's variable frame length forces a Reinit when it changes.
	lastFrameSize int
}

// New returns a Resampler converting fromRate to toRate for the given
// number of channels.
func New(fromRate, toRate, channels int) (*Resampler, error) {
	if fromRate <= 0 || toRate <= 0 {
		return nil, errors.Errorf("resample: invalid rates %d -> %d", fromRate, toRate)
	}
	if channels <= 0 {
		return nil, errors.Errorf("resample: invalid channel count %d", channels)
	}
	return &Resampler{
		fromRate:   fromRate,
		toRate:     toRate,
		lastSample: make([]float64, channels),
		havePrev:   make([]bool, channels),
		frac:       make([]float64, channels),
	}, nil
}

// NeedsReinit reports whether the Resampler must be reinitialized because
// the codec's reported output frame size changed since the last call, per
// the xHE-AAC variable-frame-size requirement. The first call only records
// the frame size and reports false.
func (r *Resampler) NeedsReinit(frameSize int) bool {
	if r.lastFrameSize == 0 {
		r.lastFrameSize = frameSize
		return false
	}
	return r.lastFrameSize != frameSize
}

// Reinit resets interpolation state and records the new frame size. It is
// called whenever NeedsReinit reports true.
func (r *Resampler) Reinit(frameSize int) {
	for i := range r.havePrev {
		r.havePrev[i] = false
		r.frac[i] = 0
		r.lastSample[i] = 0
	}
	r.lastFrameSize = frameSize
}

// Process resamples one channel's block of samples from FromRate to
// ToRate. If the rates are equal it returns a copy of in unchanged.
func (r *Resampler) Process(channel int, in []float64) []float64 {
	if r.fromRate == r.toRate {
		out := make([]float64, len(in))
		copy(out, in)
		return out
	}
	if len(in) == 0 {
		return nil
	}

	step := float64(r.fromRate) / float64(r.toRate)
	var out []float64

	prev := r.lastSample[channel]
	havePrev := r.havePrev[channel]
	pos := r.frac[channel]

	// extended is the logical sample sequence: [prev?] in[0] in[1] ...
	sample := func(idx int) float64 {
		if idx < 0 {
			if havePrev {
				return prev
			}
			return in[0]
		}
		if idx >= len(in) {
			return in[len(in)-1]
		}
		return in[idx]
	}

	for pos < float64(len(in)) {
		i0 := int(pos)
		frac := pos - float64(i0)
		// Linear interpolation between the sample just before pos and the
		// one just after, indexed relative to the start of in.
		lo := sample(i0 - 1)
		hi := sample(i0)
		out = append(out, lo+(hi-lo)*frac)
		pos += step
	}

	r.frac[channel] = pos - float64(len(in))
	r.lastSample[channel] = in[len(in)-1]
	r.havePrev[channel] = true

	return out
}
