/*
NAME
  adaptive.go

DESCRIPTION
  adaptive.go implements AgcAdaptive: a windowed-statistics AGC that
  derives its time constants and smoothing mode from the coefficient of
  variation and crest factor of recent block-RMS history.

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

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// historyWindowSeconds is the width of the block-RMS circular history used
// to derive adaptive statistics.
const historyWindowSeconds = 0.5

// Adaptive implements the adaptive-mode AGC: each block it analyzes recent
// block-RMS history (mean, variance, coefficient of variation, crest
// factor) via gonum/stat and selects fixed-AGC-style time constants and a
// GainSmoother mode accordingly.
type Adaptive struct {
	sampleRate int
	blockSize  int
	historySize int
	history    []float64
	historyIdx int
	filled     int

	attackLam float64
	decayLam  float64
	avgAmpl   float64
	smoother  *GainSmoother
}

// NewAdaptive returns an Adaptive AGC for the given sample rate and
// (typical) block size, used to size the RMS history window.
func NewAdaptive(sampleRate, blockSize int) *Adaptive {
	n := int(historyWindowSeconds * float64(sampleRate) / float64(maxInt(blockSize, 1)))
	if n < 1 {
		n = 1
	}
	a := &Adaptive{
		sampleRate:  sampleRate,
		blockSize:   blockSize,
		historySize: n,
		history:     make([]float64, n),
		avgAmpl:     LowerBoundAmplitude,
		smoother:    NewGainSmoother(SmoothMedium),
	}
	attack, decay := FixedMedium.timeConstants()
	a.attackLam = iir1Lam(attack, sampleRate)
	a.decayLam = iir1Lam(decay, sampleRate)
	return a
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// analyze computes (mean, cv, crest) over the current block plus recorded
// history.
func (a *Adaptive) analyze(block []float64) (mean, cv, crest float64) {
	var sumSq float64
	var peak float64
	for _, v := range block {
		abs := math.Abs(v)
		if abs > peak {
			peak = abs
		}
		sumSq += v * v
	}
	rms := math.Sqrt(sumSq / float64(maxInt(len(block), 1)))

	a.history[a.historyIdx] = rms
	a.historyIdx = (a.historyIdx + 1) % a.historySize
	if a.filled < a.historySize {
		a.filled++
	}
	window := a.history[:a.filled]

	mean = stat.Mean(window, nil)
	if mean == 0 {
		return 0, 0, 0
	}
	variance := stat.Variance(window, nil)
	cv = math.Sqrt(variance) / mean
	if rms > 0 {
		crest = peak / rms
	}
	return mean, cv, crest
}

// adaptParameters selects (attack, decay) time constants from cv per the
// reference thresholds.
func adaptParameters(cv float64) (attack, decay float64) {
	switch {
	case cv > 0.3:
		return FixedFast.timeConstants()
	case cv > 0.1:
		return FixedMedium.timeConstants()
	default:
		return FixedSlow.timeConstants()
	}
}

// determineSmoothMode selects the GainSmoother mode from crest and cv per
// the reference thresholds.
func determineSmoothMode(crest, cv float64) SmoothMode {
	switch {
	case crest > 3 || cv > 0.3:
		return SmoothFast
	case crest > 2 || cv > 0.1:
		return SmoothMedium
	default:
		return SmoothSlow
	}
}

// Process applies the adaptive AGC in place to x, a block of real-valued
// samples.
func (a *Adaptive) Process(x []float64) {
	_, cv, crest := a.analyze(x)

	attack, decay := adaptParameters(cv)
	a.attackLam = iir1Lam(attack, a.sampleRate)
	a.decayLam = iir1Lam(decay, a.sampleRate)
	a.smoother.SetMode(determineSmoothMode(crest, cv))

	for i, v := range x {
		abs := math.Abs(v)
		if abs > a.avgAmpl {
			a.avgAmpl = a.attackLam*a.avgAmpl + (1-a.attackLam)*abs
		} else {
			a.avgAmpl = a.decayLam*a.avgAmpl + (1-a.decayLam)*abs
		}
		if a.avgAmpl < LowerBoundAmplitude {
			a.avgAmpl = LowerBoundAmplitude
		}
		target := DesiredAvgAmplitude / a.avgAmpl
		gain := a.smoother.Process(target)
		x[i] = v * gain
	}
}
