/*
NAME
  front.go

DESCRIPTION
  front.go implements ReceiveFront: the analogue-facing ingest stage that
  selects a real or zero-IF audio channel from a stereo PCM source,
  optionally shifts and Hilbert-filters a complex baseband signal to a
  virtual intermediate frequency, optionally upsamples 2x through a
  polyphase Kaiser-windowed FIR, and maintains a signal-level meter and a
  PSD analysis window.

AUTHORS
  DRM Core Contributors <drmcore@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package front implements the receiver's analogue front-end: channel
// selection, zero-IF shifting and Hilbert filtering, optional 2x
// polyphase upsampling, and the signal-level/PSD instrumentation taps
// that feed the status broadcast.
package front

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/pkg/errors"
)

// ChannelMode selects how the front-end derives its output channel(s)
// from a stereo input stream.
type ChannelMode int

const (
	ModeLeft ChannelMode = iota
	ModeRight
	ModeMix
	ModeSub
	ModeIQPos
	ModeIQNeg
	ModeIQPosZero
	ModeIQNegZero
	ModeIQPosSplit
	ModeIQNegSplit
)

func (m ChannelMode) isIQ() bool {
	return m >= ModeIQPos
}

const (
	// VirtualIntermedFreq is the frequency the zero-IF modes shift the
	// complex baseband signal to before Hilbert filtering, chosen well
	// inside the audio band so the DRM demodulator sees a conventional
	// real IF signal regardless of input mode.
	VirtualIntermedFreq = 6000.0

	// NumTapsIQInputFilt is the Hilbert transformer's history length.
	NumTapsIQInputFilt = 65

	// NumTapsUpsampleFilt is the nominal 2x upsampling FIR length,
	// rounded up to a multiple of 4 so the polyphase split is exact.
	NumTapsUpsampleFilt = 32

	// InputDataVectorSize is the spectrum-analyser window length used by
	// the PSD tap.
	InputDataVectorSize = 2048
)

// Meter is a simple peak/RMS signal-level meter.
type Meter struct {
	Peak float64
	RMS  float64
}

// ReceiveFront is the audio front-end stage.
type ReceiveFront struct {
	mode       ChannelMode
	sampleRate int
	upsample   bool

	phase complex128 // running complex exponential for the virtual-IF shift.
	step  complex128

	hilbert     []float64 // Hilbert transformer taps.
	hilbertHist []complex128
	hilbertPos  int

	upsampleEven []float64 // polyphase branch 0 (even-indexed taps).
	upsampleOdd  []float64 // polyphase branch 1 (odd-indexed taps).
	upsampleHist []float64
	upsamplePos  int

	meter Meter

	psdWindow []float64
	psdPos    int
}

// New constructs a ReceiveFront for the given channel mode, input sample
// rate, and optional 2x upsampling.
func New(mode ChannelMode, sampleRate int, upsample bool) (*ReceiveFront, error) {
	if sampleRate <= 0 {
		return nil, errors.New("front: sample rate must be positive")
	}

	f := &ReceiveFront{
		mode:       mode,
		sampleRate: sampleRate,
		upsample:   upsample,
		phase:      complex(1, 0),
		psdWindow:  make([]float64, InputDataVectorSize),
	}

	w := 2 * math.Pi * VirtualIntermedFreq / float64(sampleRate)
	f.step = cmplx.Exp(complex(0, w))

	if mode.isIQ() {
		f.hilbert = hilbertTaps(NumTapsIQInputFilt)
		f.hilbertHist = make([]complex128, NumTapsIQInputFilt)
	}

	if upsample {
		taps := roundUpToMultipleOf4(NumTapsUpsampleFilt)
		proto := kaiserLowpass(taps, 0.5, 7.0)
		f.upsampleEven = make([]float64, 0, taps/2)
		f.upsampleOdd = make([]float64, 0, taps/2)
		for i, c := range proto {
			if i%2 == 0 {
				f.upsampleEven = append(f.upsampleEven, c)
			} else {
				f.upsampleOdd = append(f.upsampleOdd, c)
			}
		}
		f.upsampleHist = make([]float64, len(f.upsampleEven))
	}

	return f, nil
}

// Process runs one block of interleaved-channel stereo PCM through the
// front-end, returning the selected/derived output channel(s). For
// single-channel modes (LEFT, RIGHT, MIX, SUB) right is an empty slice
// on return; of the IQ modes only the split modes (IQ_POS_SPLIT,
// IQ_NEG_SPLIT) populate both, the others also leave right empty.
func (f *ReceiveFront) Process(left, right []float64) (outLeft, outRight []float64) {
	n := len(left)
	if len(right) < n {
		n = len(right)
	}

	switch f.mode {
	case ModeLeft:
		outLeft = append([]float64(nil), left[:n]...)
	case ModeRight:
		outLeft = append([]float64(nil), right[:n]...)
	case ModeMix:
		outLeft = make([]float64, n)
		for i := 0; i < n; i++ {
			outLeft[i] = 0.5 * (left[i] + right[i])
		}
	case ModeSub:
		outLeft = make([]float64, n)
		for i := 0; i < n; i++ {
			outLeft[i] = left[i] - right[i]
		}
	default:
		outLeft, outRight = f.processIQ(left[:n], right[:n])
	}

	if f.upsample {
		outLeft = f.upsampleChannel(outLeft)
		if len(outRight) > 0 {
			outRight = f.upsampleChannel(outRight)
		}
	}

	f.updateMeter(outLeft)
	f.feedPSD(outLeft)

	return outLeft, outRight
}

// processIQ shifts the complex signal left+j*right to the virtual IF,
// Hilbert-filters it, and derives the real output channel(s) for the
// selected IQ mode.
func (f *ReceiveFront) processIQ(left, right []float64) (a, b []float64) {
	n := len(left)
	a = make([]float64, n)
	if f.mode == ModeIQPosSplit || f.mode == ModeIQNegSplit {
		b = make([]float64, n)
	}

	sign := 1.0
	if f.mode == ModeIQNeg || f.mode == ModeIQNegZero || f.mode == ModeIQNegSplit {
		sign = -1.0
	}

	for i := 0; i < n; i++ {
		iq := complex(left[i], sign*right[i]) * f.phase
		f.phase *= f.step
		if m := cmplx.Abs(f.phase); m != 0 {
			f.phase /= complex(m, 0) // keep the rotator unit-magnitude.
		}

		filtered := f.hilbertFilter(iq)

		switch f.mode {
		case ModeIQPos, ModeIQNeg:
			a[i] = real(filtered)
		case ModeIQPosZero, ModeIQNegZero:
			a[i] = real(filtered) + imag(filtered)
		case ModeIQPosSplit, ModeIQNegSplit:
			a[i] = real(filtered)
			b[i] = imag(filtered)
		}
	}
	return a, b
}

// hilbertFilter pushes v into the transformer's history and returns the
// filtered complex sample (real part delayed to the filter's group
// delay, imaginary part the Hilbert-transformed component).
func (f *ReceiveFront) hilbertFilter(v complex128) complex128 {
	n := len(f.hilbert)
	f.hilbertHist[f.hilbertPos] = v
	var im float64
	for k := 0; k < n; k++ {
		idx := (f.hilbertPos - k + n) % n
		im += f.hilbert[k] * imag(f.hilbertHist[idx])
	}
	delayIdx := (f.hilbertPos - n/2 + n) % n
	re := real(f.hilbertHist[delayIdx])
	f.hilbertPos = (f.hilbertPos + 1) % n
	return complex(re, im)
}

// upsampleChannel runs one channel's samples through the 2x polyphase
// FIR, producing two output samples per input sample.
func (f *ReceiveFront) upsampleChannel(in []float64) []float64 {
	out := make([]float64, 0, 2*len(in))
	hist := f.upsampleHist
	pos := f.upsamplePos
	taps := len(f.upsampleEven)

	for _, x := range in {
		hist[pos] = x
		var even, odd float64
		for k := 0; k < taps; k++ {
			idx := (pos - k + taps) % taps
			even += f.upsampleEven[k] * hist[idx]
			odd += f.upsampleOdd[k] * hist[idx]
		}
		out = append(out, 2*even, 2*odd)
		pos = (pos + 1) % taps
	}

	f.upsamplePos = pos
	return out
}

func (f *ReceiveFront) updateMeter(samples []float64) {
	if len(samples) == 0 {
		return
	}
	var sumSq, peak float64
	for _, s := range samples {
		a := math.Abs(s)
		if a > peak {
			peak = a
		}
		sumSq += s * s
	}
	f.meter.Peak = peak
	f.meter.RMS = math.Sqrt(sumSq / float64(len(samples)))
}

// Level returns the most recently computed signal-level meter reading.
func (f *ReceiveFront) Level() Meter {
	return f.meter
}

func (f *ReceiveFront) feedPSD(samples []float64) {
	for _, s := range samples {
		f.psdWindow[f.psdPos] = s
		f.psdPos = (f.psdPos + 1) % len(f.psdWindow)
	}
}

// PSD returns the power spectral density (dB, log10-scaled magnitude
// squared) of the current analysis window, oldest sample first.
func (f *ReceiveFront) PSD() []float64 {
	ordered := make([]float64, len(f.psdWindow))
	for i := range ordered {
		ordered[i] = f.psdWindow[(f.psdPos+i)%len(f.psdWindow)]
	}
	spectrum := fft.FFTReal(ordered)

	out := make([]float64, len(spectrum)/2+1)
	for i := range out {
		mag2 := real(spectrum[i])*real(spectrum[i]) + imag(spectrum[i])*imag(spectrum[i])
		if mag2 <= 0 {
			out[i] = -300
			continue
		}
		out[i] = 10 * math.Log10(mag2)
	}
	return out
}

func roundUpToMultipleOf4(n int) int {
	if n%4 == 0 {
		return n
	}
	return n + (4 - n%4)
}

// hilbertTaps generates a Kaiser-windowed FIR Hilbert transformer: an
// ideal discrete Hilbert transform (90-degree phase shift, zero at even
// lags) truncated and tapered so it rolls off cleanly.
func hilbertTaps(n int) []float64 {
	taps := make([]float64, n)
	center := n / 2
	win := kaiserWindow(n, 7.0)
	for i := 0; i < n; i++ {
		k := i - center
		if k%2 == 0 {
			taps[i] = 0
			continue
		}
		taps[i] = (2.0 / (math.Pi * float64(k))) * win[i]
	}
	return taps
}

// kaiserLowpass generates a Kaiser-windowed lowpass FIR prototype at
// normalized cutoff fc (fraction of Nyquist), used as the 2x upsampling
// anti-imaging filter.
func kaiserLowpass(n int, fc, beta float64) []float64 {
	taps := make([]float64, n)
	win := kaiserWindow(n, beta)
	center := float64(n-1) / 2
	for i := 0; i < n; i++ {
		x := float64(i) - center
		var sinc float64
		if x == 0 {
			sinc = fc
		} else {
			sinc = math.Sin(math.Pi*fc*x) / (math.Pi * x)
		}
		taps[i] = sinc * win[i]
	}
	return taps
}

// kaiserWindow computes the beta-parameterized Kaiser window. go-dsp's
// window package only offers fixed shapes (FlatTop, Hamming, Hann), so
// the beta-parameterized coefficients are generated directly here,
// following the same inline-coefficient-generation approach used for the
// teacher's own windowed-sinc filters.
func kaiserWindow(n int, beta float64) []float64 {
	w := make([]float64, n)
	denom := besselI0(beta)
	center := float64(n-1) / 2
	for i := 0; i < n; i++ {
		r := (float64(i) - center) / center
		arg := beta * math.Sqrt(1-r*r)
		w[i] = besselI0(arg) / denom
	}
	return w
}

// besselI0 approximates the zeroth-order modified Bessel function of the
// first kind via its power series, which converges quickly for the small
// arguments used in Kaiser window generation.
func besselI0(x float64) float64 {
	sum := 1.0
	term := 1.0
	halfX := x / 2
	for k := 1; k < 25; k++ {
		term *= (halfX * halfX) / float64(k*k)
		sum += term
	}
	return sum
}
