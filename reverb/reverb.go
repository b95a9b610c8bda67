/*
NAME
  reverb.go

DESCRIPTION
  reverb.go implements the dropout-concealment state machine: cross-faded
  reverberation over bad blocks, a fixed-delay FIFO lookahead, and a
  periodic-extension fill of the last known-good block.

AUTHORS
  DRM Core Contributors <drmcore@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package reverb implements the receiver's dropout-concealment ("reverb")
// state machine: it masks bad audio blocks with a cross-faded reverb tail
// built from the last known-good block, and imposes a fixed delay (via a
// FIFO) so the crossfade always has lookahead into the next block's
// validity verdict.
package reverb

import "github.com/drmgo/receiver/params"

// MaxFrameSize is the FIFO depth in samples per channel (13840 in the
// source, corresponding to roughly 400ms at 32kHz plus margin).
const MaxFrameSize = 13840

// delayLine is a simple one-second circular delay buffer feeding a
// plausible-sounding decaying tail; it stands in for the source's
// AudioRev reverb effect object.
type delayLine struct {
	buf []float64
	pos int
	// decay controls how quickly the reverberated tail dies away.
	decay float64
}

func newDelayLine(rate int) *delayLine {
	return &delayLine{buf: make([]float64, rate), decay: 0.35}
}

// process returns one reverberated output sample for input x and advances
// the delay line.
func (d *delayLine) process(x float64) float64 {
	out := d.buf[d.pos]
	d.buf[d.pos] = x + out*d.decay
	d.pos++
	if d.pos >= len(d.buf) {
		d.pos = 0
	}
	return out
}

// fifo is a fixed-length ring buffer imposing a constant sample delay.
type fifo struct {
	buf []float64
	pos int
}

func newFIFO(size int) *fifo {
	return &fifo{buf: make([]float64, size)}
}

func (f *fifo) get() float64 {
	return f.buf[f.pos]
}

func (f *fifo) add(v float64) {
	f.buf[f.pos] = v
	f.pos++
	if f.pos >= len(f.buf) {
		f.pos = 0
	}
}

// channelState holds the per-channel reverb state.
type channelState struct {
	old   []float64 // last known-good block.
	fifo  *fifo
	delay *delayLine

	// oldIdx/oldDir drive the periodic-extension read cursor into old,
	// bouncing reflectively at both ends (Open Question #1: the source's
	// `if (j = 0)` is an assignment bug; this implementation performs a
	// real equality test and reflects at both boundaries).
	oldIdx int
	oldDir int
}

func newChannelState(rate int) *channelState {
	return &channelState{
		fifo:   newFIFO(MaxFrameSize),
		delay:  newDelayLine(rate),
		oldDir: 1,
	}
}

// extend returns the next periodic-extension sample from old, advancing
// the reflective cursor.
func (c *channelState) extend() float64 {
	if len(c.old) == 0 {
		return 0
	}
	v := c.old[c.oldIdx]
	c.oldIdx += c.oldDir
	if c.oldIdx >= len(c.old)-1 {
		c.oldIdx = len(c.old) - 1
		c.oldDir = -1
	} else if c.oldIdx <= 0 {
		c.oldIdx = 0
		c.oldDir = 1
	}
	return v
}

// Reverb is the two-channel (stereo) dropout-concealment state machine.
type Reverb struct {
	enabled bool
	wasOK   bool
	left    *channelState
	right   *channelState
}

// New returns a Reverb sized for outputRate (used for the internal 1s
// delay line). useReverbEffect selects whether bad blocks get a
// reverberated tail (true) or silence (false) once the "old" material is
// exhausted.
func New(outputRate int, useReverbEffect bool) *Reverb {
	return &Reverb{
		enabled: useReverbEffect,
		wasOK:   true,
		left:    newChannelState(outputRate),
		right:   newChannelState(outputRate),
	}
}

// Apply runs the dropout-concealment state machine over one block (cur
// OK/not), for both channels, and returns the concealed output plus the
// block's resulting status.
func (r *Reverb) Apply(curOK bool, curLeft, curRight []float64) (outLeft, outRight []float64, status params.BlockStatus) {
	n := len(curLeft)
	outLeft = make([]float64, n)
	outRight = make([]float64, n)

	r.applyChannel(r.left, curOK, curLeft, outLeft)
	r.applyChannel(r.right, curOK, curRight, outRight)

	switch {
	case r.wasOK && !curOK:
		status = params.StatusDataError
	case !r.wasOK && !curOK:
		status = params.StatusCRCError
	default:
		status = params.StatusOK
	}

	r.wasOK = curOK
	return outLeft, outRight, status
}

func (r *Reverb) applyChannel(c *channelState, curOK bool, cur []float64, out []float64) {
	n := len(cur)
	work := make([]float64, n)

	switch {
	case r.wasOK && !curOK:
		// Good -> bad: periodic extension of Old with linear fade-out,
		// plus cross-faded reverb tail.
		for i := 0; i < n; i++ {
			fadeOut := 1 - float64(i)/float64(n)
			ext := c.extend()
			var rev float64
			if r.enabled {
				fadeIn := float64(i) / float64(n)
				rev = c.delay.process(ext*fadeIn) * (1 - fadeOut)
			}
			work[i] = ext*fadeOut + rev
		}
	case !r.wasOK && !curOK:
		// Bad -> bad: pure reverb, or silence if disabled.
		for i := 0; i < n; i++ {
			ext := c.extend()
			if r.enabled {
				work[i] = c.delay.process(ext)
			} else {
				work[i] = 0
			}
		}
	case !r.wasOK && curOK:
		// Bad -> good: fade-in of Cur plus cross-faded reverb tail. The
		// fade ratio is computed in float64 arithmetic throughout (Open
		// Question #3: a true linear ramp, not the source's integer
		// division which collapses to 0 for all but the last sample).
		for i := 0; i < n; i++ {
			fadeIn := float64(i) / float64(n)
			var rev float64
			if r.enabled {
				rev = c.delay.process(cur[i]*(1-fadeIn)) * (1 - fadeIn)
			}
			work[i] = cur[i]*fadeIn + rev
		}
	default:
		// Good -> good: passthrough.
		copy(work, cur)
	}

	if curOK {
		c.old = append(c.old[:0], cur...)
		c.oldIdx = 0
		c.oldDir = 1
	}

	for i := 0; i < n; i++ {
		out[i] = c.fifo.get()
		c.fifo.add(work[i])
	}

	if !curOK {
		// Extend subsequent bad blocks from the faded material already
		// emitted, not the last good block directly, to avoid "echo of
		// echo".
		c.old = append(c.old[:0], out...)
		c.oldIdx = 0
		c.oldDir = 1
	}
}
