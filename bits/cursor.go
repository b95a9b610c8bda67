/*
NAME
  cursor.go

DESCRIPTION
  cursor.go provides a bit-level cursor over an in-memory byte buffer with
  separate-and-advance, MSB-first semantics.

AUTHORS
  DRM Core Contributors <drmcore@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package bits provides a bit-level cursor for parsing byte buffers MSB
// first, the layout used throughout the DRM super-frame formats.
package bits

import "github.com/pkg/errors"

// ErrShortRead is returned by Separate and SkipBits when the underlying
// buffer is exhausted before the requested number of bits can be read.
var ErrShortRead = errors.New("bits: short read")

// Cursor reads bits MSB-first from a borrowed byte slice. Cursor does not
// own buf; callers must keep buf alive for the Cursor's lifetime.
type Cursor struct {
	buf    []byte
	bitPos int // absolute bit offset from the start of buf.
}

// NewCursor returns a Cursor reading from buf starting at byte 0, bit 0.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Size returns the number of bits remaining before the cursor runs off the
// end of the buffer.
func (c *Cursor) Size() int {
	rem := len(c.buf)*8 - c.bitPos
	if rem < 0 {
		return 0
	}
	return rem
}

// Reset rewinds the cursor to byte 0, bit 0.
func (c *Cursor) Reset() {
	c.bitPos = 0
}

// ByteAligned reports whether the cursor currently sits on a byte boundary.
func (c *Cursor) ByteAligned() bool {
	return c.bitPos%8 == 0
}

// Off returns the current absolute bit offset from the start of the buffer.
func (c *Cursor) Off() int {
	return c.bitPos
}

// Separate reads the next n bits (1 <= n <= 32) MSB-first and advances the
// cursor. It returns ErrShortRead, leaving the cursor unmoved, if fewer than
// n bits remain.
func (c *Cursor) Separate(n int) (uint32, error) {
	if n < 1 || n > 32 {
		return 0, errors.Errorf("bits: invalid width %d", n)
	}
	if c.Size() < n {
		return 0, ErrShortRead
	}

	var v uint32
	remaining := n
	pos := c.bitPos
	for remaining > 0 {
		byteIdx := pos / 8
		bitIdx := pos % 8
		avail := 8 - bitIdx
		take := avail
		if take > remaining {
			take = remaining
		}
		shift := avail - take
		mask := byte((1 << take) - 1)
		bitsHere := (c.buf[byteIdx] >> shift) & mask
		v = (v << take) | uint32(bitsHere)
		pos += take
		remaining -= take
	}
	c.bitPos = pos
	return v, nil
}

// SkipBits advances the cursor by n bits without returning their value. It
// is used for reserved/padding fields such as the AAC 9-border reserved
// nibble and an unused xHE-AAC bitReservoirLevel field.
func (c *Cursor) SkipBits(n int) error {
	if c.Size() < n {
		return ErrShortRead
	}
	c.bitPos += n
	return nil
}
