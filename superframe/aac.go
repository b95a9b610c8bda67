/*
NAME
  aac.go

DESCRIPTION
  aac.go implements the AAC super-frame parser variant: border table in the
  header, then higher-protected (EEP/UEP) bytes and per-frame CRC from part
  A, then lower-protected bytes from part B.

AUTHORS
  DRM Core Contributors <drmcore@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package superframe

import (
	"github.com/drmgo/receiver/bits"
	"github.com/drmgo/receiver/crc"
	"github.com/drmgo/receiver/params"
)

// AACParser parses the AAC super-frame variant.
type AACParser struct {
	layout Layout
}

// NewAACParser returns an AACParser for the given super-frame layout.
func NewAACParser(layout Layout) *AACParser {
	return &AACParser{layout: layout}
}

// headerBits returns the header size in bits, including the 4 reserved
// padding bits present only in the 9-border case (N == 10).
func (p *AACParser) headerBits() int {
	b := 12 * p.layout.NumBorders
	if p.layout.NumBorders == 9 {
		b += 4
	}
	return b
}

func (p *AACParser) headerBytes() int {
	return (p.headerBits() + 7) / 8
}

// Parse implements Parser.
func (p *AACParser) Parse(payload []byte, lengthA, lengthB int) ([]FrameRecord, params.BlockStatus) {
	n := p.layout.NumFrames
	fail := func() ([]FrameRecord, params.BlockStatus) {
		frames := make([]FrameRecord, n)
		for i := range frames {
			frames[i].Status = params.StatusDataError
		}
		return frames, params.StatusDataError
	}

	headerBytes := p.headerBytes()
	audioPayloadLength := lengthA + lengthB - headerBytes - n
	if audioPayloadLength < 0 || len(payload) < lengthA+lengthB {
		return fail()
	}

	cur := bits.NewCursor(payload)
	borders := make([]int, n-1)
	previous := 0
	for i := 0; i < n-1; i++ {
		raw, err := cur.Separate(12)
		if err != nil {
			return fail()
		}
		border := int(raw)
		if border < previous {
			border += 4096
		}
		borders[i] = border
		previous = border
	}
	if p.layout.NumBorders == 9 {
		if err := cur.SkipBits(4); err != nil {
			return fail()
		}
	}

	frameLengths := make([]int, n)
	prevBorder := 0
	for i := 0; i < n-1; i++ {
		fl := borders[i] - prevBorder
		if fl < 0 || fl > audioPayloadLength {
			return fail()
		}
		frameLengths[i] = fl
		prevBorder = borders[i]
	}
	frameLengths[n-1] = audioPayloadLength - prevBorder
	if frameLengths[n-1] < 0 || frameLengths[n-1] > audioPayloadLength {
		return fail()
	}

	higherProtectedBytes := (lengthA - headerBytes - n) / n
	if higherProtectedBytes < 0 {
		return fail()
	}

	// Part A (higher-protected bytes + CRC) begins immediately after the
	// header and runs for n*(higherProtectedBytes+1) bytes.
	hpOff := headerBytes
	// Part B (lower-protected bytes) begins at lengthA.
	lpOff := lengthA

	frames := make([]FrameRecord, n)
	overallStatus := params.StatusOK
	cu, err := crc.NewUnit(8)
	if err != nil {
		return fail()
	}

	for i := 0; i < n; i++ {
		lowerLen := frameLengths[i] - higherProtectedBytes
		if lowerLen < 0 {
			return fail()
		}
		if hpOff+higherProtectedBytes+1 > len(payload) || lpOff+lowerLen > len(payload) {
			return fail()
		}

		hp := payload[hpOff : hpOff+higherProtectedBytes]
		frameCRC := payload[hpOff+higherProtectedBytes]
		hpOff += higherProtectedBytes + 1

		lp := payload[lpOff : lpOff+lowerLen]
		lpOff += lowerLen

		frame := make([]byte, 0, higherProtectedBytes+lowerLen)
		frame = append(frame, hp...)
		frame = append(frame, lp...)

		// The per-frame CRC covers only the higher-protected part; the
		// lower-protected bytes that follow are unchecked.
		cu.Reset()
		cu.AddBytes(hp)
		status := params.StatusOK
		if !cu.Check(uint16(frameCRC)) {
			status = params.StatusCRCError
		}

		frames[i] = FrameRecord{
			Payload:              frame,
			Status:                status,
			HigherProtectedBytes: higherProtectedBytes,
			LowerProtectedBytes:  lowerLen,
		}
	}

	return frames, overallStatus
}
