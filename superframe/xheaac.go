/*
NAME
  xheaac.go

DESCRIPTION
  xheaac.go implements the xHE-AAC (USAC) super-frame parser variant: a
  directory-indexed ring buffer that reassembles audio frames which may
  span super-frame boundaries.

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
	"github.com/drmgo/receiver/crc"
	"github.com/drmgo/receiver/params"
)

const (
	payloadRingSize = 4096
	payloadRingMask = payloadRingSize - 1

	frameRingSize = 32
	frameRingMask = frameRingSize - 1

	frameBorderIndexPrevTwo = 0xFFE
	frameBorderIndexPrevOne = 0xFFF
)

// XHEAACParser parses the xHE-AAC super-frame variant. It owns the
// directory-indexed ring buffers that let audio frames span super-frame
// boundaries, so a single XHEAACParser instance must be reused across
// consecutive super-frames of the same session.
type XHEAACParser struct {
	payloadRing [payloadRingSize]byte
	iPayloadWrite int

	frameStart [frameRingSize]int
	frameSize  [frameRingSize]int

	parsingFrame     int
	prevParsingFrame int // -1 sentinel: not yet initialized.
	decodeFrame      int
}

// NewXHEAACParser returns a ready-to-use XHE-AAC parser with empty ring
// buffers and the "uninitialized" sentinel set on prevParsingFrame.
func NewXHEAACParser() *XHEAACParser {
	return &XHEAACParser{prevParsingFrame: -1}
}

// Parse implements Parser. lengthB is unused for xHE-AAC; the whole
// super-frame is carried as a single protected part, lengthA.
func (p *XHEAACParser) Parse(payload []byte, lengthA, lengthB int) ([]FrameRecord, params.BlockStatus) {
	totalFrameSize := lengthA
	if len(payload) < totalFrameSize || totalFrameSize < 2 {
		return nil, params.StatusDataError
	}

	frameBorderCount := int(payload[0] >> 4)
	bitReservoirLevel := int(payload[0] & 0x0F)
	headerCRCByte := payload[1]

	hcrc, _ := crc.NewUnit(8)
	hcrc.AddByte(byte(frameBorderCount<<4) | byte(bitReservoirLevel))
	headerOK := hcrc.Check(uint16(headerCRCByte))
	_ = headerOK // advisory only, per Open Question #2: never gates frame emission.

	directoryOffset := totalFrameSize - 2*frameBorderCount
	if directoryOffset > totalFrameSize {
		directoryOffset = totalFrameSize
	}
	if directoryOffset < 2 {
		return nil, params.StatusDataError
	}

	iPayloadStart := p.iPayloadWrite
	for i := 2; i < directoryOffset; i++ {
		p.payloadRing[p.iPayloadWrite] = payload[i]
		p.iPayloadWrite = (p.iPayloadWrite + 1) & payloadRingMask
	}

	// Directory entries are packed after directoryOffset, stored in
	// forward order but processed in reverse (the last-written frame
	// border is resolved first).
	entries := make([]uint16, frameBorderCount)
	for i := 0; i < frameBorderCount; i++ {
		off := directoryOffset + 2*i
		if off+1 >= len(payload) {
			return nil, params.StatusDataError
		}
		entries[i] = uint16(payload[off])<<8 | uint16(payload[off+1])
	}

	var emitted []FrameRecord
	for i := frameBorderCount - 1; i >= 0; i-- {
		entry := entries[i]
		frameBorderIndex := int(entry>>4) & 0xFFF

		var frameStart int
		switch {
		case i == frameBorderCount-1 && frameBorderIndex == frameBorderIndexPrevTwo:
			frameStart = iPayloadStart - 2
			if frameStart < 0 {
				frameStart += payloadRingSize
			}
		case i == frameBorderCount-1 && frameBorderIndex == frameBorderIndexPrevOne:
			frameStart = iPayloadStart - 1
			if frameStart < 0 {
				frameStart += payloadRingSize
			}
		default:
			if frameBorderIndex > directoryOffset {
				frameBorderIndex = directoryOffset
			}
			frameStart = (frameBorderIndex + iPayloadStart) & payloadRingMask
		}

		p.frameStart[p.parsingFrame] = frameStart
		if p.prevParsingFrame >= 0 {
			size := p.frameStart[p.parsingFrame] - p.frameStart[p.prevParsingFrame]
			if size < 0 {
				size += payloadRingSize
			}
			p.frameSize[p.prevParsingFrame] = size
		}

		p.prevParsingFrame = p.parsingFrame
		p.parsingFrame = (p.parsingFrame + 1) & frameRingMask
	}

	// Close out the most recent frame's size against the current write
	// cursor so every frame up to (but not including) the one still
	// in flight is ready for decode.
	if p.prevParsingFrame >= 0 {
		size := p.iPayloadWrite - p.frameStart[p.prevParsingFrame]
		if size < 0 {
			size += payloadRingSize
		}
		p.frameSize[p.prevParsingFrame] = size
	}

	numReady := 0
	if p.prevParsingFrame >= 0 {
		numReady = (p.prevParsingFrame - p.decodeFrame) & frameRingMask
	}
	for n := 0; n < numReady; n++ {
		f := p.decodeFrame
		size := p.frameSize[f]
		start := p.frameStart[f]

		frame := make([]byte, size)
		pos := start
		for i := 0; i < size; i++ {
			frame[i] = p.payloadRing[pos]
			pos = (pos + 1) & payloadRingMask
		}

		status := params.StatusOK
		if size < 2 {
			status = params.StatusDataError
		} else {
			cu, _ := crc.NewUnit(16)
			cu.AddBytes(frame[:size-2])
			expected := uint16(frame[size-2])<<8 | uint16(frame[size-1])
			if !cu.Check(expected) {
				status = params.StatusCRCError
			}
		}

		emitted = append(emitted, FrameRecord{Payload: frame, Status: status})
		p.decodeFrame = (p.decodeFrame + 1) & frameRingMask
	}

	overall := params.StatusOK
	if len(emitted) == 0 && frameBorderCount > 0 {
		overall = params.StatusDataError
	}
	return emitted, overall
}
