package superframe

import (
	"bytes"
	"testing"

	"github.com/drmgo/receiver/crc"
	"github.com/drmgo/receiver/params"
)

// buildXHEAACSuperFrame assembles a single super-frame payload with one
// trailing directory entry pointing at frameBorderIndex.
func buildXHEAACSuperFrame(payloadBytes []byte, frameBorderIndex int) []byte {
	buf := make([]byte, 2, 2+len(payloadBytes)+2)
	hcrc, _ := crc.NewUnit(8)
	hcrc.AddByte(byte(1 << 4)) // frameBorderCount=1, bitReservoirLevel=0
	buf[0] = 1 << 4
	buf[1] = byte(hcrc.Sum())
	buf = append(buf, payloadBytes...)
	entry := uint16(frameBorderIndex&0xFFF) << 4
	buf = append(buf, byte(entry>>8), byte(entry))
	return buf
}

func TestXHEAACParserSimpleFrame(t *testing.T) {
	p := NewXHEAACParser()
	payload := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	sf := buildXHEAACSuperFrame(payload, len(payload)+2) // directoryOffset-based index, past start.

	frames, _ := p.Parse(sf, len(sf), 0)
	if len(frames) != 0 {
		t.Fatalf("first super-frame should not yet have a closed frame, got %d", len(frames))
	}

	// A second super-frame with a fresh directory entry closes out the
	// first frame's size.
	sf2 := buildXHEAACSuperFrame([]byte{0x01, 0x02}, 2)
	frames2, _ := p.Parse(sf2, len(sf2), 0)
	if len(frames2) == 0 {
		t.Fatalf("expected at least one ready frame after second super-frame")
	}
}

func TestXHEAACParserWrapPrevTwo(t *testing.T) {
	p := NewXHEAACParser()
	// Seed a first super-frame so iPayloadWrite advances off zero, making
	// the wrap case meaningful.
	seed := buildXHEAACSuperFrame([]byte{0x10, 0x20, 0x30}, 3)
	p.Parse(seed, len(seed), 0)

	wrapFrame := buildXHEAACSuperFrame([]byte{0x40, 0x50}, frameBorderIndexPrevTwo)
	frames, status := p.Parse(wrapFrame, len(wrapFrame), 0)
	if status == params.StatusDataError && len(frames) == 0 {
		t.Fatalf("wrap case produced no frames and a data error")
	}
}

// buildXHEAACSuperFrameMulti assembles a super-frame payload with several
// directory entries, stored forward (entries[i] at directoryOffset+2*i) the
// way Parse reads them, for frameBorderCount = len(frameBorderIndices).
func buildXHEAACSuperFrameMulti(payloadBytes []byte, frameBorderIndices []int) []byte {
	frameBorderCount := len(frameBorderIndices)
	buf := make([]byte, 2, 2+len(payloadBytes)+2*frameBorderCount)
	hcrc, _ := crc.NewUnit(8)
	hcrc.AddByte(byte(frameBorderCount << 4))
	buf[0] = byte(frameBorderCount << 4)
	buf[1] = byte(hcrc.Sum())
	buf = append(buf, payloadBytes...)
	for _, idx := range frameBorderIndices {
		entry := uint16(idx&0xFFF) << 4
		buf = append(buf, byte(entry>>8), byte(entry))
	}
	return buf
}

// TestXHEAACParserFrameSpansPreviousSuperFrame exercises a two-entry
// directory where the physically-last entry (entries[1], resolved first
// since the directory is processed in reverse) carries the "previous
// super-frame" wrap marker. The frame it opens must start in the tail of
// the first super-frame's payload and reassemble contiguously with the
// bytes carried by the second.
func TestXHEAACParserFrameSpansPreviousSuperFrame(t *testing.T) {
	p := NewXHEAACParser()

	// First super-frame: a single border leaves a frame open, provisionally
	// closed against this call's own write cursor until the next call
	// supplies its real end.
	sf1 := buildXHEAACSuperFrameMulti([]byte{0x11, 0x22, 0x33, 0x44}, []int{1})
	p.Parse(sf1, len(sf1), 0)

	// Second super-frame: entries[0] is a normal border, entries[1] is the
	// wrap marker. Since the directory is processed i = frameBorderCount-1
	// down to 0, entries[1] is resolved first.
	sf2 := buildXHEAACSuperFrameMulti([]byte{0x55, 0x66, 0x77}, []int{2, frameBorderIndexPrevOne})
	p.Parse(sf2, len(sf2), 0)

	// parsingFrame 0 = opened by sf1's border; 1 = opened by sf2's wrap
	// marker, spanning the boundary; 2 = opened by sf2's normal border.
	const spanning = 1
	if p.frameStart[spanning] != 3 {
		t.Fatalf("expected spanning frame to start at ring position 3, got %d", p.frameStart[spanning])
	}
	if p.frameSize[spanning] != 3 {
		t.Fatalf("expected spanning frame size 3, got %d", p.frameSize[spanning])
	}

	start, size := p.frameStart[spanning], p.frameSize[spanning]
	got := make([]byte, size)
	for i := 0; i < size; i++ {
		got[i] = p.payloadRing[(start+i)&payloadRingMask]
	}
	want := []byte{0x44, 0x55, 0x66}
	if !bytes.Equal(got, want) {
		t.Fatalf("spanning frame bytes not contiguous across wrap: got %v want %v", got, want)
	}
}

func TestXHEAACParserClampsOutOfRangeIndex(t *testing.T) {
	p := NewXHEAACParser()
	payload := []byte{0x01, 0x02, 0x03}
	sf := buildXHEAACSuperFrame(payload, 0xF00) // far beyond directoryOffset; must clamp, not panic.
	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("Parse panicked on out-of-range frameBorderIndex: %v", r)
			}
		}()
		p.Parse(sf, len(sf), 0)
	}()
}
