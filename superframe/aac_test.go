package superframe

import (
	"testing"

	"github.com/drmgo/receiver/crc"
	"github.com/drmgo/receiver/params"
)

// buildAACSuperFrame constructs a byte-exact AAC super-frame from frame
// payloads, inverting AACParser.Parse so round-trip tests can check for
// byte-identical output.
func buildAACSuperFrame(t *testing.T, layout Layout, hpb int, frames [][]byte) (payload []byte, lengthA, lengthB int) {
	t.Helper()
	n := layout.NumFrames
	if len(frames) != n {
		t.Fatalf("need %d frames, got %d", n, len(frames))
	}

	headerBits := 12 * layout.NumBorders
	if layout.NumBorders == 9 {
		headerBits += 4
	}
	headerBytes := (headerBits + 7) / 8

	// Build header: 12-bit cumulative borders (mod 4096), then optional
	// 4-bit padding.
	var borderBits []uint32
	cum := 0
	for i := 0; i < n-1; i++ {
		cum += len(frames[i])
		borderBits = append(borderBits, uint32(cum%4096))
	}

	header := make([]byte, 0, headerBytes)
	var acc uint64
	var accBits int
	pushBits := func(v uint32, width int) {
		acc = (acc << uint(width)) | uint64(v)
		accBits += width
		for accBits >= 8 {
			shift := accBits - 8
			header = append(header, byte(acc>>uint(shift)))
			accBits -= 8
			acc &= (1 << uint(accBits)) - 1
		}
	}
	for _, b := range borderBits {
		pushBits(b, 12)
	}
	if layout.NumBorders == 9 {
		pushBits(0, 4)
	}
	if accBits > 0 {
		header = append(header, byte(acc<<uint(8-accBits)))
	}
	for len(header) < headerBytes {
		header = append(header, 0)
	}

	cu, _ := crc.NewUnit(8)
	var hp []byte
	var lp []byte
	for _, f := range frames {
		h := f[:hpb]
		l := f[hpb:]
		// The per-frame CRC covers only the higher-protected bytes.
		cu.Reset()
		cu.AddBytes(h)
		hp = append(hp, h...)
		hp = append(hp, byte(cu.Sum()))
		lp = append(lp, l...)
	}

	payload = append(payload, header...)
	payload = append(payload, hp...)
	payload = append(payload, lp...)

	lengthA = headerBytes + n*(hpb+1)
	lengthB = len(lp)
	return payload, lengthA, lengthB
}

func TestAACParserRoundTrip(t *testing.T) {
	layout := Layout{NumFrames: 5, NumBorders: 4, DurationMS: 400}
	hpb := 3
	frames := [][]byte{
		{1, 2, 3, 4, 5},
		{6, 7, 8, 9},
		{10, 11, 12, 13, 14, 15},
		{16, 17, 18, 19, 20},
		{21, 22, 23, 24},
	}

	payload, lengthA, lengthB := buildAACSuperFrame(t, layout, hpb, frames)

	p := NewAACParser(layout)
	got, status := p.Parse(payload, lengthA, lengthB)
	if status != params.StatusOK {
		t.Fatalf("overall status = %v, want StatusOK", status)
	}
	if len(got) != len(frames) {
		t.Fatalf("got %d frames, want %d", len(got), len(frames))
	}
	for i, f := range got {
		if f.Status != params.StatusOK {
			t.Errorf("frame %d status = %v, want StatusOK", i, f.Status)
		}
		if string(f.Payload) != string(frames[i]) {
			t.Errorf("frame %d payload = %v, want %v", i, f.Payload, frames[i])
		}
	}
}

func TestAACParserCorruptedFrameCRC(t *testing.T) {
	layout := Layout{NumFrames: 5, NumBorders: 4, DurationMS: 400}
	hpb := 2
	frames := [][]byte{
		{1, 2, 3, 4},
		{5, 6, 7},
		{8, 9, 10, 11, 12},
		{13, 14, 15},
		{16, 17, 18, 19},
	}
	payload, lengthA, lengthB := buildAACSuperFrame(t, layout, hpb, frames)

	// Corrupt frame index 1's CRC byte: it sits right after frame 1's
	// higher-protected bytes in part A.
	headerBytes := (12*layout.NumBorders + 7) / 8
	crcOffset := headerBytes + (hpb+1)*1 + hpb // start of frame 1's block + hpb bytes.
	payload[crcOffset] ^= 0xFF

	p := NewAACParser(layout)
	got, _ := p.Parse(payload, lengthA, lengthB)
	if got[1].Status != params.StatusCRCError {
		t.Fatalf("frame 1 status = %v, want StatusCRCError", got[1].Status)
	}
	for i, f := range got {
		if i == 1 {
			continue
		}
		if f.Status != params.StatusOK {
			t.Errorf("frame %d status = %v, want StatusOK", i, f.Status)
		}
	}
}
