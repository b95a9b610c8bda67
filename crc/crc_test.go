package crc

import "testing"

func TestCheckMatchesSum(t *testing.T) {
	for _, width := range []int{8, 16} {
		u, err := NewUnit(width)
		if err != nil {
			t.Fatalf("width %d: %v", width, err)
		}
		u.AddBytes([]byte("drm-xheaac-frame"))
		if !u.Check(u.Sum()) {
			t.Fatalf("width %d: Check(Sum()) was false", width)
		}
		if u.Check(u.Sum() ^ 1) {
			t.Fatalf("width %d: Check accepted a corrupted checksum", width)
		}
	}
}

func TestResetZeroesChecksum(t *testing.T) {
	u, _ := NewUnit(8)
	u.AddBytes([]byte{0x12, 0x34})
	u.Reset()
	if u.Sum() != 0 {
		t.Fatalf("got %#x after Reset, want 0", u.Sum())
	}
}

func TestUnsupportedWidth(t *testing.T) {
	if _, err := NewUnit(32); err == nil {
		t.Fatalf("expected error for unsupported width")
	}
}

func TestByteOrderSensitivity(t *testing.T) {
	a, _ := NewUnit(16)
	b, _ := NewUnit(16)
	a.AddBytes([]byte{0x01, 0x02})
	b.AddBytes([]byte{0x02, 0x01})
	if a.Sum() == b.Sum() {
		t.Fatalf("CRC should be sensitive to byte order")
	}
}
