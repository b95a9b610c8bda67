package bits

import "testing"

func TestSeparateMSBFirst(t *testing.T) {
	// 0xB5 = 1011_0101
	c := NewCursor([]byte{0xB5})
	v, err := c.Separate(4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 0xB {
		t.Fatalf("got %#x, want 0xB", v)
	}
	v, err = c.Separate(4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 0x5 {
		t.Fatalf("got %#x, want 0x5", v)
	}
}

func TestSeparateAcrossBytes(t *testing.T) {
	c := NewCursor([]byte{0xFF, 0x00, 0xFF})
	v, err := c.Separate(12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 0xFF0 {
		t.Fatalf("got %#x, want 0xFF0", v)
	}
}

func TestShortRead(t *testing.T) {
	c := NewCursor([]byte{0xFF})
	_, err := c.Separate(9)
	if err != ErrShortRead {
		t.Fatalf("got %v, want ErrShortRead", err)
	}
	// Cursor must not move on a failed read.
	v, err := c.Separate(8)
	if err != nil || v != 0xFF {
		t.Fatalf("cursor moved on failed read: v=%#x err=%v", v, err)
	}
}

func TestResetAndSize(t *testing.T) {
	c := NewCursor([]byte{0x01, 0x02})
	if c.Size() != 16 {
		t.Fatalf("got size %d, want 16", c.Size())
	}
	_, _ = c.Separate(4)
	if c.Size() != 12 {
		t.Fatalf("got size %d, want 12", c.Size())
	}
	c.Reset()
	if c.Size() != 16 || !c.ByteAligned() {
		t.Fatalf("reset did not rewind cursor")
	}
}

func TestSkipBits(t *testing.T) {
	c := NewCursor([]byte{0xF0, 0x0F})
	if err := c.SkipBits(4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := c.Separate(4)
	if err != nil || v != 0 {
		t.Fatalf("got v=%#x err=%v, want 0", v, err)
	}
}
