package wav

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBufferedSinkWritesPlayableHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	s := NewBufferedSink(path, 48000, 2, 16)

	if err := s.WriteSamples([]int16{1, -1, 2, -2}); err != nil {
		t.Fatalf("WriteSamples: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) != 44+8 {
		t.Fatalf("expected 44-byte header + 8 bytes of samples, got %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("missing RIFF/WAVE markers: %q", data[:12])
	}
}

func TestStreamingSinkProducesReadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.wav")
	s, err := NewStreamingSink(path, 48000, 2, 16)
	if err != nil {
		t.Fatalf("NewStreamingSink: %v", err)
	}
	if err := s.WriteSamples([]int16{100, -100, 200, -200}); err != nil {
		t.Fatalf("WriteSamples: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("expected non-empty WAV file")
	}
}
