/*
NAME
  codec.go

DESCRIPTION
  codec.go defines the Codec trait (Design Note "Codec as trait") that the
  AudioSourceDecoder drives, plus a MockCodec implementation enabling
  parser/decoder tests without a real AAC/xHE-AAC binding.

AUTHORS
  DRM Core Contributors <drmcore@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package decoder

import "math"

// Codec is an opaque external AAC/xHE-AAC decoder abstraction. A second
// implementation (MockCodec) lets parser and decoder tests run without a
// real FDK-AAC-equivalent binding.
type Codec interface {
	// Open initializes the codec from its type-9 configuration bytes.
	Open(config []byte) error
	// Fill feeds one compressed audio frame to the codec, returning the
	// number of bytes consumed.
	Fill(frame []byte) (int, error)
	// Decode drains decoded PCM into out (interleaved if channels == 2),
	// returning the number of samples per channel and the channel count.
	Decode(out []float64) (n int, channels int, err error)
	// Close releases codec resources.
	Close() error
}

// MockCodec is a deterministic Codec used in tests: it "decodes" any
// frame into a short burst of a fixed-frequency sine wave whose length is
// proportional to the frame's byte length, so tests can exercise the
// decoder pipeline without a real codec binding.
type MockCodec struct {
	rate     int
	channels int
	phase    float64
	pending  int // samples remaining to emit from the last Fill call.
}

// NewMockCodec returns a MockCodec reporting the given native sample rate
// and channel count.
func NewMockCodec(rate, channels int) *MockCodec {
	return &MockCodec{rate: rate, channels: channels}
}

func (m *MockCodec) Open(config []byte) error {
	m.phase = 0
	return nil
}

func (m *MockCodec) Fill(frame []byte) (int, error) {
	m.pending = len(frame) * 4 // arbitrary but deterministic expansion.
	return len(frame), nil
}

func (m *MockCodec) Decode(out []float64) (int, int, error) {
	n := len(out) / m.channels
	if n > m.pending {
		n = m.pending
	}
	const freq = 440.0
	step := 2 * math.Pi * freq / float64(m.rate)
	for i := 0; i < n; i++ {
		v := 8000 * math.Sin(m.phase)
		m.phase += step
		for ch := 0; ch < m.channels; ch++ {
			out[i*m.channels+ch] = v
		}
	}
	m.pending -= n
	return n, m.channels, nil
}

func (m *MockCodec) Close() error {
	return nil
}
