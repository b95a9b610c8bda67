package decoder

import (
	"testing"

	"github.com/drmgo/receiver/params"
)

type nopTextSink struct{ got [][]byte }

func (s *nopTextSink) WriteText(p []byte) error {
	cp := append([]byte(nil), p...)
	s.got = append(s.got, cp)
	return nil
}

func TestInitWithoutCodecReturnsErrAudioDecoder(t *testing.T) {
	p := params.AudioParameters{Coding: params.CodingAAC, Rate: params.Rate12000, Robustness: params.RobustnessA}
	d, caps, err := Init(p, nil, nil, 12000, 1, 48000, false)
	if err == nil {
		t.Fatalf("expected ErrAudioDecoder, got nil")
	}
	if caps.DecodeAudio {
		t.Fatalf("capabilities claim audio decode without a codec")
	}
	if d == nil {
		t.Fatalf("decoder should still be constructed for text/status use")
	}
}

func TestInitUnsupportedCodingIsErrAll(t *testing.T) {
	p := params.AudioParameters{Coding: params.CodingOpus}
	_, _, err := Init(p, nil, nil, 48000, 2, 48000, false)
	if err == nil {
		t.Fatalf("expected an ErrAll-wrapped error for unsupported coding")
	}
}

func TestProcessWithMockCodecProducesBoundedOutput(t *testing.T) {
	p := params.AudioParameters{Coding: params.CodingAAC, Rate: params.Rate12000, Robustness: params.RobustnessA}
	codec := NewMockCodec(12000, 2)
	sink := &nopTextSink{}
	d, caps, err := Init(p, codec, sink, 12000, 2, 48000, true)
	if err != nil {
		t.Fatalf("unexpected init error: %v", err)
	}
	if !caps.DecodeAudio {
		t.Fatalf("expected DecodeAudio capability")
	}

	// A too-short/garbage super-frame should not panic; it should simply
	// come back with a concealed (possibly empty) block.
	block, err := d.Process(make([]byte, 8), 4, 4)
	if err != nil {
		t.Fatalf("unexpected process error: %v", err)
	}
	if len(block.Samples)%2 != 0 {
		t.Fatalf("expected an even number of interleaved samples, got %d", len(block.Samples))
	}
}
