/*
NAME
  sink.go

DESCRIPTION
  sink.go adds Sink, a small interface the drmreceiver CLI writes decoded
  PCM through, plus two implementations: BufferedSink (accumulate, then
  write the WAV header once on Close, via WAV.Write above) and
  StreamingSink (go-audio/wav.Encoder, patches the header in place on
  Close so large outputs never need to be buffered in memory).

AUTHORS
  DRM Core Contributors <drmcore@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package wav

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/go-audio/audio"
	goaudiowav "github.com/go-audio/wav"
)

// Sink accepts interleaved int16 PCM samples and finalizes the output
// file's header on Close.
type Sink interface {
	WriteSamples(samples []int16) error
	Close() error
}

// BufferedSink accumulates all samples in memory and writes the WAV
// header and data in a single pass on Close, using WAV.Write.
type BufferedSink struct {
	w    *WAV
	path string
	buf  []byte
}

// NewBufferedSink returns a BufferedSink that will write path on Close.
func NewBufferedSink(path string, sampleRate, channels, bitDepth int) *BufferedSink {
	return &BufferedSink{
		path: path,
		w: &WAV{Metadata: Metadata{
			AudioFormat: PCMFormat,
			Channels:    channels,
			SampleRate:  sampleRate,
			BitDepth:    bitDepth,
		}},
	}
}

func (s *BufferedSink) WriteSamples(samples []int16) error {
	b := make([]byte, len(samples)*2)
	for i, v := range samples {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(v))
	}
	s.buf = append(s.buf, b...)
	return nil
}

func (s *BufferedSink) Close() error {
	if _, err := s.w.Write(s.buf); err != nil {
		return err
	}
	return os.WriteFile(s.path, s.w.Audio, 0644)
}

// StreamingSink writes samples directly to disk as they arrive via
// go-audio/wav.Encoder, which seeks back to patch the RIFF/data chunk
// sizes on Close. Preferred for large captures where BufferedSink's
// whole-file buffering would be wasteful.
type StreamingSink struct {
	f   *os.File
	enc *goaudiowav.Encoder
	fmt *audio.Format
}

// NewStreamingSink opens path for writing and prepares a streaming WAV
// encoder at the given sample rate/channels/bit depth.
func NewStreamingSink(path string, sampleRate, channels, bitDepth int) (*StreamingSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	format := &audio.Format{NumChannels: channels, SampleRate: sampleRate}
	enc := goaudiowav.NewEncoder(f, sampleRate, bitDepth, channels, 1)
	return &StreamingSink{f: f, enc: enc, fmt: format}, nil
}

func (s *StreamingSink) WriteSamples(samples []int16) error {
	ints := make([]int, len(samples))
	for i, v := range samples {
		ints[i] = int(v)
	}
	buf := &audio.IntBuffer{Format: s.fmt, Data: ints, SourceBitDepth: 16}
	return s.enc.Write(buf)
}

func (s *StreamingSink) Close() error {
	if err := s.enc.Close(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}

var _ io.Closer = (*StreamingSink)(nil)
