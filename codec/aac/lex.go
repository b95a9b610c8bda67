/*
NAME
  lex.go

DESCRIPTION
  lex.go parses ADTS-framed AAC (used by external encoders/bitstream
  dumps, not the DRM super-frame container itself) and derives the raw
  MPEG-4 AudioSpecificConfig bytes a Codec implementation needs to open
  a decoder instance.

AUTHORS
  DRM Core Contributors <drmcore@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package aac parses ADTS-framed AAC bitstreams and derives the
// AudioSpecificConfig bytes a Codec needs to open, bridging between
// ADTS test fixtures/external captures and the DRM transport's raw
// (non-ADTS) per-frame payloads.
package aac

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/drmgo/receiver/params"
)

// ADTSHeader holds the parsed fields of one ADTS frame header.
type ADTSHeader struct {
	Syncword               uint16 // always 0xFFF.
	MPEGID                 uint8  // 0: MPEG-4, 1: MPEG-2.
	ProtectionAbsent       bool   // true: no CRC, 7-byte header.
	Profile                uint8  // AAC profile, 1 = AAC-LC.
	SamplingFrequencyIndex uint8
	ChannelConfiguration   uint8

	FrameLength   uint16 // total frame length in bytes, header + payload.
	RawDataBlocks uint8  // number of raw data blocks minus 1, usually 0.
}

const adtsSyncword uint16 = 0xFFF

// HeaderSize is the ADTS header length when no CRC is present.
const HeaderSize = 7

// ReadADTSFrame reads one ADTS frame from r, returning its parsed header
// and raw AAC payload.
func ReadADTSFrame(r io.Reader) (*ADTSHeader, []byte, error) {
	buf := make([]byte, HeaderSize)
	n, err := io.ReadFull(r, buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, nil, io.EOF
		}
		return nil, nil, errors.Wrap(err, "aac: reading ADTS header")
	}
	if n < HeaderSize {
		return nil, nil, io.ErrUnexpectedEOF
	}

	h := &ADTSHeader{}
	fixed := binary.BigEndian.Uint32(buf[0:4])

	h.Syncword = uint16((fixed & 0xFFF00000) >> 20)
	if h.Syncword != adtsSyncword {
		return nil, nil, errors.Errorf("aac: syncword mismatch: want 0x%X got 0x%X", adtsSyncword, h.Syncword)
	}
	h.MPEGID = uint8((fixed & 0x00080000) >> 19)
	h.ProtectionAbsent = (fixed&0x00010000)>>16 == 1
	h.Profile = uint8((fixed & 0x0000C000) >> 14)
	h.SamplingFrequencyIndex = uint8((fixed & 0x00003C00) >> 10)

	channelConfigBits := (buf[2] & 0x01) << 2
	channelConfigBits |= (buf[3] & 0xC0) >> 6
	h.ChannelConfiguration = channelConfigBits

	varFrameLength := uint16(buf[3]&0x0F) << 11
	varFrameLength |= uint16(buf[4]) << 3
	varFrameLength |= uint16(buf[5]&0xE0) >> 5
	h.FrameLength = varFrameLength

	h.RawDataBlocks = buf[6] & 0x03

	if h.FrameLength < HeaderSize {
		return h, nil, errors.Errorf("aac: invalid frame length %d (below header size %d)", h.FrameLength, HeaderSize)
	}
	payloadSize := int(h.FrameLength) - HeaderSize
	if !h.ProtectionAbsent {
		payloadSize -= 2
	}
	if payloadSize <= 0 {
		return h, nil, errors.New("aac: computed payload size is zero or negative")
	}

	payload := make([]byte, payloadSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return h, nil, errors.Wrapf(err, "aac: reading %d byte frame payload", payloadSize)
	}
	if !h.ProtectionAbsent {
		if _, err := io.CopyN(io.Discard, r, 2); err != nil {
			return h, nil, errors.Wrap(err, "aac: skipping trailing CRC")
		}
	}

	return h, payload, nil
}

// AudioSpecificConfig converts an ADTSHeader's fixed fields into the raw
// 2-byte MPEG-4 AudioSpecificConfig a Codec.Open implementation expects.
func (h *ADTSHeader) AudioSpecificConfig() ([]byte, error) {
	var objectType uint8
	switch h.Profile {
	case 1:
		objectType = 2 // AAC-LC.
	case 2:
		objectType = 5 // SBR/HE-AAC.
	default:
		objectType = h.Profile
	}
	if objectType > 31 {
		return nil, fmt.Errorf("aac: unsupported object type derived from profile %d", h.Profile)
	}

	var word uint16
	word |= uint16(objectType) << 11
	word |= uint16(h.SamplingFrequencyIndex) << 7
	word |= uint16(h.ChannelConfiguration) << 3

	return []byte{byte(word >> 8), byte(word & 0xFF)}, nil
}

// samplingFrequencyIndex maps a DRM sample rate to the nearest standard
// MPEG-4 sampling-frequency-index table entry, since the DRM rates
// (9.6/12/16/19.2/24/32/38.4/48 kHz) only partly coincide with the
// MPEG-4 table's fixed 13 entries.
func samplingFrequencyIndex(rate params.SampleRate) uint8 {
	switch {
	case rate.Hz() >= 48000:
		return 3 // 48000 Hz.
	case rate.Hz() >= 32000:
		return 5 // 32000 Hz.
	case rate.Hz() >= 24000:
		return 6 // 24000 Hz.
	case rate.Hz() >= 16000:
		return 8 // 16000 Hz.
	case rate.Hz() >= 12000:
		return 9 // 12000 Hz.
	default:
		return 11 // 8000 Hz.
	}
}

// ConfigFromAudioParameters synthesizes a minimal AudioSpecificConfig
// from DRM AudioParameters, for Codec implementations that need a
// concrete Type9Config when the demodulator hasn't supplied one.
func ConfigFromAudioParameters(p params.AudioParameters) ([]byte, error) {
	channels := uint8(1)
	if p.Stereo != params.Mono {
		channels = 2
	}
	h := &ADTSHeader{
		Profile:                1, // AAC-LC.
		SamplingFrequencyIndex: samplingFrequencyIndex(p.Rate),
		ChannelConfiguration:   channels,
	}
	return h.AudioSpecificConfig()
}
