/*
NAME
  superframe.go

DESCRIPTION
  superframe.go defines the tagged-union Parser interface shared by the AAC
  and xHE-AAC super-frame layouts, plus the super-frame layout selection
  table from (coding, robustness, sample rate).

AUTHORS
  DRM Core Contributors <drmcore@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package superframe parses DRM MSC audio super-frames, for both the AAC
// and xHE-AAC (USAC) transports, into a sequence of compressed audio
// frames with per-frame validity flags.
package superframe

import (
	"github.com/pkg/errors"

	"github.com/drmgo/receiver/params"
)

// FrameRecord is one compressed audio frame extracted from a super-frame.
type FrameRecord struct {
	Payload []byte
	Status  params.BlockStatus

	// HigherProtectedBytes/LowerProtectedBytes are only meaningful for the
	// AAC variant's UEP/EEP bookkeeping; xHE-AAC frames leave them zero.
	HigherProtectedBytes int
	LowerProtectedBytes  int
}

// Parser parses one super-frame's MSC payload into a sequence of audio
// frames. Both the AAC and xHE-AAC variants implement this interface and
// produce the same (frames, status) shape.
type Parser interface {
	// Parse consumes payload (length lengthA+lengthB, split at lengthA)
	// and returns the frames it could extract plus the overall super-frame
	// validity. A failure at any parsing step yields a DATA_ERROR
	// super-frame status and every frame inheriting that status.
	Parse(payload []byte, lengthA, lengthB int) ([]FrameRecord, params.BlockStatus)
}

// Layout is the derived super-frame shape for a given (robustness, rate).
type Layout struct {
	NumFrames  int
	NumBorders int // NumFrames - 1
	DurationMS int
}

// AACLayout returns the super-frame layout for the AAC variant at the given
// robustness mode and sample rate, per DRM specification Table 5.
func AACLayout(rob params.Robustness, rate params.SampleRate) (Layout, error) {
	switch rob {
	case params.RobustnessA, params.RobustnessB, params.RobustnessC, params.RobustnessD:
		switch rate {
		case params.Rate12000:
			return Layout{NumFrames: 5, NumBorders: 4, DurationMS: 400}, nil
		case params.Rate24000:
			return Layout{NumFrames: 10, NumBorders: 9, DurationMS: 400}, nil
		}
	case params.RobustnessE:
		switch rate {
		case params.Rate24000:
			return Layout{NumFrames: 5, NumBorders: 4, DurationMS: 200}, nil
		case params.Rate48000:
			return Layout{NumFrames: 10, NumBorders: 9, DurationMS: 200}, nil
		}
	}
	return Layout{}, errors.Errorf("superframe: no AAC layout for robustness %v rate %v", rob, rate)
}

// NewParser returns the Parser implementation matching p.Coding.
func NewParser(p params.AudioParameters) (Parser, error) {
	switch p.Coding {
	case params.CodingAAC:
		layout, err := AACLayout(p.Robustness, p.Rate)
		if err != nil {
			return nil, err
		}
		return NewAACParser(layout), nil
	case params.CodingXHEAAC:
		return NewXHEAACParser(), nil
	default:
		return nil, errors.Errorf("superframe: unsupported coding family %v", p.Coding)
	}
}
