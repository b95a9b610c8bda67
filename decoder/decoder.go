/*
NAME
  decoder.go

DESCRIPTION
  decoder.go implements AudioSourceDecoder: the per-super-frame orchestrator
  that drives the super-frame parser, the external codec, the resampler,
  and the reverb concealment state machine to produce a final stereo PCM
  block.

AUTHORS
  DRM Core Contributors <drmcore@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package decoder implements the audio source decoder: the component that
// orchestrates the super-frame parser, an external codec, the resampler,
// and the reverb concealment machine into a single stereo PCM block per
// super-frame tick.
package decoder

import (
	"github.com/pkg/errors"

	"github.com/drmgo/receiver/params"
	"github.com/drmgo/receiver/resample"
	"github.com/drmgo/receiver/reverb"
	"github.com/drmgo/receiver/superframe"
)

// Errors returned by Init, matching the source's ET_ALL / ET_AUDDECODER
// error taxonomy (Design Note "Exceptions-for-control-flow").
var (
	ErrAll          = errors.New("decoder: cannot process any data")
	ErrAudioDecoder = errors.New("decoder: bitstream parseable but no decoder available")
)

// Capabilities describes what a decoder instance can actually do after
// Init, replacing the source's CInitErr short-circuiting with an explicit
// result that never partially initializes.
type Capabilities struct {
	DecodeAudio bool
	DecodeText  bool
	EmitStatus  bool
}

// TextSink receives the trailing text-message bytes extracted from a
// super-frame when AudioParameters.TextMessage is set.
type TextSink interface {
	WriteText(p []byte) error
}

const (
	textMessageBytes = 4

	// maxOutputBlockSize bounds a single tick's PCM output; chosen to
	// comfortably hold one 400ms super-frame at 48kHz stereo.
	maxOutputBlockSize = 48000 * 2 / 1000 * 400 * 2
)

// AudioSourceDecoder orchestrates the per-super-frame audio pipeline.
type AudioSourceDecoder struct {
	codec      Codec
	textSink   TextSink
	outputRate int

	parser superframe.Parser
	audio  params.AudioParameters

	resampler *resample.Resampler
	rev       *reverb.Reverb

	dynamicMaxOutputBlockSize int
	lastFrameOK               bool
	everSeenBad               bool
}

// Init constructs a decoder for the declared audio parameters, codec
// native rate/channels, and output rate. It never partially initializes:
// a failure to build the super-frame parser yields ErrAll; the codec and
// text sink are always optional.
func Init(p params.AudioParameters, codec Codec, textSink TextSink, codecRate, codecChannels, outputRate int, useReverbEffect bool) (*AudioSourceDecoder, Capabilities, error) {
	parser, err := superframe.NewParser(p)
	if err != nil {
		return nil, Capabilities{}, errors.Wrap(ErrAll, err.Error())
	}

	d := &AudioSourceDecoder{
		codec:      codec,
		textSink:   textSink,
		outputRate: outputRate,
		parser:     parser,
		audio:      p,
		rev:        reverb.New(outputRate, useReverbEffect),
	}

	caps := Capabilities{DecodeText: p.TextMessage && textSink != nil}

	if codec == nil {
		return d, caps, ErrAudioDecoder
	}
	if err := codec.Open(p.Type9Config); err != nil {
		return d, caps, errors.Wrap(ErrAudioDecoder, err.Error())
	}
	d.resampler, err = resample.New(codecRate, outputRate, 2)
	if err != nil {
		return d, caps, errors.Wrap(ErrAll, err.Error())
	}
	caps.DecodeAudio = true
	caps.EmitStatus = true
	return d, caps, nil
}

// PCMBlock is one tick's interleaved stereo output.
type PCMBlock struct {
	Samples []int16 // interleaved L,R.
	Status  params.BlockStatus
}

// Process runs one super-frame through the pipeline and returns the
// resulting PCM block.
func (d *AudioSourceDecoder) Process(input []byte, lengthA, lengthB int) (PCMBlock, error) {
	payload := input
	if d.audio.TextMessage && len(payload) >= textMessageBytes {
		text := payload[len(payload)-textMessageBytes:]
		payload = payload[:len(payload)-textMessageBytes]
		if d.textSink != nil {
			_ = d.textSink.WriteText(text)
		}
	}

	frames, sfStatus := d.parser.Parse(payload, lengthA, lengthB)

	var left, right []float64
	blockOK := sfStatus == params.StatusOK && len(frames) > 0

	for _, f := range frames {
		if f.Status != params.StatusOK || d.codec == nil {
			blockOK = false
			continue
		}
		if _, err := d.codec.Fill(f.Payload); err != nil {
			blockOK = false
			continue
		}
		buf := make([]float64, 4096)
		n, channels, err := d.codec.Decode(buf)
		if err != nil || n == 0 {
			blockOK = false
			continue
		}

		l := make([]float64, n)
		r := make([]float64, n)
		for i := 0; i < n; i++ {
			l[i] = buf[i*channels]
			if channels > 1 {
				r[i] = buf[i*channels+1]
			} else {
				r[i] = buf[i*channels]
			}
		}

		if d.resampler != nil {
			if d.resampler.NeedsReinit(n) {
				d.resampler.Reinit(n)
			}
			l = d.resampler.Process(0, l)
			r = d.resampler.Process(1, r)
		}

		left = append(left, l...)
		right = append(right, r...)
	}

	if len(left) == 0 {
		// Nothing decodable this tick; still run reverb with an
		// empty-but-marked-bad block so state transitions stay correct.
		left = make([]float64, 0)
		right = make([]float64, 0)
	}

	outLeft, outRight, status := d.rev.Apply(blockOK, left, right)

	d.updateDynamicLimit(blockOK)

	limit := d.dynamicMaxOutputBlockSize
	n := len(outLeft)
	if n > limit {
		n = limit
	}

	samples := make([]int16, 0, n*2)
	for i := 0; i < n; i++ {
		samples = append(samples, clampInt16(outLeft[i]), clampInt16(outRight[i]))
	}

	return PCMBlock{Samples: samples, Status: status}, nil
}

// updateDynamicLimit implements the good/bad cycling output rate-limiter:
// starts at 0, jumps to the max on a good frame, halves on a single bad
// frame following good, and drops to 0 on sustained bad frames.
func (d *AudioSourceDecoder) updateDynamicLimit(blockOK bool) {
	if blockOK {
		d.dynamicMaxOutputBlockSize = maxOutputBlockSize
		d.lastFrameOK = true
		return
	}
	if d.lastFrameOK {
		d.dynamicMaxOutputBlockSize /= 2
	} else {
		d.dynamicMaxOutputBlockSize = 0
	}
	d.lastFrameOK = false
}

func clampInt16(v float64) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
