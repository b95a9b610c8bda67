/*
NAME
  main.go

DESCRIPTION
  drmreceiver is a command-line DRM audio-plane receiver: it reads a
  length-prefixed super-frame container from an input file, runs it
  through the super-frame parser, decoder, and reverb concealment
  pipeline, and writes the resulting PCM to a WAV file, while serving a
  JSON status snapshot over a local socket.

AUTHORS
  DRM Core Contributors <drmcore@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Command drmreceiver is the audio-plane DRM receiver CLI: file in, WAV
// out, JSON status on a socket while it runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/utils/logging"

	"github.com/drmgo/receiver/codec/aac"
	"github.com/drmgo/receiver/codec/wav"
	"github.com/drmgo/receiver/decoder"
	"github.com/drmgo/receiver/front"
	"github.com/drmgo/receiver/params"
	"github.com/drmgo/receiver/status"
)

const pkg = "drmreceiver: "

// Logging configuration, following cmd/rv's lumberjack sizing.
const (
	logMaxSize   = 50 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
)

// outputBlockBudget bounds how many interleaved int16 samples are
// buffered before a WriteSamples call, to keep memory flat regardless of
// input file size.
const outputBlockBudget = 1 << 16

func main() {
	input := flag.String("i", "", "input super-frame container file (required)")
	output := flag.String("o", "output.wav", "output WAV file")
	rate := flag.Int("r", 48000, "output sample rate in Hz")
	verbosity := flag.Int("v", int(logging.Info), "log verbosity")
	statusPath := flag.String("status", "", "status socket path (default: platform temp dir)")
	logPath := flag.String("log", "drmreceiver.log", "log file path")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, pkg+"-i is required")
		flag.Usage()
		os.Exit(1)
	}

	fileLog := &lumberjack.Logger{
		Filename:   *logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	log := logging.New(int8(*verbosity), io.MultiWriter(fileLog, os.Stderr), true)

	if err := run(log, *input, *output, *rate, *statusPath); err != nil {
		log.Error(pkg+"fatal error", "error", err.Error())
		os.Exit(1)
	}
}

func run(log logging.Logger, inputPath, outputPath string, outputRate int, statusPath string) error {
	in, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	src := front.NewFileSource(in)

	// The container format carries only the split point per super-frame;
	// the audio configuration itself is assumed fixed for a single CLI
	// run, matching a single-service capture.
	audioParams := params.AudioParameters{
		Coding:     params.CodingAAC,
		Rate:       params.Rate24000,
		Robustness: params.RobustnessB,
		Stereo:     params.Stereo,
	}

	if cfg, err := aac.ConfigFromAudioParameters(audioParams); err == nil {
		audioParams.Type9Config = cfg
	} else {
		log.Warning(pkg+"could not derive AudioSpecificConfig", "error", err.Error())
	}

	p := params.New()
	p.SetAudio(audioParams)

	codec := decoder.NewMockCodec(audioParams.Rate.Hz(), 2)
	dec, caps, err := decoder.Init(audioParams, codec, nil, audioParams.Rate.Hz(), 2, outputRate, true)
	if err != nil && !caps.DecodeText {
		log.Warning(pkg+"decoder initialised with reduced capabilities", "error", err.Error())
	}

	sink, err := wav.NewStreamingSink(outputPath, outputRate, 2, 16)
	if err != nil {
		return err
	}

	broadcast := status.New(p, log, statusPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info(pkg + "shutdown requested")
		cancel()
	}()

	if err := broadcast.Start(ctx); err != nil {
		log.Warning(pkg+"status broadcast disabled", "error", err.Error())
	} else {
		defer broadcast.Stop()
	}

	log.Info(pkg+"processing", "input", inputPath, "output", outputPath)

	pending := make([]int16, 0, outputBlockBudget)
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		if err := sink.WriteSamples(pending); err != nil {
			return err
		}
		pending = pending[:0]
		return nil
	}

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		default:
		}

		sf, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warning(pkg+"super-frame read error, stopping", "error", err.Error())
			break
		}

		block, err := dec.Process(sf.Payload, sf.LengthA, sf.LengthB)
		if err != nil {
			log.Warning(pkg+"decode error", "error", err.Error())
			p.UpdateStatus(func(s *params.ReceiveStatus) { s.SLAudio = params.StatusDataError })
			continue
		}
		p.UpdateStatus(func(s *params.ReceiveStatus) { s.SLAudio = block.Status })

		pending = append(pending, block.Samples...)
		if len(pending) >= outputBlockBudget {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	if err := flush(); err != nil {
		return err
	}
	if err := sink.Close(); err != nil {
		return err
	}

	log.Info(pkg + "done")
	return nil
}
