/*
NAME
  params.go

DESCRIPTION
  params.go defines the shared, mutex-guarded receiver state (AudioParameters,
  ReceiveStatus, signal metrics, DRM time, service table) that the pipeline
  goroutine writes and the status broadcaster reads.

AUTHORS
  DRM Core Contributors <drmcore@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package params holds the receiver's shared parameter state: per-service
// audio configuration, receive status traffic lights, signal metrics, DRM
// broadcast time, and the media-object registry. All access goes through
// Parameters' mutex-guarded accessors so the pipeline and status goroutines
// never race.
package params

import "sync"

// Coding identifies the audio transport family carried by a service.
type Coding int

const (
	CodingNone Coding = iota
	CodingAAC
	CodingXHEAAC
	CodingOpus
)

// StereoMode identifies how a service's audio channels are carried.
type StereoMode int

const (
	Mono StereoMode = iota
	Stereo
	PStereo
)

// Robustness is the DRM transmission mode, which (together with sample
// rate) selects super-frame duration and frame count.
type Robustness int

const (
	RobustnessA Robustness = iota
	RobustnessB
	RobustnessC
	RobustnessD
	RobustnessE
)

// SampleRate enumerates the codec sample rates the DRM specification
// allows for MSC audio.
type SampleRate int

const (
	Rate9600 SampleRate = iota
	Rate12000
	Rate16000
	Rate19200
	Rate24000
	Rate32000
	Rate38400
	Rate48000
)

// Hz returns the sample rate in Hz.
func (r SampleRate) Hz() int {
	switch r {
	case Rate9600:
		return 9600
	case Rate12000:
		return 12000
	case Rate16000:
		return 16000
	case Rate19200:
		return 19200
	case Rate24000:
		return 24000
	case Rate32000:
		return 32000
	case Rate38400:
		return 38400
	case Rate48000:
		return 48000
	default:
		return 0
	}
}

// AudioParameters describes a single service's audio configuration as
// published by the demodulator/SDC decoder.
type AudioParameters struct {
	Coding      Coding
	Rate        SampleRate
	Robustness  Robustness
	Stereo      StereoMode
	TextMessage bool
	SBR         bool
	Type9Config []byte // opaque codec configuration bytes.
}

// BlockStatus is the per-frame / per-super-frame validity verdict.
type BlockStatus int

const (
	StatusOK BlockStatus = iota
	StatusCRCError
	StatusDataError
	StatusNotPresent
)

// Int maps BlockStatus to the wire integer used by the status broadcast
// JSON ({RX_OK:0, CRC_ERROR:1, DATA_ERROR:2, NOT_PRESENT:-1}).
func (s BlockStatus) Int() int {
	switch s {
	case StatusOK:
		return 0
	case StatusCRCError:
		return 1
	case StatusDataError:
		return 2
	default:
		return -1
	}
}

// ReceiveStatus holds the six traffic-light channels plus the two audio
// validity channels, as written by the pipeline and read by StatusBroadcast.
type ReceiveStatus struct {
	InterfaceI BlockStatus
	InterfaceO BlockStatus
	TSync      BlockStatus
	FSync      BlockStatus
	FAC        BlockStatus
	SDC        BlockStatus
	SLAudio    BlockStatus
	LLAudio    BlockStatus
}

// DRMTime is the DRM broadcast UTC time block.
type DRMTime struct {
	Valid           bool
	Year            int
	Month           int
	Day             int
	Hour            int
	Min             int
	Timestamp       int64
	HasLocalOffset  bool
	OffsetMin       int
}

// SignalMetrics carries the demodulator's signal-quality measurements.
type SignalMetrics struct {
	IFLevelDB      float64
	SNRDB          float64
	WMERDB         *float64
	MERDB          *float64
	DopplerHz      *float64
	DelayMinMS     *float64
	DelayMaxMS     *float64
	DCOffsetHz     float64
	SampleOffsetHz float64
	SampleOffsetPPM float64
}

// Service describes one service in the current multiplex.
type Service struct {
	ID                 uint32
	Label              string
	IsAudio            bool
	BitrateKbps        int
	AudioCoding        string
	AudioMode          string
	ProtectionMode     string // "UEP" or "EEP"
	ProtectionPercent  *int
	Text               *string
	Language           *string
	ProgramType        *string
	Country            *string
}

// MediaObject is a program-guide / Journaline / slideshow payload.
type MediaObject struct {
	TransportID uint32
	Version     uint32
	MIME        string
	Body        []byte
	Name        string
	Description string
}

// Parameters is the full set of shared receiver state. All reads/writes
// must go through the accessor methods, which hold mu for the minimum
// possible critical section.
type Parameters struct {
	mu sync.RWMutex

	audio    AudioParameters
	status   ReceiveStatus
	drmTime  DRMTime
	signal   SignalMetrics
	services []Service

	// registry maps (appType, transportID) -> last pushed version, so that
	// each distinct media-object body version is emitted exactly once.
	registry map[registryKey]uint32
}

type registryKey struct {
	appType     string
	transportID uint32
}

// New returns an empty, ready-to-use Parameters.
func New() *Parameters {
	return &Parameters{registry: make(map[registryKey]uint32)}
}

// SetAudio replaces the current AudioParameters.
func (p *Parameters) SetAudio(a AudioParameters) {
	p.mu.Lock()
	p.audio = a
	p.mu.Unlock()
}

// Audio returns a copy of the current AudioParameters.
func (p *Parameters) Audio() AudioParameters {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.audio
}

// UpdateStatus applies fn to a copy of the current ReceiveStatus and stores
// the result, under the mutex.
func (p *Parameters) UpdateStatus(fn func(*ReceiveStatus)) {
	p.mu.Lock()
	fn(&p.status)
	p.mu.Unlock()
}

// Status returns a copy of the current ReceiveStatus.
func (p *Parameters) Status() ReceiveStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// SetDRMTime replaces the current DRMTime.
func (p *Parameters) SetDRMTime(t DRMTime) {
	p.mu.Lock()
	p.drmTime = t
	p.mu.Unlock()
}

// DRMTime returns a copy of the current DRMTime.
func (p *Parameters) DRMTime() DRMTime {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.drmTime
}

// SetSignal replaces the current SignalMetrics.
func (p *Parameters) SetSignal(s SignalMetrics) {
	p.mu.Lock()
	p.signal = s
	p.mu.Unlock()
}

// Signal returns a copy of the current SignalMetrics.
func (p *Parameters) Signal() SignalMetrics {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.signal
}

// SetServices replaces the current service list.
func (p *Parameters) SetServices(s []Service) {
	p.mu.Lock()
	p.services = append([]Service(nil), s...)
	p.mu.Unlock()
}

// Services returns a copy of the current service list.
func (p *Parameters) Services() []Service {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Service(nil), p.services...)
}

// PushMediaObject records obj's version against its (appType, transportID)
// key and reports whether this is a new version that should be emitted
// (true) or a repeat that should be suppressed (false).
func (p *Parameters) PushMediaObject(appType string, obj MediaObject) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := registryKey{appType: appType, transportID: obj.TransportID}
	last, ok := p.registry[key]
	if ok && last == obj.Version {
		return false
	}
	p.registry[key] = obj.Version
	return true
}

// BandwidthKHz maps a DRM bandwidth index to its kHz value. Any index
// outside 0-5 maps to 0.0.
func BandwidthKHz(index int) float64 {
	switch index {
	case 0:
		return 4.5
	case 1:
		return 5
	case 2:
		return 9
	case 3:
		return 10
	case 4:
		return 18
	case 5:
		return 20
	default:
		return 0
	}
}
