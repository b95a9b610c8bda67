/*
NAME
  status.go

DESCRIPTION
  status.go implements the status broadcast service: a background
  goroutine that accepts local byte-stream (Unix domain socket)
  connections and emits one JSON snapshot per client every 500ms.

AUTHORS
  DRM Core Contributors <drmcore@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package status implements the receiver's JSON status broadcast service,
// the primary external observability surface: a local byte-stream socket
// emitting one JSON object per connected client every 500ms.
package status

import (
	"context"
	"net"
	"os"
	"sync"
	"time"

	"github.com/ausocean/utils/logging"

	"github.com/drmgo/receiver/params"
)

// EmitInterval is the period between status snapshots.
const EmitInterval = 500 * time.Millisecond

// AcquisitionState gates whether mode/coding/service fields are emitted.
type AcquisitionState int

const (
	NoSignal AcquisitionState = iota
	WithSignal
)

// ModeInfo is the DRM transmission mode block, only emitted WithSignal.
type ModeInfo struct {
	Robustness  string
	Bandwidth   int
	Interleaver string
}

// CodingInfo is the SDC/MSC QAM and protection-level block, only emitted
// WithSignal.
type CodingInfo struct {
	SDCQAM        string
	MSCQAM        string
	ProtectionA   int
	ProtectionB   int
}

// Broadcast is the status broadcast server.
type Broadcast struct {
	log    logging.Logger
	params *params.Parameters

	socketPath string
	listener   net.Listener

	mu      sync.Mutex
	clients []net.Conn

	acqMu sync.RWMutex
	acq   AcquisitionState
	mode  ModeInfo
	coding CodingInfo

	pendingMu sync.Mutex
	pending   map[string][]params.MediaObject // appType -> queue of objects awaiting emission.
}

// New returns a Broadcast for params p, logging through log. If socketPath
// is empty, a well-known path under os.TempDir() is used.
func New(p *params.Parameters, log logging.Logger, socketPath string) *Broadcast {
	if socketPath == "" {
		socketPath = os.TempDir() + "/drmreceiver.sock"
	}
	return &Broadcast{
		log:        log,
		params:     p,
		socketPath: socketPath,
		pending:    make(map[string][]params.MediaObject),
	}
}

// SetAcquisition updates the acquisition state and, when WithSignal, the
// mode/coding info surfaced in each snapshot.
func (b *Broadcast) SetAcquisition(state AcquisitionState, mode ModeInfo, coding CodingInfo) {
	b.acqMu.Lock()
	b.acq = state
	b.mode = mode
	b.coding = coding
	b.acqMu.Unlock()
}

// QueueMediaObject records a new media-object push to be considered for
// emission on the next snapshot. Only bodies whose version is new for
// (appType, transportID) are ever actually emitted, guaranteeing
// push-at-most-once. Objects are appended to a per-appType queue, not
// overwritten in place, so that two distinct transport-IDs pushed for the
// same appType within one emission tick both eventually drain instead of
// the second silently clobbering the first.
func (b *Broadcast) QueueMediaObject(appType string, obj params.MediaObject) {
	if !b.params.PushMediaObject(appType, obj) {
		return
	}
	b.pendingMu.Lock()
	b.pending[appType] = append(b.pending[appType], obj)
	b.pendingMu.Unlock()
}

// Start removes any stale socket file, listens, and runs the accept and
// broadcast loops until ctx is cancelled.
func (b *Broadcast) Start(ctx context.Context) error {
	_ = os.Remove(b.socketPath)
	l, err := net.Listen("unix", b.socketPath)
	if err != nil {
		return err
	}
	b.listener = l

	go b.acceptLoop(ctx)
	go b.broadcastLoop(ctx)
	return nil
}

// Stop closes all client connections, the listener, and unlinks the
// socket file.
func (b *Broadcast) Stop() {
	if b.listener != nil {
		b.listener.Close()
	}
	b.mu.Lock()
	for _, c := range b.clients {
		c.Close()
	}
	b.clients = nil
	b.mu.Unlock()
	_ = os.Remove(b.socketPath)
}

func (b *Broadcast) acceptLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		conn, err := b.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				if b.log != nil {
					b.log.Warning("status accept failed", "error", err.Error())
				}
				return
			}
		}
		b.mu.Lock()
		b.clients = append(b.clients, conn)
		b.mu.Unlock()
	}
}

func (b *Broadcast) broadcastLoop(ctx context.Context) {
	ticker := time.NewTicker(EmitInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.emit()
		}
	}
}

func (b *Broadcast) emit() {
	snap := b.snapshot()
	line, err := encodeSnapshot(snap)
	if err != nil {
		if b.log != nil {
			b.log.Error("status marshal failed", "error", err.Error())
		}
		return
	}

	b.mu.Lock()
	live := b.clients[:0]
	for _, c := range b.clients {
		if _, err := c.Write(line); err != nil {
			c.Close()
			continue
		}
		live = append(live, c)
	}
	b.clients = live
	b.mu.Unlock()
}
