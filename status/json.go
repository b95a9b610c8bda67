/*
NAME
  json.go

DESCRIPTION
  json.go defines the status broadcast JSON schema and snapshot-building
  logic: DRM time, traffic lights, signal/frequency metrics, mode/coding
  (when acquired), the service list, and at-most-once media-content pushes.

AUTHORS
  DRM Core Contributors <drmcore@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package status

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/drmgo/receiver/params"
)

type drmTimeJSON struct {
	Valid          bool  `json:"valid"`
	Year           int   `json:"year"`
	Month          int   `json:"month"`
	Day            int   `json:"day"`
	Hour           int   `json:"hour"`
	Min            int   `json:"min"`
	Timestamp      int64 `json:"timestamp"`
	HasLocalOffset bool  `json:"has_local_offset"`
	OffsetMin      *int  `json:"offset_min,omitempty"`
}

type statusJSON struct {
	IO    int `json:"io"`
	Time  int `json:"time"`
	Frame int `json:"frame"`
	FAC   int `json:"fac"`
	SDC   int `json:"sdc"`
	MSC   int `json:"msc"`
}

type signalJSON struct {
	IFLevelDB  float64  `json:"if_level_db"`
	SNRDB      float64  `json:"snr_db"`
	WMERDB     *float64 `json:"wmer_db,omitempty"`
	MERDB      *float64 `json:"mer_db,omitempty"`
	DopplerHz  *float64 `json:"doppler_hz,omitempty"`
	DelayMinMS *float64 `json:"delay_min_ms,omitempty"`
	DelayMaxMS *float64 `json:"delay_max_ms,omitempty"`
}

type frequencyJSON struct {
	DCOffsetHz      float64 `json:"dc_offset_hz"`
	SampleOffsetHz  float64 `json:"sample_offset_hz"`
	SampleOffsetPPM float64 `json:"sample_offset_ppm"`
}

type modeJSON struct {
	Robustness   string  `json:"robustness"`
	Bandwidth    int     `json:"bandwidth"`
	BandwidthKHz float64 `json:"bandwidth_khz"`
	Interleaver  string  `json:"interleaver"`
}

type codingJSON struct {
	SDCQAM      string `json:"sdc_qam"`
	MSCQAM      string `json:"msc_qam"`
	ProtectionA int    `json:"protection_a"`
	ProtectionB int    `json:"protection_b"`
}

type servicesJSON struct {
	Audio int `json:"audio"`
	Data  int `json:"data"`
}

type serviceJSON struct {
	ID                string  `json:"id"`
	Label             string  `json:"label"`
	IsAudio           bool    `json:"is_audio"`
	BitrateKbps       int     `json:"bitrate_kbps"`
	AudioCoding       *string `json:"audio_coding,omitempty"`
	AudioMode         *string `json:"audio_mode,omitempty"`
	ProtectionMode    *string `json:"protection_mode,omitempty"`
	ProtectionPercent *int    `json:"protection_percent,omitempty"`
	Text              *string `json:"text,omitempty"`
	Language          *string `json:"language,omitempty"`
	ProgramType       *string `json:"program_type,omitempty"`
	Country           *string `json:"country,omitempty"`
}

type mediaJSON struct {
	ProgramGuide bool `json:"program_guide"`
	Journaline   bool `json:"journaline"`
	Slideshow    bool `json:"slideshow"`
}

type mediaObjectJSON struct {
	Name string `json:"name"`
	MIME string `json:"mime"`
	Size int    `json:"size"`
	Body string `json:"body"` // base64.
}

type mediaContentJSON struct {
	ProgramGuide *mediaObjectJSON `json:"program_guide,omitempty"`
	Journaline   *mediaObjectJSON `json:"journaline,omitempty"`
	Slideshow    *mediaObjectJSON `json:"slideshow,omitempty"`
}

type snapshotJSON struct {
	Timestamp    int64             `json:"timestamp"`
	DRMTime      drmTimeJSON       `json:"drm_time"`
	Status       statusJSON        `json:"status"`
	Signal       signalJSON        `json:"signal"`
	Frequency    frequencyJSON     `json:"frequency"`
	Mode         *modeJSON         `json:"mode,omitempty"`
	Coding       *codingJSON       `json:"coding,omitempty"`
	Services     *servicesJSON     `json:"services,omitempty"`
	ServiceList  []serviceJSON     `json:"service_list,omitempty"`
	Media        mediaJSON         `json:"media"`
	MediaContent *mediaContentJSON `json:"media_content,omitempty"`
}

// snapshot builds the current JSON snapshot. Each group of parameters
// (status, DRM time, signal, services, ...) is read through its own
// Parameters accessor, which takes and releases the parameters mutex on
// its own; the mutex is not held across the whole snapshot, so groups in
// one snapshot may come from different updates, and consecutive snapshots
// may not come from the same super-frame.
func (b *Broadcast) snapshot() snapshotJSON {
	st := b.params.Status()
	drm := b.params.DRMTime()
	sig := b.params.Signal()

	var offsetMin *int
	if drm.HasLocalOffset {
		v := drm.OffsetMin
		offsetMin = &v
	}

	snap := snapshotJSON{
		Timestamp: time.Now().Unix(),
		DRMTime: drmTimeJSON{
			Valid:          drm.Valid,
			Year:           drm.Year,
			Month:          drm.Month,
			Day:            drm.Day,
			Hour:           drm.Hour,
			Min:            drm.Min,
			Timestamp:      drm.Timestamp,
			HasLocalOffset: drm.HasLocalOffset,
			OffsetMin:      offsetMin,
		},
		Status: statusJSON{
			IO:    st.InterfaceI.Int(),
			Time:  st.TSync.Int(),
			Frame: st.FSync.Int(),
			FAC:   st.FAC.Int(),
			SDC:   st.SDC.Int(),
			MSC:   st.SLAudio.Int(),
		},
		Signal: signalJSON{
			IFLevelDB:  sig.IFLevelDB,
			SNRDB:      sig.SNRDB,
			WMERDB:     sig.WMERDB,
			MERDB:      sig.MERDB,
			DopplerHz:  sig.DopplerHz,
			DelayMinMS: sig.DelayMinMS,
			DelayMaxMS: sig.DelayMaxMS,
		},
		Frequency: frequencyJSON{
			DCOffsetHz:      sig.DCOffsetHz,
			SampleOffsetHz:  sig.SampleOffsetHz,
			SampleOffsetPPM: sig.SampleOffsetPPM,
		},
	}

	b.acqMu.RLock()
	acq, mode, coding := b.acq, b.mode, b.coding
	b.acqMu.RUnlock()

	if acq == WithSignal {
		snap.Mode = &modeJSON{
			Robustness:   mode.Robustness,
			Bandwidth:    mode.Bandwidth,
			BandwidthKHz: params.BandwidthKHz(mode.Bandwidth),
			Interleaver:  mode.Interleaver,
		}
		snap.Coding = &codingJSON{
			SDCQAM:      coding.SDCQAM,
			MSCQAM:      coding.MSCQAM,
			ProtectionA: coding.ProtectionA,
			ProtectionB: coding.ProtectionB,
		}

		services := b.params.Services()
		audioCount, dataCount := 0, 0
		list := make([]serviceJSON, 0, len(services))
		for _, s := range services {
			if s.IsAudio {
				audioCount++
			} else {
				dataCount++
			}
			list = append(list, serviceToJSON(s))
		}
		snap.Services = &servicesJSON{Audio: audioCount, Data: dataCount}
		snap.ServiceList = list
	}

	snap.MediaContent, snap.Media = b.drainMediaContent()

	return snap
}

func serviceToJSON(s params.Service) serviceJSON {
	out := serviceJSON{
		ID:          fmt.Sprintf("%x", s.ID),
		Label:       s.Label,
		IsAudio:     s.IsAudio,
		BitrateKbps: s.BitrateKbps,
	}
	if s.AudioCoding != "" {
		v := s.AudioCoding
		out.AudioCoding = &v
	}
	if s.AudioMode != "" {
		v := s.AudioMode
		out.AudioMode = &v
	}
	if s.ProtectionMode != "" {
		v := s.ProtectionMode
		out.ProtectionMode = &v
	}
	out.ProtectionPercent = s.ProtectionPercent
	out.Text = s.Text
	out.Language = s.Language
	out.ProgramType = s.ProgramType
	out.Country = s.Country
	return out
}

// drainMediaContent pops the oldest queued media-object push for each
// appType, returning the media_content block (nil if nothing new) and the
// always-present media-availability booleans. Only the front of each
// appType's queue is popped per call: if multiple distinct transport-IDs
// were queued for the same appType within one tick, the rest remain
// queued and drain on subsequent ticks rather than being lost.
func (b *Broadcast) drainMediaContent() (*mediaContentJSON, mediaJSON) {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()

	avail := mediaJSON{}
	var content *mediaContentJSON

	toObj := func(o params.MediaObject) *mediaObjectJSON {
		return &mediaObjectJSON{
			Name: o.Name,
			MIME: o.MIME,
			Size: len(o.Body),
			Body: base64.StdEncoding.EncodeToString(o.Body),
		}
	}

	pop := func(appType string) (params.MediaObject, bool) {
		q := b.pending[appType]
		if len(q) == 0 {
			return params.MediaObject{}, false
		}
		o := q[0]
		if len(q) == 1 {
			delete(b.pending, appType)
		} else {
			b.pending[appType] = q[1:]
		}
		return o, true
	}

	if o, ok := pop("program_guide"); ok {
		avail.ProgramGuide = true
		if content == nil {
			content = &mediaContentJSON{}
		}
		content.ProgramGuide = toObj(o)
	}
	if o, ok := pop("journaline"); ok {
		avail.Journaline = true
		if content == nil {
			content = &mediaContentJSON{}
		}
		content.Journaline = toObj(o)
	}
	if o, ok := pop("slideshow"); ok {
		avail.Slideshow = true
		if content == nil {
			content = &mediaContentJSON{}
		}
		content.Slideshow = toObj(o)
	}

	return content, avail
}

// encodeSnapshot marshals snap to a single line of UTF-8 JSON terminated
// by \n. HTML-escaping is disabled so that multi-byte UTF-8 sequences in
// labels survive verbatim; the structural escapes (", \, control chars)
// are applied. encoding/json still writes U+2028 and U+2029 as six-byte
// escape sequences and replaces invalid UTF-8 with U+FFFD, so not every byte >= 0x20
// is passed through unchanged. This is the
// correct behavior the historical reference implementation's "escape
// anything > 126" pass got wrong.
func encodeSnapshot(snap snapshotJSON) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(snap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
