/*
NAME
  source.go

DESCRIPTION
  source.go implements FileSource: a reader over the length-prefixed
  super-frame container format consumed directly off the CLI's -i input
  file, one super-frame per read.

AUTHORS
  DRM Core Contributors <drmcore@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package front

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// SuperFrame is one super-frame read off a FileSource: the concatenated
// part-A/part-B payload plus the split point the parser needs.
type SuperFrame struct {
	Payload []byte
	LengthA int
	LengthB int
}

// FileSource reads the on-disk super-frame container: uint32 big-endian
// lengthA, uint32 big-endian lengthB, then lengthA+lengthB payload
// bytes, repeated to EOF.
type FileSource struct {
	r io.Reader
}

// NewFileSource wraps r as a FileSource.
func NewFileSource(r io.Reader) *FileSource {
	return &FileSource{r: r}
}

// Next reads the next super-frame, returning io.EOF when the source is
// exhausted cleanly between records.
func (s *FileSource) Next() (SuperFrame, error) {
	var header [8]byte
	if _, err := io.ReadFull(s.r, header[:]); err != nil {
		if err == io.EOF {
			return SuperFrame{}, io.EOF
		}
		return SuperFrame{}, errors.Wrap(err, "front: short read on super-frame header")
	}

	lengthA := int(binary.BigEndian.Uint32(header[0:4]))
	lengthB := int(binary.BigEndian.Uint32(header[4:8]))
	if lengthA < 0 || lengthB < 0 {
		return SuperFrame{}, errors.New("front: negative length in super-frame header")
	}

	payload := make([]byte, lengthA+lengthB)
	if _, err := io.ReadFull(s.r, payload); err != nil {
		return SuperFrame{}, errors.Wrap(err, "front: short read on super-frame payload")
	}

	return SuperFrame{Payload: payload, LengthA: lengthA, LengthB: lengthB}, nil
}
