// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package dissect

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ErrOutOfBounds is returned when reading past the captured data
var ErrOutOfBounds = errors.New("read past the end of the captured data")

// Encoding is the byte order of a multi byte value
type Encoding int

// Encodings
const (
	EncNA Encoding = iota
	BigEndian
	LittleEndian
)

func (e Encoding) order() binary.ByteOrder {
	if e == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// Tvb is a read only view over the bytes of a packet. The reported length
// is the length the packet had on the wire, which may exceed the bytes that
// were captured.
type Tvb struct {
	data     []byte
	reported int
}

// NewTvb returns a view over data. A reported length smaller than the
// captured data is raised to it.
func NewTvb(data []byte, reported int) *Tvb {
	if reported < len(data) {
		reported = len(data)
	}
	return &Tvb{data: data, reported: reported}
}

// CapturedLength returns the number of bytes available
func (t *Tvb) CapturedLength() int {
	return len(t.data)
}

// ReportedLength returns the length of the packet on the wire
func (t *Tvb) ReportedLength() int {
	return t.reported
}

// Bytes returns length bytes at offset. A negative length runs to the end
// of the captured data.
func (t *Tvb) Bytes(offset, length int) ([]byte, error) {
	if length < 0 {
		length = len(t.data) - offset
	}
	if offset < 0 || length < 0 || offset+length > len(t.data) {
		return nil, errors.Wrapf(ErrOutOfBounds, "%d bytes at offset %d of %d", length, offset, len(t.data))
	}
	return t.data[offset : offset+length], nil
}

// Uint8 reads one byte
func (t *Tvb) Uint8(offset int) (uint8, error) {
	b, err := t.Bytes(offset, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Uint16 reads a 16 bit integer
func (t *Tvb) Uint16(offset int, enc Encoding) (uint16, error) {
	b, err := t.Bytes(offset, 2)
	if err != nil {
		return 0, err
	}
	return enc.order().Uint16(b), nil
}

// Uint32 reads a 32 bit integer
func (t *Tvb) Uint32(offset int, enc Encoding) (uint32, error) {
	b, err := t.Bytes(offset, 4)
	if err != nil {
		return 0, err
	}
	return enc.order().Uint32(b), nil
}

// uint reads an integer of 1 to 4 bytes
func (t *Tvb) uint(offset, length int, enc Encoding) (uint32, error) {
	switch length {
	case 1:
		v, err := t.Uint8(offset)
		return uint32(v), err
	case 2:
		v, err := t.Uint16(offset, enc)
		return uint32(v), err
	case 4:
		return t.Uint32(offset, enc)
	}
	b, err := t.Bytes(offset, length)
	if err != nil {
		return 0, err
	}
	if length == 0 {
		return 0, nil
	}
	if length > 4 {
		return 0, errors.Errorf("cannot read a %d bytes integer", length)
	}
	var v uint32
	for i := range b {
		if enc == LittleEndian {
			v |= uint32(b[i]) << (8 * i)
		} else {
			v = v<<8 | uint32(b[i])
		}
	}
	return v, nil
}
