// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package ingest reads capture files into frame tables and runs the
// dissectors over them
package ingest

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"io"
	"os"

	"github.com/google/gopacket/pcapgo"
	"github.com/pkg/errors"

	"github.com/DataDog/packet-filter/pkg/frame"
	"github.com/DataDog/packet-filter/pkg/util/nstime"
)

// Packet is one record read from a capture
type Packet struct {
	Record frame.SourceRecord
	Data   []byte
	Offset int64
}

// Source yields the records of a capture. Next returns io.EOF after the last
// record.
type Source interface {
	Next() (*Packet, error)
	Close() error
}

const (
	pcapFileHeaderLen   = 24
	pcapRecordHeaderLen = 16

	magicNanoseconds = 0xa1b23c4d
)

// PcapSource reads a pcap capture file
type PcapSource struct {
	f         *os.File
	r         *pcapgo.Reader
	offset    int64
	precision int
}

// OpenPcap opens a pcap capture file
func OpenPcap(path string) (*PcapSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening capture")
	}
	src, err := NewPcapSource(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	src.f = f
	return src, nil
}

// NewPcapSource reads a pcap capture from r
func NewPcapSource(r io.Reader) (*PcapSource, error) {
	br := bufio.NewReader(r)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		br = bufio.NewReader(gz)
	}

	precision := 6
	// the file magic tells microsecond and nanosecond captures apart, in
	// either byte order
	if magic, err := br.Peek(4); err == nil &&
		(binary.LittleEndian.Uint32(magic) == magicNanoseconds || binary.BigEndian.Uint32(magic) == magicNanoseconds) {
		precision = 9
	}
	pr, err := pcapgo.NewReader(br)
	if err != nil {
		return nil, err
	}
	return &PcapSource{r: pr, offset: pcapFileHeaderLen, precision: precision}, nil
}

// Next returns the next packet
func (s *PcapSource) Next() (*Packet, error) {
	data, ci, err := s.r.ReadPacketData()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, errors.Wrapf(err, "record at offset %d", s.offset)
	}

	p := &Packet{
		Record: frame.SourceRecord{
			Kind:        frame.KindPacket,
			HasTS:       true,
			TSPrecision: s.precision,
			TS:          nstime.FromTime(ci.Timestamp),
			Packet: frame.PacketHeader{
				Len:    uint32(ci.Length),
				CapLen: uint32(ci.CaptureLength),
			},
		},
		Data:   data,
		Offset: s.offset,
	}
	s.offset += pcapRecordHeaderLen + int64(ci.CaptureLength)
	return p, nil
}

// Close closes the underlying file, if the source opened it
func (s *PcapSource) Close() error {
	if s.f == nil {
		return nil
	}
	return s.f.Close()
}
