// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package ingest

import (
	"encoding/hex"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/DataDog/packet-filter/pkg/frame"
	"github.com/DataDog/packet-filter/pkg/util/nstime"
)

// yamlRecord is one record of a YAML capture description:
//
//	frames:
//	  - kind: packet
//	    time: "1700000000.000125"
//	    len: 60
//	    caplen: 60
//	    precision: 6
//	    data: 00020000...
//
// len is the on-wire length of packets and the length of the other kinds,
// caplen the captured length of packets and the file length of syscall
// events. caplen defaults to len.
type yamlRecord struct {
	Kind      string   `yaml:"kind"`
	Time      string   `yaml:"time"`
	Len       uint32   `yaml:"len"`
	CapLen    *uint32  `yaml:"caplen"`
	Precision *int     `yaml:"precision"`
	Data      string   `yaml:"data"`
	Comments  []string `yaml:"comments"`
}

type yamlCapture struct {
	Frames []yamlRecord `yaml:"frames"`
}

// YAMLSource replays a capture described in YAML
type YAMLSource struct {
	packets []*Packet
	next    int
}

// OpenYAML reads a YAML capture description
func OpenYAML(path string) (*YAMLSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening capture")
	}
	defer f.Close()

	src, err := NewYAMLSource(f)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return src, nil
}

// NewYAMLSource reads a YAML capture description from r. Every invalid
// record is reported.
func NewYAMLSource(r io.Reader) (*YAMLSource, error) {
	var capture yamlCapture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&capture); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "decoding YAML")
	}

	var (
		src  = &YAMLSource{}
		errs *multierror.Error
	)
	for i, yr := range capture.Frames {
		p, err := yr.packet()
		if err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "frame %d", i+1))
			continue
		}
		src.packets = append(src.packets, p)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return src, nil
}

func (yr *yamlRecord) packet() (*Packet, error) {
	kind := frame.KindPacket
	if yr.Kind != "" {
		var err error
		if kind, err = frame.ParseRecordKind(yr.Kind); err != nil {
			return nil, err
		}
	}

	p := &Packet{Record: frame.SourceRecord{Kind: kind, Comments: yr.Comments}}
	if yr.Time != "" {
		ts, err := nstime.Parse(yr.Time)
		if err != nil {
			return nil, err
		}
		p.Record.TS = ts
		p.Record.HasTS = true
	}
	p.Record.TSPrecision = 9
	if yr.Precision != nil {
		if *yr.Precision < 0 || *yr.Precision > frame.MaxTSPrecision {
			return nil, errors.Errorf("time stamp precision %d out of range [0, %d]", *yr.Precision, frame.MaxTSPrecision)
		}
		p.Record.TSPrecision = *yr.Precision
	}

	if yr.Data != "" {
		data, err := hex.DecodeString(yr.Data)
		if err != nil {
			return nil, errors.Wrap(err, "decoding data")
		}
		p.Data = data
	}

	capLen := yr.Len
	if yr.CapLen != nil {
		capLen = *yr.CapLen
	}
	if kind == frame.KindPacket {
		if capLen > yr.Len {
			return nil, errors.Errorf("captured length %d exceeds length %d", capLen, yr.Len)
		}
		if p.Data != nil && uint32(len(p.Data)) != capLen {
			return nil, errors.Errorf("%d data bytes for a captured length of %d", len(p.Data), capLen)
		}
	}

	switch kind {
	case frame.KindPacket:
		p.Record.Packet = frame.PacketHeader{Len: yr.Len, CapLen: capLen}
	case frame.KindFTSpecificEvent, frame.KindFTSpecificReport:
		p.Record.FTSpecific = frame.FTSpecificHeader{RecordLen: yr.Len}
	case frame.KindSyscall:
		p.Record.Syscall = frame.SyscallHeader{EventLen: yr.Len, EventFileLen: capLen}
	case frame.KindSystemdJournal:
		p.Record.SystemdJournal = frame.SystemdJournalHeader{RecordLen: yr.Len}
	case frame.KindCustomBlock:
		p.Record.CustomBlock = frame.CustomBlockHeader{Length: yr.Len}
	}
	return p, nil
}

// Next returns the next record
func (s *YAMLSource) Next() (*Packet, error) {
	if s.next >= len(s.packets) {
		return nil, io.EOF
	}
	p := s.packets[s.next]
	s.next++
	return p, nil
}

// Close does nothing, the description is read when opened
func (s *YAMLSource) Close() error {
	return nil
}
