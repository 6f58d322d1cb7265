// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package frame

import (
	"fmt"

	"github.com/DataDog/packet-filter/pkg/util/nstime"
)

// RecordKind is the kind of a capture file record
type RecordKind int

// Record kinds
const (
	KindPacket RecordKind = iota
	KindFTSpecificEvent
	KindFTSpecificReport
	KindSyscall
	KindSystemdJournal
	KindCustomBlock
)

var kindNames = map[RecordKind]string{
	KindPacket:           "packet",
	KindFTSpecificEvent:  "ft_specific_event",
	KindFTSpecificReport: "ft_specific_report",
	KindSyscall:          "syscall",
	KindSystemdJournal:   "systemd_journal",
	KindCustomBlock:      "custom_block",
}

func (k RecordKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("RecordKind(%d)", int(k))
}

// ParseRecordKind returns the kind with the given name
func ParseRecordKind(s string) (RecordKind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindPacket, fmt.Errorf("unknown record kind `%s`", s)
}

// PacketHeader is the header of a packet record
type PacketHeader struct {
	Len    uint32
	CapLen uint32
}

// FTSpecificHeader is the header of a file type specific event or report
type FTSpecificHeader struct {
	RecordLen uint32
}

// SyscallHeader is the header of a system call event
type SyscallHeader struct {
	EventLen     uint32
	EventFileLen uint32
}

// SystemdJournalHeader is the header of a journal export entry
type SystemdJournalHeader struct {
	RecordLen uint32
}

// CustomBlockHeader is the header of a custom block
type CustomBlockHeader struct {
	Length uint32
}

// SourceRecord is the metadata of one record as read from the capture file.
// Only the header matching Kind is meaningful.
type SourceRecord struct {
	Kind        RecordKind
	HasTS       bool
	TSPrecision int
	TS          nstime.Time
	Comments    []string

	Packet         PacketHeader
	FTSpecific     FTSpecificHeader
	Syscall        SyscallHeader
	SystemdJournal SystemdJournalHeader
	CustomBlock    CustomBlockHeader
}

// lengths returns the on-wire and captured length of the record
func (rec *SourceRecord) lengths() (pktLen, capLen uint32) {
	switch rec.Kind {
	case KindPacket:
		return rec.Packet.Len, rec.Packet.CapLen
	case KindFTSpecificEvent, KindFTSpecificReport:
		return rec.FTSpecific.RecordLen, rec.FTSpecific.RecordLen
	case KindSyscall:
		return rec.Syscall.EventLen, rec.Syscall.EventFileLen
	case KindSystemdJournal:
		return rec.SystemdJournal.RecordLen, rec.SystemdJournal.RecordLen
	case KindCustomBlock:
		return rec.CustomBlock.Length, rec.CustomBlock.Length
	}
	panic(&ContractError{Op: "init", Reason: fmt.Sprintf("unknown record kind %d", int(rec.Kind))})
}
