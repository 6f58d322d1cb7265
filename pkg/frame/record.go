// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package frame holds the per frame metadata populated while reading a
// capture and the orderings used by the packet list
package frame

import (
	"fmt"

	"github.com/DataDog/packet-filter/pkg/util/nstime"
)

// Flags is the set of single bit frame states
type Flags uint16

// Frame flags
const (
	FlagVisited Flags = 1 << iota
	FlagMarked
	FlagIgnored
	FlagRefTime
	FlagPassedDFilter
	FlagDependentOfDisplayed
	FlagHasPhdrComment
	FlagHasUserComment
	FlagNeedColorize
)

// Has returns whether every flag of mask is set
func (f Flags) Has(mask Flags) bool {
	return f&mask == mask
}

// CharEncoding is the character encoding used to show the frame bytes
type CharEncoding uint8

// Character encodings
const (
	EncodingASCII CharEncoding = iota
	EncodingEBCDIC
)

// ColorRule is a coloring rule matched by a frame. Rules belong to the
// coloring configuration, frames only reference them.
type ColorRule struct {
	Name   string
	Filter string
}

// MaxTSPrecision is the largest precision that fits the 4 bits kept per frame
const MaxTSPrecision = 0xF

// ContractError is panicked with when a frame is used against its contract
type ContractError struct {
	Op     string
	Reason string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("frame: %s: %s", e.Op, e.Reason)
}

// Record is the metadata of one frame
type Record struct {
	Num         uint32
	Kind        RecordKind
	FileOffset  int64
	AbsTS       nstime.Time
	ShiftOffset nstime.Time
	TSPrecision uint8
	HasTS       bool

	PktLen   uint32
	CapLen   uint32
	CumBytes uint32

	Flags    Flags
	Encoding CharEncoding

	// numbers of the reference frame and of the previous displayed frame,
	// 0 when the frame is its own reference or when nothing was displayed
	FrameRefNum uint32
	PrevDisNum  uint32

	ColorFilter *ColorRule

	// number of times the frame was dissected in the current pass
	SubNum uint32

	protoData []ProtoData
}

// Init populates the record from the metadata of the num-th record of the
// capture. cumBytes is the running byte count before this record.
func (r *Record) Init(num uint32, rec *SourceRecord, offset int64, cumBytes uint32) {
	if rec.TSPrecision < 0 || rec.TSPrecision > MaxTSPrecision {
		panic(&ContractError{Op: "init", Reason: fmt.Sprintf("time stamp precision %d does not fit 4 bits", rec.TSPrecision)})
	}
	pktLen, capLen := rec.lengths()

	*r = Record{
		Num:         num,
		Kind:        rec.Kind,
		FileOffset:  offset,
		AbsTS:       rec.TS,
		TSPrecision: uint8(rec.TSPrecision),
		HasTS:       rec.HasTS,
		PktLen:      pktLen,
		CapLen:      capLen,
		CumBytes:    cumBytes + pktLen,
		Encoding:    EncodingASCII,
	}
	if len(rec.Comments) > 0 {
		r.Flags |= FlagHasPhdrComment
	}
}

// IsRefTime returns whether the frame is a time reference
func (r *Record) IsRefTime() bool {
	return r.Flags.Has(FlagRefTime)
}

// SetFlag sets or clears flags
func (r *Record) SetFlag(mask Flags, on bool) {
	if on {
		r.Flags |= mask
	} else {
		r.Flags &^= mask
	}
}

// SetBeforeDissect resolves the reference frame of the record before it is
// dissected and returns the reference frame to use for the next records.
// ref is the current reference frame, nil when none was seen yet, prevDis
// the last displayed frame. elapsed is raised to the time elapsed since the
// reference frame when larger; time going backwards never lowers it.
func (r *Record) SetBeforeDissect(elapsed *nstime.Time, ref *Record, prevDis *Record) *Record {
	if ref == nil || r.IsRefTime() {
		ref = r
	}

	relTS := nstime.Delta(r.AbsTS, ref.AbsTS)
	if elapsed.Before(relTS) {
		*elapsed = relTS
	}

	r.FrameRefNum = 0
	if ref != r {
		r.FrameRefNum = ref.Num
	}
	r.PrevDisNum = 0
	if prevDis != nil {
		r.PrevDisNum = prevDis.Num
	}
	return ref
}

// SetAfterDissect accounts the record in the running byte count of the
// displayed frames and returns the new count. A reference frame restarts
// the count.
func (r *Record) SetAfterDissect(cumBytes uint32) uint32 {
	if r.IsRefTime() {
		cumBytes = r.PktLen
	} else {
		cumBytes += r.PktLen
	}
	r.CumBytes = cumBytes
	return cumBytes
}

// Reset prepares the record for a new dissection pass
func (r *Record) Reset() {
	r.Flags &^= FlagVisited
	r.SubNum = 0
	r.protoData = nil
}

// Destroy releases the data attached to the record
func (r *Record) Destroy() {
	r.protoData = nil
}

// TimestampLookup returns the absolute time stamp of a frame by number
type TimestampLookup interface {
	Timestamp(num uint32) (nstime.Time, bool)
}

// DeltaAbsTime returns the time elapsed between the frame numbered prevNum
// and r. It is zero when prevNum is 0 or unknown: nothing came before.
func DeltaAbsTime(lookup TimestampLookup, r *Record, prevNum uint32) nstime.Time {
	if prevNum == 0 {
		return nstime.Time{}
	}
	prevTS, ok := lookup.Timestamp(prevNum)
	if !ok {
		return nstime.Time{}
	}
	return nstime.Delta(r.AbsTS, prevTS)
}
