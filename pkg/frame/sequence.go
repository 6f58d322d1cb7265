// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package frame

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/DataDog/packet-filter/pkg/column"
	"github.com/DataDog/packet-filter/pkg/timestamp"
	"github.com/DataDog/packet-filter/pkg/util/log"
	"github.com/DataDog/packet-filter/pkg/util/nstime"
)

// Sequence is the table of the frames of one capture, numbered from 1 in
// reading order. It is owned by a single capture session.
type Sequence struct {
	records []*Record

	// byte count of all the frames read so far
	readBytes uint32
	elapsed   nstime.Time
	displayed int
}

// NewSequence returns an empty frame table
func NewSequence() *Sequence {
	return &Sequence{}
}

// Append adds the next record of the capture and returns its metadata
func (s *Sequence) Append(rec *SourceRecord, offset int64) *Record {
	r := &Record{}
	r.Init(uint32(len(s.records)+1), rec, offset, s.readBytes)
	s.readBytes = r.CumBytes
	s.records = append(s.records, r)
	return r
}

// Len returns the number of frames
func (s *Sequence) Len() int {
	return len(s.records)
}

// Find returns the frame with the given number, nil if there is none
func (s *Sequence) Find(num uint32) *Record {
	if num == 0 || int(num) > len(s.records) {
		return nil
	}
	return s.records[num-1]
}

// Timestamp returns the absolute time stamp of a frame
func (s *Sequence) Timestamp(num uint32) (nstime.Time, bool) {
	r := s.Find(num)
	if r == nil {
		return nstime.Time{}, false
	}
	return r.AbsTS, true
}

// Records returns the frames in reading order
func (s *Sequence) Records() []*Record {
	return slices.Clone(s.records)
}

// Elapsed returns the largest time elapsed since a reference frame seen
// during the last rescan
func (s *Sequence) Elapsed() nstime.Time {
	return s.elapsed
}

// Displayed returns the number of frames displayed by the last rescan
func (s *Sequence) Displayed() int {
	return s.displayed
}

// SetRefTime marks or unmarks a frame as time reference. Rescan must be
// called for the change to reach the other frames.
func (s *Sequence) SetRefTime(num uint32, on bool) error {
	r := s.Find(num)
	if r == nil {
		return errors.Errorf("no frame %d in a capture of %d frames", num, len(s.records))
	}
	r.SetFlag(FlagRefTime, on)
	return nil
}

// Rescan runs a new pass over every frame: it resolves reference and
// previously displayed frames and recomputes the byte counts. display
// tells whether a frame passes the display filter, a nil display shows
// every frame. Reference frames are always displayed.
func (s *Sequence) Rescan(display func(*Record) bool) {
	var (
		ref      *Record
		prevDis  *Record
		cumBytes uint32
	)
	s.elapsed = nstime.Time{}
	s.displayed = 0

	for _, r := range s.records {
		r.Reset()
		ref = r.SetBeforeDissect(&s.elapsed, ref, prevDis)
		r.SetFlag(FlagVisited, true)

		passed := display == nil || display(r)
		passed = passed || r.IsRefTime()
		r.SetFlag(FlagPassedDFilter, passed)
		if !passed {
			continue
		}
		cumBytes = r.SetAfterDissect(cumBytes)
		prevDis = r
		s.displayed++
	}
	log.Debugf("rescanned %d frames, %d displayed, %s elapsed", len(s.records), s.displayed, s.elapsed)
}

// Sorted returns the displayed frames ordered on the given column with the
// current time display format
func (s *Sequence) Sorted(col column.ID) ([]*Record, error) {
	if !col.IsFrameSortable() {
		return nil, errors.Errorf("frames cannot be sorted by %s", col)
	}
	ts := timestamp.GetType()

	sorted := make([]*Record, 0, len(s.records))
	for _, r := range s.records {
		if r.Flags.Has(FlagPassedDFilter) || !r.Flags.Has(FlagVisited) {
			sorted = append(sorted, r)
		}
	}
	slices.SortStableFunc(sorted, func(a, b *Record) int {
		return CompareWithType(s, a, b, col, ts)
	})
	return sorted, nil
}

// Destroy releases the data attached to every frame and empties the table
func (s *Sequence) Destroy() {
	for _, r := range s.records {
		r.Destroy()
	}
	s.records = nil
	s.readBytes = 0
	s.elapsed = nstime.Time{}
	s.displayed = 0
}
