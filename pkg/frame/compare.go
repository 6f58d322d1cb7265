// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package frame

import (
	"fmt"

	"github.com/DataDog/packet-filter/pkg/column"
	"github.com/DataDog/packet-filter/pkg/timestamp"
	"github.com/DataDog/packet-filter/pkg/util/nstime"
)

// UnreachableError is panicked with when frames are compared on a column
// that is not a frame metadata column
type UnreachableError struct {
	Column column.ID
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("frame: cannot compare frames on column %s", e.Column)
}

func compareNum(a, b *Record) int {
	switch {
	case a.Num < b.Num:
		return -1
	case a.Num > b.Num:
		return 1
	}
	return 0
}

func compareUint(x, y uint32, a, b *Record) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return compareNum(a, b)
}

// compareTS orders two times of a and b. A reference frame comes before
// any other frame whatever its time; ties fall back on the frame number.
func compareTS(t1, t2 nstime.Time, a, b *Record) int {
	aRef, bRef := a.IsRefTime(), b.IsRefTime()
	switch {
	case aRef && !bRef:
		return -1
	case !aRef && bRef:
		return 1
	}
	if c := nstime.Cmp(t1, t2); c != 0 {
		return c
	}
	return compareNum(a, b)
}

func compareDelta(lookup TimestampLookup, a, b *Record, prevA, prevB uint32) int {
	return compareTS(DeltaAbsTime(lookup, a, prevA), DeltaAbsTime(lookup, b, prevB), a, b)
}

func compareDeltaCaptured(lookup TimestampLookup, a, b *Record) int {
	return compareDelta(lookup, a, b, a.Num-1, b.Num-1)
}

func compareDeltaRef(lookup TimestampLookup, a, b *Record) int {
	return compareDelta(lookup, a, b, a.FrameRefNum, b.FrameRefNum)
}

func compareDeltaDisplayed(lookup TimestampLookup, a, b *Record) int {
	return compareDelta(lookup, a, b, a.PrevDisNum, b.PrevDisNum)
}

// Compare orders a and b on the given column using the current time
// display format for the time column
func Compare(lookup TimestampLookup, a, b *Record, col column.ID) int {
	return CompareWithType(lookup, a, b, col, timestamp.GetType())
}

// CompareWithType orders a and b on the given column. It returns a negative
// number when a sorts first, a positive one when b does and 0 when they are
// equal. lookup resolves the time stamps of the frames the deltas are
// computed against. Comparing on a column that does not come from the frame
// metadata panics.
func CompareWithType(lookup TimestampLookup, a, b *Record, col column.ID, ts timestamp.Type) int {
	switch col {
	case column.Number:
		return compareNum(a, b)

	case column.ClsTime:
		switch ts {
		case timestamp.Absolute, timestamp.AbsoluteWithYMD, timestamp.AbsoluteWithYDOY,
			timestamp.UTC, timestamp.UTCWithYMD, timestamp.UTCWithYDOY, timestamp.Epoch:
			return compareTS(a.AbsTS, b.AbsTS, a, b)
		case timestamp.Relative:
			return compareDeltaRef(lookup, a, b)
		case timestamp.Delta:
			return compareDeltaCaptured(lookup, a, b)
		case timestamp.DeltaDisplayed:
			return compareDeltaDisplayed(lookup, a, b)
		}
		return 0

	case column.AbsTime, column.AbsYMDTime, column.AbsYDOYTime,
		column.UTCTime, column.UTCYMDTime, column.UTCYDOYTime:
		return compareTS(a.AbsTS, b.AbsTS, a, b)

	case column.RelTime:
		return compareDeltaRef(lookup, a, b)

	case column.DeltaTime:
		return compareDeltaCaptured(lookup, a, b)

	case column.DeltaTimeDisplayed:
		return compareDeltaDisplayed(lookup, a, b)

	case column.PacketLength:
		return compareUint(a.PktLen, b.PktLen, a, b)

	case column.CumulativeBytes:
		return compareUint(a.CumBytes, b.CumBytes, a, b)
	}

	panic(&UnreachableError{Column: col})
}
