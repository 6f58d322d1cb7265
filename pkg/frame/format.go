// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package frame

import (
	"time"

	"github.com/DataDog/packet-filter/pkg/timestamp"
	"github.com/DataDog/packet-filter/pkg/util/nstime"
)

// FormatTime renders the time column of r in the display format ts with
// the precision prec. Frames without a time stamp show nothing in the
// absolute formats.
func FormatTime(lookup TimestampLookup, r *Record, ts timestamp.Type, prec timestamp.Precision) string {
	digits := prec.Digits(int(r.TSPrecision))

	switch ts {
	case timestamp.Delta:
		return DeltaAbsTime(lookup, r, r.Num-1).Format(digits)
	case timestamp.DeltaDisplayed:
		return DeltaAbsTime(lookup, r, r.PrevDisNum).Format(digits)
	case timestamp.Relative, timestamp.NotSet:
		return DeltaAbsTime(lookup, r, r.FrameRefNum).Format(digits)
	}

	if !r.HasTS {
		return ""
	}
	if ts == timestamp.Epoch {
		return r.AbsTS.Format(digits)
	}

	t := r.AbsTS.ToTime()
	switch ts {
	case timestamp.UTC, timestamp.UTCWithYMD, timestamp.UTCWithYDOY:
		t = t.UTC()
	default:
		t = t.Local()
	}

	var layout string
	switch ts {
	case timestamp.AbsoluteWithYMD, timestamp.UTCWithYMD:
		layout = "2006-01-02 15:04:05"
	case timestamp.AbsoluteWithYDOY, timestamp.UTCWithYDOY:
		layout = "2006/002 15:04:05"
	default:
		layout = "15:04:05"
	}
	return t.Format(layout) + fraction(t, digits)
}

func fraction(t time.Time, digits int) string {
	if digits <= 0 {
		return ""
	}
	// the whole seconds are already in the layout
	s := nstime.Time{Nsecs: int32(t.Nanosecond())}.Format(digits)
	return s[len("0"):]
}
