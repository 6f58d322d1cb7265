// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package nstime holds the seconds/nanoseconds time stamps carried by frames
package nstime

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const nsPerSec = int32(time.Second)

// Time is either an absolute time stamp, seconds and nanoseconds since the
// epoch, or a delta between two of them. Nsecs is kept in [0, 1e9) for a
// non-negative time and in (-1e9, 0] for a negative one.
type Time struct {
	Secs  int64
	Nsecs int32
}

// FromTime converts a wall clock time
func FromTime(t time.Time) Time {
	return Time{Secs: t.Unix(), Nsecs: int32(t.Nanosecond())}
}

// FromDuration converts a duration
func FromDuration(d time.Duration) Time {
	return Time{Secs: int64(d / time.Second), Nsecs: int32(d % time.Second)}
}

// ToTime converts an absolute time stamp to a wall clock time
func (t Time) ToTime() time.Time {
	return time.Unix(t.Secs, int64(t.Nsecs))
}

// IsZero returns whether both components are zero
func (t Time) IsZero() bool {
	return t.Secs == 0 && t.Nsecs == 0
}

// Delta returns a - b
func Delta(a, b Time) Time {
	d := Time{Secs: a.Secs - b.Secs, Nsecs: a.Nsecs - b.Nsecs}
	return d.normalize()
}

func (t Time) normalize() Time {
	if t.Nsecs >= nsPerSec {
		t.Secs++
		t.Nsecs -= nsPerSec
	} else if t.Nsecs <= -nsPerSec {
		t.Secs--
		t.Nsecs += nsPerSec
	}
	if t.Secs > 0 && t.Nsecs < 0 {
		t.Secs--
		t.Nsecs += nsPerSec
	} else if t.Secs < 0 && t.Nsecs > 0 {
		t.Secs++
		t.Nsecs -= nsPerSec
	}
	return t
}

// Cmp compares a and b by seconds then nanoseconds
func Cmp(a, b Time) int {
	switch {
	case a.Secs < b.Secs:
		return -1
	case a.Secs > b.Secs:
		return 1
	case a.Nsecs < b.Nsecs:
		return -1
	case a.Nsecs > b.Nsecs:
		return 1
	}
	return 0
}

// Before returns whether t is strictly earlier than u
func (t Time) Before(u Time) bool {
	return Cmp(t, u) < 0
}

// String formats the time as seconds with nanosecond precision
func (t Time) String() string {
	if t.Secs < 0 || t.Nsecs < 0 {
		abs := Time{Secs: -t.Secs, Nsecs: -t.Nsecs}
		return "-" + abs.String()
	}
	return fmt.Sprintf("%d.%09d", t.Secs, t.Nsecs)
}

// Format formats the time as seconds with digits decimals, truncating the
// fraction. digits is clamped to [0, 9].
func (t Time) Format(digits int) string {
	if t.Secs < 0 || t.Nsecs < 0 {
		abs := Time{Secs: -t.Secs, Nsecs: -t.Nsecs}
		return "-" + abs.Format(digits)
	}
	if digits <= 0 {
		return fmt.Sprintf("%d", t.Secs)
	}
	if digits > 9 {
		digits = 9
	}
	frac := fmt.Sprintf("%09d", t.Nsecs)
	return fmt.Sprintf("%d.%s", t.Secs, frac[:digits])
}

// Parse reads a non-negative time written as seconds with up to nine
// decimals, such as "1700000000.000125"
func Parse(s string) (Time, error) {
	secs, frac, _ := strings.Cut(s, ".")
	if secs == "" || len(frac) > 9 {
		return Time{}, fmt.Errorf("invalid time `%s`", s)
	}
	sec, err := strconv.ParseUint(secs, 10, 63)
	if err != nil {
		return Time{}, fmt.Errorf("invalid time `%s`: %w", s, err)
	}
	var nsec uint64
	if frac != "" {
		if nsec, err = strconv.ParseUint(frac+strings.Repeat("0", 9-len(frac)), 10, 32); err != nil {
			return Time{}, fmt.Errorf("invalid time `%s`: %w", s, err)
		}
	}
	return Time{Secs: int64(sec), Nsecs: int32(nsec)}, nil
}
