// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package timestamp holds the process-wide time display settings used to
// render and order the time column
package timestamp

import (
	"fmt"

	"go.uber.org/atomic"
)

// Type is the time display format of the time column
type Type int32

// Time display formats
const (
	Relative Type = iota
	Absolute
	AbsoluteWithYMD
	AbsoluteWithYDOY
	Delta
	DeltaDisplayed
	Epoch
	UTC
	UTCWithYMD
	UTCWithYDOY
	NotSet
)

var typeFlags = map[string]Type{
	"r":    Relative,
	"a":    Absolute,
	"ad":   AbsoluteWithYMD,
	"adoy": AbsoluteWithYDOY,
	"d":    Delta,
	"dd":   DeltaDisplayed,
	"e":    Epoch,
	"u":    UTC,
	"ud":   UTCWithYMD,
	"udoy": UTCWithYDOY,
}

var typeNames = map[Type]string{
	Relative:         "relative",
	Absolute:         "absolute",
	AbsoluteWithYMD:  "absolute_ymd",
	AbsoluteWithYDOY: "absolute_ydoy",
	Delta:            "delta",
	DeltaDisplayed:   "delta_displayed",
	Epoch:            "epoch",
	UTC:              "utc",
	UTCWithYMD:       "utc_ymd",
	UTCWithYDOY:      "utc_ydoy",
	NotSet:           "not_set",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int32(t))
}

// IsAbsolute returns whether the format shows the frame time stamp itself
// rather than a delta
func (t Type) IsAbsolute() bool {
	switch t {
	case Absolute, AbsoluteWithYMD, AbsoluteWithYDOY, UTC, UTCWithYMD, UTCWithYDOY, Epoch:
		return true
	}
	return false
}

// ParseType parses the short format names accepted on the command line
func ParseType(s string) (Type, error) {
	if t, ok := typeFlags[s]; ok {
		return t, nil
	}
	for t, name := range typeNames {
		if name == s && t != NotSet {
			return t, nil
		}
	}
	return NotSet, fmt.Errorf("invalid time display format `%s`", s)
}

// Precision is the number of digits shown after the second
type Precision int32

// Precisions
const (
	PrecAuto Precision = iota
	PrecFixedSec
	PrecFixedDSec
	PrecFixedCSec
	PrecFixedMSec
	PrecFixedUSec
	PrecFixedNSec
)

var precisionNames = map[string]Precision{
	"auto": PrecAuto,
	"s":    PrecFixedSec,
	"ds":   PrecFixedDSec,
	"cs":   PrecFixedCSec,
	"ms":   PrecFixedMSec,
	"us":   PrecFixedUSec,
	"ns":   PrecFixedNSec,
}

// ParsePrecision parses a precision name
func ParsePrecision(s string) (Precision, error) {
	if p, ok := precisionNames[s]; ok {
		return p, nil
	}
	return PrecAuto, fmt.Errorf("invalid time precision `%s`", s)
}

// Digits returns the number of fractional digits shown, falling back to the
// frame's own precision for PrecAuto
func (p Precision) Digits(framePrecision int) int {
	switch p {
	case PrecFixedSec:
		return 0
	case PrecFixedDSec:
		return 1
	case PrecFixedCSec:
		return 2
	case PrecFixedMSec:
		return 3
	case PrecFixedUSec:
		return 6
	case PrecFixedNSec:
		return 9
	}
	return framePrecision
}

var (
	currentType      = atomic.NewInt32(int32(NotSet))
	currentPrecision = atomic.NewInt32(int32(PrecAuto))
)

// GetType returns the current time display format
func GetType() Type {
	return Type(currentType.Load())
}

// SetType sets the time display format
func SetType(t Type) {
	currentType.Store(int32(t))
}

// GetPrecision returns the current time precision
func GetPrecision() Precision {
	return Precision(currentPrecision.Load())
}

// SetPrecision sets the time precision
func SetPrecision(p Precision) {
	currentPrecision.Store(int32(p))
}
