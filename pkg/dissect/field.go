// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package dissect

import (
	"fmt"
)

// FieldType is the type of the value held by a header field
type FieldType int

// Field types
const (
	FTProtocol FieldType = iota
	FTUint16
	FTUint32
	FTBytes
	FTString
)

func (t FieldType) String() string {
	switch t {
	case FTProtocol:
		return "FT_PROTOCOL"
	case FTUint16:
		return "FT_UINT16"
	case FTUint32:
		return "FT_UINT32"
	case FTBytes:
		return "FT_BYTES"
	case FTString:
		return "FT_STRING"
	}
	return fmt.Sprintf("FieldType(%d)", int(t))
}

func (t FieldType) isUint() bool {
	return t == FTUint16 || t == FTUint32
}

// Base is how an integer field is displayed
type Base int

// Integer display bases
const (
	BaseNone Base = iota
	BaseDec
	BaseHex
	BaseHexDec
)

// hexDigits returns the number of digits shown for a value of the type
func (t FieldType) hexDigits() int {
	if t == FTUint16 {
		return 4
	}
	return 8
}

func (b Base) format(t FieldType, v uint32) string {
	switch b {
	case BaseHex:
		return fmt.Sprintf("0x%0*x", t.hexDigits(), v)
	case BaseHexDec:
		return fmt.Sprintf("0x%0*x (%d)", t.hexDigits(), v, v)
	}
	return fmt.Sprintf("%d", v)
}

// ValueString names one value of an integer field
type ValueString struct {
	Value uint32
	Name  string
}

// ValueStrings maps the values of an integer field to names
type ValueStrings []ValueString

// Lookup returns the name of v
func (vals ValueStrings) Lookup(v uint32) (string, bool) {
	for _, vs := range vals {
		if vs.Value == v {
			return vs.Name, true
		}
	}
	return "", false
}

// ValToStrConst returns the name of v, or unknown when it has none
func ValToStrConst(v uint32, vals ValueStrings, unknown string) string {
	if name, ok := vals.Lookup(v); ok {
		return name
	}
	return unknown
}

// HeaderField describes a filterable field of a protocol
type HeaderField struct {
	Name    string
	Abbrev  string
	Type    FieldType
	Display Base
	Strings ValueStrings
	Blurb   string

	// set on registration
	ID       int
	Protocol *Protocol
}

func (f *HeaderField) String() string {
	return f.Abbrev
}

// Format returns the display text of a value of the field
func (f *HeaderField) Format(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return f.Name
	case uint32:
		text := f.Display.format(f.Type, val)
		if name, ok := f.Strings.Lookup(val); ok {
			text = fmt.Sprintf("%s (%s)", name, text)
		}
		return fmt.Sprintf("%s: %s", f.Name, text)
	case []byte:
		return fmt.Sprintf("%s: %x", f.Name, val)
	}
	return fmt.Sprintf("%s: %v", f.Name, v)
}
