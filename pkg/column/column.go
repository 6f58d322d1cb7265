// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package column lists the packet list columns, which double as sort keys
package column

import "fmt"

// ID identifies a packet list column
type ID int

// Columns
const (
	Number ID = iota
	ClsTime
	AbsTime
	AbsYMDTime
	AbsYDOYTime
	UTCTime
	UTCYMDTime
	UTCYDOYTime
	RelTime
	DeltaTime
	DeltaTimeDisplayed
	PacketLength
	CumulativeBytes
	Protocol
	Info

	numColumns
)

var names = [numColumns]string{
	Number:             "number",
	ClsTime:            "cls_time",
	AbsTime:            "abs_time",
	AbsYMDTime:         "abs_ymd_time",
	AbsYDOYTime:        "abs_ydoy_time",
	UTCTime:            "utc_time",
	UTCYMDTime:         "utc_ymd_time",
	UTCYDOYTime:        "utc_ydoy_time",
	RelTime:            "rel_time",
	DeltaTime:          "delta_time",
	DeltaTimeDisplayed: "delta_time_displayed",
	PacketLength:       "packet_length",
	CumulativeBytes:    "cumulative_bytes",
	Protocol:           "protocol",
	Info:               "info",
}

func (id ID) String() string {
	if id < 0 || id >= numColumns {
		return fmt.Sprintf("ID(%d)", int(id))
	}
	return names[id]
}

// Parse returns the column with the given name
func Parse(name string) (ID, error) {
	for id, n := range names {
		if n == name {
			return ID(id), nil
		}
	}
	return -1, fmt.Errorf("unknown column `%s`", name)
}

// IsFrameSortable returns whether frames can be ordered by the column using
// only their metadata
func (id ID) IsFrameSortable() bool {
	return id >= Number && id <= CumulativeBytes
}
