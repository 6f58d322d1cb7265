// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package dissect

import (
	"sync"

	"github.com/DataDog/packet-filter/pkg/column"
	"github.com/DataDog/packet-filter/pkg/frame"
)

// MalformedInfo is shown in the info column of a packet a dissector could
// not read to the end
const MalformedInfo = "[Malformed Packet]"

// Columns holds the text columns of a packet filled by the dissectors
type Columns struct {
	values map[column.ID]string
}

// Set sets the text of a column
func (c *Columns) Set(col column.ID, text string) {
	if c.values == nil {
		c.values = make(map[column.ID]string)
	}
	c.values[col] = text
}

// Clear empties a column
func (c *Columns) Clear(col column.ID) {
	delete(c.values, col)
}

// Get returns the text of a column
func (c *Columns) Get(col column.ID) string {
	return c.values[col]
}

// PacketInfo is the state shared by the dissectors of one packet
type PacketInfo struct {
	Num     uint32
	SrcPort uint32
	DstPort uint32
	// MatchUint is the value the current dissector was found with
	MatchUint uint32

	Columns Columns
	Frame   *frame.Record
}

// Dissector decodes the bytes handed to it and returns how many it
// consumed, 0 when the packet is not for it
type Dissector func(tvb *Tvb, pinfo *PacketInfo, tree *Tree) int

// DissectorTable hands packets to the dissector registered for a value,
// such as a port number
type DissectorTable struct {
	name string

	mu     sync.RWMutex
	byUint map[uint32]Dissector
}

// Name returns the name of the table
func (t *DissectorTable) Name() string {
	return t.name
}

// AddUint registers d for value v, replacing the previous one
func (t *DissectorTable) AddUint(v uint32, d Dissector) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byUint[v] = d
}

// DeleteUint unregisters the dissector of value v
func (t *DissectorTable) DeleteUint(v uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byUint, v)
}

// DissectorForUint returns the dissector registered for v
func (t *DissectorTable) DissectorForUint(v uint32) (Dissector, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	d, found := t.byUint[v]
	return d, found
}

// TryUint hands the packet to the dissector registered for v and returns
// the bytes it consumed, 0 when there is none or it declined
func (t *DissectorTable) TryUint(v uint32, tvb *Tvb, pinfo *PacketInfo, tree *Tree) int {
	d, found := t.DissectorForUint(v)
	if !found {
		return 0
	}
	saved := pinfo.MatchUint
	pinfo.MatchUint = v
	n := d(tvb, pinfo, tree)
	pinfo.MatchUint = saved
	return n
}
