// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package woww dissects the headers of the World of Warcraft world server
// protocol
package woww

import (
	"github.com/DataDog/packet-filter/pkg/column"
	"github.com/DataDog/packet-filter/pkg/dissect"
	"github.com/DataDog/packet-filter/pkg/util/log"
)

const (
	// DefaultPort is the TCP port of the world server
	DefaultPort = 8085

	// the size and opcode of the smallest header
	minLength = 4

	encryptedHeader = "Encrypted Header"
)

// Opcodes of the unencrypted messages
const (
	SMsgAuthChallenge uint32 = 0x1EC
	CMsgAuthSession   uint32 = 0x1ED
)

var opcodeNames = dissect.ValueStrings{
	{Value: SMsgAuthChallenge, Name: "SMSG_AUTH_CHALLENGE"},
	{Value: CMsgAuthSession, Name: "CMSG_AUTH_SESSION"},
}

// Dissector decodes world server message headers
type Dissector struct {
	port   uint32
	proto  *dissect.Protocol
	size   *dissect.HeaderField
	opcode *dissect.HeaderField
}

// Register registers the protocol and its fields. port is the TCP port of
// the server, it tells the direction of a message.
func Register(reg *dissect.Registry, port uint16) (*Dissector, error) {
	p, err := reg.RegisterProtocol("World of Warcraft World", "WOWW", "woww")
	if err != nil {
		return nil, err
	}
	d := &Dissector{
		port:  uint32(port),
		proto: p,
		size: &dissect.HeaderField{
			Name:    "Size",
			Abbrev:  "woww.size",
			Type:    dissect.FTUint16,
			Display: dissect.BaseHexDec,
			Blurb:   "Size of the packet including opcode field but not including size field",
		},
		opcode: &dissect.HeaderField{
			Name:    "Opcode",
			Abbrev:  "woww.opcode",
			Type:    dissect.FTUint32,
			Display: dissect.BaseHex,
			Strings: opcodeNames,
			Blurb:   "Opcode of the packet",
		},
	}
	if err := reg.RegisterFields(p, d.size, d.opcode); err != nil {
		return nil, err
	}
	return d, nil
}

// Handoff adds the dissector to the TCP port table
func (d *Dissector) Handoff(ports *dissect.DissectorTable) {
	ports.AddUint(d.port, d.Dissect)
	log.Debugf("%s dissector listening on %s %d", d.proto.Short, ports.Name(), d.port)
}

// Dissect decodes the header of one message. Messages the server sends
// carry a 2 bytes opcode, messages the client sends a 4 bytes one. The
// opcode is kept as protocol data of the frame being dissected.
func (d *Dissector) Dissect(tvb *dissect.Tvb, pinfo *dissect.PacketInfo, tree *dissect.Tree) int {
	if tvb.ReportedLength() < minLength {
		return 0
	}
	if tvb.CapturedLength() < 1 {
		return 0
	}

	pinfo.Columns.Set(column.Protocol, d.proto.Short)
	pinfo.Columns.Clear(column.Info)

	ti, err := tree.AddItem(d.proto.Field, tvb, 0, -1, dissect.EncNA)
	if err != nil {
		return d.malformed(tvb, pinfo, err)
	}
	if _, err := ti.AddItem(d.size, tvb, 0, 2, dissect.BigEndian); err != nil {
		return d.malformed(tvb, pinfo, err)
	}

	var (
		offset = 2
		length int
		opcode uint32
	)
	switch d.port {
	case pinfo.SrcPort:
		length = 2
		var v uint16
		v, err = tvb.Uint16(offset, dissect.LittleEndian)
		opcode = uint32(v)
	case pinfo.DstPort:
		length = 4
		opcode, err = tvb.Uint32(offset, dissect.LittleEndian)
	}
	if err != nil {
		return d.malformed(tvb, pinfo, err)
	}
	if _, err := ti.AddItem(d.opcode, tvb, offset, length, dissect.LittleEndian); err != nil {
		return d.malformed(tvb, pinfo, err)
	}

	if pinfo.Frame != nil {
		pinfo.Frame.AddProtoData(d.proto.ID, 0, opcode)
	}
	pinfo.Columns.Set(column.Info, dissect.ValToStrConst(opcode, opcodeNames, encryptedHeader))
	return tvb.CapturedLength()
}

func (d *Dissector) malformed(tvb *dissect.Tvb, pinfo *dissect.PacketInfo, err error) int {
	log.Debugf("frame %d: malformed %s header: %v", pinfo.Num, d.proto.Short, err)
	pinfo.Columns.Set(column.Info, dissect.MalformedInfo)
	return tvb.CapturedLength()
}
