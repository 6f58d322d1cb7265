// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package tcp decodes the link, network and transport headers of captured
// frames and hands TCP payloads to the dissectors registered by port
package tcp

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/pkg/errors"

	"github.com/DataDog/packet-filter/pkg/column"
	"github.com/DataDog/packet-filter/pkg/dissect"
	"github.com/DataDog/packet-filter/pkg/util/log"
)

// PortTable is the name of the dissector table keyed by TCP port
const PortTable = "tcp.port"

// TCP dispatches TCP payloads
type TCP struct {
	proto     *dissect.Protocol
	srcPort   *dissect.HeaderField
	dstPort   *dissect.HeaderField
	portTable *dissect.DissectorTable

	eth     layers.Ethernet
	ip4     layers.IPv4
	ip6     layers.IPv6
	tcp     layers.TCP
	payload gopacket.Payload
	parser  *gopacket.DecodingLayerParser
	decoded []gopacket.LayerType
}

// New registers the TCP protocol, its fields and its port table
func New(reg *dissect.Registry) (*TCP, error) {
	p, err := reg.RegisterProtocol("Transmission Control Protocol", "TCP", "tcp")
	if err != nil {
		return nil, err
	}
	t := &TCP{
		proto: p,
		srcPort: &dissect.HeaderField{
			Name:    "Source Port",
			Abbrev:  "tcp.srcport",
			Type:    dissect.FTUint16,
			Display: dissect.BaseDec,
		},
		dstPort: &dissect.HeaderField{
			Name:    "Destination Port",
			Abbrev:  "tcp.dstport",
			Type:    dissect.FTUint16,
			Display: dissect.BaseDec,
		},
	}
	if err := reg.RegisterFields(p, t.srcPort, t.dstPort); err != nil {
		return nil, err
	}
	if t.portTable, err = reg.RegisterDissectorTable(PortTable); err != nil {
		return nil, err
	}

	t.parser = gopacket.NewDecodingLayerParser(layers.LayerTypeEthernet, &t.eth, &t.ip4, &t.ip6, &t.tcp, &t.payload)
	t.parser.IgnoreUnsupported = true
	return t, nil
}

// PortTable returns the table subdissectors register their port in
func (t *TCP) PortTable() *dissect.DissectorTable {
	return t.portTable
}

// Dissect decodes an Ethernet frame and hands its TCP payload to the
// dissector of the lower port first, then to the one of the higher port.
// It returns the bytes consumed by the subdissector, 0 when the frame is
// not TCP or nobody took the payload.
func (t *TCP) Dissect(data []byte, pinfo *dissect.PacketInfo, tree *dissect.Tree) (int, error) {
	if err := t.parser.DecodeLayers(data, &t.decoded); err != nil {
		return 0, errors.Wrapf(err, "frame %d", pinfo.Num)
	}

	var (
		isTCP    bool
		reported = -1
	)
	for _, typ := range t.decoded {
		switch typ {
		case layers.LayerTypeIPv4:
			reported = int(t.ip4.Length) - int(t.ip4.IHL)*4
		case layers.LayerTypeIPv6:
			reported = int(t.ip6.Length)
		case layers.LayerTypeTCP:
			isTCP = true
		}
	}
	if !isTCP {
		log.Tracef("frame %d: no TCP header in %v", pinfo.Num, t.decoded)
		return 0, nil
	}

	pinfo.SrcPort = uint32(t.tcp.SrcPort)
	pinfo.DstPort = uint32(t.tcp.DstPort)
	pinfo.Columns.Set(column.Protocol, t.proto.Short)
	pinfo.Columns.Set(column.Info, fmt.Sprintf("%d → %d", pinfo.SrcPort, pinfo.DstPort))

	hdr := dissect.NewTvb(t.tcp.Contents, len(t.tcp.Contents))
	if it, err := tree.AddItem(t.proto.Field, hdr, 0, -1, dissect.EncNA); err == nil {
		if _, err := it.AddItem(t.srcPort, hdr, 0, 2, dissect.BigEndian); err != nil {
			return 0, err
		}
		if _, err := it.AddItem(t.dstPort, hdr, 2, 2, dissect.BigEndian); err != nil {
			return 0, err
		}
	}

	payload := t.tcp.Payload
	if len(payload) == 0 {
		return 0, nil
	}
	if reported >= 0 {
		reported -= len(t.tcp.Contents)
	}
	tvb := dissect.NewTvb(payload, reported)

	low, high := pinfo.SrcPort, pinfo.DstPort
	if low > high {
		low, high = high, low
	}
	if n := t.portTable.TryUint(low, tvb, pinfo, tree); n > 0 {
		return n, nil
	}
	if high != low {
		return t.portTable.TryUint(high, tvb, pinfo, tree), nil
	}
	return 0, nil
}
