// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package woww

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataDog/packet-filter/pkg/column"
	"github.com/DataDog/packet-filter/pkg/dissect"
	"github.com/DataDog/packet-filter/pkg/frame"
)

func newDissector(t *testing.T) *Dissector {
	t.Helper()
	d, err := Register(dissect.NewRegistry(), DefaultPort)
	require.NoError(t, err)
	return d
}

func TestDissect(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		reported int
		src, dst uint32
		consumed int
		info     string
		opcode   interface{}
		opLen    int
	}{
		{
			name:     "server auth challenge",
			data:     []byte{0x00, 0x06, 0xEC, 0x01, 0xAA, 0xBB, 0xCC, 0xDD},
			src:      DefaultPort,
			dst:      50000,
			consumed: 8,
			info:     "SMSG_AUTH_CHALLENGE",
			opcode:   uint32(0x1EC),
			opLen:    2,
		},
		{
			name:     "client auth session",
			data:     []byte{0x00, 0x08, 0xED, 0x01, 0x00, 0x00, 0x11, 0x22, 0x33, 0x44},
			src:      50000,
			dst:      DefaultPort,
			consumed: 10,
			info:     "CMSG_AUTH_SESSION",
			opcode:   uint32(0x1ED),
			opLen:    4,
		},
		{
			name:     "encrypted server header",
			data:     []byte{0x9F, 0x31, 0x07, 0xE2, 0x55},
			src:      DefaultPort,
			dst:      50000,
			consumed: 5,
			info:     "Encrypted Header",
			opcode:   uint32(0xE207),
			opLen:    2,
		},
		{
			name:     "no direction",
			data:     []byte{0x00, 0x02, 0xEC, 0x01},
			src:      1234,
			dst:      5678,
			consumed: 4,
			info:     "Encrypted Header",
			opcode:   uint32(0),
			opLen:    0,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			d := newDissector(t)
			pinfo := &dissect.PacketInfo{SrcPort: test.src, DstPort: test.dst}
			pinfo.Columns.Set(column.Info, "left over")
			tree := dissect.NewTree()

			n := d.Dissect(dissect.NewTvb(test.data, test.reported), pinfo, tree)
			assert.Equal(t, test.consumed, n)
			assert.Equal(t, "WOWW", pinfo.Columns.Get(column.Protocol))
			assert.Equal(t, test.info, pinfo.Columns.Get(column.Info))

			require.Len(t, tree.Items, 1)
			assert.Equal(t, "woww", tree.Items[0].Field.Abbrev)
			assert.Equal(t, len(test.data), tree.Items[0].Length)

			size := tree.Find("woww.size")
			require.NotNil(t, size)
			assert.Equal(t, 0, size.Offset)
			assert.Equal(t, 2, size.Length)
			assert.Equal(t, uint32(test.data[0])<<8|uint32(test.data[1]), size.Value)

			opcode := tree.Find("woww.opcode")
			require.NotNil(t, opcode)
			assert.Equal(t, 2, opcode.Offset)
			assert.Equal(t, test.opLen, opcode.Length)
			assert.Equal(t, test.opcode, opcode.Value)
		})
	}
}

func TestDissectRejectsShortMessages(t *testing.T) {
	d := newDissector(t)

	pinfo := &dissect.PacketInfo{SrcPort: DefaultPort}
	assert.Zero(t, d.Dissect(dissect.NewTvb([]byte{0x00, 0x01, 0xEC}, 3), pinfo, nil))
	assert.Empty(t, pinfo.Columns.Get(column.Protocol))

	// reported long enough but nothing captured
	assert.Zero(t, d.Dissect(dissect.NewTvb(nil, 60), pinfo, nil))
	assert.Empty(t, pinfo.Columns.Get(column.Protocol))
}

func TestDissectTruncatedCapture(t *testing.T) {
	d := newDissector(t)

	// the client opcode needs 4 bytes past the size but only 2 were captured
	pinfo := &dissect.PacketInfo{SrcPort: 50000, DstPort: DefaultPort}
	n := d.Dissect(dissect.NewTvb([]byte{0x00, 0x08, 0xED, 0x01}, 10), pinfo, nil)
	assert.Equal(t, 4, n)
	assert.Equal(t, "WOWW", pinfo.Columns.Get(column.Protocol))
	assert.Equal(t, dissect.MalformedInfo, pinfo.Columns.Get(column.Info))
}

func TestDissectWithoutTree(t *testing.T) {
	d := newDissector(t)

	pinfo := &dissect.PacketInfo{SrcPort: DefaultPort, DstPort: 50000}
	n := d.Dissect(dissect.NewTvb([]byte{0x00, 0x02, 0xEC, 0x01}, 4), pinfo, nil)
	assert.Equal(t, 4, n)
	assert.Equal(t, "SMSG_AUTH_CHALLENGE", pinfo.Columns.Get(column.Info))
}

func TestRegister(t *testing.T) {
	reg := dissect.NewRegistry()
	_, err := Register(reg, 9000)
	require.NoError(t, err)

	size, ok := reg.FieldByAbbrev("woww.size")
	require.True(t, ok)
	assert.Equal(t, dissect.FTUint16, size.Type)
	assert.Equal(t, dissect.BaseHexDec, size.Display)

	opcode, ok := reg.FieldByAbbrev("woww.opcode")
	require.True(t, ok)
	assert.Equal(t, dissect.FTUint32, opcode.Type)
	assert.Equal(t, dissect.BaseHex, opcode.Display)
	assert.Equal(t, "Opcode: CMSG_AUTH_SESSION (0x000001ed)", opcode.Format(uint32(0x1ED)))

	_, err = Register(reg, 9000)
	assert.Error(t, err)
}

func TestHandoff(t *testing.T) {
	reg := dissect.NewRegistry()
	d, err := Register(reg, 9000)
	require.NoError(t, err)
	ports, err := reg.RegisterDissectorTable("tcp.port")
	require.NoError(t, err)

	d.Handoff(ports)
	_, ok := ports.DissectorForUint(9000)
	assert.True(t, ok)
	_, ok = ports.DissectorForUint(DefaultPort)
	assert.False(t, ok)

	pinfo := &dissect.PacketInfo{SrcPort: 9000, DstPort: 40000}
	n := ports.TryUint(9000, dissect.NewTvb([]byte{0x00, 0x02, 0xEC, 0x01}, 4), pinfo, nil)
	assert.Equal(t, 4, n)
	assert.Equal(t, "SMSG_AUTH_CHALLENGE", pinfo.Columns.Get(column.Info))
}

func TestDissectKeepsOpcodeOnFrame(t *testing.T) {
	d := newDissector(t)

	rec := &frame.Record{Num: 3}
	pinfo := &dissect.PacketInfo{Num: 3, SrcPort: 50000, DstPort: DefaultPort, Frame: rec}
	d.Dissect(dissect.NewTvb([]byte{0x00, 0x08, 0xED, 0x01, 0x00, 0x00}, 6), pinfo, nil)

	v, ok := rec.GetProtoData(d.proto.ID, 0)
	require.True(t, ok)
	assert.Equal(t, CMsgAuthSession, v)
}
