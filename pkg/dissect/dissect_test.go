// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package dissect

import (
	"bytes"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DataDog/packet-filter/pkg/column"
)

func testFields() (*HeaderField, *HeaderField) {
	size := &HeaderField{Name: "Size", Abbrev: "test.size", Type: FTUint16, Display: BaseHexDec}
	kind := &HeaderField{
		Name:    "Kind",
		Abbrev:  "test.kind",
		Type:    FTUint32,
		Display: BaseHex,
		Strings: ValueStrings{{Value: 1, Name: "HELLO"}},
	}
	return size, kind
}

func TestRegisterProtocol(t *testing.T) {
	reg := NewRegistry()

	p, err := reg.RegisterProtocol("Test Protocol", "TEST", "test")
	require.NoError(t, err)
	assert.Equal(t, 0, p.ID)
	assert.Equal(t, FTProtocol, p.Field.Type)
	assert.Same(t, p, p.Field.Protocol)

	found, ok := reg.ProtocolByFilter("test")
	require.True(t, ok)
	assert.Same(t, p, found)

	_, err = reg.RegisterProtocol("Other", "OTHER", "test")
	assert.Error(t, err)
	_, err = reg.RegisterProtocol("", "X", "x")
	assert.Error(t, err)
}

func TestRegisterFields(t *testing.T) {
	reg := NewRegistry()
	p, err := reg.RegisterProtocol("Test Protocol", "TEST", "test")
	require.NoError(t, err)

	size, kind := testFields()
	require.NoError(t, reg.RegisterFields(p, size, kind))
	assert.Equal(t, 1, size.ID)
	assert.Equal(t, 2, kind.ID)
	assert.Same(t, p, kind.Protocol)

	f, ok := reg.FieldByAbbrev("test.kind")
	require.True(t, ok)
	assert.Same(t, kind, f)

	_, ok = reg.FieldByAbbrev("test.missing")
	assert.False(t, ok)
	_, ok = reg.ProtocolByFilter("test.size")
	assert.False(t, ok)

	assert.Equal(t, []*HeaderField{p.Field, size, kind}, reg.Fields())
}

func TestRegisterFieldsReportsEveryProblem(t *testing.T) {
	reg := NewRegistry()
	p, err := reg.RegisterProtocol("Test Protocol", "TEST", "test")
	require.NoError(t, err)
	size, _ := testFields()
	require.NoError(t, reg.RegisterFields(p, size))

	fresh := &HeaderField{Name: "Fresh", Abbrev: "test.fresh", Type: FTUint16}
	err = reg.RegisterFields(p,
		&HeaderField{Name: "Size again", Abbrev: "test.size", Type: FTUint16},
		&HeaderField{Name: "Nameless", Type: FTUint16},
		&HeaderField{Name: "Text", Abbrev: "test.text", Type: FTString, Strings: ValueStrings{{1, "one"}}},
		fresh,
		&HeaderField{Name: "Fresh twice", Abbrev: "test.fresh", Type: FTUint16},
	)
	require.Error(t, err)

	merr, ok := err.(*multierror.Error)
	require.True(t, ok)
	assert.Len(t, merr.Errors, 4)

	// nothing was registered
	_, ok = reg.FieldByAbbrev("test.fresh")
	assert.False(t, ok)
	assert.Zero(t, fresh.ID)

	assert.Error(t, reg.RegisterFields(nil, fresh))
}

func TestValToStrConst(t *testing.T) {
	vals := ValueStrings{{Value: 0x1EC, Name: "SMSG_AUTH_CHALLENGE"}, {Value: 0x1ED, Name: "CMSG_AUTH_SESSION"}}

	assert.Equal(t, "SMSG_AUTH_CHALLENGE", ValToStrConst(0x1EC, vals, "unknown"))
	assert.Equal(t, "CMSG_AUTH_SESSION", ValToStrConst(0x1ED, vals, "unknown"))
	assert.Equal(t, "unknown", ValToStrConst(0, vals, "unknown"))
	assert.Equal(t, "unknown", ValToStrConst(0, nil, "unknown"))
}

func TestTvb(t *testing.T) {
	tvb := NewTvb([]byte{0x00, 0x10, 0xEC, 0x01, 0x00, 0x00}, 64)

	assert.Equal(t, 6, tvb.CapturedLength())
	assert.Equal(t, 64, tvb.ReportedLength())
	assert.Equal(t, 6, NewTvb(make([]byte, 6), 2).ReportedLength())

	v16, err := tvb.Uint16(0, BigEndian)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x10), v16)

	v16, err = tvb.Uint16(2, LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1EC), v16)

	v32, err := tvb.Uint32(2, LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1EC), v32)

	v32, err = tvb.uint(1, 3, BigEndian)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x10EC01), v32)

	v32, err = tvb.uint(1, 3, LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01EC10), v32)

	_, err = tvb.Uint32(4, LittleEndian)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	_, err = tvb.Bytes(-1, 2)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	b, err := tvb.Bytes(4, -1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00}, b)
}

func TestTree(t *testing.T) {
	reg := NewRegistry()
	p, err := reg.RegisterProtocol("Test Protocol", "TEST", "test")
	require.NoError(t, err)
	size, kind := testFields()
	require.NoError(t, reg.RegisterFields(p, size, kind))

	tvb := NewTvb([]byte{0x00, 0x10, 0x01, 0x00, 0x00, 0x00}, 6)
	tree := NewTree()

	root, err := tree.AddItem(p.Field, tvb, 0, -1, EncNA)
	require.NoError(t, err)
	assert.Equal(t, 6, root.Length)

	_, err = root.AddItem(size, tvb, 0, 2, BigEndian)
	require.NoError(t, err)
	it, err := root.AddItem(kind, tvb, 2, 4, LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), it.Value)

	_, err = root.AddItem(kind, tvb, 4, 4, LittleEndian)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	assert.Same(t, it, tree.Find("test.kind"))
	assert.Nil(t, tree.Find("test.other"))

	var buf bytes.Buffer
	require.NoError(t, tree.Dump(&buf))
	assert.Equal(t, "Test Protocol\n    Size: 0x0010 (16)\n    Kind: HELLO (0x00000001)\n", buf.String())
}

func TestNilTree(t *testing.T) {
	size, _ := testFields()
	tvb := NewTvb([]byte{0x00, 0x10}, 2)

	var tree *Tree
	it, err := tree.AddItem(size, tvb, 0, 2, BigEndian)
	require.NoError(t, err)
	assert.Nil(t, it)

	child, err := it.AddItem(size, tvb, 0, 2, BigEndian)
	require.NoError(t, err)
	assert.Nil(t, child)

	// bounds are checked even when nothing is built
	_, err = tree.AddItem(size, tvb, 1, 2, BigEndian)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	assert.Nil(t, tree.Find("test.size"))
	assert.NoError(t, tree.Dump(&bytes.Buffer{}))
}

func TestDissectorTable(t *testing.T) {
	reg := NewRegistry()
	table, err := reg.RegisterDissectorTable("test.port")
	require.NoError(t, err)
	_, err = reg.RegisterDissectorTable("test.port")
	assert.Error(t, err)

	found, ok := reg.FindDissectorTable("test.port")
	require.True(t, ok)
	assert.Same(t, table, found)
	assert.Equal(t, "test.port", table.Name())

	var matched uint32
	table.AddUint(8085, func(tvb *Tvb, pinfo *PacketInfo, tree *Tree) int {
		matched = pinfo.MatchUint
		pinfo.Columns.Set(column.Protocol, "TEST")
		return tvb.CapturedLength()
	})

	_, ok = table.DissectorForUint(8085)
	assert.True(t, ok)
	_, ok = table.DissectorForUint(80)
	assert.False(t, ok)

	pinfo := &PacketInfo{MatchUint: 7}
	tvb := NewTvb([]byte{1, 2, 3}, 3)
	assert.Equal(t, 3, table.TryUint(8085, tvb, pinfo, nil))
	assert.Equal(t, uint32(8085), matched)
	assert.Equal(t, uint32(7), pinfo.MatchUint)
	assert.Equal(t, "TEST", pinfo.Columns.Get(column.Protocol))

	assert.Zero(t, table.TryUint(80, tvb, pinfo, nil))

	table.DeleteUint(8085)
	assert.Zero(t, table.TryUint(8085, tvb, pinfo, nil))
}

func TestColumns(t *testing.T) {
	var cols Columns
	assert.Empty(t, cols.Get(column.Info))
	cols.Clear(column.Info)

	cols.Set(column.Info, "hello")
	assert.Equal(t, "hello", cols.Get(column.Info))
	cols.Clear(column.Info)
	assert.Empty(t, cols.Get(column.Info))
}

func TestFieldFormat(t *testing.T) {
	size, kind := testFields()

	assert.Equal(t, "Size: 0x0200 (512)", size.Format(uint32(512)))
	assert.Equal(t, "Kind: 0x00000002", kind.Format(uint32(2)))
	assert.Equal(t, "Size", size.Format(nil))

	dec := &HeaderField{Name: "Port", Type: FTUint16, Display: BaseDec}
	assert.Equal(t, "Port: 8085", dec.Format(uint32(8085)))

	raw := &HeaderField{Name: "Data", Type: FTBytes}
	assert.Equal(t, "Data: 0a0b", raw.Format([]byte{0x0a, 0x0b}))
}

func TestFindAll(t *testing.T) {
	size, _ := testFields()
	tvb := NewTvb([]byte{0x00, 0x10, 0x00, 0x20}, 4)
	tree := NewTree()

	first, err := tree.AddItem(size, tvb, 0, 2, BigEndian)
	require.NoError(t, err)
	second, err := first.AddItem(size, tvb, 2, 2, BigEndian)
	require.NoError(t, err)

	assert.Equal(t, []*Item{first, second}, tree.FindAll("test.size"))
	assert.Empty(t, tree.FindAll("test.kind"))
	assert.Equal(t, "test.size", size.String())

	var none *Tree
	assert.Nil(t, none.FindAll("test.size"))
}
