// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package dissect

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Item is a node of the protocol tree: a field found at a place of a packet
type Item struct {
	Field    *HeaderField
	Offset   int
	Length   int
	Value    interface{}
	Children []*Item
}

// Tree is the protocol tree of one packet. Dissectors accept a nil tree,
// in which case nothing is built.
type Tree struct {
	Items []*Item
}

// NewTree returns an empty protocol tree
func NewTree() *Tree {
	return &Tree{}
}

func newItem(f *HeaderField, tvb *Tvb, offset, length int, enc Encoding) (*Item, error) {
	if length < 0 {
		length = tvb.CapturedLength() - offset
	}
	it := &Item{Field: f, Offset: offset, Length: length}

	var err error
	switch {
	case f.Type == FTProtocol:
		_, err = tvb.Bytes(offset, length)
	case f.Type.isUint():
		it.Value, err = tvb.uint(offset, length, enc)
	case f.Type == FTBytes:
		var b []byte
		if b, err = tvb.Bytes(offset, length); err == nil {
			it.Value = append([]byte(nil), b...)
		}
	case f.Type == FTString:
		var b []byte
		if b, err = tvb.Bytes(offset, length); err == nil {
			it.Value = string(b)
		}
	default:
		err = errors.Errorf("unsupported field type %s", f.Type)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "adding %s", f.Abbrev)
	}
	return it, nil
}

// AddItem adds a top level item read from tvb. A negative length runs to
// the end of the captured data.
func (t *Tree) AddItem(f *HeaderField, tvb *Tvb, offset, length int, enc Encoding) (*Item, error) {
	it, err := newItem(f, tvb, offset, length, enc)
	if err != nil || t == nil {
		return nil, err
	}
	t.Items = append(t.Items, it)
	return it, nil
}

// AddItem adds a child item read from tvb
func (it *Item) AddItem(f *HeaderField, tvb *Tvb, offset, length int, enc Encoding) (*Item, error) {
	child, err := newItem(f, tvb, offset, length, enc)
	if err != nil || it == nil {
		return nil, err
	}
	it.Children = append(it.Children, child)
	return child, nil
}

// String returns the display text of the item
func (it *Item) String() string {
	return it.Field.Format(it.Value)
}

// Find returns the first item of the given field, depth first
func (t *Tree) Find(abbrev string) *Item {
	if t == nil {
		return nil
	}
	var find func(items []*Item) *Item
	find = func(items []*Item) *Item {
		for _, it := range items {
			if it.Field.Abbrev == abbrev {
				return it
			}
			if found := find(it.Children); found != nil {
				return found
			}
		}
		return nil
	}
	return find(t.Items)
}

// FindAll returns every item of the given field, depth first
func (t *Tree) FindAll(abbrev string) []*Item {
	if t == nil {
		return nil
	}
	var (
		found   []*Item
		collect func(items []*Item)
	)
	collect = func(items []*Item) {
		for _, it := range items {
			if it.Field.Abbrev == abbrev {
				found = append(found, it)
			}
			collect(it.Children)
		}
	}
	collect(t.Items)
	return found
}

// Dump writes the tree, one indented item per line
func (t *Tree) Dump(w io.Writer) error {
	if t == nil {
		return nil
	}
	var dump func(items []*Item, depth int) error
	dump = func(items []*Item, depth int) error {
		for _, it := range items {
			if _, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("    ", depth), it); err != nil {
				return err
			}
			if err := dump(it.Children, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return dump(t.Items, 0)
}
