// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package match runs display filter trees over the protocol tree of a packet
package match

import (
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/DataDog/packet-filter/pkg/dfilter/ast"
	"github.com/DataDog/packet-filter/pkg/dissect"
)

// Filter is a checked display filter tree
type Filter struct {
	root *ast.Node
}

// Compile checks that every test of the tree can be run and takes
// ownership of it. All the problems found are returned together, and the
// tree is freed when it cannot be compiled.
func Compile(root *ast.Node) (*Filter, error) {
	if root == nil {
		return nil, errors.New("empty filter")
	}

	if root.TypeID() != ast.TypeTest {
		err := errors.Errorf("filter root is a %s node, not a test", root.TypeName())
		root.Free()
		return nil, err
	}

	var errs *multierror.Error
	ast.Walk(root, func(n *ast.Node, _ int) bool {
		if n.TypeID() != ast.TypeTest {
			return false
		}
		if err := checkTest(n.AsTest()); err != nil {
			errs = multierror.Append(errs, err)
		}
		return true
	})
	if err := errs.ErrorOrNil(); err != nil {
		root.Free()
		return nil, err
	}
	return &Filter{root: root}, nil
}

func typeOf(n *ast.Node) ast.TypeID {
	if n == nil {
		return ast.TypeUninitialized
	}
	return n.TypeID()
}

func typeName(n *ast.Node) string {
	if n == nil {
		return "missing"
	}
	return n.TypeName()
}

func isField(n *ast.Node) bool {
	if typeOf(n) != ast.TypePointer {
		return false
	}
	_, ok := n.AsPointer().Target.(*dissect.HeaderField)
	return ok
}

func isTest(n *ast.Node) bool {
	return typeOf(n) == ast.TypeTest
}

func checkTest(t *ast.Test) error {
	switch t.Op {
	case ast.TestExists:
		if !isField(t.Left) {
			return errors.Errorf("%s needs a field operand", t.Op)
		}
	case ast.TestNot:
		if !isTest(t.Left) {
			return errors.Errorf("%s needs a test operand", t.Op)
		}
	case ast.TestAnd, ast.TestOr:
		if !isTest(t.Left) || !isTest(t.Right) {
			return errors.Errorf("%s needs two test operands", t.Op)
		}
	case ast.TestAllEq, ast.TestAnyEq, ast.TestAllNe, ast.TestAnyNe,
		ast.TestGt, ast.TestGe, ast.TestLt, ast.TestLe, ast.TestBitwiseAnd:
		if !isField(t.Left) {
			return errors.Errorf("%s needs a field on its left", t.Op)
		}
		if id := typeOf(t.Right); id != ast.TypeInteger && id != ast.TypeString {
			return errors.Errorf("%s cannot compare a field to a %s node", t.Op, typeName(t.Right))
		}
	case ast.TestContains:
		if !isField(t.Left) || typeOf(t.Right) != ast.TypeString {
			return errors.Errorf("%s needs a field and a string", t.Op)
		}
	case ast.TestIn:
		if !isField(t.Left) || typeOf(t.Right) != ast.TypeSet {
			return errors.Errorf("%s needs a field and a set", t.Op)
		}
		for _, e := range t.Right.AsSet().Elements {
			if typeOf(e.Low) != ast.TypeInteger || (e.High != nil && typeOf(e.High) != ast.TypeInteger) {
				return errors.Errorf("%s only supports integer sets", t.Op)
			}
		}
	default:
		return errors.Errorf("operator %s is not supported", t.Op)
	}
	return nil
}

// Match returns whether the protocol tree passes the filter
func (f *Filter) Match(tree *dissect.Tree) bool {
	return eval(f.root, tree)
}

// Release frees the filter tree
func (f *Filter) Release() {
	f.root.Free()
	f.root = nil
}

// String returns the indented dump of the filter tree
func (f *Filter) String() string {
	var b strings.Builder
	_ = ast.Dump(&b, f.root)
	return b.String()
}

func fieldItems(n *ast.Node, tree *dissect.Tree) []*dissect.Item {
	return tree.FindAll(n.AsPointer().Target.(*dissect.HeaderField).Abbrev)
}

func eval(n *ast.Node, tree *dissect.Tree) bool {
	t := n.AsTest()
	switch t.Op {
	case ast.TestExists:
		return len(fieldItems(t.Left, tree)) > 0
	case ast.TestNot:
		return !eval(t.Left, tree)
	case ast.TestAnd:
		return eval(t.Left, tree) && eval(t.Right, tree)
	case ast.TestOr:
		return eval(t.Left, tree) || eval(t.Right, tree)
	case ast.TestIn:
		return anyItem(fieldItems(t.Left, tree), func(v interface{}) bool {
			return inSet(v, t.Right.AsSet())
		})
	}

	items := fieldItems(t.Left, tree)
	switch t.Op {
	case ast.TestAllEq:
		return len(items) > 0 && allItems(items, func(v interface{}) bool { return compare(v, t.Right) == 0 })
	case ast.TestAllNe:
		return len(items) > 0 && allItems(items, func(v interface{}) bool { return compare(v, t.Right) != 0 })
	}
	return anyItem(items, func(v interface{}) bool {
		return relation(t.Op, v, t.Right)
	})
}

func anyItem(items []*dissect.Item, pred func(v interface{}) bool) bool {
	for _, it := range items {
		if pred(it.Value) {
			return true
		}
	}
	return false
}

func allItems(items []*dissect.Item, pred func(v interface{}) bool) bool {
	for _, it := range items {
		if !pred(it.Value) {
			return false
		}
	}
	return true
}

func relation(op ast.TestOp, v interface{}, right *ast.Node) bool {
	if op == ast.TestContains {
		s, ok := v.(string)
		return ok && strings.Contains(s, right.AsString().Value)
	}
	if op == ast.TestBitwiseAnd {
		u, ok := v.(uint32)
		return ok && right.TypeID() == ast.TypeInteger && u&uint32(right.Value()) != 0
	}

	c := compare(v, right)
	switch op {
	case ast.TestAnyEq:
		return c == 0
	case ast.TestAnyNe:
		return c != 0 && c != incomparable
	case ast.TestGt:
		return c == 1
	case ast.TestGe:
		return c == 0 || c == 1
	case ast.TestLt:
		return c == -1
	case ast.TestLe:
		return c == 0 || c == -1
	}
	return false
}

// incomparable is returned by compare for values of different kinds
const incomparable = 2

func compare(v interface{}, right *ast.Node) int {
	switch val := v.(type) {
	case uint32:
		if right.TypeID() != ast.TypeInteger {
			return incomparable
		}
		return cmpUint(val, uint32(right.Value()))
	case string:
		if right.TypeID() != ast.TypeString {
			return incomparable
		}
		return strings.Compare(val, right.AsString().Value)
	}
	return incomparable
}

// integer nodes hold the field value bits
func cmpUint(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func inSet(v interface{}, set *ast.Set) bool {
	u, ok := v.(uint32)
	if !ok {
		return false
	}
	for _, e := range set.Elements {
		low := uint32(e.Low.Value())
		if e.High == nil {
			if u == low {
				return true
			}
			continue
		}
		if u >= low && u <= uint32(e.High.Value()) {
			return true
		}
	}
	return false
}
