// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package ast

import (
	"strconv"
	"strings"

	"github.com/mohae/deepcopy"
	"golang.org/x/exp/slices"
)

func itoa(v int32) string {
	return strconv.FormatInt(int64(v), 10)
}

func freeNode(n *Node) {
	if n != nil && !n.released {
		n.Free()
	}
}

// FunctionDef describes a display filter function. Definitions live in the
// function table and are shared by every call.
type FunctionDef struct {
	Name    string
	MinArgs int
	MaxArgs int
}

// FunctionCall is the payload of TypeFunction nodes
type FunctionCall struct {
	Def    *FunctionDef
	Params []*Node
}

func (*FunctionCall) payload() {}

func (f *FunctionCall) String() string {
	params := make([]string, 0, len(f.Params))
	for _, p := range f.Params {
		params = append(params, p.String())
	}
	name := "<undefined>"
	if f.Def != nil {
		name = f.Def.Name
	}
	return name + "(" + strings.Join(params, ", ") + ")"
}

func functionType() *TypeDescriptor {
	return &TypeDescriptor{
		ID:   TypeFunction,
		Name: typeNames[TypeFunction],
		New: func(raw interface{}) Payload {
			switch def := raw.(type) {
			case nil:
				return &FunctionCall{}
			case *FunctionDef:
				return &FunctionCall{Def: def}
			default:
				contractViolation("new", "function node built from %T", raw)
				return nil
			}
		},
		Dup: func(p Payload) Payload {
			org := p.(*FunctionCall)
			call := &FunctionCall{Def: org.Def}
			for _, param := range org.Params {
				call.Params = append(call.Params, Dup(param))
			}
			return call
		},
		Free: func(p Payload) {
			call := p.(*FunctionCall)
			for _, param := range call.Params {
				freeNode(param)
			}
			call.Params = nil
		},
	}
}

// Integer nodes keep their value in the node immediate and have no payload.
func integerType() *TypeDescriptor {
	return &TypeDescriptor{
		ID:   TypeInteger,
		Name: typeNames[TypeInteger],
	}
}

// Pointer is the payload of TypePointer nodes. The target, typically a
// header field description, is owned by the protocol registry: the payload
// is shared between duplicates and never released by the node.
type Pointer struct {
	Target interface{}
}

func (*Pointer) payload() {}

func (p *Pointer) String() string {
	if s, ok := p.Target.(interface{ String() string }); ok {
		return s.String()
	}
	return "<pointer>"
}

func pointerType() *TypeDescriptor {
	return &TypeDescriptor{
		ID:   TypePointer,
		Name: typeNames[TypePointer],
	}
}

// DRangeEnding tells how a byte range is bounded
type DRangeEnding int

// Range endings
const (
	DRangeUninitialized DRangeEnding = iota
	DRangeLength
	DRangeOffset
	DRangeToTheEnd
)

// DRange is one byte range of a slice expression such as `eth.src[0:3]`
type DRange struct {
	Start  int
	Length int
	End    int
	Ending DRangeEnding
}

func (d DRange) String() string {
	start := strconv.Itoa(d.Start)
	switch d.Ending {
	case DRangeLength:
		return start + ":" + strconv.Itoa(d.Length)
	case DRangeOffset:
		return start + "-" + strconv.Itoa(d.End)
	case DRangeToTheEnd:
		return start + ":"
	default:
		return start + "?"
	}
}

// Range is the payload of TypeRange nodes, a slice of an entity
type Range struct {
	Entity *Node
	Ranges []DRange
}

func (*Range) payload() {}

func (r *Range) String() string {
	ranges := make([]string, 0, len(r.Ranges))
	for _, d := range r.Ranges {
		ranges = append(ranges, d.String())
	}
	return r.Entity.String() + "[" + strings.Join(ranges, ",") + "]"
}

func rangeType() *TypeDescriptor {
	return &TypeDescriptor{
		ID:   TypeRange,
		Name: typeNames[TypeRange],
		New: func(raw interface{}) Payload {
			switch entity := raw.(type) {
			case nil:
				return &Range{}
			case *Node:
				return &Range{Entity: entity}
			default:
				contractViolation("new", "range node built from %T", raw)
				return nil
			}
		},
		Dup: func(p Payload) Payload {
			org := p.(*Range)
			return &Range{
				Entity: Dup(org.Entity),
				Ranges: deepcopy.Copy(org.Ranges).([]DRange),
			}
		},
		Free: func(p Payload) {
			r := p.(*Range)
			freeNode(r.Entity)
			r.Entity = nil
			r.Ranges = nil
		},
	}
}

// SetElement is a member of a set, either a single value or a low..high
// range when High is set
type SetElement struct {
	Low  *Node
	High *Node
}

// Set is the payload of TypeSet nodes
type Set struct {
	Elements []SetElement
}

func (*Set) payload() {}

func (s *Set) String() string {
	elements := make([]string, 0, len(s.Elements))
	for _, e := range s.Elements {
		if e.High != nil {
			elements = append(elements, e.Low.String()+".."+e.High.String())
		} else {
			elements = append(elements, e.Low.String())
		}
	}
	return "{" + strings.Join(elements, " ") + "}"
}

func setType() *TypeDescriptor {
	return &TypeDescriptor{
		ID:   TypeSet,
		Name: typeNames[TypeSet],
		New: func(raw interface{}) Payload {
			switch elements := raw.(type) {
			case nil:
				return &Set{}
			case []SetElement:
				return &Set{Elements: slices.Clone(elements)}
			default:
				contractViolation("new", "set node built from %T", raw)
				return nil
			}
		},
		Dup: func(p Payload) Payload {
			org := p.(*Set)
			set := &Set{Elements: make([]SetElement, 0, len(org.Elements))}
			for _, e := range org.Elements {
				set.Elements = append(set.Elements, SetElement{Low: Dup(e.Low), High: Dup(e.High)})
			}
			return set
		},
		Free: func(p Payload) {
			set := p.(*Set)
			for _, e := range set.Elements {
				freeNode(e.Low)
				freeNode(e.High)
			}
			set.Elements = nil
		},
	}
}

// String is the payload of TypeString nodes
type String struct {
	Value string
}

func (*String) payload() {}

func (s *String) String() string {
	return strconv.Quote(s.Value)
}

func stringType() *TypeDescriptor {
	return &TypeDescriptor{
		ID:   TypeString,
		Name: typeNames[TypeString],
		New: func(raw interface{}) Payload {
			switch v := raw.(type) {
			case nil:
				return &String{}
			case string:
				return &String{Value: v}
			default:
				contractViolation("new", "string node built from %T", raw)
				return nil
			}
		},
		Dup: func(p Payload) Payload {
			return &String{Value: p.(*String).Value}
		},
		Free: func(p Payload) {
			p.(*String).Value = ""
		},
	}
}

// TestOp is the operator of a test node
type TestOp int

// Test operators
const (
	TestUninitialized TestOp = iota
	TestExists
	TestNot
	TestAnd
	TestOr
	TestAllEq
	TestAnyEq
	TestAllNe
	TestAnyNe
	TestGt
	TestGe
	TestLt
	TestLe
	TestBitwiseAnd
	TestContains
	TestMatches
	TestIn
)

var testOpNames = map[TestOp]string{
	TestUninitialized: "<uninitialized>",
	TestExists:        "exists",
	TestNot:           "!",
	TestAnd:           "&&",
	TestOr:            "||",
	TestAllEq:         "===",
	TestAnyEq:         "==",
	TestAllNe:         "!=",
	TestAnyNe:         "~=",
	TestGt:            ">",
	TestGe:            ">=",
	TestLt:            "<",
	TestLe:            "<=",
	TestBitwiseAnd:    "&",
	TestContains:      "contains",
	TestMatches:       "matches",
	TestIn:            "in",
}

var unaryTestOps = []TestOp{TestExists, TestNot}

func (op TestOp) String() string {
	if name, ok := testOpNames[op]; ok {
		return name
	}
	return "TestOp(" + strconv.Itoa(int(op)) + ")"
}

// IsUnary returns whether the operator takes a single operand
func (op TestOp) IsUnary() bool {
	return slices.Contains(unaryTestOps, op)
}

// Test is the payload of TypeTest nodes, a relation or logical operator
type Test struct {
	Op    TestOp
	Left  *Node
	Right *Node
}

func (*Test) payload() {}

func (t *Test) String() string {
	if t.Op.IsUnary() {
		return t.Op.String() + " " + t.Left.String()
	}
	return t.Left.String() + " " + t.Op.String() + " " + t.Right.String()
}

func testType() *TypeDescriptor {
	return &TypeDescriptor{
		ID:   TypeTest,
		Name: typeNames[TypeTest],
		New: func(raw interface{}) Payload {
			switch op := raw.(type) {
			case nil:
				return &Test{}
			case TestOp:
				return &Test{Op: op}
			default:
				contractViolation("new", "test node built from %T", raw)
				return nil
			}
		},
		Dup: func(p Payload) Payload {
			org := p.(*Test)
			return &Test{Op: org.Op, Left: Dup(org.Left), Right: Dup(org.Right)}
		},
		Free: func(p Payload) {
			t := p.(*Test)
			freeNode(t.Left)
			freeNode(t.Right)
			t.Left, t.Right = nil, nil
		},
	}
}
