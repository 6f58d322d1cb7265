// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package ast

// Payload is the data owned by a node. Its concrete type is defined by the
// node type; the set of payloads is closed to this package.
type Payload interface {
	String() string
	payload()
}

// Node is one position of the syntax tree
type Node struct {
	typ  *TypeDescriptor
	data Payload

	// immediate value, used by types that need no payload
	value int32

	// set by the grammar when the node was read between brackets, to tell
	// set membership from range syntax
	insideBrackets bool

	deprecatedToken string
	deprecated      bool

	// set once the node has been freed, any later use panics
	released bool
}

// New returns a node of the given type built with the default registry
func New(id TypeID, raw interface{}) *Node {
	return NewWith(DefaultRegistry(), id, raw)
}

// NewWith returns a node of the given type built with the given registry.
// TypeUninitialized returns an empty node to be bound later with Init.
func NewWith(reg *Registry, id TypeID, raw interface{}) *Node {
	node := &Node{}
	if id == TypeUninitialized {
		return node
	}
	node.bind(reg, id, raw)
	return node
}

func (n *Node) bind(reg *Registry, id TypeID, raw interface{}) {
	desc := reg.Lookup(id)
	n.typ = desc
	if desc.New != nil {
		n.data = desc.New(raw)
		return
	}
	if raw == nil {
		return
	}
	p, ok := raw.(Payload)
	if !ok {
		contractViolation("new", "type %s has no constructor and %T is not a payload", id, raw)
	}
	n.data = p
}

func (n *Node) check(op string) {
	if n == nil {
		contractViolation(op, "nil node")
	}
	if n.released {
		contractViolation(op, "node used after being freed")
	}
}

// Init binds an uninitialized node to a type. The node must have neither a
// type nor data.
func (n *Node) Init(id TypeID, raw interface{}) {
	n.InitWith(DefaultRegistry(), id, raw)
}

// InitWith is Init with an explicit registry
func (n *Node) InitWith(reg *Registry, id TypeID, raw interface{}) {
	n.check("init")
	if n.typ != nil {
		contractViolation("init", "node already bound to %s", n.typ.Name)
	}
	if n.data != nil {
		contractViolation("init", "uninitialized node carries data")
	}
	n.bind(reg, id, raw)
}

// InitInt binds an uninitialized node to a type that keeps its value inline
func (n *Node) InitInt(id TypeID, value int32) {
	n.Init(id, nil)
	n.value = value
}

// Dup returns an independent copy of the node, or nil for a nil node. The
// payload is duplicated when the type knows how to, otherwise it is shared.
// The deprecated token is not carried over.
func Dup(org *Node) *Node {
	if org == nil {
		return nil
	}
	org.check("dup")

	node := &Node{
		typ:            org.typ,
		value:          org.value,
		insideBrackets: org.insideBrackets,
	}
	if org.typ != nil && org.typ.Dup != nil && org.data != nil {
		node.data = org.typ.Dup(org.data)
	} else {
		node.data = org.data
	}
	return node
}

// Free releases the payload through the type destructor. A node that was
// never bound must not carry data.
func (n *Node) Free() {
	n.check("free")
	if n.typ != nil {
		if n.typ.Free != nil && n.data != nil {
			n.typ.Free(n.data)
		}
	} else if n.data != nil {
		contractViolation("free", "uninitialized node carries data")
	}
	n.data = nil
	n.released = true
}

// TypeName returns the name of the node type
func (n *Node) TypeName() string {
	n.check("type name")
	if n.typ == nil {
		return uninitializedName
	}
	return n.typ.Name
}

// TypeID returns the node type
func (n *Node) TypeID() TypeID {
	n.check("type id")
	if n.typ == nil {
		return TypeUninitialized
	}
	return n.typ.ID
}

// Data returns the payload, the node keeps ownership
func (n *Node) Data() Payload {
	n.check("data")
	return n.data
}

// StealData returns the payload and removes it from the node. Stealing from
// an empty node panics.
func (n *Node) StealData() Payload {
	n.check("steal data")
	if n.data == nil {
		contractViolation("steal data", "node has no data")
	}
	data := n.data
	n.data = nil
	return data
}

// Value returns the immediate value whatever the node type
func (n *Node) Value() int32 {
	n.check("value")
	return n.value
}

// SetBracket records whether the node was read between brackets
func (n *Node) SetBracket(bracket bool) {
	n.check("set bracket")
	n.insideBrackets = bracket
}

// InsideBrackets returns whether the node was read between brackets
func (n *Node) InsideBrackets() bool {
	n.check("inside brackets")
	return n.insideBrackets
}

// SetDeprecated records the deprecated token the node was produced from
func (n *Node) SetDeprecated(token string) {
	n.check("set deprecated")
	n.deprecatedToken = token
	n.deprecated = true
}

// Deprecated returns the deprecated token the node was produced from, if any
func (n *Node) Deprecated() (string, bool) {
	if n == nil {
		return "", false
	}
	return n.deprecatedToken, n.deprecated
}

// String returns a one line description of the node
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	if n.released {
		return "<freed>"
	}
	switch {
	case n.typ == nil:
		return uninitializedName
	case n.typ.ID == TypeInteger:
		return n.typ.Name + "(" + itoa(n.value) + ")"
	case n.data == nil:
		return n.typ.Name + "(<empty>)"
	default:
		return n.typ.Name + "(" + n.data.String() + ")"
	}
}
