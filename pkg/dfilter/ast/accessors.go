// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package ast

// NewInt returns a node of a type that keeps its value inline
func NewInt(id TypeID, value int32) *Node {
	node := New(TypeUninitialized, nil)
	node.InitInt(id, value)
	return node
}

// NewField returns a pointer node referencing a field description. The
// description is shared, never owned.
func NewField(target interface{}) *Node {
	return New(TypePointer, &Pointer{Target: target})
}

func payloadOf[T Payload](n *Node, id TypeID, op string) T {
	n.check(op)
	if n.typ == nil || n.typ.ID != id {
		contractViolation(op, "expected a %s node, got %s", id, n.TypeName())
	}
	p, ok := n.data.(T)
	if !ok {
		contractViolation(op, "%s node has no payload", id)
	}
	return p
}

// AsFunction returns the payload of a function node
func (n *Node) AsFunction() *FunctionCall {
	return payloadOf[*FunctionCall](n, TypeFunction, "as function")
}

// AsPointer returns the payload of a pointer node
func (n *Node) AsPointer() *Pointer {
	return payloadOf[*Pointer](n, TypePointer, "as pointer")
}

// AsRange returns the payload of a range node
func (n *Node) AsRange() *Range {
	return payloadOf[*Range](n, TypeRange, "as range")
}

// AsSet returns the payload of a set node
func (n *Node) AsSet() *Set {
	return payloadOf[*Set](n, TypeSet, "as set")
}

// AsString returns the payload of a string node
func (n *Node) AsString() *String {
	return payloadOf[*String](n, TypeString, "as string")
}

// AsTest returns the payload of a test node
func (n *Node) AsTest() *Test {
	return payloadOf[*Test](n, TypeTest, "as test")
}

// SetTest sets the operator and operands of a test node. Unary operators
// take no right operand. The node takes ownership of the operands.
func (n *Node) SetTest(op TestOp, left, right *Node) {
	t := n.AsTest()
	if op.IsUnary() && right != nil {
		contractViolation("set test", "unary operator %s with two operands", op)
	}
	if !op.IsUnary() && (left == nil || right == nil) {
		contractViolation("set test", "binary operator %s needs two operands", op)
	}
	t.Op, t.Left, t.Right = op, left, right
}

// SetFunctionParams sets the parameters of a function node, checking the
// arity against the function definition
func (n *Node) SetFunctionParams(params ...*Node) {
	call := n.AsFunction()
	if def := call.Def; def != nil {
		if len(params) < def.MinArgs || (def.MaxArgs >= 0 && len(params) > def.MaxArgs) {
			contractViolation("set function params", "%s called with %d parameters", def.Name, len(params))
		}
	}
	call.Params = params
}

// SetRange sets the entity and byte ranges of a range node
func (n *Node) SetRange(entity *Node, ranges ...DRange) {
	r := n.AsRange()
	r.Entity = entity
	r.Ranges = ranges
}

// AddSetElement appends a member to a set node. high is nil for a single
// value.
func (n *Node) AddSetElement(low, high *Node) {
	s := n.AsSet()
	if low == nil {
		contractViolation("add set element", "nil set member")
	}
	s.Elements = append(s.Elements, SetElement{Low: low, High: high})
}
