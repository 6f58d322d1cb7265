// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package ast

import (
	"fmt"
	"io"
	"strings"
)

// Children returns the nodes owned by the node payload, in source order
func (n *Node) Children() []*Node {
	n.check("children")
	var children []*Node
	appendNode := func(c *Node) {
		if c != nil {
			children = append(children, c)
		}
	}

	switch p := n.data.(type) {
	case *FunctionCall:
		for _, param := range p.Params {
			appendNode(param)
		}
	case *Range:
		appendNode(p.Entity)
	case *Set:
		for _, e := range p.Elements {
			appendNode(e.Low)
			appendNode(e.High)
		}
	case *Test:
		appendNode(p.Left)
		appendNode(p.Right)
	}
	return children
}

// Walk visits the tree in pre-order. Returning false from fn skips the
// children of the visited node.
func Walk(n *Node, fn func(n *Node, depth int) bool) {
	walk(n, 0, fn)
}

func walk(n *Node, depth int, fn func(*Node, int) bool) {
	if n == nil || !fn(n, depth) {
		return
	}
	for _, c := range n.Children() {
		walk(c, depth+1, fn)
	}
}

// Dump writes an indented rendering of the tree, one node per line
func Dump(w io.Writer, root *Node) error {
	var err error
	Walk(root, func(n *Node, depth int) bool {
		if err != nil {
			return false
		}
		_, err = fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), describe(n))
		return true
	})
	return err
}

func describe(n *Node) string {
	var b strings.Builder
	b.WriteString(n.TypeName())
	switch p := n.data.(type) {
	case *FunctionCall:
		if p.Def != nil {
			b.WriteString(" " + p.Def.Name)
		}
	case *Range:
		for _, d := range p.Ranges {
			b.WriteString(" " + d.String())
		}
	case *Test:
		b.WriteString(" " + p.Op.String())
	case *String, *Pointer:
		b.WriteString(" " + p.String())
	}
	if n.TypeID() == TypeInteger {
		b.WriteString(" " + itoa(n.value))
	}
	if n.insideBrackets {
		b.WriteString(" [bracketed]")
	}
	if tok, ok := n.Deprecated(); ok {
		b.WriteString(" (deprecated " + tok + ")")
	}
	return b.String()
}
