// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package ast holds the display filter syntax tree: the node type registry
// and the polymorphic node built by the grammar and consumed by the compiler.
package ast

import "fmt"

// TypeID identifies the kind of a syntax tree node
type TypeID int

// Node types. TypeUninitialized is the state of a node that has not been
// bound yet, it is never registered.
const (
	TypeUninitialized TypeID = iota
	TypeFunction
	TypeInteger
	TypePointer
	TypeRange
	TypeSet
	TypeString
	TypeTest

	numTypes
)

const uninitializedName = "UNINITIALIZED"

var typeNames = [numTypes]string{
	TypeUninitialized: uninitializedName,
	TypeFunction:      "FUNCTION",
	TypeInteger:       "INTEGER",
	TypePointer:       "POINTER",
	TypeRange:         "RANGE",
	TypeSet:           "SET",
	TypeString:        "STRING",
	TypeTest:          "TEST",
}

// String returns the display name of the type
func (id TypeID) String() string {
	if id < 0 || id >= numTypes {
		return fmt.Sprintf("TypeID(%d)", int(id))
	}
	return typeNames[id]
}

// ContractError is the value panicked with when a caller breaks the node or
// registry contract. It signals a bug in the calling engine, never bad input.
type ContractError struct {
	Op     string
	Reason string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("ast: %s: %s", e.Op, e.Reason)
}

func contractViolation(op, format string, args ...interface{}) {
	panic(&ContractError{Op: op, Reason: fmt.Sprintf(format, args...)})
}
