// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package ast

import (
	"sync"

	"github.com/DataDog/packet-filter/pkg/util/log"
)

// TypeDescriptor holds the behavior of one node type
type TypeDescriptor struct {
	ID   TypeID
	Name string

	// New builds the owned payload from the raw input. When nil the raw
	// input, which must then be a Payload or nil, is stored as is.
	New func(raw interface{}) Payload
	// Dup returns an independent copy of the payload. When nil the
	// duplicate shares the payload with the original.
	Dup func(Payload) Payload
	// Free releases the payload.
	Free func(Payload)
}

// SharesPayload returns whether duplicating a node of this type shares the
// payload between the original and the copy
func (d *TypeDescriptor) SharesPayload() bool {
	return d.Dup == nil
}

// Registry maps type identifiers to their descriptor. It is written during
// initialization only and read without locking afterwards.
type Registry struct {
	types [numTypes]*TypeDescriptor
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a descriptor. Registering an out of range or an already
// registered identifier panics.
func (r *Registry) Register(desc *TypeDescriptor) {
	if desc == nil {
		contractViolation("register", "nil descriptor")
	}
	if desc.ID <= TypeUninitialized || desc.ID >= numTypes {
		contractViolation("register", "type id %d out of range", int(desc.ID))
	}
	if r.types[desc.ID] != nil {
		contractViolation("register", "type %s already registered", desc.ID)
	}
	r.types[desc.ID] = desc
}

// Lookup returns the descriptor of a type. Every type is registered at
// initialization so a missing one panics.
func (r *Registry) Lookup(id TypeID) *TypeDescriptor {
	if id <= TypeUninitialized || id >= numTypes {
		contractViolation("lookup", "type id %d out of range", int(id))
	}
	desc := r.types[id]
	if desc == nil {
		contractViolation("lookup", "type %s not registered", id)
	}
	return desc
}

var (
	defaultRegistry = NewRegistry()
	initOnce        sync.Once
)

// Init registers the built-in node types in the default registry. It must
// run before the registry is shared between goroutines; later calls are
// no-ops.
func Init() {
	initOnce.Do(func() {
		registerBuiltins(defaultRegistry)
		log.Debugf("syntax tree: %d node types registered", int(numTypes)-1)
	})
}

// Cleanup is the counterpart of Init. Registered types live for the whole
// process so there is nothing to release.
func Cleanup() {}

// DefaultRegistry returns the process-wide registry, initializing it if needed
func DefaultRegistry() *Registry {
	Init()
	return defaultRegistry
}

func registerBuiltins(r *Registry) {
	r.Register(functionType())
	r.Register(integerType())
	r.Register(pointerType())
	r.Register(rangeType())
	r.Register(setType())
	r.Register(stringType())
	r.Register(testType())
}
