// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package dissect holds what protocol dissectors register and what they are
// handed for every packet: header fields, byte views, protocol trees and
// dissector tables
package dissect

import (
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/DataDog/packet-filter/pkg/util/log"
)

// Protocol is a registered protocol
type Protocol struct {
	ID     int
	Name   string
	Short  string
	Filter string

	// Field is the field of the protocol itself, used for its tree item
	Field *HeaderField
}

// Registry records the protocols, fields and dissector tables known to a
// capture session
type Registry struct {
	mu        sync.RWMutex
	protocols []*Protocol
	fields    []*HeaderField
	byAbbrev  map[string]*HeaderField
	tables    map[string]*DissectorTable
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{
		byAbbrev: make(map[string]*HeaderField),
		tables:   make(map[string]*DissectorTable),
	}
}

// RegisterProtocol adds a protocol. The filter name doubles as the
// abbreviation of the protocol field and must be unique.
func (r *Registry) RegisterProtocol(name, short, filter string) (*Protocol, error) {
	if name == "" || short == "" || filter == "" {
		return nil, errors.Errorf("protocol %q: name, short name and filter name are required", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, found := r.byAbbrev[filter]; found {
		return nil, errors.Errorf("protocol %q: filter name %q already registered", name, filter)
	}

	p := &Protocol{
		ID:     len(r.protocols),
		Name:   name,
		Short:  short,
		Filter: filter,
	}
	p.Field = &HeaderField{
		Name:     name,
		Abbrev:   filter,
		Type:     FTProtocol,
		ID:       len(r.fields),
		Protocol: p,
	}
	r.protocols = append(r.protocols, p)
	r.fields = append(r.fields, p.Field)
	r.byAbbrev[filter] = p.Field

	log.Debugf("registered protocol %s (%s)", short, filter)
	return p, nil
}

// RegisterFields adds the fields of a protocol and assigns their ids.
// Either every field is registered or none is, with all the problems found
// returned together.
func (r *Registry) RegisterFields(p *Protocol, fields ...*HeaderField) error {
	if p == nil {
		return errors.New("registering fields of a nil protocol")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var errs *multierror.Error
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		switch {
		case f == nil:
			errs = multierror.Append(errs, errors.Errorf("%s: nil field", p.Filter))
			continue
		case f.Abbrev == "" || f.Name == "":
			errs = multierror.Append(errs, errors.Errorf("%s: field %q needs a name and an abbreviation", p.Filter, f.Abbrev))
			continue
		case f.Type == FTProtocol:
			errs = multierror.Append(errs, errors.Errorf("%s: field %s cannot have the protocol type", p.Filter, f.Abbrev))
		case f.Strings != nil && !f.Type.isUint():
			errs = multierror.Append(errs, errors.Errorf("%s: field %s of type %s cannot have value strings", p.Filter, f.Abbrev, f.Type))
		}
		if _, found := r.byAbbrev[f.Abbrev]; found {
			errs = multierror.Append(errs, errors.Errorf("%s: field %s already registered", p.Filter, f.Abbrev))
		}
		if _, found := seen[f.Abbrev]; found {
			errs = multierror.Append(errs, errors.Errorf("%s: field %s listed twice", p.Filter, f.Abbrev))
		}
		seen[f.Abbrev] = struct{}{}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return err
	}

	for _, f := range fields {
		f.ID = len(r.fields)
		f.Protocol = p
		r.fields = append(r.fields, f)
		r.byAbbrev[f.Abbrev] = f
	}
	return nil
}

// FieldByAbbrev returns the field with the given abbreviation
func (r *Registry) FieldByAbbrev(abbrev string) (*HeaderField, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, found := r.byAbbrev[abbrev]
	return f, found
}

// Fields returns the registered fields in registration order. Protocol
// fields come before the fields of their protocol.
func (r *Registry) Fields() []*HeaderField {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.fields)
}

// ProtocolByFilter returns the protocol with the given filter name
func (r *Registry) ProtocolByFilter(filter string) (*Protocol, bool) {
	f, found := r.FieldByAbbrev(filter)
	if !found || f.Type != FTProtocol {
		return nil, false
	}
	return f.Protocol, true
}

// RegisterDissectorTable creates a table subdissectors add themselves to
func (r *Registry) RegisterDissectorTable(name string) (*DissectorTable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, found := r.tables[name]; found {
		return nil, errors.Errorf("dissector table %s already registered", name)
	}
	t := &DissectorTable{name: name, byUint: make(map[uint32]Dissector)}
	r.tables[name] = t
	return t, nil
}

// FindDissectorTable returns a registered table
func (r *Registry) FindDissectorTable(name string) (*DissectorTable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, found := r.tables[name]
	return t, found
}
