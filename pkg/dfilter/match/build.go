// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

package match

import (
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/DataDog/packet-filter/pkg/dfilter/ast"
	"github.com/DataDog/packet-filter/pkg/dissect"
)

// Build returns the tree testing that every field of exists is present and
// that every abbrev=value pair of equals holds. Values of integer fields
// may be written in any base strconv understands, and several values
// separated by commas are tested as a set. It returns nil when there is
// nothing to test.
func Build(reg *dissect.Registry, exists []string, equals []string) (*ast.Node, error) {
	var (
		tests []*ast.Node
		errs  *multierror.Error
	)

	for _, abbrev := range exists {
		f, found := reg.FieldByAbbrev(abbrev)
		if !found {
			errs = multierror.Append(errs, errors.Errorf("unknown field %s", abbrev))
			continue
		}
		test := ast.New(ast.TypeTest, ast.TestExists)
		test.SetTest(ast.TestExists, ast.NewField(f), nil)
		tests = append(tests, test)
	}

	for _, eq := range equals {
		test, err := buildEquals(reg, eq)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		tests = append(tests, test)
	}

	if err := errs.ErrorOrNil(); err != nil {
		for _, t := range tests {
			t.Free()
		}
		return nil, err
	}
	if len(tests) == 0 {
		return nil, nil
	}

	root := tests[0]
	for _, t := range tests[1:] {
		and := ast.New(ast.TypeTest, ast.TestAnd)
		and.SetTest(ast.TestAnd, root, t)
		root = and
	}
	return root, nil
}

func buildEquals(reg *dissect.Registry, eq string) (*ast.Node, error) {
	abbrev, value, ok := strings.Cut(eq, "=")
	if !ok || abbrev == "" {
		return nil, errors.Errorf("%q is not a field=value pair", eq)
	}
	f, found := reg.FieldByAbbrev(abbrev)
	if !found {
		return nil, errors.Errorf("unknown field %s", abbrev)
	}

	switch f.Type {
	case dissect.FTUint16, dissect.FTUint32:
		values := strings.Split(value, ",")
		if len(values) == 1 {
			v, err := parseUint(f, value)
			if err != nil {
				return nil, err
			}
			test := ast.New(ast.TypeTest, ast.TestAnyEq)
			test.SetTest(ast.TestAnyEq, ast.NewField(f), v)
			return test, nil
		}

		set := ast.New(ast.TypeSet, nil)
		set.SetBracket(true)
		for _, s := range values {
			v, err := parseUint(f, s)
			if err != nil {
				set.Free()
				return nil, err
			}
			set.AddSetElement(v, nil)
		}
		test := ast.New(ast.TypeTest, ast.TestIn)
		test.SetTest(ast.TestIn, ast.NewField(f), set)
		return test, nil

	case dissect.FTString:
		test := ast.New(ast.TypeTest, ast.TestAnyEq)
		test.SetTest(ast.TestAnyEq, ast.NewField(f), ast.New(ast.TypeString, value))
		return test, nil
	}
	return nil, errors.Errorf("field %s of type %s cannot be compared", abbrev, f.Type)
}

func parseUint(f *dissect.HeaderField, s string) (*ast.Node, error) {
	bits := 32
	if f.Type == dissect.FTUint16 {
		bits = 16
	}
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, bits)
	if err != nil {
		return nil, errors.Wrapf(err, "value of %s", f.Abbrev)
	}
	return ast.NewInt(ast.TypeInteger, int32(uint32(v))), nil
}
