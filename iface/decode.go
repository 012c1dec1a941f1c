// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iface

import (
	"errors"
	"fmt"
	"go/ast"
)

// Decode builds an Interface from an interface type declaration and the
// method declarations carrying default bodies for it.
//
// Each default must be a method of spec's type with a body, must be declared
// in the interface, and must be the only default for that method.
// A generic receiver must list one identifier per type parameter.
// Decode reports every violation it finds as a *ShapeError;
// when there is more than one, they are combined with errors.Join.
func Decode(spec *ast.TypeSpec, defaults []*ast.FuncDecl) (*Interface, error) {
	typ, ok := spec.Type.(*ast.InterfaceType)
	if !ok || spec.Assign.IsValid() {
		return nil, &ShapeError{spec.Name.Pos(), fmt.Sprintf("%s is not an interface type declaration", spec.Name.Name)}
	}

	it := &Interface{
		Doc:        spec.Doc,
		Name:       spec.Name,
		TypeParams: spec.TypeParams,
		Interface:  typ.Interface,
	}
	var fields []*ast.Field
	if typ.Methods != nil {
		it.Opening = typ.Methods.Opening
		it.Closing = typ.Methods.Closing
		fields = typ.Methods.List
	}

	var errs []error
	errorf := func(n ast.Node, format string, args ...any) {
		errs = append(errs, &ShapeError{n.Pos(), fmt.Sprintf(format, args...)})
	}

	byName := make(map[string]*ast.FuncDecl)
	recvs := make(map[*ast.FuncDecl]*Receiver)
	for _, fn := range defaults {
		recv, msg := receiverOf(fn, spec)
		if msg != "" {
			errorf(fn.Name, "%s", msg)
			continue
		}
		if fn.Body == nil {
			errorf(fn.Name, "default method %s.%s has no body", it.Name.Name, fn.Name.Name)
			continue
		}
		if prev := byName[fn.Name.Name]; prev != nil {
			errorf(fn.Name, "duplicate default body for %s.%s", it.Name.Name, fn.Name.Name)
			continue
		}
		byName[fn.Name.Name] = fn
		recvs[fn] = recv
	}

	declared := make(map[string]bool)
	for _, f := range fields {
		m := &Member{Kind: Other, Field: f}
		if _, ok := f.Type.(*ast.FuncType); ok && len(f.Names) == 1 {
			name := f.Names[0].Name
			declared[name] = true
			m.Kind = Method
			if fn := byName[name]; fn != nil {
				m.Kind = DefaultMethod
				m.Doc = fn.Doc
				m.Sig = &Signature{Name: fn.Name, Recv: recvs[fn], Type: fn.Type}
				m.Body = fn.Body
			}
		}
		it.Members = append(it.Members, m)
	}

	for _, fn := range defaults {
		if byName[fn.Name.Name] == fn && !declared[fn.Name.Name] {
			errorf(fn.Name, "%s has a default body but is not a method of %s", fn.Name.Name, it.Name.Name)
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return it, nil
}

// receiverOf checks that fn is a method of spec's type and returns its receiver.
// On failure it returns a message describing the problem.
func receiverOf(fn *ast.FuncDecl, spec *ast.TypeSpec) (*Receiver, string) {
	if fn.Recv == nil || len(fn.Recv.List) != 1 {
		return nil, fmt.Sprintf("%s is not a method of %s", fn.Name.Name, spec.Name.Name)
	}
	field := fn.Recv.List[0]
	base, args := baseType(field.Type)
	if base == nil || base.Name != spec.Name.Name {
		return nil, fmt.Sprintf("%s is not a method of %s", fn.Name.Name, spec.Name.Name)
	}

	want := 0
	if spec.TypeParams != nil {
		want = spec.TypeParams.NumFields()
	}
	if len(args) != want {
		return nil, fmt.Sprintf("receiver of %s.%s has %d type parameters, want %d", spec.Name.Name, fn.Name.Name, len(args), want)
	}
	for _, arg := range args {
		if _, ok := arg.(*ast.Ident); !ok {
			return nil, fmt.Sprintf("receiver of %s.%s must name its type parameters", spec.Name.Name, fn.Name.Name)
		}
	}

	recv := &Receiver{Type: field.Type}
	if len(field.Names) > 0 {
		recv.Name = field.Names[0]
	}
	return recv, ""
}
