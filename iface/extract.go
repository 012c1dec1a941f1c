// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iface

import (
	"go/ast"
	"go/token"
)

// Extract returns a copy of it in which every default method has become
// a plain method, along with one function per default method holding
// its renamed body, in member order.
//
// The members of the result share their fields with it;
// it is not modified.
func Extract(it *Interface) (*Interface, []*ast.FuncDecl) {
	out := *it
	out.Members = make([]*Member, len(it.Members))

	var funcs []*ast.FuncDecl
	for i, m := range it.Members {
		if m.Kind != DefaultMethod {
			out.Members[i] = m
			continue
		}
		sig, body := Rename(m.Sig, m.Body, newContext(it))
		funcs = append(funcs, &ast.FuncDecl{
			Doc:  m.Doc,
			Name: sig.Name,
			Type: sig.Type,
			Body: body,
		})
		out.Members[i] = &Member{Kind: Method, Field: m.Field}
	}
	return &out, funcs
}

// Assemble returns the declaration of it followed by funcs.
func Assemble(it *Interface, funcs []*ast.FuncDecl) []ast.Decl {
	fields := make([]*ast.Field, len(it.Members))
	for i, m := range it.Members {
		fields[i] = m.Field
	}
	typ := &ast.GenDecl{
		Doc:    it.Doc,
		TokPos: it.Name.Pos(),
		Tok:    token.TYPE,
		Specs: []ast.Spec{&ast.TypeSpec{
			Name:       it.Name,
			TypeParams: it.TypeParams,
			Type: &ast.InterfaceType{
				Interface: it.Interface,
				Methods: &ast.FieldList{
					Opening: it.Opening,
					List:    fields,
					Closing: it.Closing,
				},
			},
		}},
	}

	decls := []ast.Decl{typ}
	for _, fn := range funcs {
		decls = append(decls, fn)
	}
	return decls
}

// Transform decodes spec and defaults, extracts the default bodies,
// and returns the plain interface declaration followed by the
// extracted functions.
// Only decoding can fail; see Decode.
func Transform(spec *ast.TypeSpec, defaults []*ast.FuncDecl) ([]ast.Decl, error) {
	it, err := Decode(spec, defaults)
	if err != nil {
		return nil, err
	}
	return Assemble(Extract(it)), nil
}
