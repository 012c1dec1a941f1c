// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package iface lifts default method bodies out of interface declarations.
//
// Go has no syntax for a method body inside an interface type, so a default
// method is written as an ordinary method declaration whose receiver is the
// interface itself:
//
//	type Greeter interface {
//		Name() string
//		Greeting() string
//	}
//
//	func (g Greeter) Greeting() string {
//		return "Hello, " + g.Name()
//	}
//
// The parser accepts such declarations even though the type checker does not.
// Transform turns them into a plain interface plus one function per default
// method, with the receiver replaced by an explicit parameter named ParamName
// whose type is satisfied by every implementation of the interface:
//
//	type Greeter interface {
//		Name() string
//		Greeting() string
//	}
//
//	func Greeting(__lift_self interface{ Greeter }) string {
//		return "Hello, " + __lift_self.Name()
//	}
//
// Every identifier spelled like the receiver is renamed, whether or not an
// inner declaration shadows it. Code handed to Transform must not already use
// ParamName.
package iface

import (
	"go/ast"
	"go/token"
)

// ParamName is the name of the parameter that replaces the receiver
// in an extracted function. It is reserved.
const ParamName = "__lift_self"

// An Interface is an interface declaration together with
// the default bodies of its methods.
type Interface struct {
	Doc        *ast.CommentGroup
	Name       *ast.Ident
	TypeParams *ast.FieldList // passed through unchanged
	Interface  token.Pos      // position of the interface keyword
	Opening    token.Pos      // position of {
	Closing    token.Pos      // position of }
	Members    []*Member
}

// A Kind says what sort of interface element a Member is.
type Kind int

const (
	Other         Kind = iota // embedded interface or type set element
	Method                    // method signature without a body
	DefaultMethod             // method signature with a default body
)

func (k Kind) String() string {
	switch k {
	case Other:
		return "other"
	case Method:
		return "method"
	case DefaultMethod:
		return "default method"
	}
	return "???"
}

// A Member is one element of an interface.
//
// Field is the element as written in the interface type.
// For a DefaultMethod, Sig and Body come from the method declaration
// carrying the default body, and Doc is that declaration's doc comment.
type Member struct {
	Kind  Kind
	Field *ast.Field
	Doc   *ast.CommentGroup
	Sig   *Signature
	Body  *ast.BlockStmt
}

// A Signature is a method's name, receiver and function type.
// Type never includes the receiver.
type Signature struct {
	Name *ast.Ident
	Recv *Receiver // nil if the method takes no receiver
	Type *ast.FuncType
}

// A Receiver is the distinguished first parameter of a method.
type Receiver struct {
	Name *ast.Ident // nil if unnamed
	Type ast.Expr   // as written: I, *I, I[T], ...
}

// Pos returns the position of the receiver.
func (recv *Receiver) Pos() token.Pos {
	if recv.Name != nil {
		return recv.Name.Pos()
	}
	return recv.Type.Pos()
}

// token returns the text that names the receiver in the method body,
// or "" if there is no such text.
func (recv *Receiver) token() string {
	if recv == nil || recv.Name == nil || recv.Name.Name == "_" {
		return ""
	}
	return recv.Name.Name
}

// TypeArgs returns the type parameter names listed by a generic receiver,
// such as T and U in (x I[T, U]). It returns nil for other receivers.
func (recv *Receiver) TypeArgs() []*ast.Ident {
	_, args := baseType(recv.Type)
	var ids []*ast.Ident
	for _, arg := range args {
		id, ok := arg.(*ast.Ident)
		if !ok {
			return nil
		}
		ids = append(ids, id)
	}
	return ids
}

// baseType returns the named type at the root of a receiver type expression,
// along with any type arguments. It returns a nil name if x is not of the
// form [*]Name or [*]Name[Args].
func baseType(x ast.Expr) (*ast.Ident, []ast.Expr) {
	x = unparen(x)
	if star, ok := x.(*ast.StarExpr); ok {
		x = unparen(star.X)
	}
	switch x := x.(type) {
	case *ast.Ident:
		return x, nil
	case *ast.IndexExpr:
		if id, ok := x.X.(*ast.Ident); ok {
			return id, []ast.Expr{x.Index}
		}
	case *ast.IndexListExpr:
		if id, ok := x.X.(*ast.Ident); ok {
			return id, x.Indices
		}
	}
	return nil, nil
}

// BaseName returns the name of the type a receiver type expression refers to,
// or "" if it is not a plain or generic named type.
func BaseName(x ast.Expr) string {
	if id, _ := baseType(x); id != nil {
		return id.Name
	}
	return ""
}

func unparen(x ast.Expr) ast.Expr {
	for {
		p, ok := x.(*ast.ParenExpr)
		if !ok {
			return x
		}
		x = p.X
	}
}

// A ShapeError reports a declaration that does not have the form of
// an interface with default methods.
type ShapeError struct {
	Pos token.Pos
	Msg string
}

func (e *ShapeError) Error() string {
	return e.Msg
}
