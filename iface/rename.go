// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iface

import (
	"fmt"
	"go/ast"
	"go/token"
)

// A Context is what Rename knows about the interface
// enclosing the method being rewritten.
type Context struct {
	Name       *ast.Ident     // interface name
	TypeParams *ast.FieldList // interface type parameters, or nil
}

func newContext(it *Interface) *Context {
	return &Context{Name: it.Name, TypeParams: it.TypeParams}
}

// Rename rewrites the signature and body of a default method
// into those of a standalone function.
//
// If sig has a receiver, the result has none. Instead its first parameter
// is ParamName of type interface{ I }, where I is the enclosing interface,
// and every identifier spelled like the receiver name, in the signature
// or anywhere in the body, is renamed to ParamName. Identifiers that name
// struct fields, interface methods, selected members or labels are left alone.
// If sig has no receiver, the signature and body are copied unchanged.
//
// Rename does not modify its arguments.
func Rename(sig *Signature, body *ast.BlockStmt, ctx *Context) (*Signature, *ast.BlockStmt) {
	r := new(renamer)
	if tok := sig.Recv.token(); tok != "" {
		r.subst = map[string]string{tok: ParamName}
	}

	out := &Signature{
		Name: name(sig.Name),
		Type: r.funcType(sig.Type),
	}
	if sig.Recv != nil {
		out.Type.TypeParams = ctx.typeParams(sig.Recv)
		out.Type.Params = ctx.params(sig.Recv, out.Type.Params)
	}
	return out, r.block(body)
}

// argNames returns the names the receiver gives the interface's
// type parameters. A blank or missing name falls back to the
// interface's own, numbered if the receiver already uses it.
func (ctx *Context) argNames(recv *Receiver) []string {
	if ctx.TypeParams == nil {
		return nil
	}
	args := recv.TypeArgs()
	used := make(map[string]bool)
	for _, a := range args {
		used[a.Name] = true
	}
	var names []string
	for _, f := range ctx.TypeParams.List {
		for _, id := range f.Names {
			i := len(names)
			if i < len(args) && args[i].Name != "_" {
				names = append(names, args[i].Name)
				continue
			}
			n := id.Name
			for k := 1; used[n]; k++ {
				n = fmt.Sprintf("%s%d", id.Name, k)
			}
			used[n] = true
			names = append(names, n)
		}
	}
	return names
}

// typeParams returns the type parameter list of the extracted function:
// the interface's type parameters, renamed the way recv names them.
func (ctx *Context) typeParams(recv *Receiver) *ast.FieldList {
	if ctx.TypeParams == nil || len(ctx.TypeParams.List) == 0 {
		return nil
	}
	names := ctx.argNames(recv)
	r := &renamer{subst: make(map[string]string)}
	i := 0
	for _, f := range ctx.TypeParams.List {
		for _, id := range f.Names {
			if names[i] != id.Name {
				r.subst[id.Name] = names[i]
			}
			i++
		}
	}
	return r.fieldList(ctx.TypeParams, false)
}

// capability returns interface{ I } or interface{ I[T1, ..., Tn] },
// the type satisfied by every implementation of the interface.
// All its positions are pos, so that it prints on one line.
func (ctx *Context) capability(recv *Receiver, pos token.Pos) ast.Expr {
	var elem ast.Expr = &ast.Ident{NamePos: pos, Name: ctx.Name.Name}
	var args []ast.Expr
	for _, n := range ctx.argNames(recv) {
		args = append(args, &ast.Ident{NamePos: pos, Name: n})
	}
	switch len(args) {
	case 0:
		// not generic
	case 1:
		elem = &ast.IndexExpr{X: elem, Lbrack: pos, Index: args[0], Rbrack: pos}
	default:
		elem = &ast.IndexListExpr{X: elem, Lbrack: pos, Indices: args, Rbrack: pos}
	}
	return &ast.InterfaceType{
		Interface: pos,
		Methods: &ast.FieldList{
			Opening: pos,
			List:    []*ast.Field{{Type: elem}},
			Closing: pos,
		},
	}
}

// params prepends the receiver parameter to params, which must be a
// list owned by the caller. Unnamed parameters are named _ because Go
// does not allow mixing named and unnamed parameters.
func (ctx *Context) params(recv *Receiver, params *ast.FieldList) *ast.FieldList {
	pos := recv.Pos()
	self := &ast.Field{
		Names: []*ast.Ident{{NamePos: pos, Name: ParamName}},
		Type:  ctx.capability(recv, recv.Type.Pos()),
	}
	out := &ast.FieldList{List: []*ast.Field{self}}
	if params != nil {
		out.Opening = params.Opening
		out.Closing = params.Closing
		for _, f := range params.List {
			if len(f.Names) == 0 {
				f.Names = []*ast.Ident{{NamePos: f.Type.Pos(), Name: "_"}}
			}
			out.List = append(out.List, f)
		}
	}
	return out
}

// A renamer makes deep copies of syntax trees,
// replacing identifiers according to subst.
// A renamer with a nil subst only copies.
type renamer struct {
	subst map[string]string
}

// ident copies an identifier that may refer to the receiver.
func (r *renamer) ident(id *ast.Ident) *ast.Ident {
	if id == nil {
		return nil
	}
	n := id.Name
	if to, ok := r.subst[n]; ok {
		n = to
	}
	return &ast.Ident{NamePos: id.NamePos, Name: n}
}

// name copies an identifier that lives in a namespace of its own:
// a selected member, a field or method name, or a label.
func name(id *ast.Ident) *ast.Ident {
	if id == nil {
		return nil
	}
	return &ast.Ident{NamePos: id.NamePos, Name: id.Name}
}

func lit(x *ast.BasicLit) *ast.BasicLit {
	if x == nil {
		return nil
	}
	return &ast.BasicLit{ValuePos: x.ValuePos, Kind: x.Kind, Value: x.Value}
}

func (r *renamer) idents(list []*ast.Ident) []*ast.Ident {
	if list == nil {
		return nil
	}
	out := make([]*ast.Ident, len(list))
	for i, id := range list {
		out[i] = r.ident(id)
	}
	return out
}

func names(list []*ast.Ident) []*ast.Ident {
	if list == nil {
		return nil
	}
	out := make([]*ast.Ident, len(list))
	for i, id := range list {
		out[i] = name(id)
	}
	return out
}

func (r *renamer) exprs(list []ast.Expr) []ast.Expr {
	if list == nil {
		return nil
	}
	out := make([]ast.Expr, len(list))
	for i, x := range list {
		out[i] = r.expr(x)
	}
	return out
}

func (r *renamer) stmts(list []ast.Stmt) []ast.Stmt {
	if list == nil {
		return nil
	}
	out := make([]ast.Stmt, len(list))
	for i, s := range list {
		out[i] = r.stmt(s)
	}
	return out
}

func (r *renamer) block(b *ast.BlockStmt) *ast.BlockStmt {
	if b == nil {
		return nil
	}
	return &ast.BlockStmt{Lbrace: b.Lbrace, List: r.stmts(b.List), Rbrace: b.Rbrace}
}

// fieldList copies a field list. If members is set, the field names
// are struct field or interface method names and are not renamed.
func (r *renamer) fieldList(list *ast.FieldList, members bool) *ast.FieldList {
	if list == nil {
		return nil
	}
	out := &ast.FieldList{Opening: list.Opening, Closing: list.Closing}
	if list.List != nil {
		out.List = make([]*ast.Field, len(list.List))
	}
	for i, f := range list.List {
		g := &ast.Field{
			Doc:     f.Doc,
			Type:    r.expr(f.Type),
			Tag:     lit(f.Tag),
			Comment: f.Comment,
		}
		if members {
			g.Names = names(f.Names)
		} else {
			g.Names = r.idents(f.Names)
		}
		out.List[i] = g
	}
	return out
}

func (r *renamer) funcType(t *ast.FuncType) *ast.FuncType {
	if t == nil {
		return nil
	}
	return &ast.FuncType{
		Func:       t.Func,
		TypeParams: r.fieldList(t.TypeParams, false),
		Params:     r.fieldList(t.Params, false),
		Results:    r.fieldList(t.Results, false),
	}
}

func (r *renamer) call(x *ast.CallExpr) *ast.CallExpr {
	if x == nil {
		return nil
	}
	return r.expr(x).(*ast.CallExpr)
}

func (r *renamer) expr(x ast.Expr) ast.Expr {
	switch x := x.(type) {
	case nil:
		return nil

	case *ast.BadExpr:
		return &ast.BadExpr{From: x.From, To: x.To}

	case *ast.Ident:
		return r.ident(x)

	case *ast.Ellipsis:
		return &ast.Ellipsis{Ellipsis: x.Ellipsis, Elt: r.expr(x.Elt)}

	case *ast.BasicLit:
		return lit(x)

	case *ast.FuncLit:
		return &ast.FuncLit{Type: r.funcType(x.Type), Body: r.block(x.Body)}

	case *ast.CompositeLit:
		return &ast.CompositeLit{
			Type:       r.expr(x.Type),
			Lbrace:     x.Lbrace,
			Elts:       r.exprs(x.Elts),
			Rbrace:     x.Rbrace,
			Incomplete: x.Incomplete,
		}

	case *ast.ParenExpr:
		return &ast.ParenExpr{Lparen: x.Lparen, X: r.expr(x.X), Rparen: x.Rparen}

	case *ast.SelectorExpr:
		return &ast.SelectorExpr{X: r.expr(x.X), Sel: name(x.Sel)}

	case *ast.IndexExpr:
		return &ast.IndexExpr{X: r.expr(x.X), Lbrack: x.Lbrack, Index: r.expr(x.Index), Rbrack: x.Rbrack}

	case *ast.IndexListExpr:
		return &ast.IndexListExpr{X: r.expr(x.X), Lbrack: x.Lbrack, Indices: r.exprs(x.Indices), Rbrack: x.Rbrack}

	case *ast.SliceExpr:
		return &ast.SliceExpr{
			X:      r.expr(x.X),
			Lbrack: x.Lbrack,
			Low:    r.expr(x.Low),
			High:   r.expr(x.High),
			Max:    r.expr(x.Max),
			Slice3: x.Slice3,
			Rbrack: x.Rbrack,
		}

	case *ast.TypeAssertExpr:
		return &ast.TypeAssertExpr{X: r.expr(x.X), Lparen: x.Lparen, Type: r.expr(x.Type), Rparen: x.Rparen}

	case *ast.CallExpr:
		return &ast.CallExpr{
			Fun:      r.expr(x.Fun),
			Lparen:   x.Lparen,
			Args:     r.exprs(x.Args),
			Ellipsis: x.Ellipsis,
			Rparen:   x.Rparen,
		}

	case *ast.StarExpr:
		return &ast.StarExpr{Star: x.Star, X: r.expr(x.X)}

	case *ast.UnaryExpr:
		return &ast.UnaryExpr{OpPos: x.OpPos, Op: x.Op, X: r.expr(x.X)}

	case *ast.BinaryExpr:
		return &ast.BinaryExpr{X: r.expr(x.X), OpPos: x.OpPos, Op: x.Op, Y: r.expr(x.Y)}

	case *ast.KeyValueExpr:
		return &ast.KeyValueExpr{Key: r.expr(x.Key), Colon: x.Colon, Value: r.expr(x.Value)}

	case *ast.ArrayType:
		return &ast.ArrayType{Lbrack: x.Lbrack, Len: r.expr(x.Len), Elt: r.expr(x.Elt)}

	case *ast.StructType:
		return &ast.StructType{Struct: x.Struct, Fields: r.fieldList(x.Fields, true), Incomplete: x.Incomplete}

	case *ast.FuncType:
		return r.funcType(x)

	case *ast.InterfaceType:
		return &ast.InterfaceType{Interface: x.Interface, Methods: r.fieldList(x.Methods, true), Incomplete: x.Incomplete}

	case *ast.MapType:
		return &ast.MapType{Map: x.Map, Key: r.expr(x.Key), Value: r.expr(x.Value)}

	case *ast.ChanType:
		return &ast.ChanType{Begin: x.Begin, Arrow: x.Arrow, Dir: x.Dir, Value: r.expr(x.Value)}
	}
	panic(fmt.Sprintf("unexpected expression %T", x))
}

func (r *renamer) stmt(s ast.Stmt) ast.Stmt {
	switch s := s.(type) {
	case nil:
		return nil

	case *ast.BadStmt:
		return &ast.BadStmt{From: s.From, To: s.To}

	case *ast.DeclStmt:
		return &ast.DeclStmt{Decl: r.decl(s.Decl)}

	case *ast.EmptyStmt:
		return &ast.EmptyStmt{Semicolon: s.Semicolon, Implicit: s.Implicit}

	case *ast.LabeledStmt:
		return &ast.LabeledStmt{Label: name(s.Label), Colon: s.Colon, Stmt: r.stmt(s.Stmt)}

	case *ast.ExprStmt:
		return &ast.ExprStmt{X: r.expr(s.X)}

	case *ast.SendStmt:
		return &ast.SendStmt{Chan: r.expr(s.Chan), Arrow: s.Arrow, Value: r.expr(s.Value)}

	case *ast.IncDecStmt:
		return &ast.IncDecStmt{X: r.expr(s.X), TokPos: s.TokPos, Tok: s.Tok}

	case *ast.AssignStmt:
		return &ast.AssignStmt{Lhs: r.exprs(s.Lhs), TokPos: s.TokPos, Tok: s.Tok, Rhs: r.exprs(s.Rhs)}

	case *ast.GoStmt:
		return &ast.GoStmt{Go: s.Go, Call: r.call(s.Call)}

	case *ast.DeferStmt:
		return &ast.DeferStmt{Defer: s.Defer, Call: r.call(s.Call)}

	case *ast.ReturnStmt:
		return &ast.ReturnStmt{Return: s.Return, Results: r.exprs(s.Results)}

	case *ast.BranchStmt:
		return &ast.BranchStmt{TokPos: s.TokPos, Tok: s.Tok, Label: name(s.Label)}

	case *ast.BlockStmt:
		return r.block(s)

	case *ast.IfStmt:
		return &ast.IfStmt{
			If:   s.If,
			Init: r.stmt(s.Init),
			Cond: r.expr(s.Cond),
			Body: r.block(s.Body),
			Else: r.stmt(s.Else),
		}

	case *ast.CaseClause:
		return &ast.CaseClause{Case: s.Case, List: r.exprs(s.List), Colon: s.Colon, Body: r.stmts(s.Body)}

	case *ast.SwitchStmt:
		return &ast.SwitchStmt{Switch: s.Switch, Init: r.stmt(s.Init), Tag: r.expr(s.Tag), Body: r.block(s.Body)}

	case *ast.TypeSwitchStmt:
		return &ast.TypeSwitchStmt{Switch: s.Switch, Init: r.stmt(s.Init), Assign: r.stmt(s.Assign), Body: r.block(s.Body)}

	case *ast.CommClause:
		return &ast.CommClause{Case: s.Case, Comm: r.stmt(s.Comm), Colon: s.Colon, Body: r.stmts(s.Body)}

	case *ast.SelectStmt:
		return &ast.SelectStmt{Select: s.Select, Body: r.block(s.Body)}

	case *ast.ForStmt:
		return &ast.ForStmt{
			For:  s.For,
			Init: r.stmt(s.Init),
			Cond: r.expr(s.Cond),
			Post: r.stmt(s.Post),
			Body: r.block(s.Body),
		}

	case *ast.RangeStmt:
		return &ast.RangeStmt{
			For:    s.For,
			Key:    r.expr(s.Key),
			Value:  r.expr(s.Value),
			TokPos: s.TokPos,
			Tok:    s.Tok,
			Range:  s.Range,
			X:      r.expr(s.X),
			Body:   r.block(s.Body),
		}
	}
	panic(fmt.Sprintf("unexpected statement %T", s))
}

func (r *renamer) decl(d ast.Decl) ast.Decl {
	switch d := d.(type) {
	case *ast.BadDecl:
		return &ast.BadDecl{From: d.From, To: d.To}

	case *ast.GenDecl:
		g := &ast.GenDecl{Doc: d.Doc, TokPos: d.TokPos, Tok: d.Tok, Lparen: d.Lparen, Rparen: d.Rparen}
		for _, s := range d.Specs {
			g.Specs = append(g.Specs, r.spec(s))
		}
		return g

	case *ast.FuncDecl:
		return &ast.FuncDecl{
			Doc:  d.Doc,
			Recv: r.fieldList(d.Recv, false),
			Name: name(d.Name),
			Type: r.funcType(d.Type),
			Body: r.block(d.Body),
		}
	}
	panic(fmt.Sprintf("unexpected declaration %T", d))
}

func (r *renamer) spec(s ast.Spec) ast.Spec {
	switch s := s.(type) {
	case *ast.ImportSpec:
		return &ast.ImportSpec{Doc: s.Doc, Name: name(s.Name), Path: lit(s.Path), Comment: s.Comment, EndPos: s.EndPos}

	case *ast.ValueSpec:
		return &ast.ValueSpec{
			Doc:     s.Doc,
			Names:   r.idents(s.Names),
			Type:    r.expr(s.Type),
			Values:  r.exprs(s.Values),
			Comment: s.Comment,
		}

	case *ast.TypeSpec:
		return &ast.TypeSpec{
			Doc:        s.Doc,
			Name:       r.ident(s.Name),
			TypeParams: r.fieldList(s.TypeParams, false),
			Assign:     s.Assign,
			Type:       r.expr(s.Type),
			Comment:    s.Comment,
		}
	}
	panic(fmt.Sprintf("unexpected spec %T", s))
}
