// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"go/ast"
	"go/format"
	"go/printer"
	"go/token"
	"sort"
	"strings"

	"rsc.io/lift/iface"
	"rsc.io/lift/refactor"
)

// A target is an interface declaration and the default methods declared for it.
type target struct {
	pkg      *refactor.Package
	file     *refactor.File
	decl     *ast.GenDecl
	spec     *ast.TypeSpec
	defaults []*ast.FuncDecl
}

// findTargets returns the interfaces declared at the top level of the
// loaded packages, each with the method declarations whose receiver
// names it, in source order.
func findTargets(snap *refactor.Snapshot) []*target {
	var targets []*target
	for _, p := range snap.Packages() {
		byName := make(map[string]*target)
		var list []*target
		for _, f := range p.Files {
			for _, decl := range f.Syntax.Decls {
				decl, ok := decl.(*ast.GenDecl)
				if !ok || decl.Tok != token.TYPE {
					continue
				}
				for _, spec := range decl.Specs {
					spec := spec.(*ast.TypeSpec)
					if _, ok := spec.Type.(*ast.InterfaceType); !ok || spec.Assign.IsValid() {
						continue
					}
					t := &target{pkg: p, file: f, decl: decl, spec: spec}
					byName[spec.Name.Name] = t
					list = append(list, t)
				}
			}
		}
		for _, f := range p.Files {
			for _, decl := range f.Syntax.Decls {
				fn, ok := decl.(*ast.FuncDecl)
				if !ok || fn.Recv == nil || len(fn.Recv.List) == 0 {
					continue
				}
				if t := byName[iface.BaseName(fn.Recv.List[0].Type)]; t != nil {
					t.defaults = append(t.defaults, fn)
				}
			}
		}
		targets = append(targets, list...)
	}
	return targets
}

// filterTargets returns the targets named in names, or all of them if
// names is empty. Naming an interface that is not declared is an error.
func filterTargets(targets []*target, names []string) ([]*target, error) {
	if len(names) == 0 {
		return targets, nil
	}
	want := make(map[string]bool)
	for _, name := range names {
		want[name] = true
	}
	found := make(map[string]bool)
	var out []*target
	for _, t := range targets {
		if want[t.spec.Name.Name] {
			found[t.spec.Name.Name] = true
			out = append(out, t)
		}
	}
	var missing []string
	for name := range want {
		if !found[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, newErrPrecondition("interface %s not found", strings.Join(missing, ", "))
	}
	return out, nil
}

// A lifted interface is a target with the functions extracted from it.
type lifted struct {
	*target
	funcs []*ast.FuncDecl
}

// cmdLift lifts the default methods of the interfaces in snap out into
// functions declared after each interface. Problems with individual
// interfaces are reported in snap.Errors, in which case no edits are made.
func cmdLift(snap *refactor.Snapshot) error {
	targets, err := filterTargets(findTargets(snap), snap.Refactor().Config.Interfaces)
	if err != nil {
		return err
	}

	var todo []*lifted
	declared := make(map[*refactor.Package]map[string]token.Pos)
	for _, t := range targets {
		if len(t.defaults) == 0 {
			vlogf("%s: %s has no default methods", snap.Addr(t.spec.Name.Pos()), t.spec.Name.Name)
			continue
		}
		decls, err := iface.Transform(t.spec, t.defaults)
		if err != nil {
			snap.Errors.Add(err)
			continue
		}

		// The interface declaration in decls[0] prints as the source
		// already reads, so only the functions are new.
		l := &lifted{target: t}
		for _, d := range decls[1:] {
			l.funcs = append(l.funcs, d.(*ast.FuncDecl))
		}

		seen := declared[t.pkg]
		if seen == nil {
			seen = make(map[string]token.Pos)
			declared[t.pkg] = seen
		}
		for _, fn := range l.funcs {
			name := fn.Name.Name
			if pos, ok := t.pkg.Lookup(name); ok {
				snap.ErrorAt(fn.Name.Pos(), "%s already declared at %s", name, snap.Addr(pos))
				continue
			}
			if pos, ok := seen[name]; ok {
				snap.ErrorAt(fn.Name.Pos(), "%s already declared at %s", name, snap.Addr(pos))
				continue
			}
			seen[name] = fn.Name.Pos()
		}
		todo = append(todo, l)
	}
	if snap.Errors.Err() != nil {
		return nil
	}

	for _, l := range todo {
		if err := l.apply(snap); err != nil {
			return err
		}
		vlogf("%s: lifted %d default methods out of %s", snap.Addr(l.spec.Name.Pos()), len(l.funcs), l.spec.Name.Name)
	}
	return nil
}

// apply queues the edits for l: the default method declarations are
// deleted and the functions are inserted after the interface declaration.
// A default in a file that is not compiled together with the interface's
// file, such as a test file or one with other build constraints,
// is replaced by its function in place.
func (l *lifted) apply(snap *refactor.Snapshot) error {
	var texts []string
	for _, fn := range l.funcs {
		def := l.defaults[indexOf(l.defaults, fn.Name.Name)]
		_, src := snap.FileAt(def.Pos())

		var buf bytes.Buffer
		node := &printer.CommentedNode{Node: fn, Comments: outside(src.Syntax.Comments, def.Recv)}
		if err := format.Node(&buf, snap.Fset(), node); err != nil {
			return err
		}

		pos, end := snap.DeclRange(def)
		if def.Doc != nil && def.Doc.Pos() < pos {
			pos = def.Doc.Pos()
		}

		if src != l.file && src.BuildKey() != l.file.BuildKey() {
			vlogf("%s: %s stays in %s", snap.Addr(def.Name.Pos()), fn.Name.Name, src.Name)
			snap.ReplaceAt(pos, end, buf.String()+"\n")
			continue
		}

		texts = append(texts, buf.String())
		snap.DeleteAt(pos, end)
		if src != l.file {
			for _, imp := range refactor.UsedImports(src.Syntax, def) {
				snap.NeedImport(l.file.Syntax.Pos(), imp)
				snap.DropImport(src.Syntax.Pos(), imp)
			}
		}
	}
	if len(texts) > 0 {
		snap.InsertAt(l.decl.End(), "\n\n"+strings.Join(texts, "\n\n"))
	}
	return nil
}

// outside returns the comments that do not lie within n.
// Comments inside a receiver have nowhere to go once it is gone.
func outside(comments []*ast.CommentGroup, n ast.Node) []*ast.CommentGroup {
	var out []*ast.CommentGroup
	for _, g := range comments {
		if n.Pos() <= g.Pos() && g.End() <= n.End() {
			continue
		}
		out = append(out, g)
	}
	return out
}

func indexOf(list []*ast.FuncDecl, name string) int {
	for i, fn := range list {
		if fn.Name.Name == name {
			return i
		}
	}
	return -1
}
