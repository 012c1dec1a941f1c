// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package refactor

import (
	"fmt"
	"go/ast"
	"go/token"
	"strings"
)

// A Snapshot is a base set of Packages and their parsed source files, plus a
// set of pending edits to be made to those files.
type Snapshot struct {
	r        *Refactor
	fset     *token.FileSet
	packages []*Package

	// edits contains edits made to files by this Snapshot. It's keyed by short
	// path and only contains entries for files that have been modified.
	edits map[string]*Buffer

	// imports contains the import changes to make to files during Gofmt.
	// It's keyed by short path.
	imports map[string]*importFixes

	// files contains the contents of files before any edits in this Snapshot.
	// It's keyed by short path (File.Name)
	files map[string]*File

	Errors *ErrorList
}

func (s *Snapshot) Refactor() *Refactor { return s.r }

func (s *Snapshot) Fset() *token.FileSet { return s.fset }

func (s *Snapshot) Packages() []*Package {
	return s.packages
}

// ErrorAt records an error at pos.
func (s *Snapshot) ErrorAt(pos token.Pos, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	msg = strings.TrimRight(msg, "\n")
	msg = strings.ReplaceAll(msg, "\n", "\n\t")
	if pos == token.NoPos {
		s.Errors.Add(&Error{Msg: msg})
	} else {
		s.Errors.Add(&Error{Pos: s.Position(pos), Msg: msg})
	}
}

// ForEachFile calls f for each loaded file, once per file.
func (s *Snapshot) ForEachFile(f func(pkg *Package, file *File)) {
	seen := make(map[string]bool)
	for _, p := range s.packages {
		for _, file := range p.Files {
			if seen[file.Name] {
				continue
			}
			seen[file.Name] = true
			f(p, file)
		}
	}
}

// Lookup reports whether name is declared at the top level of pkg,
// returning the position of the declaring identifier.
// Methods, blank identifiers and init functions do not count.
func (p *Package) Lookup(name string) (token.Pos, bool) {
	for _, f := range p.Files {
		for _, decl := range f.Syntax.Decls {
			switch decl := decl.(type) {
			case *ast.FuncDecl:
				if decl.Recv == nil && decl.Name.Name == name && name != "init" {
					return decl.Name.Pos(), true
				}
			case *ast.GenDecl:
				for _, spec := range decl.Specs {
					switch spec := spec.(type) {
					case *ast.TypeSpec:
						if spec.Name.Name == name {
							return spec.Name.Pos(), true
						}
					case *ast.ValueSpec:
						for _, id := range spec.Names {
							if id.Name == name {
								return id.Pos(), true
							}
						}
					}
				}
			}
		}
	}
	return token.NoPos, false
}
