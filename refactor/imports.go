// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package refactor

import (
	"bytes"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"path"
	"strconv"
	"strings"

	"golang.org/x/tools/go/ast/astutil"
)

// An Import is an import declaration: an optional name and a path.
type Import struct {
	Name string // "" for the default name
	Path string
}

type importFixes struct {
	add  []Import
	drop []Import
}

func (s *Snapshot) fixesAt(pos token.Pos) *importFixes {
	name := s.Position(pos).Filename
	if s.imports == nil {
		s.imports = make(map[string]*importFixes)
	}
	fix := s.imports[name]
	if fix == nil {
		fix = new(importFixes)
		s.imports[name] = fix
	}
	// Gofmt only visits edited files.
	s.bufferAt(pos)
	return fix
}

// NeedImport arranges for the file containing pos to import imp.
// The import is added during Gofmt, unless the file already has it.
func (s *Snapshot) NeedImport(pos token.Pos, imp Import) {
	fix := s.fixesAt(pos)
	fix.add = append(fix.add, imp)
}

// DropImport arranges for the file containing pos to stop importing imp
// if, after all edits, nothing in the file refers to it.
func (s *Snapshot) DropImport(pos token.Pos, imp Import) {
	fix := s.fixesAt(pos)
	fix.drop = append(fix.drop, imp)
}

// apply applies the import changes to text, a file named name,
// and returns the formatted result.
func (fix *importFixes) apply(name string, text []byte) ([]byte, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, name, text, parser.ParseComments)
	if err != nil {
		return nil, err
	}
	for _, imp := range fix.add {
		astutil.AddNamedImport(fset, file, imp.Name, imp.Path)
	}
	for _, imp := range fix.drop {
		if !usesImport(file, imp) {
			astutil.DeleteNamedImport(fset, file, imp.Name, imp.Path)
		}
	}

	var out bytes.Buffer
	if err := format.Node(&out, fset, file); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// usesImport reports whether file refers to the package imported by imp.
func usesImport(file *ast.File, imp Import) bool {
	name := imp.Name
	switch name {
	case "":
		name = ImportName(imp.Path)
	case "_", ".":
		// Not sure if this import is used - err on the side of caution.
		return true
	}
	return usesName(file, name)
}

func usesName(n ast.Node, name string) bool {
	used := false
	ast.Inspect(n, func(n ast.Node) bool {
		if used {
			return false
		}
		if sel, ok := n.(*ast.SelectorExpr); ok {
			if id, ok := sel.X.(*ast.Ident); ok && id.Name == name {
				used = true
			}
		}
		return true
	})
	return used
}

// ImportName returns the name a package is most likely imported as
// when its import declaration gives no name: the last path element,
// skipping a major version suffix and common decorations.
func ImportName(importPath string) string {
	elem := path.Base(importPath)
	if isMajorVersion(elem) {
		if dir := path.Dir(importPath); dir != "." {
			elem = path.Base(dir)
		}
	}
	elem = strings.TrimSuffix(elem, ".go")
	elem = strings.TrimPrefix(elem, "go-")
	if i := strings.IndexAny(elem, ".-"); i >= 0 {
		elem = elem[:i]
	}
	return elem
}

func isMajorVersion(elem string) bool {
	if len(elem) < 2 || elem[0] != 'v' {
		return false
	}
	n, err := strconv.Atoi(elem[1:])
	return err == nil && n >= 2
}

// UsedImports returns the imports of file that n refers to.
// Dot imports are always included, since their uses cannot be
// told apart from local names.
func UsedImports(file *ast.File, n ast.Node) []Import {
	var list []Import
	for _, spec := range file.Imports {
		p, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		imp := Import{Path: p}
		name := ImportName(p)
		if spec.Name != nil {
			imp.Name = spec.Name.Name
			name = spec.Name.Name
		}
		switch name {
		case "_":
			continue
		case ".":
			list = append(list, imp)
			continue
		}
		if usesName(n, name) {
			list = append(list, imp)
		}
	}
	return list
}
