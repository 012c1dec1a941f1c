// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package refactor loads Go packages as syntax, queues text edits
// against them, and formats, diffs and writes the results.
package refactor

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/mod/modfile"
	"golang.org/x/tools/go/packages"
	"golang.org/x/xerrors"
)

// A Refactor holds the state for an active rewrite.
type Refactor struct {
	Stdout   io.Writer
	Stderr   io.Writer
	ShowDiff bool
	Config   *Config

	dir     string
	modRoot string // "" outside a module
	modPath string
}

// New returns a new rewrite of the packages found from dir (usually ".").
func New(dir string) (*Refactor, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	dir, err = filepath.EvalSymlinks(dir)
	if err != nil {
		return nil, err
	}
	dir = filepath.Clean(dir)

	modRoot, modPath, err := findModule(dir)
	if err != nil {
		return nil, err
	}
	r := &Refactor{
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Config:  DefaultConfig(),
		dir:     dir,
		modRoot: modRoot,
		modPath: modPath,
	}
	return r, nil
}

// findModule returns the root directory and path of the module
// containing dir. Outside a module it returns empty strings.
func findModule(dir string) (root, path string, err error) {
	for d := dir; ; {
		file := filepath.Join(d, "go.mod")
		data, err := os.ReadFile(file)
		if err == nil {
			f, err := modfile.ParseLax(file, data, nil)
			if err != nil {
				return "", "", xerrors.Errorf("loading module: %w", err)
			}
			if f.Module == nil {
				return "", "", xerrors.Errorf("loading module: %s has no module statement", file)
			}
			return d, f.Module.Mod.Path, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", "", xerrors.Errorf("loading module: %w", err)
		}
		parent := filepath.Dir(d)
		if parent == d {
			return "", "", nil
		}
		d = parent
	}
}

func (r *Refactor) Dir() string {
	return r.dir
}

func (r *Refactor) ModPath() string {
	return r.modPath
}

func (r *Refactor) ModRoot() string {
	return r.modRoot
}

// shortPath returns an absolute or relative name for path, whatever is shorter.
func (r *Refactor) shortPath(path string) string {
	if rel, err := filepath.Rel(r.dir, path); err == nil && len(rel) < len(path) {
		return rel
	}
	return path
}

// A Package is a loaded package: its identity and its parsed files.
type Package struct {
	Name    string
	Dir     string
	ID      string
	PkgPath string
	Files   []*File // Sorted by File.Name
}

func (p *Package) String() string { return p.PkgPath }

// File represents a source file, including both its text and parsed forms.
type File struct {
	Name   string // Short path (either relative to r.dir or absolute)
	Text   []byte
	Syntax *ast.File // Parsed form of Text
}

type fileCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (fc *fileCache) cacheRead(name string, src []byte) []byte {
	fc.mu.Lock()
	if fc.data[name] == nil {
		if fc.data == nil {
			fc.data = make(map[string][]byte)
		}
		fc.data[name] = src
	} else {
		src = fc.data[name]
	}
	fc.mu.Unlock()
	return src
}

// Load loads the packages matching patterns, "." if there are none,
// along with their tests. Packages are parsed but never type-checked,
// so method declarations on interface types are accepted.
// Any listing or parse error aborts the load.
func (r *Refactor) Load(patterns ...string) (*Snapshot, error) {
	if len(patterns) == 0 {
		patterns = []string{"."}
	}
	flags, envs, err := r.Config.flagsEnvs()
	if err != nil {
		return nil, err
	}

	s := &Snapshot{
		r:     r,
		fset:  token.NewFileSet(),
		files: make(map[string]*File),
		edits: make(map[string]*Buffer),
	}
	s.Errors = NewErrorList(s.fset)

	cache := new(fileCache)
	parseFile := func(fset *token.FileSet, filename string, src []byte) (*ast.File, error) {
		const mode = parser.AllErrors | parser.ParseComments
		name := r.shortPath(filename)
		return parser.ParseFile(fset, name, cache.cacheRead(name, src), mode)
	}
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
			packages.NeedSyntax | packages.NeedModule,
		Dir:        r.dir,
		Tests:      true,
		Fset:       s.fset,
		ParseFile:  parseFile,
		BuildFlags: flags,
		Env:        append(os.Environ(), envs...),
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, xerrors.Errorf("loading packages: %w", err)
	}

	errs := NewErrorList(s.fset)
	defer errs.flushOnPanic(r.Stderr)

	// Each package can appear twice, alone as "p" and compiled with its
	// tests as "p [p.test]". The test variant is a superset, so keep it.
	byPath := make(map[string]*packages.Package)
	for _, p := range pkgs {
		if strings.HasSuffix(p.PkgPath, ".test") {
			// Ignore test binaries.
			continue
		}
		for _, e := range p.Errors {
			if file, rest, ok := strings.Cut(e.Pos, ":"); ok {
				e.Pos = r.shortPath(file) + ":" + rest
			}
			errs.Add(e)
		}
		if p.Module != nil && !p.Module.Main {
			errs.Add(fmt.Errorf("cannot rewrite %s: not in the main module", p.PkgPath))
			continue
		}
		if q := byPath[p.PkgPath]; q == nil || len(p.Syntax) > len(q.Syntax) {
			byPath[p.PkgPath] = p
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	for _, p := range byPath {
		rp := &Package{
			Name:    p.Name,
			ID:      p.ID,
			PkgPath: p.PkgPath,
		}
		for _, syntax := range p.Syntax {
			name := s.fset.File(syntax.Pos()).Name()
			text := cache.cacheRead(name, nil)
			if text == nil {
				return nil, fmt.Errorf("loading %s: missing text for %s", p.PkgPath, name)
			}
			f := &File{Name: name, Text: text, Syntax: syntax}
			rp.Files = append(rp.Files, f)
			s.files[name] = f
		}
		sort.Slice(rp.Files, func(i, j int) bool {
			return rp.Files[i].Name < rp.Files[j].Name
		})
		if len(p.GoFiles) > 0 {
			rp.Dir = filepath.Dir(p.GoFiles[0])
		}
		s.packages = append(s.packages, rp)
	}
	sort.Slice(s.packages, func(i, j int) bool {
		return s.packages[i].PkgPath < s.packages[j].PkgPath
	})
	return s, nil
}
