// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package refactor

import (
	"bytes"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"
)

func TestFindModule(t *testing.T) {
	dir := t.TempDir()
	dir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "go.mod"), "module example.com/m\n\ngo 1.21\n")
	writeFile(t, filepath.Join(dir, "sub", "x.go"), "package sub\n")

	r, err := New(filepath.Join(dir, "sub"))
	if err != nil {
		t.Fatal(err)
	}
	if r.ModRoot() != dir {
		t.Errorf("ModRoot() = %q, want %q", r.ModRoot(), dir)
	}
	if r.ModPath() != "example.com/m" {
		t.Errorf("ModPath() = %q, want %q", r.ModPath(), "example.com/m")
	}
	if r.Dir() != filepath.Join(dir, "sub") {
		t.Errorf("Dir() = %q, want %q", r.Dir(), filepath.Join(dir, "sub"))
	}

	writeFile(t, filepath.Join(dir, "bad", "go.mod"), "go 1.21\n")
	if _, err := New(filepath.Join(dir, "bad")); err == nil {
		t.Errorf("New in module without module statement succeeded")
	}
}

const testP = `package p

import (
	"fmt"
	"strings"
)

// Hello says hello.
func Hello() string { return fmt.Sprint("hello") }

func Upper(s string) string {
	return strings.ToUpper(s)
}
`

const testQ = `package p

var X = 1
`

func load(t *testing.T, files map[string]string) *Snapshot {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "go.mod"), "module m\n")
	for name, text := range files {
		writeFile(t, filepath.Join(dir, name), text)
	}
	r, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	r.Stdout = new(bytes.Buffer)
	r.Stderr = new(bytes.Buffer)
	s, err := r.Load()
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func findFunc(f *File, name string) *ast.FuncDecl {
	for _, d := range f.Syntax.Decls {
		if fn, ok := d.(*ast.FuncDecl); ok && fn.Name.Name == name {
			return fn
		}
	}
	return nil
}

func TestLoad(t *testing.T) {
	s := load(t, map[string]string{
		"p.go":      testP,
		"q.go":      testQ,
		"p_test.go": "package p\n\nvar T = 2\n",
	})
	pkgs := s.Packages()
	if len(pkgs) != 1 {
		t.Fatalf("loaded %d packages, want 1", len(pkgs))
	}
	p := pkgs[0]
	if p.PkgPath != "m" || p.Name != "p" {
		t.Errorf("loaded %s (package %s), want m (package p)", p.PkgPath, p.Name)
	}
	var names []string
	for _, f := range p.Files {
		names = append(names, f.Name)
	}
	if want := []string{"p.go", "p_test.go", "q.go"}; !reflect.DeepEqual(names, want) {
		t.Errorf("files = %q, want %q", names, want)
	}

	for _, name := range []string{"Hello", "Upper", "X", "T"} {
		if _, ok := p.Lookup(name); !ok {
			t.Errorf("Lookup(%s) failed", name)
		}
	}
	if _, ok := p.Lookup("Missing"); ok {
		t.Errorf("Lookup(Missing) succeeded")
	}

	hello := findFunc(p.Files[0], "Hello")
	if pkg, f := s.FileAt(hello.Pos()); pkg != p || f != p.Files[0] {
		t.Errorf("FileAt(Hello) = %v, %v", pkg, f)
	}
	if have, want := s.Addr(hello.Name.Pos()), "p.go:9:6"; have != want {
		t.Errorf("Addr(Hello) = %q, want %q", have, want)
	}
	pos, end := s.DeclRange(hello)
	want := "// Hello says hello.\nfunc Hello() string { return fmt.Sprint(\"hello\") }\n"
	if have := string(s.Text(pos, end)); have != want {
		t.Errorf("DeclRange(Hello) = %q, want %q", have, want)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "go.mod"), "module m\n")
	writeFile(t, filepath.Join(dir, "bad.go"), "package p\n\nfunc {\n")
	r, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	r.Stderr = new(bytes.Buffer)
	_, err = r.Load()
	if err == nil {
		t.Fatal("Load succeeded")
	}
	if !strings.Contains(err.Error(), "bad.go:3:") {
		t.Errorf("Load error does not mention bad.go:3:\n%v", err)
	}
}

func imports(t *testing.T, name string) []string {
	t.Helper()
	f, err := parser.ParseFile(token.NewFileSet(), name, nil, parser.ImportsOnly)
	if err != nil {
		t.Fatal(err)
	}
	var list []string
	for _, spec := range f.Imports {
		p, _ := strconv.Unquote(spec.Path.Value)
		list = append(list, p)
	}
	return list
}

func TestMoveFunc(t *testing.T) {
	s := load(t, map[string]string{"p.go": testP, "q.go": testQ})
	p := s.Packages()[0]
	pf, qf := p.Files[0], p.Files[1]

	upper := findFunc(pf, "Upper")
	text := s.Text(upper.Pos(), upper.End())
	pos, end := s.DeclRange(upper)
	s.DeleteAt(pos, end)
	_, qend := s.FileRange(qf.Syntax.Pos())
	s.InsertAt(qend, "\n"+string(text)+"\n")

	used := UsedImports(pf.Syntax, upper)
	if want := []Import{{Path: "strings"}}; !reflect.DeepEqual(used, want) {
		t.Fatalf("UsedImports(Upper) = %v, want %v", used, want)
	}
	for _, imp := range used {
		s.NeedImport(qf.Syntax.Pos(), imp)
		s.DropImport(pf.Syntax.Pos(), imp)
	}
	s.Gofmt()
	if err := s.Errors.Err(); err != nil {
		t.Fatal(err)
	}

	if have, want := s.Modified(), []string{"p.go", "q.go"}; !reflect.DeepEqual(have, want) {
		t.Errorf("Modified() = %q, want %q", have, want)
	}
	d, err := s.Diff()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"diff old/p.go new/p.go", "diff old/q.go new/q.go", "+func Upper(s string) string {", `-	"strings"`} {
		if !bytes.Contains(d, []byte(want)) {
			t.Errorf("diff does not contain %q:\n%s", want, d)
		}
	}

	if err := s.Write(); err != nil {
		t.Fatal(err)
	}
	dir := s.Refactor().Dir()
	if have, want := imports(t, filepath.Join(dir, "p.go")), []string{"fmt"}; !reflect.DeepEqual(have, want) {
		t.Errorf("p.go imports %q, want %q", have, want)
	}
	if have, want := imports(t, filepath.Join(dir, "q.go")), []string{"strings"}; !reflect.DeepEqual(have, want) {
		t.Errorf("q.go imports %q, want %q", have, want)
	}
	q, err := os.ReadFile(filepath.Join(dir, "q.go"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(q, []byte("func Upper(s string) string {\n\treturn strings.ToUpper(s)\n}\n")) {
		t.Errorf("q.go does not contain Upper:\n%s", q)
	}
}

func TestGofmtReportsBrokenFile(t *testing.T) {
	s := load(t, map[string]string{"q.go": testQ})
	qf := s.Packages()[0].Files[0]
	_, end := s.FileRange(qf.Syntax.Pos())
	s.InsertAt(end, "func {\n")
	s.Gofmt()
	if s.Errors.Err() == nil {
		t.Errorf("Gofmt of broken file reported no error")
	}
}

var importNameTests = []struct {
	path string
	name string
}{
	{"fmt", "fmt"},
	{"go/ast", "ast"},
	{"gopkg.in/yaml.v3", "yaml"},
	{"github.com/mattn/go-isatty", "isatty"},
	{"github.com/spf13/cobra", "cobra"},
	{"example.com/mod/v2", "mod"},
}

func TestImportName(t *testing.T) {
	for _, tt := range importNameTests {
		if have := ImportName(tt.path); have != tt.name {
			t.Errorf("ImportName(%q) = %q, want %q", tt.path, have, tt.name)
		}
	}
}

var buildKeyTests = []struct {
	name1, src1 string
	name2, src2 string
	same        bool
}{
	{"p.go", "package p\n", "q.go", "// Package p.\npackage p\n", true},
	{"p.go", "package p\n", "p_test.go", "package p\n", false},
	{"a_test.go", "package p\n", "b_test.go", "package p\n", true},
	{"p.go", "package p\n", "l.go", "//go:build linux\n\npackage p\n", false},
	{"l.go", "//go:build linux&&amd64\n\npackage p\n", "m.go", "//go:build linux && amd64\n\npackage p\n", true},
	{"l.go", "//go:build linux\n\npackage p\n", "w.go", "//go:build windows\n\npackage p\n", false},
	{"p.go", "package p\n", "p_linux.go", "package p\n", false},
	{"p_linux.go", "package p\n", "q_linux.go", "package p\n", false},
	{"p.go", "package p\n", "p_unix.go", "package p\n", true},
	{"p.go", "package p\n\n//go:build linux\n", "q.go", "package p\n", true},
}

func TestBuildKey(t *testing.T) {
	parse := func(name, src string) *File {
		t.Helper()
		f, err := parser.ParseFile(token.NewFileSet(), name, src, parser.ParseComments)
		if err != nil {
			t.Fatal(err)
		}
		return &File{Name: name, Text: []byte(src), Syntax: f}
	}
	for _, tt := range buildKeyTests {
		f1 := parse(tt.name1, tt.src1)
		f2 := parse(tt.name2, tt.src2)
		if same := f1.BuildKey() == f2.BuildKey(); same != tt.same {
			t.Errorf("BuildKey(%s) = %q, BuildKey(%s) = %q, same = %v, want %v",
				tt.name1, f1.BuildKey(), tt.name2, f2.BuildKey(), same, tt.same)
		}
	}
}

func TestIsTest(t *testing.T) {
	for name, want := range map[string]bool{
		"p.go":          false,
		"p_test.go":     true,
		"dir/q_test.go": true,
		"test.go":       false,
	} {
		if have := (&File{Name: name}).IsTest(); have != want {
			t.Errorf("IsTest(%s) = %v, want %v", name, have, want)
		}
	}
}
