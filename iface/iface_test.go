// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package iface

import (
	"bytes"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"strings"
	"testing"
)

// parse parses src as the body of a file in package p and returns
// the first type declaration and every method declaration.
func parse(t *testing.T, src string) (*token.FileSet, *ast.TypeSpec, []*ast.FuncDecl) {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "p.go", "package p\n\n"+src, parser.ParseComments)
	if err != nil {
		t.Fatal(err)
	}
	var spec *ast.TypeSpec
	var defaults []*ast.FuncDecl
	for _, d := range f.Decls {
		switch d := d.(type) {
		case *ast.GenDecl:
			if d.Tok == token.TYPE && spec == nil {
				spec = d.Specs[0].(*ast.TypeSpec)
			}
		case *ast.FuncDecl:
			if d.Recv != nil {
				defaults = append(defaults, d)
			}
		}
	}
	if spec == nil {
		t.Fatal("no type declaration")
	}
	return fset, spec, defaults
}

// gofmt formats src as the body of a file in package p.
func gofmt(t *testing.T, src string) string {
	t.Helper()
	out, err := format.Source([]byte("package p\n\n" + src))
	if err != nil {
		t.Fatalf("formatting:\n%s\n%v", src, err)
	}
	return string(out)
}

func printNode(t *testing.T, fset *token.FileSet, node any) string {
	t.Helper()
	var buf bytes.Buffer
	if err := format.Node(&buf, fset, node); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

// printDecls prints decls separated by blank lines,
// the way the lift command inserts them.
func printDecls(t *testing.T, fset *token.FileSet, decls []ast.Decl) string {
	t.Helper()
	var out []string
	for _, d := range decls {
		out = append(out, printNode(t, fset, d))
	}
	return strings.Join(out, "\n\n")
}

var transformTests = []struct {
	name string
	in   string
	out  string
}{
	{
		name: "greeter",
		in: `
type Greeter interface {
	Name() string
	Greeting() string
}

// Greeting returns a greeting for g.
func (g Greeter) Greeting() string {
	return fmt.Sprintf("Hello, %s", g.Name())
}
`,
		out: `
type Greeter interface {
	Name() string
	Greeting() string
}

// Greeting returns a greeting for g.
func Greeting(__lift_self interface{ Greeter }) string {
	return fmt.Sprintf("Hello, %s", __lift_self.Name())
}
`,
	},
	{
		name: "closure",
		in: `
type Greeter interface {
	Name() string
	Each(names []string) func() string
}

func (g Greeter) Each(names []string) func() string {
	return func() string {
		return g.Name() + strings.Join(names, ",")
	}
}
`,
		out: `
type Greeter interface {
	Name() string
	Each(names []string) func() string
}

func Each(__lift_self interface{ Greeter }, names []string) func() string {
	return func() string {
		return __lift_self.Name() + strings.Join(names, ",")
	}
}
`,
	},
	{
		name: "unnamed receiver",
		in: `
type Greeter interface {
	Hello() string
}

func (Greeter) Hello() string {
	return "hello"
}
`,
		out: `
type Greeter interface {
	Hello() string
}

func Hello(__lift_self interface{ Greeter }) string {
	return "hello"
}
`,
	},
	{
		name: "pointer receiver",
		in: `
type Greeter interface {
	Name() string
	Shout() string
}

func (g *Greeter) Shout() string {
	return strings.ToUpper(g.Name())
}
`,
		out: `
type Greeter interface {
	Name() string
	Shout() string
}

func Shout(__lift_self interface{ Greeter }) string {
	return strings.ToUpper(__lift_self.Name())
}
`,
	},
	{
		name: "unnamed params",
		in: `
type Logger interface {
	Log(string, int)
}

func (l Logger) Log(string, int) {
	l.Flush()
}
`,
		out: `
type Logger interface {
	Log(string, int)
}

func Log(__lift_self interface{ Logger }, _ string, _ int) {
	__lift_self.Flush()
}
`,
	},
	{
		name: "member order",
		in: `
type Shape interface {
	fmt.Stringer
	Area() float64
	Describe() string
	Scale(f float64) Shape
}

func (s Shape) Scale(f float64) Shape {
	return scaled{s, f}
}

func (s Shape) Describe() string {
	return s.String()
}
`,
		out: `
type Shape interface {
	fmt.Stringer
	Area() float64
	Describe() string
	Scale(f float64) Shape
}

func Describe(__lift_self interface{ Shape }) string {
	return __lift_self.String()
}

func Scale(__lift_self interface{ Shape }, f float64) Shape {
	return scaled{__lift_self, f}
}
`,
	},
	{
		name: "generic",
		in: `
type Store[K comparable, V any] interface {
	Get(k K) (V, bool)
	Must(k K) V
}

func (s Store[Key, _]) Must(k Key) V {
	v, ok := s.Get(k)
	if !ok {
		panic("missing key")
	}
	return v
}
`,
		out: `
type Store[K comparable, V any] interface {
	Get(k K) (V, bool)
	Must(k K) V
}

func Must[Key comparable, V any](__lift_self interface{ Store[Key, V] }, k Key) V {
	v, ok := __lift_self.Get(k)
	if !ok {
		panic("missing key")
	}
	return v
}
`,
	},
	{
		name: "single type parameter",
		in: `
type List[T any] interface {
	Len() int
	At(i int) T
	First() T
}

func (l List[E]) First() E {
	return l.At(0)
}
`,
		out: `
type List[T any] interface {
	Len() int
	At(i int) T
	First() T
}

func First[E any](__lift_self interface{ List[E] }) E {
	return __lift_self.At(0)
}
`,
	},
	{
		name: "blank type argument named like another",
		in: `
type Pair[K comparable, V any] interface {
	Key() V
	Value() K
	Swap() V
}

func (p Pair[V, _]) Swap() V {
	return p.Key()
}
`,
		out: `
type Pair[K comparable, V any] interface {
	Key() V
	Value() K
	Swap() V
}

func Swap[V comparable, V1 any](__lift_self interface{ Pair[V, V1] }) V {
	return __lift_self.Key()
}
`,
	},
	{
		name: "separate namespaces",
		in: `
type Counter interface {
	Size() int
	Total() int
}

func (g Counter) Total() int {
	type pair struct{ g int }
	p := pair{g: g.Size()}
	if p.g > 0 {
		g := 3
		p.g += g
	}
g:
	for {
		break g
	}
	return p.g
}
`,
		out: `
type Counter interface {
	Size() int
	Total() int
}

func Total(__lift_self interface{ Counter }) int {
	type pair struct{ g int }
	p := pair{__lift_self: __lift_self.Size()}
	if p.g > 0 {
		__lift_self := 3
		p.g += __lift_self
	}
g:
	for {
		break g
	}
	return p.g
}
`,
	},
	{
		name: "pass through",
		in: `
type Reader interface {
	io.Closer
	Read(p []byte) (int, error)
}
`,
		out: `
type Reader interface {
	io.Closer
	Read(p []byte) (int, error)
}
`,
	},
}

func TestTransform(t *testing.T) {
	for _, tt := range transformTests {
		t.Run(tt.name, func(t *testing.T) {
			fset, spec, defaults := parse(t, tt.in)
			decls, err := Transform(spec, defaults)
			if err != nil {
				t.Fatal(err)
			}
			have := gofmt(t, printDecls(t, fset, decls))
			want := gofmt(t, tt.out)
			if have != want {
				t.Errorf("have:\n%s\nwant:\n%s", have, want)
			}
		})
	}
}

func TestTransformDoesNotModifyInput(t *testing.T) {
	for _, tt := range transformTests {
		t.Run(tt.name, func(t *testing.T) {
			fset, spec, defaults := parse(t, tt.in)
			before := printNode(t, fset, spec)
			var beforeFuncs []string
			for _, fn := range defaults {
				beforeFuncs = append(beforeFuncs, printNode(t, fset, fn))
			}

			if _, err := Transform(spec, defaults); err != nil {
				t.Fatal(err)
			}

			if after := printNode(t, fset, spec); after != before {
				t.Errorf("interface changed:\n%s\nwas:\n%s", after, before)
			}
			for i, fn := range defaults {
				if after := printNode(t, fset, fn); after != beforeFuncs[i] {
					t.Errorf("method changed:\n%s\nwas:\n%s", after, beforeFuncs[i])
				}
			}
		})
	}
}

func TestExtract(t *testing.T) {
	_, spec, defaults := parse(t, `
type Shape interface {
	fmt.Stringer
	~int | ~float64
	Area() float64
	Describe() string
	Scale(f float64) Shape
}

func (s Shape) Scale(f float64) Shape {
	return scaled{s, f}
}

func (s Shape) Describe() string {
	return s.String()
}
`)
	it, err := Decode(spec, defaults)
	if err != nil {
		t.Fatal(err)
	}
	wantKinds := []Kind{Other, Other, Method, DefaultMethod, DefaultMethod}
	if len(it.Members) != len(wantKinds) {
		t.Fatalf("decoded %d members, want %d", len(it.Members), len(wantKinds))
	}
	for i, m := range it.Members {
		if m.Kind != wantKinds[i] {
			t.Errorf("member %d is %v, want %v", i, m.Kind, wantKinds[i])
		}
	}

	out, funcs := Extract(it)
	if len(out.Members) != len(it.Members) {
		t.Fatalf("Extract returned %d members, want %d", len(out.Members), len(it.Members))
	}
	for i, m := range out.Members {
		want := wantKinds[i]
		if want == DefaultMethod {
			want = Method
		}
		if m.Kind != want {
			t.Errorf("extracted member %d is %v, want %v", i, m.Kind, want)
		}
		if m.Field != it.Members[i].Field {
			t.Errorf("extracted member %d has a different field", i)
		}
	}
	if it.Members[3].Kind != DefaultMethod {
		t.Errorf("Extract modified its input")
	}

	var names []string
	for _, fn := range funcs {
		if fn.Recv != nil {
			t.Errorf("func %s has a receiver", fn.Name.Name)
		}
		names = append(names, fn.Name.Name)
	}
	if have, want := strings.Join(names, " "), "Describe Scale"; have != want {
		t.Errorf("extracted %s, want %s", have, want)
	}
}

func TestExtractPassThrough(t *testing.T) {
	_, spec, _ := parse(t, `
type Reader interface {
	io.Closer
	Read(p []byte) (int, error)
}
`)
	it, err := Decode(spec, nil)
	if err != nil {
		t.Fatal(err)
	}
	out, funcs := Extract(it)
	if len(funcs) != 0 {
		t.Errorf("Extract returned %d funcs, want 0", len(funcs))
	}
	for i, m := range out.Members {
		if m != it.Members[i] {
			t.Errorf("member %d was not passed through", i)
		}
	}
}

func count(n ast.Node, name string) int {
	c := 0
	ast.Inspect(n, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok && id.Name == name {
			c++
		}
		return true
	})
	return c
}

var renameCountTests = []struct {
	body string
	k    int
}{
	{"{ return 1 }", 0},
	{"{ return g.N() }", 1},
	{"{ x := g; return x.N() + g.N() }", 2},
	{"{ f := func() int { return g.N() }; return f() }", 1},
	{"{ for _, g := range gs { _ = g }; return 0 }", 2},
	{"{ switch v := g.(type) { case nil: return 0; default: _ = v }; return len([]T{g}) }", 2},
}

func TestRenameCount(t *testing.T) {
	for _, tt := range renameCountTests {
		src := "func (g I) M(gs []I) int " + tt.body
		fset := token.NewFileSet()
		f, err := parser.ParseFile(fset, "p.go", "package p\n\n"+src, 0)
		if err != nil {
			t.Fatal(err)
		}
		fn := f.Decls[0].(*ast.FuncDecl)
		sig := &Signature{
			Name: fn.Name,
			Recv: &Receiver{Name: fn.Recv.List[0].Names[0], Type: fn.Recv.List[0].Type},
			Type: fn.Type,
		}
		if n := count(fn.Body, "g"); n != tt.k {
			t.Fatalf("%s: body has %d receiver references, want %d", tt.body, n, tt.k)
		}

		ctx := &Context{Name: ast.NewIdent("I")}
		rsig, body := Rename(sig, fn.Body, ctx)
		out := &ast.FuncDecl{Name: rsig.Name, Type: rsig.Type, Body: body}
		if n := count(out, "g"); n != 0 {
			t.Errorf("%s: %d references to g remain", tt.body, n)
		}
		if n := count(out, ParamName); n != 1+tt.k {
			t.Errorf("%s: %s appears %d times, want %d", tt.body, ParamName, n, 1+tt.k)
		}
		if rsig.Type.Params.List[0].Names[0].Pos() != sig.Recv.Name.Pos() {
			t.Errorf("%s: parameter is not at the receiver position", tt.body)
		}
		if n := count(fn, "g"); n != tt.k+1 {
			t.Errorf("%s: input modified", tt.body)
		}
	}
}

func TestRenameNoReceiver(t *testing.T) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "p.go", `package p

func M(self, x int) (y int) {
	self++
	y = x + self
	return
}
`, 0)
	if err != nil {
		t.Fatal(err)
	}
	fn := f.Decls[0].(*ast.FuncDecl)
	sig := &Signature{Name: fn.Name, Type: fn.Type}
	rsig, body := Rename(sig, fn.Body, &Context{Name: ast.NewIdent("I")})
	if body == fn.Body || rsig.Type == fn.Type {
		t.Errorf("Rename did not copy")
	}
	have := printNode(t, fset, &ast.FuncDecl{Name: rsig.Name, Type: rsig.Type, Body: body})
	want := printNode(t, fset, fn)
	if have != want {
		t.Errorf("have:\n%s\nwant:\n%s", have, want)
	}
}

var decodeErrorTests = []struct {
	in  string
	err string
}{
	{
		`type T struct{}

func (t T) M() {}
`,
		"T is not an interface type declaration",
	},
	{
		`type I = interface{ M() }
`,
		"I is not an interface type declaration",
	},
	{
		`type I interface{ M() }

func (i I) N() {
	return
}
`,
		"N has a default body but is not a method of I",
	},
	{
		`type I interface{ M() }

func (i I) M() {}

func (j I) M() {}
`,
		"duplicate default body for I.M",
	},
	{
		`type I interface{ M() }

func (i I) M()
`,
		"default method I.M has no body",
	},
	{
		`type I interface{ M() }

func (j J) M() {}
`,
		"M is not a method of I",
	},
	{
		`type I[T any] interface{ M() T }

func (i I) M() T {
	return i.x
}
`,
		"receiver of I.M has 0 type parameters, want 1",
	},
	{
		`type I[T any] interface{ M() T }

func (i I[[]int]) M() T {
	return i.x
}
`,
		"receiver of I.M must name its type parameters",
	},
}

func TestDecodeErrors(t *testing.T) {
	for _, tt := range decodeErrorTests {
		_, spec, defaults := parse(t, tt.in)
		_, err := Decode(spec, defaults)
		if err == nil {
			t.Errorf("Decode(%q) succeeded, want error %q", tt.in, tt.err)
			continue
		}
		if err.Error() != tt.err {
			t.Errorf("Decode(%q) = %q, want %q", tt.in, err, tt.err)
		}
		if _, err := Transform(spec, defaults); err == nil {
			t.Errorf("Transform(%q) succeeded, want error", tt.in)
		}
	}
}

func TestDecodeErrorsJoined(t *testing.T) {
	_, spec, defaults := parse(t, `type I interface{ M() }

func (i I) M()

func (i I) N() {}
`)
	_, err := Decode(spec, defaults)
	if err == nil {
		t.Fatal("Decode succeeded")
	}
	errs := err.(interface{ Unwrap() []error }).Unwrap()
	if len(errs) != 2 {
		t.Fatalf("Decode returned %d errors, want 2: %v", len(errs), err)
	}
	for _, e := range errs {
		if _, ok := e.(*ShapeError); !ok {
			t.Errorf("error %v is %T, want *ShapeError", e, e)
		}
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"I", "I"},
		{"*I", "I"},
		{"(I)", "I"},
		{"(*I)", "I"},
		{"I[T]", "I"},
		{"*I[K, V]", "I"},
		{"p.I", ""},
		{"[]I", ""},
	}
	for _, tt := range tests {
		x, err := parser.ParseExpr(tt.expr)
		if err != nil {
			t.Fatal(err)
		}
		if have := BaseName(x); have != tt.want {
			t.Errorf("BaseName(%s) = %q, want %q", tt.expr, have, tt.want)
		}
	}
}
