// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package refactor

import (
	"bytes"
	"go/ast"
	"go/build"
	"go/build/constraint"
	"go/token"
	"io"
	"path/filepath"
	"strings"
)

func (s *Snapshot) Position(pos token.Pos) token.Position {
	return s.fset.Position(pos)
}

func (s *Snapshot) Addr(pos token.Pos) string {
	p := s.Position(pos)
	p.Filename = s.r.shortPath(p.Filename)
	return p.String()
}

func (s *Snapshot) Text(lo, hi token.Pos) []byte {
	plo := s.Position(lo)
	phi := s.Position(hi)
	f := s.files[plo.Filename]
	if f == nil {
		panic("file not found")
	}
	return f.Text[plo.Offset:phi.Offset]
}

// FileRange returns the positions of the start and end of the file containing pos.
func (s *Snapshot) FileRange(pos token.Pos) (start, end token.Pos) {
	tf := s.fset.File(pos)
	start = token.Pos(tf.Base())
	return start, start + token.Pos(tf.Size())
}

// FileAt returns the package and file containing pos.
func (s *Snapshot) FileAt(pos token.Pos) (*Package, *File) {
	tf := s.fset.File(pos)
	if tf == nil {
		return nil, nil
	}
	f := s.files[tf.Name()]
	if f == nil {
		return nil, nil
	}
	for _, p := range s.packages {
		for _, file := range p.Files {
			if file == f {
				return p, f
			}
		}
	}
	return nil, f
}

var (
	slashSlash = []byte("//")
	starSlash  = []byte("*/")
)

// DeclRange returns the text range to delete to remove n entirely:
// n itself, a trailing line comment, the comments attached above it,
// and the final newline when n occupies whole lines.
func (s *Snapshot) DeclRange(n ast.Node) (pos, end token.Pos) {
	startFile, endFile := s.FileRange(n.Pos())
	text := s.Text(startFile, endFile)

	pos = n.Pos()
	end = n.End()

	// Include space and comments following the node.
	for end < endFile && text[end-startFile] == ' ' {
		end++
	}
	if bytes.HasPrefix(text[end-startFile:], slashSlash) {
		i := bytes.IndexByte(text[end-startFile:], '\n')
		if i >= 0 {
			end += token.Pos(i)
		} else {
			end = endFile
		}
	}
	if end > n.End() && end < endFile && text[end-startFile] != '\n' {
		// If we consumed spaces but did not reach a newline,
		// put a space back to avoid joining tokens.
		end--
	}

	// Include tabs preceding the node, to beginning of line.
	// (If there are spaces before the node, it means something else
	// precedes the node on the line, so don't bother removing anything.)
	for pos > startFile && text[pos-startFile-1] == '\t' {
		pos--
	}

	// Include comments "attached" to this node,
	// but stopping at a blank line.
	// Reading comments backward is a bit tricky:
	// if we see a */, we need to stop and assume
	// we don't know the state of the world.
	for pos > startFile && text[pos-startFile-1] == '\n' {
		i := bytes.LastIndexByte(text[:pos-startFile-1], '\n') + 1
		line := text[i : pos-startFile]
		line = bytes.TrimSpace(line)
		if !bytes.HasPrefix(line, slashSlash) || bytes.Contains(line, starSlash) {
			break
		}
		pos = startFile + token.Pos(i)
	}

	// Consume final \n if we are deleting the whole line.
	if (pos == startFile || text[pos-startFile-1] == '\n') && end < endFile && text[end-startFile] == '\n' {
		end++
	}

	return pos, end
}

// IsTest reports whether f is a _test.go file.
func (f *File) IsTest() bool {
	return strings.HasSuffix(f.Name, "_test.go")
}

// BuildKey describes when f is compiled: its build constraint lines,
// whether it is a test file, and its name if the name restricts GOOS
// or GOARCH. Files with equal keys are compiled in the same builds.
// Two files with name restrictions never have equal keys.
func (f *File) BuildKey() string {
	var key []string
	for _, g := range f.Syntax.Comments {
		if g.Pos() >= f.Syntax.Package {
			break
		}
		for _, c := range g.List {
			switch {
			case constraint.IsGoBuild(c.Text):
				if x, err := constraint.Parse(c.Text); err == nil {
					key = append(key, "go:build "+x.String())
					continue
				}
				key = append(key, c.Text)
			case constraint.IsPlusBuild(c.Text):
				key = append(key, c.Text)
			}
		}
	}
	if f.IsTest() {
		key = append(key, "test")
	}
	if nameConstrained(f.Name) {
		key = append(key, "name "+f.Name)
	}
	return strings.Join(key, "\n")
}

// nameConstrained reports whether a file name carries a GOOS or GOARCH
// suffix, as in p_linux.go or p_windows_amd64_test.go.
// It asks go/build to match the name against a platform that does
// not exist, with file contents that impose no constraint.
func nameConstrained(name string) bool {
	ctxt := build.Default
	ctxt.GOOS = "none"
	ctxt.GOARCH = "none"
	ctxt.BuildTags = nil
	ctxt.OpenFile = func(string) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("package p\n")), nil
	}
	ok, err := ctxt.MatchFile(".", filepath.Base(name))
	return err == nil && !ok
}
