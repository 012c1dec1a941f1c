// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package refactor

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"
	"os"
	"path/filepath"
	"sort"

	"rsc.io/lift/diff"
	"rsc.io/lift/edit"
)

// A Buffer is a queue of edits to apply to a file text.
// It's like edit.Buffer but uses token.Pos as coordinate space.
type Buffer struct {
	pos token.Pos
	end token.Pos
	ed  *edit.Buffer
}

func NewBufferAt(pos token.Pos, text []byte) *Buffer {
	return &Buffer{pos: pos, end: pos + token.Pos(len(text)), ed: edit.NewBuffer(text)}
}

func (b *Buffer) Bytes() []byte {
	return b.ed.Bytes()
}

func (b *Buffer) String() string {
	return b.ed.String()
}

func (b *Buffer) Delete(pos, end token.Pos) {
	b.ed.Delete(int(pos-b.pos), int(end-b.pos))
}

func (b *Buffer) Insert(pos token.Pos, new string) {
	b.ed.Insert(int(pos-b.pos), new)
}

func (b *Buffer) Replace(pos, end token.Pos, new string) {
	b.ed.Replace(int(pos-b.pos), int(end-b.pos), new)
}

func (s *Snapshot) bufferAt(pos token.Pos) *Buffer {
	posn := s.Position(pos)
	name := posn.Filename
	b := s.edits[name]
	if b != nil {
		return b
	}
	f := s.files[name]
	if f == nil {
		panic("file not found")
	}
	b = NewBufferAt(pos-token.Pos(posn.Offset), f.Text)
	s.edits[name] = b
	return b
}

// ReplaceAt queues a replacement of the text between lo and hi with repl.
// Positions refer to the text as loaded; edits to one file must not overlap.
func (s *Snapshot) ReplaceAt(lo, hi token.Pos, repl string) {
	s.bufferAt(lo).Replace(lo, hi, repl)
}

func (s *Snapshot) InsertAt(pos token.Pos, repl string) {
	s.ReplaceAt(pos, pos, repl)
}

func (s *Snapshot) DeleteAt(pos, end token.Pos) {
	s.ReplaceAt(pos, end, "")
}

func (s *Snapshot) currentBytes(name string) []byte {
	if b := s.edits[name]; b != nil {
		return b.Bytes()
	}
	f := s.files[name]
	if f == nil {
		return nil
	}
	return f.Text
}

// Modified returns the names of the files whose text has changed, in sorted order.
func (s *Snapshot) Modified() []string {
	var names []string
	for name := range s.edits {
		if !bytes.Equal(s.currentBytes(name), s.files[name].Text) {
			names = append(names, name)
		}
	}
	sortNames(names)
	return names
}

// sortNames sorts file names by directory and then by name.
func sortNames(names []string) {
	sort.Slice(names, func(i, j int) bool {
		di, dj := filepath.Dir(names[i]), filepath.Dir(names[j])
		if di != dj {
			return di < dj
		}
		return names[i] < names[j]
	})
}

// Gofmt applies the queued import changes to each edited file
// and reformats it. A file that no longer parses is reported
// in s.Errors and left as is.
func (s *Snapshot) Gofmt() {
	var names []string
	for name := range s.edits {
		names = append(names, name)
	}
	sortNames(names)

	for _, name := range names {
		b := s.edits[name]
		text := b.Bytes()
		var out []byte
		var err error
		if fix := s.imports[name]; fix != nil {
			out, err = fix.apply(name, text)
		} else {
			out, err = format.Source(text)
		}
		if err != nil {
			s.Errors.Add(fmt.Errorf("%s: formatting rewritten file: %v", name, err))
			continue
		}
		s.edits[name] = NewBufferAt(b.pos, out)
	}
}

// Diff returns a unified diff of the pending changes, file by file.
// Names in the diff are relative to the module root,
// or to the working directory outside a module.
func (s *Snapshot) Diff() ([]byte, error) {
	var diffs []byte
	for _, name := range s.Modified() {
		old := s.files[name].Text
		new := s.currentBytes(name)
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.r.dir, path)
		}
		root := s.r.modRoot
		if root == "" {
			root = s.r.dir
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil, err
		}
		rel = filepath.ToSlash(rel)
		d, err := diff.Diff("old/"+rel, old, "new/"+rel, new)
		if err != nil {
			return nil, err
		}
		diffs = append(diffs, d...)
	}
	return diffs, nil
}

// Write writes the modified files back to disk,
// keeping their permission bits.
func (s *Snapshot) Write() error {
	failed := false
	for _, name := range s.Modified() {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.r.dir, path)
		}
		mode := os.FileMode(0666)
		if info, err := os.Stat(path); err == nil {
			mode = info.Mode().Perm()
		}
		if err := os.WriteFile(path, s.currentBytes(name), mode); err != nil {
			fmt.Fprintf(s.r.Stderr, "%s\n", err)
			failed = true
		}
	}
	if failed {
		return fmt.Errorf("errors writing files")
	}
	return nil
}
