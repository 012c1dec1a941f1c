// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package diff produces the unified diffs that lift prints for --diff,
// using the system diff tool.
package diff

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path"

	"github.com/mattn/go-isatty"
)

// Diff returns a unified diff turning old into new, with its file headers
// naming oldName and newName. It returns nil if old and new are equal.
func Diff(oldName string, old []byte, newName string, new []byte) ([]byte, error) {
	f1, err := writeTemp("old", oldName, old)
	if err != nil {
		return nil, err
	}
	defer os.Remove(f1)

	f2, err := writeTemp("new", newName, new)
	if err != nil {
		return nil, err
	}
	defer os.Remove(f2)

	// diff exits with status 1 when the inputs differ.
	out, err := exec.Command("diff", "-u", f1, f2).CombinedOutput()
	if len(out) == 0 {
		return nil, err
	}

	// Replace the two header lines, which name the temporary files.
	_, rest, ok := bytes.Cut(out, []byte("\n"))
	if ok {
		_, rest, ok = bytes.Cut(rest, []byte("\n"))
	}
	if !ok || !bytes.HasPrefix(rest, []byte("@@")) {
		return out, nil
	}
	hdr := fmt.Sprintf("diff %s %s\n--- %s\n+++ %s\n", oldName, newName, oldName, newName)
	return append([]byte(hdr), rest...), nil
}

// writeTemp writes data to a temporary file named after which side
// of the diff it holds and the base name of the file it stands for.
func writeTemp(side, name string, data []byte) (string, error) {
	f, err := os.CreateTemp("", "lift-"+side+"-*-"+path.Base(name))
	if err != nil {
		return "", err
	}
	_, err = f.Write(data)
	if err1 := f.Close(); err == nil {
		err = err1
	}
	if err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

const (
	bold  = "\x1b[1m"
	red   = "\x1b[31m"
	green = "\x1b[32m"
	cyan  = "\x1b[36m"
	reset = "\x1b[0m"
)

// Color returns d, a diff as returned by Diff, with ANSI colors:
// headers in bold, hunk markers in cyan, removed lines in red
// and added lines in green.
func Color(d []byte) []byte {
	var out []byte
	for len(d) > 0 {
		line := d
		if i := bytes.IndexByte(d, '\n'); i >= 0 {
			line = d[:i+1]
		}
		d = d[len(line):]

		text := bytes.TrimSuffix(line, []byte("\n"))
		nl := line[len(text):]
		var color string
		switch {
		case bytes.HasPrefix(text, []byte("diff ")),
			bytes.HasPrefix(text, []byte("--- ")),
			bytes.HasPrefix(text, []byte("+++ ")):
			color = bold
		case bytes.HasPrefix(text, []byte("@@")):
			color = cyan
		case bytes.HasPrefix(text, []byte("-")):
			color = red
		case bytes.HasPrefix(text, []byte("+")):
			color = green
		}
		if color == "" {
			out = append(out, line...)
			continue
		}
		out = append(out, color...)
		out = append(out, text...)
		out = append(out, reset...)
		out = append(out, nl...)
	}
	return out
}

// IsTerminal reports whether w is a terminal that should get colored output.
// Setting NO_COLOR in the environment turns color off.
func IsTerminal(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
