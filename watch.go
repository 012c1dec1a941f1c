// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"rsc.io/lift/refactor"
)

const debounce = 500 * time.Millisecond

// A watcher calls onChange after Go files or the config file
// under root change, once things have been quiet for the debounce delay.
type watcher struct {
	root    string
	exclude []string
	fs      *fsnotify.Watcher

	mu       sync.Mutex // guards timer
	timer    *time.Timer
	runMu    sync.Mutex // serializes onChange
	onChange func()
}

func newWatcher(root string, exclude []string, onChange func()) (*watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	w := &watcher{
		root:     root,
		exclude:  exclude,
		fs:       fs,
		onChange: onChange,
	}
	if err := w.addRecursive(root); err != nil {
		fs.Close()
		return nil, err
	}
	return w, nil
}

// watch runs the rewrite, then runs it again whenever the sources
// change, until ctx is done.
func watch(ctx context.Context, r *refactor.Refactor, patterns []string) error {
	rerun := func() {
		if err := run(r, patterns); err != nil {
			log.Print(err)
		}
	}
	rerun()

	w, err := newWatcher(r.Dir(), r.Config.Exclude, rerun)
	if err != nil {
		return err
	}
	defer w.Close()
	vlogf("watching %s", r.Dir())
	return w.Watch(ctx)
}

// Watch processes file events until ctx is done.
func (w *watcher) Watch(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if w.shouldExclude(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(event.Name); err != nil {
						log.Print(err)
					}
					continue
				}
			}
			if !relevant(event.Name) {
				continue
			}
			vlogf("%s %s", event.Op, event.Name)
			w.trigger()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			log.Printf("watcher: %v", err)
		}
	}
}

// relevant reports whether a change to the named file can change the rewrite.
func relevant(name string) bool {
	base := filepath.Base(name)
	return strings.HasSuffix(base, ".go") || base == refactor.ConfigFile || base == "go.mod"
}

func (w *watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounce, func() {
		w.runMu.Lock()
		defer w.runMu.Unlock()
		w.onChange()
	})
}

func (w *watcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fs.Close()
}

// shouldExclude reports whether path is, or is inside, an excluded directory.
func (w *watcher) shouldExclude(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	rel = filepath.Clean(rel)
	for _, ex := range w.exclude {
		ex = filepath.Clean(ex)
		if rel == ex || strings.HasPrefix(rel, ex+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if w.shouldExclude(path) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}
