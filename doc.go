// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Lift moves default method bodies out of Go interfaces.
//
// Usage:
//
//	lift [-C dir] [--diff] [--iface name]... [--config file] [--watch] [-v] [packages]
//
// Go has no syntax for a method body inside an interface type,
// but the parser accepts a method declared with an interface as receiver.
// Lift treats such a method as the default body of the interface method
// of the same name, and rewrites it into an ordinary function:
//
//	type Greeter interface {
//		Name() string
//		Greeting() string
//	}
//
//	func (g Greeter) Greeting() string {
//		return fmt.Sprintf("Hello, %s", g.Name())
//	}
//
// becomes
//
//	type Greeter interface {
//		Name() string
//		Greeting() string
//	}
//
//	func Greeting(__lift_self interface{ Greeter }) string {
//		return fmt.Sprintf("Hello, %s", __lift_self.Name())
//	}
//
// The receiver becomes the first parameter, named __lift_self,
// and every use of the receiver name in the signature and body is renamed.
// Field names, method names in selectors and interface types,
// and labels are left alone. Other uses are renamed even when they are
// shadowed by an inner declaration. Code must not already use the name __lift_self.
//
// The function is declared right after the interface, in the order of the
// interface's methods, keeping the default method's doc comment.
// When the default was declared in another file, the imports its body
// uses are copied to the interface's file. A default in a test file, or in
// a file whose build constraints differ from the interface's file, is
// instead replaced by its function where it stands.
//
// For a generic interface the receiver must name each type parameter,
// as in
//
//	func (s Store[K, V]) Must(k K) V
//
// and the function declares the same type parameters under those names:
//
//	func Must[K comparable, V any](__lift_self interface{ Store[K, V] }, k K) V
//
// By default lift rewrites the package in the current directory.
// Package patterns select other packages of the main module.
// The -C flag changes to dir before loading packages.
// Lift writes changes back to the disk; the --diff flag causes it to
// print a diff of the intended changes instead. The diff is colored
// when standard output is a terminal, unless NO_COLOR is set.
//
// The --iface flag limits the rewrite to the named interfaces.
// Naming an interface that is not declared is an error.
//
// Before editing anything, lift checks every interface: each default must
// be a method of the interface, must have a body, and must appear once, and
// no function it produces may collide with a top-level name of the package.
// If any check fails, lift prints the problems and leaves all files untouched.
//
// # Configuration
//
// Lift reads lift.yaml from the current directory, if present,
// or the file named by --config:
//
//	build_tags: [linux, integration]
//	interfaces: [Greeter, Store]
//	exclude: [.git, testdata, vendor]
//
// The build tags select the files to load. Tags naming a GOOS or GOARCH
// set those variables, "race" sets -race, "cgo" and "!cgo" set CGO_ENABLED,
// and the rest are passed to -tags. The interfaces list is the default
// for --iface. The exclude list names directories that --watch ignores.
//
// # Watching
//
// With --watch, lift rewrites once and then watches the directory tree
// for changes to Go files, go.mod and lift.yaml, rewriting again half a
// second after the last change. It stops on interrupt.
package main
