// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"rsc.io/lift/diff"
	"rsc.io/lift/refactor"
)

// options holds the command-line flags.
type options struct {
	dir     string
	diff    bool
	ifaces  []string
	config  string
	watch   bool
	verbose bool
}

var verbose bool

// vlogf logs progress when -v is given.
func vlogf(format string, args ...any) {
	if verbose {
		log.Printf(format, args...)
	}
}

func main() {
	log.SetPrefix("lift: ")
	log.SetFlags(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		var u *errUsage
		if errors.As(err, &u) {
			fmt.Fprintf(os.Stderr, "lift: %v\n", err)
			cmd.Usage()
			stop()
			os.Exit(2)
		}
		stop()
		log.Fatal(err)
	}
}

func newCommand() *cobra.Command {
	opts := new(options)
	cmd := &cobra.Command{
		Use:   "lift [flags] [packages]",
		Short: "Lift default method bodies out of Go interfaces",
		Long: `Lift rewrites interfaces that carry default method bodies.
A default is a method declared with the interface itself as receiver.
Lift removes it and declares a standalone function in its place,
taking the receiver as an explicit first parameter.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return newErrUsage("%v", err)
	})

	flags := cmd.Flags()
	flags.StringVarP(&opts.dir, "dir", "C", ".", "change to `dir` before loading packages")
	flags.BoolVar(&opts.diff, "diff", false, "show diff instead of writing files")
	flags.StringArrayVar(&opts.ifaces, "iface", nil, "only rewrite the interface `name` (repeatable)")
	flags.StringVar(&opts.config, "config", "", "read configuration from `file` instead of "+refactor.ConfigFile)
	flags.BoolVar(&opts.watch, "watch", false, "rewrite again whenever a Go file changes")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log progress")
	return cmd
}

func (opts *options) run(cmd *cobra.Command, args []string) error {
	verbose = opts.verbose

	r, err := refactor.New(opts.dir)
	if err != nil {
		return err
	}
	cfg, err := refactor.LoadConfig(r.Dir(), opts.config)
	if err != nil {
		return newErrUsage("%v", err)
	}
	if cmd.Flags().Changed("iface") {
		cfg.Interfaces = opts.ifaces
		if err := cfg.Check(); err != nil {
			return newErrUsage("%v", err)
		}
	}
	r.Config = cfg
	r.ShowDiff = opts.diff
	r.Stdout = cmd.OutOrStdout()
	r.Stderr = cmd.ErrOrStderr()

	if !opts.watch {
		return run(r, args)
	}
	return watch(cmd.Context(), r, args)
}

// run performs one rewrite of the packages matching patterns.
func run(r *refactor.Refactor, patterns []string) error {
	snap, err := r.Load(patterns...)
	if err != nil {
		return err
	}
	if err := cmdLift(snap); err != nil {
		return err
	}
	if err := snap.Errors.Err(); err != nil {
		return err
	}

	snap.Gofmt()
	if err := snap.Errors.Err(); err != nil {
		return err
	}

	if r.ShowDiff {
		d, err := snap.Diff()
		if err != nil {
			return err
		}
		if diff.IsTerminal(r.Stdout) {
			d = diff.Color(d)
		}
		r.Stdout.Write(d)
		return nil
	}

	modified := snap.Modified()
	if err := snap.Write(); err != nil {
		return err
	}
	vlogf("rewrote %d files", len(modified))
	return nil
}
