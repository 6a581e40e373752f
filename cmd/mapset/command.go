// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/juju/gnuflag"
)

// CommandInfo describes a subcommand's intent and usage.
type CommandInfo struct {
	// Name is the subcommand's name.
	Name string

	// Args describes the expected positional arguments.
	Args string

	// Purpose is a one line explanation of what the command does.
	Purpose string

	// Doc is the long documentation shown by --help.
	Doc string
}

// Command is implemented by the mapset subcommands.
type Command interface {
	// Info returns information about the command.
	Info() CommandInfo

	// SetFlags registers the command's flags on f.
	SetFlags(f *gnuflag.FlagSet)

	// Init consumes the positional arguments left over after flag
	// parsing. It is called once, before Run.
	Init(args []string) error

	// Run executes the command.
	Run() error
}

// parse initializes command from args. A gnuflag.ErrHelp return means
// the user asked for --help rather than getting something wrong.
func parse(command Command, args []string) error {
	f := gnuflag.NewFlagSet(command.Info().Name, gnuflag.ContinueOnError)
	f.SetOutput(io.Discard)
	command.SetFlags(f)
	if err := f.Parse(true, args); err != nil {
		return err
	}
	return command.Init(f.Args())
}

// printUsage writes usage information for command to out.
func printUsage(command Command, out io.Writer) {
	info := command.Info()
	fmt.Fprintf(out, "Usage: mapset %s %s\n", info.Name, info.Args)
	fmt.Fprintf(out, "Summary: %s\n", info.Purpose)
	f := gnuflag.NewFlagSet(info.Name, gnuflag.ContinueOnError)
	command.SetFlags(f)
	f.SetOutput(out)
	fmt.Fprintf(out, "\nOptions:\n")
	f.PrintDefaults()
	if info.Doc != "" {
		fmt.Fprintf(out, "\nDetails:\n%s\n", strings.TrimSpace(info.Doc))
	}
}
