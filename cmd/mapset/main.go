// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// mapset is a small operator tool for map unit stores. It lists the
// units a store holds, and it can watch a store, keeping a registry in
// step with the files on disk and logging lifecycle events as units
// come and go.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/juju/gnuflag"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("mapset.cmd")

// loggingConfigEnvKey overrides the logging configuration, in
// loggo.ConfigureLoggers syntax.
const loggingConfigEnvKey = "MAPSET_LOGGING_CONFIG"

const (
	exitSuccess = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(Main(os.Args))
}

// Main is not redundant with main(), because it provides an entry
// point for testing with arbitrary command line arguments.
func Main(args []string) int {
	if len(args) < 2 {
		printCommands(os.Stderr)
		return exitUsage
	}
	var command Command
	switch args[1] {
	case "list":
		command = newListCommand()
	case "watch":
		command = newWatchCommand()
	case "help", "--help", "-h":
		printCommands(os.Stdout)
		return exitSuccess
	default:
		fmt.Fprintf(os.Stderr, "unrecognised command: %s\n", args[1])
		printCommands(os.Stderr)
		return exitUsage
	}
	return run(command, args[2:])
}

func run(command Command, args []string) int {
	if err := parse(command, args); err != nil {
		if err == gnuflag.ErrHelp {
			printUsage(command, os.Stdout)
			return exitSuccess
		}
		fmt.Fprintf(os.Stderr, "ERROR %v\n\n", err)
		printUsage(command, os.Stderr)
		return exitUsage
	}
	if err := command.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR %v\n", err)
		return exitFailure
	}
	return exitSuccess
}

func printCommands(out io.Writer) {
	fmt.Fprint(out, `Usage: mapset <command> ...

Commands:
    list   list the map units in a store
    watch  watch a store and log unit lifecycle events
    help   show this help

Run "mapset <command> --help" for command details.
`)
}
