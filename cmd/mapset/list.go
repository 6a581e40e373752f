// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/juju/ansiterm"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/juju/mapset/internal/store"
)

// listCommand scans store directories and prints the unit files found.
type listCommand struct {
	stdout io.Writer

	dirs []string
}

func newListCommand() *listCommand {
	return &listCommand{stdout: os.Stdout}
}

// Info is part of the Command interface.
func (c *listCommand) Info() CommandInfo {
	return CommandInfo{
		Name:    "list",
		Args:    "<dir>...",
		Purpose: "list the map units in a store",
		Doc: `
Scans the given store directories and prints every unit file found,
newest version first within a name. In-flight downloads and hidden
files are skipped. A unit present in more than one directory is
listed once, from the first directory holding it.
`,
	}
}

// SetFlags is part of the Command interface.
func (c *listCommand) SetFlags(f *gnuflag.FlagSet) {}

// Init is part of the Command interface.
func (c *listCommand) Init(args []string) error {
	if len(args) == 0 {
		return errors.New("no store directory specified")
	}
	c.dirs = args
	return nil
}

// Run is part of the Command interface.
func (c *listCommand) Run() error {
	files, err := store.FindAll(c.dirs)
	if err != nil {
		return errors.Trace(err)
	}
	tw := ansiterm.NewTabWriter(c.stdout, 0, 1, 2, ' ', 0)
	fmt.Fprintln(tw, "Name\tVersion\tKind\tSize\tPath")
	for _, file := range files {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			file.Name,
			file.Version,
			file.Name.Kind(),
			humanize.IBytes(uint64(file.Size)),
			file.Path,
		)
	}
	return errors.Trace(tw.Flush())
}
