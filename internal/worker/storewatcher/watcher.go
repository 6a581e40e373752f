// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package storewatcher

import (
	"github.com/fsnotify/fsnotify"
	"github.com/juju/errors"
)

// Watcher is the filesystem event source driving incremental rescans.
// It is the part of fsnotify.Watcher the worker needs, lifted to an
// interface so tests can drive the loop directly.
type Watcher interface {
	// Add starts watching the named directory.
	Add(path string) error
	// Close stops the watcher and closes the event channels.
	Close() error
	// Events returns the filesystem event channel.
	Events() <-chan fsnotify.Event
	// Errors returns the watch error channel.
	Errors() <-chan error
}

// NewWatcherFunc creates the Watcher used for one run of the worker.
type NewWatcherFunc func() (Watcher, error)

// NewFSWatcher returns a Watcher backed by the operating system's file
// notification facility.
func NewFSWatcher() (Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return fsWatcher{w}, nil
}

// fsWatcher adapts fsnotify's channel fields to the Watcher interface.
type fsWatcher struct {
	watcher *fsnotify.Watcher
}

func (w fsWatcher) Add(path string) error         { return w.watcher.Add(path) }
func (w fsWatcher) Close() error                  { return w.watcher.Close() }
func (w fsWatcher) Events() <-chan fsnotify.Event { return w.watcher.Events }
func (w fsWatcher) Errors() <-chan error          { return w.watcher.Errors }
