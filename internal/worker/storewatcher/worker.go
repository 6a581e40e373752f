// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package storewatcher keeps a map registry synchronised with the unit
// files present in a set of store directories. An initial scan
// registers everything already on disk; filesystem notifications and a
// periodic rescan pick up downloads, upgrades and removals after that.
package storewatcher

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/juju/clock"
	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/juju/retry"
	"github.com/juju/worker/v4"
	"github.com/juju/worker/v4/catacomb"

	"github.com/juju/mapset/core/unit"
	"github.com/juju/mapset/internal/store"
	"github.com/juju/mapset/registry"
)

var logger = loggo.GetLogger("mapset.worker.storewatcher")

const (
	// DefaultRescanInterval is how often the store is rescanned in the
	// absence of filesystem events.
	DefaultRescanInterval = time.Minute

	// DefaultRetryAttempts and DefaultRetryDelay pace registration
	// retries for files that fail to open, typically because a
	// download has not finished writing them.
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = time.Second

	// A download produces several filesystem events in quick
	// succession; debounceDelay batches them into one rescan.
	debounceDelay = 500 * time.Millisecond
)

// Registry is the part of the map registry the worker drives.
type Registry interface {
	// Register makes a unit file available for use.
	Register(unit.File) (registry.ID, registry.Result, error)
	// Deregister retires the newest version of the named unit.
	Deregister(unit.Name) bool
	// Names returns the names with at least one version present.
	Names() []unit.Name
}

// Config holds the dependencies and parameters of a store watcher.
type Config struct {
	// Registry receives the units discovered on disk.
	Registry Registry

	// Clock paces rescans and registration retries.
	Clock clock.Clock

	// Dirs are the store roots to scan, in precedence order.
	Dirs []string

	// NewWatcher creates the filesystem watcher for the run.
	NewWatcher NewWatcherFunc

	// RescanInterval is the period of the full rescan. Zero means
	// DefaultRescanInterval.
	RescanInterval time.Duration

	// RetryAttempts and RetryDelay pace registration retries for
	// files that fail to open. Zero means the defaults.
	RetryAttempts int
	RetryDelay    time.Duration

	// RemoveBadFiles deletes files from the store when they cannot be
	// registered, or when a newer version is already registered.
	RemoveBadFiles bool
}

// Validate returns an error if the config cannot drive a worker.
func (config Config) Validate() error {
	if config.Registry == nil {
		return errors.NotValidf("nil Registry")
	}
	if config.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if len(config.Dirs) == 0 {
		return errors.NotValidf("empty Dirs")
	}
	if config.NewWatcher == nil {
		return errors.NotValidf("nil NewWatcher")
	}
	return nil
}

// Worker keeps a registry in step with the store directories.
type Worker struct {
	catacomb catacomb.Catacomb
	config   Config

	mu       sync.Mutex
	scans    int
	badFiles int
	lastScan time.Time
}

var _ worker.Worker = (*Worker)(nil)
var _ worker.Reporter = (*Worker)(nil)

// New starts a store watcher with the supplied config.
func New(config Config) (*Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if config.RescanInterval <= 0 {
		config.RescanInterval = DefaultRescanInterval
	}
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = DefaultRetryAttempts
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = DefaultRetryDelay
	}
	config.Dirs = append([]string(nil), config.Dirs...)

	w := &Worker{config: config}
	if err := catacomb.Invoke(catacomb.Plan{
		Site: &w.catacomb,
		Work: w.loop,
	}); err != nil {
		return nil, errors.Trace(err)
	}
	return w, nil
}

// Kill is part of the worker.Worker interface.
func (w *Worker) Kill() {
	w.catacomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (w *Worker) Wait() error {
	return w.catacomb.Wait()
}

// Report is part of the worker.Reporter interface, giving an
// opportunity to introspect the worker at runtime.
func (w *Worker) Report() map[string]interface{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	report := map[string]interface{}{
		"dirs":  append([]string(nil), w.config.Dirs...),
		"scans": w.scans,
	}
	names := w.config.Registry.Names()
	units := make([]string, len(names))
	for i, name := range names {
		units[i] = name.String()
	}
	report["units"] = units
	if !w.lastScan.IsZero() {
		report["last-scan"] = w.lastScan.Format("2006-01-02 15:04:05")
	}
	if w.badFiles > 0 {
		report["bad-files"] = w.badFiles
	}
	return report
}

func (w *Worker) loop() error {
	watcher, err := w.config.NewWatcher()
	if err != nil {
		return errors.Trace(err)
	}
	defer func() { _ = watcher.Close() }()

	// watched is confined to this goroutine.
	watched := set.NewStrings()
	if err := w.scan(watcher, watched); err != nil {
		return errors.Trace(err)
	}

	rescan := w.config.Clock.NewTimer(w.config.RescanInterval)
	defer rescan.Stop()

	var debounce clock.Timer
	var debounceChan <-chan time.Time
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-w.catacomb.Dying():
			return w.catacomb.ErrDying()

		case event, ok := <-watcher.Events():
			if !ok {
				return errors.New("filesystem watcher closed")
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			logger.Tracef("filesystem event %v", event)
			if debounce == nil {
				debounce = w.config.Clock.NewTimer(debounceDelay)
				debounceChan = debounce.Chan()
			} else {
				debounce.Reset(debounceDelay)
			}

		case err, ok := <-watcher.Errors():
			if !ok {
				return errors.New("filesystem watcher closed")
			}
			logger.Errorf("filesystem watcher: %v", err)

		case <-debounceChan:
			debounce, debounceChan = nil, nil
			if err := w.scan(watcher, watched); err != nil {
				return errors.Trace(err)
			}
			rescan.Reset(w.config.RescanInterval)

		case <-rescan.Chan():
			if err := w.scan(watcher, watched); err != nil {
				return errors.Trace(err)
			}
			rescan.Reset(w.config.RescanInterval)
		}
	}
}

// scan reconciles the registry with the store contents: names with no
// file left on disk are deregistered, and everything found is offered
// for registration, newest version first.
func (w *Worker) scan(watcher Watcher, watched set.Strings) error {
	files, err := store.FindAll(w.config.Dirs)
	if err != nil {
		return errors.Trace(err)
	}
	w.addWatches(watcher, watched, files)

	onDisk := set.NewStrings()
	for _, f := range files {
		onDisk.Add(f.Name.String())
	}
	for _, name := range w.config.Registry.Names() {
		if onDisk.Contains(name.String()) {
			continue
		}
		if w.config.Registry.Deregister(name) {
			logger.Infof("deregistered %v, no longer in the store", name)
		} else {
			logger.Infof("deregistration of %v deferred, handles still open", name)
		}
	}

	for _, f := range files {
		w.registerFile(f)
	}

	w.mu.Lock()
	w.scans++
	w.lastScan = w.config.Clock.Now()
	w.mu.Unlock()
	return nil
}

// addWatches follows the store layout: version directories appear and
// disappear over time, and events inside them are only delivered for
// watched paths.
func (w *Worker) addWatches(watcher Watcher, watched set.Strings, files []unit.File) {
	dirs := set.NewStrings(w.config.Dirs...)
	for _, f := range files {
		if f.Version != unit.VersionUnknown {
			dirs.Add(filepath.Dir(f.Path))
		}
	}
	for _, dir := range dirs.SortedValues() {
		if watched.Contains(dir) {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			logger.Debugf("cannot watch %q: %v", dir, err)
			continue
		}
		watched.Add(dir)
	}
}

func (w *Worker) registerFile(file unit.File) {
	var res registry.Result
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			_, r, err := w.config.Registry.Register(file)
			res = r
			return errors.Trace(err)
		},
		IsFatalError: func(error) bool {
			// A file that fails to open may still be being written;
			// every other failure is final.
			return res != registry.ResultBadFile
		},
		NotifyFunc: func(err error, attempt int) {
			logger.Debugf("attempt %d to register %v: %v", attempt, file, err)
		},
		Attempts: w.config.RetryAttempts,
		Delay:    w.config.RetryDelay,
		Clock:    w.config.Clock,
		Stop:     w.catacomb.Dying(),
	})
	if retry.IsRetryStopped(err) {
		return
	}
	if err != nil {
		w.mu.Lock()
		w.badFiles++
		w.mu.Unlock()
		logger.Warningf("cannot register %v: %v", file, err)
		if w.config.RemoveBadFiles {
			w.removeFile(file)
		}
		return
	}
	switch res {
	case registry.ResultSuccess:
		logger.Infof("registered %v", file)
	case registry.ResultAlreadyExists:
		logger.Debugf("%v already registered", file)
	case registry.ResultTooOld:
		logger.Debugf("%v is older than the registered version", file)
		if w.config.RemoveBadFiles {
			w.removeFile(file)
		}
	}
}

func (w *Worker) removeFile(file unit.File) {
	if err := store.Remove(file, w.config.Clock, w.catacomb.Dying()); err != nil {
		logger.Warningf("cannot remove %v: %v", file, err)
	}
}
