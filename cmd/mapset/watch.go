// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo"
	"github.com/kr/pretty"
	"gopkg.in/yaml.v2"

	"github.com/juju/mapset/core/unit"
	"github.com/juju/mapset/internal/worker/storewatcher"
	"github.com/juju/mapset/registry"
)

// watchCommand runs a registry against a store, keeping it in step
// with the files on disk until interrupted.
type watchCommand struct {
	configPath string
	cacheSize  int
	rescan     time.Duration
	verbose    bool
	removeBad  bool

	dirs []string
}

func newWatchCommand() *watchCommand {
	return &watchCommand{}
}

// Info is part of the Command interface.
func (c *watchCommand) Info() CommandInfo {
	return CommandInfo{
		Name:    "watch",
		Args:    "<dir>...",
		Purpose: "watch a store and log unit lifecycle events",
		Doc: `
Runs a unit registry over the given store directories. Files are
registered as they appear, replaced versions are retired, and files
that vanish are deregistered; every transition is logged. The process
runs until interrupted. SIGHUP logs a report of the watcher state
without stopping it.

A YAML configuration file may be given with --config:

    dirs:
      - /var/lib/maps
    cache-size: 128
    rescan: 30s
    remove-bad: true

Values set in the file take precedence over the command line.
`,
	}
}

// SetFlags is part of the Command interface.
func (c *watchCommand) SetFlags(f *gnuflag.FlagSet) {
	f.StringVar(&c.configPath, "config", "", "path to a YAML store configuration file")
	f.IntVar(&c.cacheSize, "cache-size", registry.DefaultCacheSize, "bound on the registry's released value cache")
	f.DurationVar(&c.rescan, "rescan", storewatcher.DefaultRescanInterval, "interval between full store rescans")
	f.BoolVar(&c.verbose, "verbose", false, "log at DEBUG level")
	f.BoolVar(&c.removeBad, "remove-bad", false, "remove files that repeatedly fail to open, and stale versions")
}

// Init is part of the Command interface.
func (c *watchCommand) Init(args []string) error {
	if len(args) == 0 && c.configPath == "" {
		return errors.New("no store directory specified")
	}
	c.dirs = args
	return nil
}

// Run is part of the Command interface.
func (c *watchCommand) Run() error {
	if err := c.configureLogging(); err != nil {
		return errors.Trace(err)
	}
	if err := c.applyConfigFile(); err != nil {
		return errors.Trace(err)
	}
	if len(c.dirs) == 0 {
		return errors.New("no store directory specified")
	}

	reg, err := registry.New(registry.Config{
		Factory:   statFactory{},
		CacheSize: c.cacheSize,
	})
	if err != nil {
		return errors.Trace(err)
	}
	reg.AddObserver(eventLogger{})

	w, err := storewatcher.New(storewatcher.Config{
		Registry:       reg,
		Clock:          clock.WallClock,
		Dirs:           c.dirs,
		NewWatcher:     storewatcher.NewFSWatcher,
		RescanInterval: c.rescan,
		RemoveBadFiles: c.removeBad,
	})
	if err != nil {
		return errors.Trace(err)
	}

	logger.Infof("watching %s", strings.Join(c.dirs, ", "))
	return errors.Trace(c.wait(w))
}

func (c *watchCommand) wait(w *storewatcher.Worker) error {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sig)

	done := make(chan error, 1)
	go func() {
		done <- w.Wait()
	}()
	for {
		select {
		case s := <-sig:
			if s == syscall.SIGHUP {
				logger.Infof("store watcher report: %# v", pretty.Formatter(w.Report()))
				continue
			}
			logger.Infof("caught %v, stopping", s)
			w.Kill()
			return <-done
		case err := <-done:
			return err
		}
	}
}

func (c *watchCommand) configureLogging() error {
	spec := os.Getenv(loggingConfigEnvKey)
	if spec == "" {
		spec = "<root>=INFO"
		if c.verbose {
			spec = "<root>=DEBUG"
		}
	}
	return errors.Trace(loggo.ConfigureLoggers(spec))
}

func (c *watchCommand) applyConfigFile() error {
	if c.configPath == "" {
		return nil
	}
	config, err := readStoreConfig(c.configPath)
	if err != nil {
		return errors.Trace(err)
	}
	if len(config.Dirs) > 0 {
		c.dirs = config.Dirs
	}
	if config.CacheSize != nil {
		c.cacheSize = *config.CacheSize
	}
	if config.Rescan != nil {
		d, err := time.ParseDuration(*config.Rescan)
		if err != nil {
			return errors.NotValidf("rescan interval %q", *config.Rescan)
		}
		c.rescan = d
	}
	if config.RemoveBad != nil {
		c.removeBad = *config.RemoveBad
	}
	return nil
}

// storeConfig is the format of the file accepted by --config. Fields
// left unset keep the command line values.
type storeConfig struct {
	// Dirs lists the store roots to watch, replacing the command line
	// directories when set.
	Dirs []string `yaml:"dirs,omitempty"`

	// CacheSize overrides --cache-size.
	CacheSize *int `yaml:"cache-size,omitempty"`

	// Rescan overrides --rescan, in Go duration syntax ("90s", "2m").
	Rescan *string `yaml:"rescan,omitempty"`

	// RemoveBad overrides --remove-bad.
	RemoveBad *bool `yaml:"remove-bad,omitempty"`
}

func readStoreConfig(path string) (*storeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Annotate(err, "reading store configuration")
	}
	var config storeConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Annotatef(err, "parsing %q", path)
	}
	return &config, nil
}

// statFactory is the registry factory used by watch. It confirms that
// unit files exist without reading any map data, so the registry only
// tracks presence.
type statFactory struct{}

// CreateInfo is part of the registry.Factory interface.
func (statFactory) CreateInfo(file unit.File) (*registry.Info, error) {
	fi, err := os.Stat(file.Path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if !fi.Mode().IsRegular() {
		return nil, errors.Errorf("%q is not a regular file", file.Path)
	}
	file.Size = fi.Size()
	return registry.NewInfo(file, registry.Details{}), nil
}

// CreateValue is part of the registry.Factory interface.
func (statFactory) CreateValue(info *registry.Info) (registry.Value, error) {
	f, err := os.Open(info.File().Path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return f, nil
}

// eventLogger reports unit lifecycle transitions to the log.
type eventLogger struct{}

// UnitRegistered is part of the registry.Observer interface.
func (eventLogger) UnitRegistered(file unit.File) {
	logger.Infof("registered %v from %s", file, file.Path)
}

// UnitUpdated is part of the registry.Observer interface.
func (eventLogger) UnitUpdated(file, old unit.File) {
	logger.Infof("updated %v, replacing %v", file, old)
}

// UnitDeregistered is part of the registry.Observer interface.
func (eventLogger) UnitDeregistered(file unit.File) {
	logger.Infof("deregistered %v", file)
}
