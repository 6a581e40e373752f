// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package store reads and maintains the on-disk layout of a map store.
//
// A store root holds one subdirectory per release stamp, with the unit
// files inside:
//
//	<root>/<version>/<name>.mwm
//
// Unit files directly under the root come from the legacy layout and
// are treated as unversioned. Hidden files and the .downloading and
// .ready suffixes used by downloaders for in-flight data are ignored.
package store

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/juju/mutex/v2"

	"github.com/juju/mapset/core/unit"
)

var logger = loggo.GetLogger("mapset.store")

const (
	downloadingSuffix = ".downloading"
	readySuffix       = ".ready"

	// removeLockName is the machine wide mutex serialising store
	// removals with any concurrently running downloader process.
	removeLockName  = "mapset-store"
	removeLockDelay = 250 * time.Millisecond
)

// FindAll scans the given store roots and returns every complete unit
// file found. Files sharing a name are ordered newest first, so
// registering the result in order settles each name on its newest
// version. A file carrying the same name and version in more than one
// root is reported once, from the earliest root.
func FindAll(dirs []string) ([]unit.File, error) {
	var files []unit.File
	seen := set.NewStrings()
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				logger.Debugf("store root %q missing, skipping", dir)
				continue
			}
			return nil, errors.Annotatef(err, "reading store root %q", dir)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				version, err := unit.ParseVersion(entry.Name())
				if err != nil {
					// Not a version directory.
					continue
				}
				sub, err := readVersionDir(filepath.Join(dir, entry.Name()), version, seen)
				if err != nil {
					return nil, errors.Trace(err)
				}
				files = append(files, sub...)
				continue
			}
			if f, ok := readEntry(dir, entry, unit.VersionUnknown, seen); ok {
				files = append(files, f)
			}
		}
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].Name != files[j].Name {
			return files[i].Name < files[j].Name
		}
		return files[i].Version > files[j].Version
	})
	return files, nil
}

func readVersionDir(dir string, version unit.Version, seen set.Strings) ([]unit.File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Annotatef(err, "reading version directory %q", dir)
	}
	var files []unit.File
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if f, ok := readEntry(dir, entry, version, seen); ok {
			files = append(files, f)
		}
	}
	return files, nil
}

func readEntry(dir string, entry os.DirEntry, version unit.Version, seen set.Strings) (unit.File, bool) {
	base := entry.Name()
	if skipName(base) || !strings.HasSuffix(base, unit.Extension) {
		return unit.File{}, false
	}
	info, err := entry.Info()
	if err != nil {
		// Removed between ReadDir and stat.
		return unit.File{}, false
	}
	f := unit.File{
		Name:    unit.Name(strings.TrimSuffix(base, unit.Extension)),
		Version: version,
		Path:    filepath.Join(dir, base),
		Size:    info.Size(),
	}
	if seen.Contains(f.String()) {
		logger.Debugf("duplicate %v at %q, keeping earlier root", f, f.Path)
		return unit.File{}, false
	}
	seen.Add(f.String())
	return f, true
}

func skipName(base string) bool {
	if strings.HasPrefix(base, ".") {
		return true
	}
	return strings.HasSuffix(base, downloadingSuffix) || strings.HasSuffix(base, readySuffix)
}

// ParsePath reconstructs the unit file identity encoded in a store
// path. The version is read from the immediate parent directory when
// that is a decimal stamp, otherwise the file is treated as
// unversioned. Size is left zero, only FindAll reads sizes.
func ParsePath(path string) (unit.File, error) {
	base := filepath.Base(path)
	if skipName(base) {
		return unit.File{}, errors.NotValidf("in-flight or hidden file %q", path)
	}
	if !strings.HasSuffix(base, unit.Extension) {
		return unit.File{}, errors.NotValidf("unit file path %q", path)
	}
	name := unit.Name(strings.TrimSuffix(base, unit.Extension))
	if err := name.Validate(); err != nil {
		return unit.File{}, errors.Trace(err)
	}
	version, err := unit.ParseVersion(filepath.Base(filepath.Dir(path)))
	if err != nil {
		version = unit.VersionUnknown
	}
	return unit.File{Name: name, Version: version, Path: path}, nil
}

// Remove deletes a unit file from the store. The machine wide store
// mutex is held for the removal so that a downloader process writing
// into the store never sees a half-removed path. Removing a file that
// is already gone is not an error. Closing cancel abandons the wait
// for the mutex.
func Remove(file unit.File, clk clock.Clock, cancel <-chan struct{}) error {
	if err := file.Validate(); err != nil {
		return errors.Trace(err)
	}
	releaser, err := mutex.Acquire(mutex.Spec{
		Name:   removeLockName,
		Clock:  clk,
		Delay:  removeLockDelay,
		Cancel: cancel,
	})
	if err != nil {
		return errors.Annotatef(err, "acquiring store lock for %v", file)
	}
	defer releaser.Release()

	err = os.Remove(file.Path)
	switch {
	case os.IsNotExist(err):
		return nil
	case err != nil:
		return errors.Annotatef(err, "removing %v", file)
	}
	logger.Infof("removed %v (%s)", file, file.Path)
	return nil
}
