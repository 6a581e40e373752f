// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package registry

import (
	"github.com/juju/errors"

	"github.com/juju/mapset/core/unit"
)

const (
	// ErrUnsupportedFormat is returned, possibly wrapped, by
	// Factory.CreateInfo when a unit file's format version is newer
	// than this build understands. The registry maps it to
	// ResultUnsupportedFormat rather than ResultBadFile.
	ErrUnsupportedFormat = errors.ConstError("unsupported unit file format")
)

// Value is an opened unit: the format-specific readers and tables built
// from the file. A value belongs to exactly one holder at a time, a
// handle or the registry's cache, and is closed exactly once by
// whichever holder lets go of it last.
type Value interface {
	Close() error
}

// Factory opens unit files on behalf of a registry. Implementations
// decide what a value actually is; the registry only moves values
// between handles and its cache.
//
// Both methods are called with the registry lock held, so they must not
// call back into the registry.
type Factory interface {
	// CreateInfo reads the file's header and returns its metadata.
	// Return an error wrapping ErrUnsupportedFormat for files whose
	// format is too new; any other error marks the file as bad.
	CreateInfo(file unit.File) (*Info, error)

	// CreateValue opens the file for reading. It is called on every
	// cache miss, so the same info can see many CreateValue calls over
	// its lifetime.
	CreateValue(info *Info) (Value, error)
}
