// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package unit holds the identity types for map units: the named,
// versioned data files that make up an on-disk map store.
package unit

import (
	"fmt"
	"strconv"

	"github.com/juju/errors"
)

// Extension is the file name suffix of a map unit on disk.
const Extension = ".mwm"

// Name identifies a map unit, for example "Germany_Bavaria". Names are
// opaque and compared exactly; two units with the same name are versions
// of the same region.
type Name string

// Well known unit names. The world units are built differently from
// country units and are rendered at different zoom ranges.
const (
	World       Name = "World"
	WorldCoasts Name = "WorldCoasts"
)

// String is here so that Name satisfies fmt.Stringer.
func (n Name) String() string {
	return string(n)
}

// Validate returns an error if the name is not usable as a unit name.
func (n Name) Validate() error {
	if n == "" {
		return errors.NotValidf("empty unit name")
	}
	return nil
}

// Kind returns the classification of the unit carrying this name.
func (n Name) Kind() Kind {
	switch n {
	case World:
		return KindWorld
	case WorldCoasts:
		return KindCoasts
	default:
		return KindCountry
	}
}

// Kind classifies a unit by the role its data plays.
type Kind int

const (
	// KindCountry is a regular region unit.
	KindCountry Kind = iota
	// KindWorld is the low-zoom whole-world unit.
	KindWorld
	// KindCoasts is the world coastline unit.
	KindCoasts
)

// String is here so that Kind satisfies fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindCountry:
		return "country"
	case KindWorld:
		return "world"
	case KindCoasts:
		return "coasts"
	}
	return "unknown"
}

// Version orders releases of the same unit. Larger is newer. The
// conventional encoding is a YYMMDD build stamp, but the registry only
// ever compares versions, it never decodes them.
type Version int64

// VersionUnknown marks a unit that carries no version, from a legacy
// store layout with unit files directly in the store root.
const VersionUnknown Version = 0

// String is here so that Version satisfies fmt.Stringer.
func (v Version) String() string {
	if v == VersionUnknown {
		return "unversioned"
	}
	return strconv.FormatInt(int64(v), 10)
}

// ParseVersion converts a version directory name to a Version.
func ParseVersion(s string) (Version, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return VersionUnknown, errors.NotValidf("unit version %q", s)
	}
	return Version(n), nil
}

// File names one concrete unit file in a store. It is the identity
// record handed to the registry; everything else about a unit is read
// from the file itself.
type File struct {
	// Name is the unit name, without extension.
	Name Name
	// Version is the release stamp of this file.
	Version Version
	// Path locates the file on disk.
	Path string
	// Size is the file size in bytes at registration time.
	Size int64
}

// String renders the file identity in "name-version" form, matching the
// naming used in logs and events throughout the system.
func (f File) String() string {
	return fmt.Sprintf("%s-%s", f.Name, f.Version)
}

// Validate returns an error if the file record is not complete enough
// to register.
func (f File) Validate() error {
	if err := f.Name.Validate(); err != nil {
		return errors.Trace(err)
	}
	if f.Path == "" {
		return errors.NotValidf("unit file %q without path", f.Name)
	}
	return nil
}
