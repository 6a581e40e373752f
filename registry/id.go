// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package registry

import (
	"github.com/juju/mapset/core/unit"
)

// ID identifies one registered unit version. The zero value is the
// empty identifier. IDs are values: they are comparable, usable as map
// keys, and two IDs are equal exactly when they name the same
// registration of the same unit version.
//
// An ID stays comparable forever, but it only stays meaningful while
// the registration it names is alive. Once the unit is deregistered the
// ID is dead and the registry will refuse to serve handles for it.
type ID struct {
	info *Info
}

// IsEmpty reports whether this is the zero identifier.
func (id ID) IsEmpty() bool {
	return id.info == nil
}

// IsAlive reports whether the identified registration is still current,
// which includes units marked for deregistration but not yet gone.
func (id ID) IsAlive() bool {
	return id.info != nil && id.info.Status() != StatusDeregistered
}

// Info returns the unit metadata, or nil for the empty identifier. The
// metadata remains readable after the unit is deregistered.
func (id ID) Info() *Info {
	return id.info
}

// Name returns the unit name, or the empty name for the empty
// identifier.
func (id ID) Name() unit.Name {
	if id.info == nil {
		return ""
	}
	return id.info.Name()
}

// String is here so that ID satisfies fmt.Stringer.
func (id ID) String() string {
	if id.info == nil {
		return "<empty>"
	}
	return id.info.File().String()
}
