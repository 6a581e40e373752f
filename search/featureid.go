// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package search

import (
	"fmt"

	"github.com/juju/mapset/registry"
)

// FeatureID identifies a single feature inside a registered unit. The
// zero value identifies nothing. FeatureIDs are comparable and usable
// as map keys.
type FeatureID struct {
	// Unit is the registration the feature was read from.
	Unit registry.ID

	// Index is the position of the feature within the unit.
	Index uint32
}

// IsValid reports whether the id still points into a live
// registration.
func (f FeatureID) IsValid() bool {
	return f.Unit.IsAlive()
}

// String is here so that FeatureID satisfies fmt.Stringer.
func (f FeatureID) String() string {
	return fmt.Sprintf("%v/%d", f.Unit, f.Index)
}
