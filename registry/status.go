// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package registry

// Status records where a unit is in its registration lifecycle.
//
// Transitions only ever run forward through deregistration, with one
// exception: a marked unit is revived to StatusRegistered when the same
// version is registered again before the last handle goes away.
type Status int32

const (
	// StatusRegistered units serve new handles and cache released
	// values.
	StatusRegistered Status = iota
	// StatusMarkedToDeregister units are waiting for outstanding
	// handles to be released before deregistration completes. They
	// still serve new handles.
	StatusMarkedToDeregister
	// StatusDeregistered units are gone from the index. Identifiers
	// still referring to one are dead.
	StatusDeregistered
)

// String is here so that Status satisfies fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusRegistered:
		return "registered"
	case StatusMarkedToDeregister:
		return "marked-to-deregister"
	case StatusDeregistered:
		return "deregistered"
	}
	return "unknown"
}
