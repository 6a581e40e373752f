// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package registry

import (
	"sync"
	"sync/atomic"

	"github.com/juju/mapset/core/geo"
	"github.com/juju/mapset/core/unit"
)

// Details carries the metadata a factory reads from a unit file header
// when building an Info.
type Details struct {
	// Bounds is the area the unit covers, in mercator units.
	Bounds geo.Rect
	// MinZoom and MaxZoom bound the zoom levels the unit has data for.
	MinZoom uint8
	MaxZoom uint8
	// Region is the optional per-region metadata block.
	Region unit.RegionData
}

// Info holds everything the registry knows about one registered unit
// version. Infos are created by factories, owned by the registry, and
// shared read-only with everyone holding an ID for the unit.
type Info struct {
	mu   sync.Mutex
	file unit.File

	bounds  geo.Rect
	minZoom uint8
	maxZoom uint8
	region  unit.RegionData

	// status and refs are written only while the owning registry's
	// lock is held, and read lock-free everywhere.
	status int32
	refs   int32
}

// NewInfo returns an Info for the given file. It is meant to be called
// from Factory.CreateInfo implementations.
func NewInfo(file unit.File, details Details) *Info {
	return &Info{
		file:    file,
		bounds:  details.Bounds,
		minZoom: details.MinZoom,
		maxZoom: details.MaxZoom,
		region:  details.Region.Copy(),
		status:  int32(StatusRegistered),
	}
}

// File returns the file record the unit was registered from. The record
// is refreshed if the same version is registered again, so the path and
// size track the latest registration.
func (i *Info) File() unit.File {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.file
}

func (i *Info) setFile(f unit.File) {
	i.mu.Lock()
	i.file = f
	i.mu.Unlock()
}

// Name returns the unit name.
func (i *Info) Name() unit.Name {
	return i.File().Name
}

// Version returns the unit version.
func (i *Info) Version() unit.Version {
	return i.File().Version
}

// Kind returns the unit's classification.
func (i *Info) Kind() unit.Kind {
	return i.Name().Kind()
}

// Bounds returns the area the unit covers.
func (i *Info) Bounds() geo.Rect {
	return i.bounds
}

// MinZoom returns the lowest zoom level the unit has data for.
func (i *Info) MinZoom() uint8 {
	return i.minZoom
}

// MaxZoom returns the highest zoom level the unit has data for.
func (i *Info) MaxZoom() uint8 {
	return i.maxZoom
}

// Region returns the unit's per-region metadata.
func (i *Info) Region() unit.RegionData {
	return i.region
}

// Status returns the unit's current lifecycle status.
func (i *Info) Status() Status {
	return Status(atomic.LoadInt32(&i.status))
}

func (i *Info) setStatus(s Status) {
	atomic.StoreInt32(&i.status, int32(s))
}

// IsUpToDate reports whether the unit is fully registered, as opposed
// to marked for deregistration or gone.
func (i *Info) IsUpToDate() bool {
	return i.Status() == StatusRegistered
}

// NumRefs returns the number of outstanding handles on the unit.
func (i *Info) NumRefs() int {
	return int(atomic.LoadInt32(&i.refs))
}

func (i *Info) incRefs() int32 {
	return atomic.AddInt32(&i.refs, 1)
}

func (i *Info) decRefs() int32 {
	return atomic.AddInt32(&i.refs, -1)
}
