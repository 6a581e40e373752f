// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package search

import (
	"sort"
	"sync"

	"github.com/juju/errors"

	"github.com/juju/mapset/core/unit"
	"github.com/juju/mapset/registry"
)

// TypeSource reads the type descriptions a TypeFilter caches.
type TypeSource interface {
	// Features returns the ids of the features in the unit that carry
	// types of interest.
	Features(id registry.ID) ([]uint32, error)

	// Types returns the matchable type codes of one feature.
	Types(id registry.ID, feature uint32) ([]uint32, error)
}

// description pairs a feature with the type codes it carries.
type description struct {
	feature uint32
	types   []uint32
}

// TypeFilter builds per-unit feature type tables from a TypeSource on
// first use and caches them until the unit is invalidated.
type TypeFilter struct {
	source TypeSource

	mu    sync.Mutex
	cache map[registry.ID][]description
}

// NewTypeFilter returns a TypeFilter reading from source.
func NewTypeFilter(source TypeSource) *TypeFilter {
	return &TypeFilter{
		source: source,
		cache:  make(map[registry.ID][]description),
	}
}

// Scoped returns a filter matching features of the unit that carry at
// least one of the wanted types. When no types are wanted there is
// nothing to filter on, and Scoped returns nil.
func (f *TypeFilter) Scoped(id registry.ID, wanted []uint32) (*ScopedFilter, error) {
	if len(wanted) == 0 {
		return nil, nil
	}
	descriptions, err := f.descriptions(id)
	if err != nil {
		return nil, errors.Trace(err)
	}
	sortedWanted := append([]uint32(nil), wanted...)
	sort.Slice(sortedWanted, func(i, j int) bool { return sortedWanted[i] < sortedWanted[j] })
	return &ScopedFilter{
		id:           id,
		descriptions: descriptions,
		wanted:       sortedWanted,
	}, nil
}

// InvalidateUnit drops the cached descriptions of one unit.
func (f *TypeFilter) InvalidateUnit(id registry.ID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.cache, id)
}

// Clear drops every cached description.
func (f *TypeFilter) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cache = make(map[registry.ID][]description)
}

// sweep drops cache entries whose registration has died.
func (f *TypeFilter) sweep() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id := range f.cache {
		if !id.IsAlive() {
			logger.Debugf("dropping cached types for %v", id)
			delete(f.cache, id)
		}
	}
}

func (f *TypeFilter) descriptions(id registry.ID) ([]description, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cached, ok := f.cache[id]; ok {
		return cached, nil
	}
	features, err := f.source.Features(id)
	if err != nil {
		return nil, errors.Annotatef(err, "listing features of %v", id)
	}
	descriptions := make([]description, 0, len(features))
	for _, feature := range features {
		types, err := f.source.Types(id, feature)
		if err != nil {
			return nil, errors.Annotatef(err, "reading types of feature %d in %v", feature, id)
		}
		descriptions = append(descriptions, description{feature: feature, types: types})
	}
	sort.Slice(descriptions, func(i, j int) bool {
		return descriptions[i].feature < descriptions[j].feature
	})
	f.cache[id] = descriptions
	logger.Debugf("cached types of %d features for %v", len(descriptions), id)
	return descriptions, nil
}

// ScopedFilter matches features of a single unit against a wanted
// type set. It reads an immutable snapshot, so invalidating the
// TypeFilter it came from does not disturb it.
type ScopedFilter struct {
	id           registry.ID
	descriptions []description
	wanted       []uint32
}

// Matches reports whether the feature belongs to the filter's unit
// and carries one of the wanted types.
func (f *ScopedFilter) Matches(fid FeatureID) bool {
	if fid.Unit != f.id {
		return false
	}
	i := sort.Search(len(f.descriptions), func(i int) bool {
		return f.descriptions[i].feature >= fid.Index
	})
	if i == len(f.descriptions) || f.descriptions[i].feature != fid.Index {
		return false
	}
	for _, t := range f.descriptions[i].types {
		j := sort.Search(len(f.wanted), func(j int) bool { return f.wanted[j] >= t })
		if j < len(f.wanted) && f.wanted[j] == t {
			return true
		}
	}
	return false
}

// Tracker drops dead units from a TypeFilter's cache as the registry
// retires them. Add it as an observer on the registry the filter's
// ids come from.
type Tracker struct {
	registry.NopObserver
	filter *TypeFilter
}

// NewTracker returns an observer keeping filter's cache in step with
// a registry.
func NewTracker(filter *TypeFilter) *Tracker {
	return &Tracker{filter: filter}
}

// UnitUpdated is part of the registry.Observer interface. A
// registration replaced by a newer version dies without a separate
// deregistration event, so updates sweep too.
func (t *Tracker) UnitUpdated(unit.File, unit.File) {
	t.filter.sweep()
}

// UnitDeregistered is part of the registry.Observer interface.
func (t *Tracker) UnitDeregistered(unit.File) {
	t.filter.sweep()
}
