// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package registry tracks the versioned map units available to a
// process. It answers which unit versions exist, hands out refcounted
// handles on opened units, keeps a bounded cache of released values,
// and tells observers about registrations, updates and
// deregistrations.
//
// A unit version that still has handles outstanding is never yanked
// away: deregistering it marks it instead, and the real teardown
// happens when the last handle is released. Until then the unit can
// still serve new handles, and registering the same version again
// revives it.
package registry

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/juju/mapset/core/unit"
)

var logger = loggo.GetLogger("mapset.registry")

// DefaultCacheSize is the value cache bound used when Config.CacheSize
// is left zero.
const DefaultCacheSize = 64

// Config holds the dependencies and knobs for a Registry.
type Config struct {
	// Factory opens unit files on the registry's behalf.
	Factory Factory
	// CacheSize bounds how many released values are kept open for
	// reuse. Zero selects DefaultCacheSize.
	CacheSize int
}

// Validate returns an error if the config cannot be used.
func (c Config) Validate() error {
	if c.Factory == nil {
		return errors.NotValidf("nil Factory")
	}
	if c.CacheSize < 0 {
		return errors.NotValidf("negative CacheSize")
	}
	return nil
}

// Registry is the set of registered map units. All methods are safe for
// concurrent use.
type Registry struct {
	factory Factory

	// mu guards the index, the cache, and all Info status and refcount
	// mutation. It is never held while observers run.
	mu    sync.Mutex
	index map[unit.Name][]*Info
	cache *valueCache

	obsMu     sync.Mutex
	observers []Observer

	// Counters are atomics so the metrics collector can read them
	// without taking the registry lock.
	registrations  [numResults]int64
	deregCompleted int64
	deregDeferred  int64
	cacheHits      int64
	cacheMisses    int64
	eventCounts    [numEventKinds]int64
}

// New returns a Registry using the given configuration.
func New(config Config) (*Registry, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	size := config.CacheSize
	if size == 0 {
		size = DefaultCacheSize
	}
	return &Registry{
		factory: config.Factory,
		index:   make(map[unit.Name][]*Info),
		cache:   newValueCache(size),
	}, nil
}

// Register makes the unit file available, handling version conflicts
// with anything already present under the same name. The returned
// error is non-nil only for ResultUnsupportedFormat and ResultBadFile,
// carrying the factory's failure.
//
// Registering a version newer than the current one retires the current
// one, deferred if it has handles outstanding, and the replacement is
// reported to observers as a single update. The factory's CreateInfo
// runs with the registry locked; see Factory.
func (r *Registry) Register(file unit.File) (ID, Result, error) {
	var (
		id  ID
		res Result
		err error
	)
	r.withEvents(func(events *eventLog) {
		id, res, err = r.registerLocked(file, events)
	})
	atomic.AddInt64(&r.registrations[res], 1)
	return id, res, errors.Trace(err)
}

func (r *Registry) registerLocked(file unit.File, events *eventLog) (ID, Result, error) {
	if err := file.Validate(); err != nil {
		return ID{}, ResultBadFile, errors.Trace(err)
	}
	infos := r.index[file.Name]
	if len(infos) == 0 {
		return r.registerNewLocked(file, events)
	}
	newest := infos[len(infos)-1]
	switch {
	case newest.Version() == file.Version:
		// Same version again. Revive it if it was marked, and pick up
		// the latest path and size.
		id := ID{info: newest}
		r.setStatusLocked(newest, StatusRegistered, events)
		newest.setFile(file)
		logger.Debugf("unit %v is already registered", file)
		return id, ResultAlreadyExists, nil
	case newest.Version() > file.Version:
		logger.Debugf("refusing %v, newer version %v is registered", file, newest.Version())
		return ID{}, ResultTooOld, nil
	}

	// A newer version arrived. Retire the one it replaces and register
	// the new file; on success the pair collapses into a single update
	// event.
	oldFile := newest.File()
	var sub eventLog
	r.deregisterInfoLocked(ID{info: newest}, &sub)
	id, res, err := r.registerNewLocked(file, &sub)
	if res == ResultSuccess {
		events.updated(file, oldFile)
	} else {
		events.append(&sub)
	}
	return id, res, errors.Trace(err)
}

func (r *Registry) registerNewLocked(file unit.File, events *eventLog) (ID, Result, error) {
	info, err := r.factory.CreateInfo(file)
	if errors.Is(err, ErrUnsupportedFormat) {
		return ID{}, ResultUnsupportedFormat, errors.Annotatef(err, "registering %v", file)
	}
	if err != nil {
		return ID{}, ResultBadFile, errors.Annotatef(err, "registering %v", file)
	}
	if info == nil {
		return ID{}, ResultBadFile, errors.Errorf("factory returned no info for %v", file)
	}
	info.setStatus(StatusRegistered)
	r.index[file.Name] = append(r.index[file.Name], info)
	events.registered(info.File())
	logger.Debugf("registered unit %v", file)
	return ID{info: info}, ResultSuccess, nil
}

// setStatusLocked flips a unit's status and records the externally
// visible transitions.
func (r *Registry) setStatusLocked(info *Info, status Status, events *eventLog) {
	old := info.Status()
	if old == status {
		return
	}
	info.setStatus(status)
	switch {
	case status == StatusDeregistered:
		events.deregistered(info.File())
	case old == StatusMarkedToDeregister && status == StatusRegistered:
		events.registered(info.File())
		logger.Infof("unit %v revived before deregistration completed", info.File())
	}
}

// Deregister removes the current version of the named unit, or marks it
// for removal if it has handles outstanding. It reports whether
// deregistration completed before returning; false also covers an
// unknown name.
func (r *Registry) Deregister(name unit.Name) bool {
	var done bool
	r.withEvents(func(events *eventLog) {
		done = r.deregisterInfoLocked(r.idByNameLocked(name), events)
	})
	return done
}

// DeregisterID is Deregister for one specific registration, which may
// be an older version still present under a newer one.
func (r *Registry) DeregisterID(id ID) bool {
	var done bool
	r.withEvents(func(events *eventLog) {
		done = r.deregisterInfoLocked(id, events)
	})
	return done
}

// deregisterInfoLocked completes or defers deregistration of one unit,
// reporting whether it completed.
func (r *Registry) deregisterInfoLocked(id ID, events *eventLog) bool {
	info := id.info
	if info == nil || info.Status() == StatusDeregistered {
		return false
	}
	if info.NumRefs() == 0 {
		r.setStatusLocked(info, StatusDeregistered, events)
		r.closeEntries(r.cache.purge(id))
		r.removeFromIndexLocked(info)
		atomic.AddInt64(&r.deregCompleted, 1)
		logger.Debugf("deregistered unit %v", info.File())
		return true
	}
	r.setStatusLocked(info, StatusMarkedToDeregister, events)
	atomic.AddInt64(&r.deregDeferred, 1)
	logger.Debugf("unit %v marked for deregistration, %d handles outstanding",
		info.File(), info.NumRefs())
	return false
}

func (r *Registry) removeFromIndexLocked(info *Info) {
	name := info.Name()
	infos := r.index[name]
	for i, candidate := range infos {
		if candidate == info {
			r.index[name] = append(infos[:i], infos[i+1:]...)
			break
		}
	}
	if len(r.index[name]) == 0 {
		delete(r.index, name)
	}
}

// Handle checks out the identified unit, pinning it and returning its
// opened value. The unit must be alive; a dead or empty identifier gets
// a not found error. On a cache miss the factory's CreateValue runs
// with the registry locked; see Factory. If the factory fails, the unit
// is deregistered on the spot and the failure is returned.
func (r *Registry) Handle(id ID) (*Handle, error) {
	var (
		value Value
		err   error
	)
	r.withEvents(func(events *eventLog) {
		if !id.IsAlive() {
			err = errors.NotFoundf("unit %v", id)
			return
		}
		value, err = r.lockValueLocked(id, events)
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Handle{registry: r, id: id, value: value}, nil
}

// HandleByName is Handle for the newest version of the named unit.
func (r *Registry) HandleByName(name unit.Name) (*Handle, error) {
	var (
		id    ID
		value Value
		err   error
	)
	r.withEvents(func(events *eventLog) {
		id = r.idByNameLocked(name)
		if id.IsEmpty() {
			err = errors.NotFoundf("unit %q", name)
			return
		}
		value, err = r.lockValueLocked(id, events)
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Handle{registry: r, id: id, value: value}, nil
}

func (r *Registry) lockValueLocked(id ID, events *eventLog) (Value, error) {
	info := id.info
	info.incRefs()
	if value, ok := r.cache.checkout(id); ok {
		atomic.AddInt64(&r.cacheHits, 1)
		logger.Tracef("reusing cached value for %v", id)
		return value, nil
	}
	atomic.AddInt64(&r.cacheMisses, 1)
	value, err := r.factory.CreateValue(info)
	if err != nil {
		// The file has gone bad or missing underneath us, so take the
		// unit out of service.
		info.decRefs()
		r.deregisterInfoLocked(id, events)
		return nil, errors.Annotatef(err, "opening unit %v", id)
	}
	if value == nil {
		info.decRefs()
		r.deregisterInfoLocked(id, events)
		return nil, errors.Errorf("factory returned no value for %v", id)
	}
	logger.Tracef("opened new value for %v", id)
	return value, nil
}

func (r *Registry) unlockValue(id ID, value Value) {
	r.withEvents(func(events *eventLog) {
		r.unlockValueLocked(id, value, events)
	})
}

func (r *Registry) unlockValueLocked(id ID, value Value, events *eventLog) {
	info := id.info
	refs := info.decRefs()
	if refs < 0 {
		logger.Criticalf("programming error: unit %v released more times than acquired", id)
		info.incRefs()
		return
	}
	if refs == 0 && info.Status() == StatusMarkedToDeregister {
		r.deregisterInfoLocked(id, events)
	}
	if info.Status() == StatusRegistered {
		r.closeEntries(r.cache.checkin(id, value))
		return
	}
	// The unit is on its way out; its value is not worth caching.
	r.closeValue(id, value)
}

// IsLoaded reports whether the named unit has a fully registered
// version right now. A unit marked for deregistration is not loaded.
func (r *Registry) IsLoaded(name unit.Name) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.idByNameLocked(name)
	return id.info != nil && id.info.Status() == StatusRegistered
}

// IDByName returns the identifier of the newest version of the named
// unit, or the empty identifier if the name is unknown.
func (r *Registry) IDByName(name unit.Name) ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.idByNameLocked(name)
}

func (r *Registry) idByNameLocked(name unit.Name) ID {
	infos := r.index[name]
	if len(infos) == 0 {
		return ID{}
	}
	return ID{info: infos[len(infos)-1]}
}

// Names returns the names with at least one version present, sorted.
func (r *Registry) Names() []unit.Name {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := set.NewStrings()
	for name := range r.index {
		names.Add(string(name))
	}
	sorted := names.SortedValues()
	out := make([]unit.Name, len(sorted))
	for i, s := range sorted {
		out[i] = unit.Name(s)
	}
	return out
}

// AllInfo returns a snapshot of every registration present, including
// versions marked for deregistration, sorted by name then version.
func (r *Registry) AllInfo() []*Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Info
	for _, infos := range r.index {
		out = append(out, infos...)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].File(), out[j].File()
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Version < b.Version
	})
	return out
}

// ClearCache closes every cached value. Outstanding handles are not
// affected.
func (r *Registry) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeEntries(r.cache.clear())
}

// Clear drops the whole index and cache without emitting events or
// touching unit statuses. It is meant for shutdown: identifiers
// acquired earlier keep their last status, but the registry no longer
// knows them.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeEntries(r.cache.clear())
	r.index = make(map[unit.Name][]*Info)
}

func (r *Registry) closeEntries(entries []cacheEntry) {
	for _, e := range entries {
		r.closeValue(e.id, e.value)
	}
}

func (r *Registry) closeValue(id ID, value Value) {
	if err := value.Close(); err != nil {
		logger.Errorf("closing value for %v: %v", id, err)
	}
}

// withEvents runs fn with the registry locked, then delivers the events
// fn recorded once the lock has been released. All events from one
// mutation are delivered together, in the order they were recorded.
func (r *Registry) withEvents(fn func(*eventLog)) {
	var events eventLog
	func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		fn(&events)
	}()
	r.processEvents(&events)
}

func (r *Registry) processEvents(events *eventLog) {
	for _, e := range events.events {
		atomic.AddInt64(&r.eventCounts[e.Kind], 1)
		for _, o := range r.observerSnapshot() {
			switch e.Kind {
			case EventRegistered:
				o.UnitRegistered(e.File)
			case EventUpdated:
				o.UnitUpdated(e.File, e.Old)
			case EventDeregistered:
				o.UnitDeregistered(e.File)
			}
		}
	}
}
