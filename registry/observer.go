// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package registry

import (
	"github.com/juju/mapset/core/unit"
)

// Observer is notified of unit lifecycle transitions. Callbacks run on
// the goroutine that triggered the transition, strictly after the
// registry lock has been released, so an observer may call straight
// back into the registry.
//
// Events are delivered in the order they occurred, to each observer in
// the order the observers were added. A slow observer delays delivery
// to the ones after it.
type Observer interface {
	// UnitRegistered fires when a unit becomes registered, including
	// revival of a unit that was marked for deregistration.
	UnitRegistered(file unit.File)

	// UnitUpdated fires when a newer version directly replaces an
	// older one. No separate UnitRegistered or UnitDeregistered fires
	// for the replacement itself.
	UnitUpdated(file, old unit.File)

	// UnitDeregistered fires when a unit's deregistration completes.
	UnitDeregistered(file unit.File)
}

// NopObserver implements Observer with no-ops, for embedding by
// observers interested in a subset of the events.
type NopObserver struct{}

// UnitRegistered is part of the Observer interface.
func (NopObserver) UnitRegistered(unit.File) {}

// UnitUpdated is part of the Observer interface.
func (NopObserver) UnitUpdated(unit.File, unit.File) {}

// UnitDeregistered is part of the Observer interface.
func (NopObserver) UnitDeregistered(unit.File) {}

// AddObserver subscribes o to lifecycle events. Observers are compared
// by identity; adding one that is already subscribed reports false.
func (r *Registry) AddObserver(o Observer) bool {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	for _, existing := range r.observers {
		if existing == o {
			return false
		}
	}
	r.observers = append(r.observers, o)
	return true
}

// RemoveObserver unsubscribes o, reporting whether it was subscribed.
// An observer removed during a delivery may still see events already in
// flight.
func (r *Registry) RemoveObserver(o Observer) bool {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	for i, existing := range r.observers {
		if existing == o {
			r.observers = append(r.observers[:i], r.observers[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Registry) observerSnapshot() []Observer {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	return append([]Observer(nil), r.observers...)
}
