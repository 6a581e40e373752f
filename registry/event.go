// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package registry

import (
	"github.com/juju/mapset/core/unit"
)

// EventKind discriminates the lifecycle events a registry emits.
type EventKind int

const (
	// EventRegistered is emitted when a unit becomes registered, either
	// for the first time or by revival of a marked unit.
	EventRegistered EventKind = iota
	// EventUpdated is emitted when a newer version directly replaces an
	// older one in a single registration.
	EventUpdated
	// EventDeregistered is emitted when a unit's deregistration
	// completes and its identifier goes dead.
	EventDeregistered
)

// String is here so that EventKind satisfies fmt.Stringer.
func (k EventKind) String() string {
	switch k {
	case EventRegistered:
		return "registered"
	case EventUpdated:
		return "updated"
	case EventDeregistered:
		return "deregistered"
	}
	return "unknown"
}

const numEventKinds = int(EventDeregistered) + 1

// Event describes one lifecycle transition. Events carry plain file
// records, never live registry state, so holding on to one is always
// safe.
type Event struct {
	Kind EventKind
	// File identifies the unit the event is about. For EventUpdated it
	// is the new file.
	File unit.File
	// Old is the file that was replaced. Only set for EventUpdated.
	Old unit.File
}

// eventLog collects the events produced while the registry lock is
// held, so they can be delivered to observers strictly after it is
// released.
type eventLog struct {
	events []Event
}

func (l *eventLog) registered(f unit.File) {
	l.events = append(l.events, Event{Kind: EventRegistered, File: f})
}

func (l *eventLog) updated(f, old unit.File) {
	l.events = append(l.events, Event{Kind: EventUpdated, File: f, Old: old})
}

func (l *eventLog) deregistered(f unit.File) {
	l.events = append(l.events, Event{Kind: EventDeregistered, File: f})
}

func (l *eventLog) append(sub *eventLog) {
	l.events = append(l.events, sub.events...)
}
