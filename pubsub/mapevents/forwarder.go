// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package mapevents

import (
	"github.com/juju/pubsub/v2"

	"github.com/juju/mapset/core/unit"
	"github.com/juju/mapset/registry"
)

// Forwarder is a registry observer that republishes every lifecycle
// event onto a pubsub hub. Publishing is asynchronous, so a slow
// subscriber never holds up the registry caller that triggered the
// event.
type Forwarder struct {
	hub *pubsub.SimpleHub
}

var _ registry.Observer = (*Forwarder)(nil)

// NewForwarder returns a Forwarder publishing to hub. Attach it with
// Registry.AddObserver.
func NewForwarder(hub *pubsub.SimpleHub) *Forwarder {
	return &Forwarder{hub: hub}
}

// UnitRegistered is part of the registry.Observer interface.
func (f *Forwarder) UnitRegistered(file unit.File) {
	_ = f.hub.Publish(RegisteredTopic, RegisteredMessage{File: file})
}

// UnitUpdated is part of the registry.Observer interface.
func (f *Forwarder) UnitUpdated(file, old unit.File) {
	_ = f.hub.Publish(UpdatedTopic, UpdatedMessage{File: file, Old: old})
}

// UnitDeregistered is part of the registry.Observer interface.
func (f *Forwarder) UnitDeregistered(file unit.File) {
	_ = f.hub.Publish(DeregisteredTopic, DeregisteredMessage{File: file})
}
