// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package mapevents distributes unit registry lifecycle events over a
// pubsub hub, for consumers that want them without coupling to the
// registry's synchronous observer interface.
package mapevents

import (
	"github.com/juju/loggo"

	"github.com/juju/mapset/core/unit"
)

var logger = loggo.GetLogger("mapset.pubsub.mapevents")

// Topics for unit lifecycle messages. Payload types are fixed per
// topic; subscribers should type assert accordingly.
const (
	// RegisteredTopic carries RegisteredMessage payloads.
	RegisteredTopic = "mapset.registered"
	// UpdatedTopic carries UpdatedMessage payloads.
	UpdatedTopic = "mapset.updated"
	// DeregisteredTopic carries DeregisteredMessage payloads.
	DeregisteredTopic = "mapset.deregistered"
)

// RegisteredMessage announces that a unit became registered.
type RegisteredMessage struct {
	File unit.File
}

// UpdatedMessage announces that a newer unit version replaced an older
// one.
type UpdatedMessage struct {
	File unit.File
	Old  unit.File
}

// DeregisteredMessage announces that a unit's deregistration completed.
type DeregisteredMessage struct {
	File unit.File
}
