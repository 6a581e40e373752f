// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package registrytest

import (
	"github.com/juju/testing"

	"github.com/juju/mapset/core/unit"
)

// Observer is a fake registry.Observer recording every delivery on its
// embedded Stub, so tests can assert on event kind, payload and order
// with CheckCalls.
type Observer struct {
	testing.Stub
}

// UnitRegistered implements registry.Observer.
func (o *Observer) UnitRegistered(file unit.File) {
	o.AddCall("UnitRegistered", file)
}

// UnitUpdated implements registry.Observer.
func (o *Observer) UnitUpdated(file, old unit.File) {
	o.AddCall("UnitUpdated", file, old)
}

// UnitDeregistered implements registry.Observer.
func (o *Observer) UnitDeregistered(file unit.File) {
	o.AddCall("UnitDeregistered", file)
}
