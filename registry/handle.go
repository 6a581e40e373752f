// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package registry

// Handle is a checked-out unit: it pins the unit against full
// deregistration and gives exclusive use of an opened value until it is
// released. Handles are not safe for concurrent use; each belongs to
// the goroutine that acquired it.
type Handle struct {
	registry *Registry
	id       ID
	value    Value
}

// IsAlive reports whether the handle still holds a value. It is safe to
// call on a nil handle.
func (h *Handle) IsAlive() bool {
	return h != nil && h.value != nil
}

// ID returns the identifier of the unit the handle is for.
func (h *Handle) ID() ID {
	if h == nil {
		return ID{}
	}
	return h.id
}

// Info returns the unit metadata, or nil for a nil handle.
func (h *Handle) Info() *Info {
	if h == nil {
		return nil
	}
	return h.id.Info()
}

// Value returns the opened value, or nil once the handle has been
// released.
func (h *Handle) Value() Value {
	if h == nil {
		return nil
	}
	return h.value
}

// Release returns the value to the registry and drops the pin on the
// unit. If the unit was marked for deregistration and this was the last
// handle, deregistration completes here and the corresponding event
// fires before Release returns. Releasing twice is a no-op.
func (h *Handle) Release() {
	if h == nil || h.value == nil {
		return
	}
	value := h.value
	h.value = nil
	h.registry.unlockValue(h.id, value)
	h.registry = nil
}

// String is here so that Handle satisfies fmt.Stringer.
func (h *Handle) String() string {
	if !h.IsAlive() {
		return "released handle"
	}
	return "handle for " + h.id.String()
}
