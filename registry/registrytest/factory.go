// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package registrytest provides fakes for testing code built around a
// unit registry.
package registrytest

import (
	"sync"

	"github.com/juju/testing"

	"github.com/juju/mapset/core/unit"
	"github.com/juju/mapset/registry"
)

// Factory is a fake registry.Factory. Metadata for CreateInfo comes
// from SetDetails; errors are injected through the embedded Stub with
// SetErrors.
type Factory struct {
	testing.Stub

	mu      sync.Mutex
	details map[unit.Name]registry.Details
	values  []*Value
}

// NewFactory returns a Factory with no metadata configured. Units
// without configured details get zero metadata, which is fine for most
// tests.
func NewFactory() *Factory {
	return &Factory{details: make(map[unit.Name]registry.Details)}
}

// SetDetails configures the metadata CreateInfo returns for name.
func (f *Factory) SetDetails(name unit.Name, details registry.Details) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.details[name] = details
}

// CreateInfo is part of the registry.Factory interface.
func (f *Factory) CreateInfo(file unit.File) (*registry.Info, error) {
	f.AddCall("CreateInfo", file)
	if err := f.NextErr(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	details := f.details[file.Name]
	f.mu.Unlock()
	return registry.NewInfo(file, details), nil
}

// CreateValue is part of the registry.Factory interface.
func (f *Factory) CreateValue(info *registry.Info) (registry.Value, error) {
	f.AddCall("CreateValue", info.File())
	if err := f.NextErr(); err != nil {
		return nil, err
	}
	v := &Value{File: info.File()}
	f.mu.Lock()
	f.values = append(f.values, v)
	f.mu.Unlock()
	return v, nil
}

// Values returns every value the factory has created, in creation
// order, including closed ones.
func (f *Factory) Values() []*Value {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Value(nil), f.values...)
}

// OpenValues returns how many created values have not been closed.
func (f *Factory) OpenValues() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	open := 0
	for _, v := range f.values {
		if !v.Closed() {
			open++
		}
	}
	return open
}

// CreateValueCount returns how many times CreateValue has run for the
// named unit.
func (f *Factory) CreateValueCount(name unit.Name) int {
	count := 0
	for _, call := range f.Calls() {
		if call.FuncName != "CreateValue" {
			continue
		}
		if file, ok := call.Args[0].(unit.File); ok && file.Name == name {
			count++
		}
	}
	return count
}

// Value is the fake registry.Value produced by Factory.
type Value struct {
	File unit.File

	mu       sync.Mutex
	closes   int
	closeErr error
}

// SetCloseError makes Close return err.
func (v *Value) SetCloseError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closeErr = err
}

// Close is part of the registry.Value interface.
func (v *Value) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closes++
	return v.closeErr
}

// Closed reports whether Close has run at least once.
func (v *Value) Closed() bool {
	return v.CloseCount() > 0
}

// CloseCount returns how many times Close has run. Anything above one
// is a lifecycle bug in the code under test.
func (v *Value) CloseCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closes
}
