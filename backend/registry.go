// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/combiner"
)

// Factory creates a compiler for the given capabilities. It returns an
// error when the backend cannot run with them.
type Factory func(caps Capabilities) (combiner.Compiler, error)

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
	// Selection order, most capable first.
	priority = []string{NameShader, NameRegisterCombiner, NameGenericBlend, NameFixedBlend}
)

// Register registers a backend factory under name. Backend packages call
// it from init. A later registration under the same name replaces the
// earlier one.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = f
}

// Unregister removes a backend. This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the registered backend names in selection order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return orderedNames()
}

// orderedNames lists priority names first, then the rest sorted.
// Caller must hold registryMu.
func orderedNames() []string {
	names := make([]string, 0, len(factories))
	for _, name := range priority {
		if _, ok := factories[name]; ok {
			names = append(names, name)
		}
	}
	var extra []string
	for name := range factories {
		if !slices.Contains(priority, name) {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)
	return append(names, extra...)
}

// IsRegistered reports whether a backend is registered under name.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Get creates the named backend.
func Get(name string, caps Capabilities) (combiner.Compiler, error) {
	registryMu.RLock()
	f, ok := factories[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	c, err := f(caps)
	if err != nil {
		return nil, fmt.Errorf("backend: %s: %w", name, err)
	}
	return c, nil
}

// Select creates the most capable backend that starts with caps. It is
// meant to run once at startup; the result stays fixed for the lifetime
// of the rendering context.
func Select(caps Capabilities) (combiner.Compiler, error) {
	registryMu.RLock()
	names := orderedNames()
	registryMu.RUnlock()

	var errs []error
	for _, name := range names {
		c, err := Get(name, caps)
		if err != nil {
			combiner.Logger().Debug("backend: candidate rejected", "backend", name, "err", err)
			errs = append(errs, err)
			continue
		}
		combiner.Logger().Info("backend: selected", "backend", name)
		return c, nil
	}
	if len(errs) == 0 {
		return nil, ErrBackendNotAvailable
	}
	return nil, fmt.Errorf("%w: %w", ErrBackendNotAvailable, errors.Join(errs...))
}

// MustSelect is like Select but panics if no backend starts.
func MustSelect(caps Capabilities) combiner.Compiler {
	c, err := Select(caps)
	if err != nil {
		panic(err)
	}
	return c
}
