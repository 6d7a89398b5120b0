// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package backend provides the registry of combiner compilers.
//
// Each rendering technique lives in its own sub-package and registers a
// Factory from init():
//
//	import (
//	    _ "github.com/gogpu/combiner/backend/fixedblend"
//	    _ "github.com/gogpu/combiner/backend/genericblend"
//	    _ "github.com/gogpu/combiner/backend/regcombiner"
//	    _ "github.com/gogpu/combiner/backend/shader"
//	)
//
// # Backend Selection
//
// Select probes the registered factories once, in priority order
// shader > regcombiner > genericblend > fixedblend, and returns the first
// compiler that starts:
//
//	caps, err := backend.CapabilitiesFromProvider(provider)
//	if err != nil {
//	    caps = backend.DefaultCapabilities()
//	}
//	c, err := backend.Select(caps)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rc := combiner.NewRenderContext(c)
//
// Use Get to request a specific backend by name.
package backend
