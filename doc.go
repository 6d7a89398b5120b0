// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package combiner compiles RDP color combiner modes into executable
// shading programs.
//
// # Overview
//
// The RDP mixes texels, vertex shade and constant registers with the
// formula (A - B) * C + D, once for color and once for alpha, in one or two
// cycles. The second cycle can read the first cycle's output through the
// Combined operand. A combine mode is packed into a 64-bit [Descriptor].
//
// Compiling a mode runs a small pipeline:
//
//	Descriptor -> Decode -> SimplifyCycle (x2 cycles, x2 channels)
//	           -> MergeStages -> Compiler.Compile -> cache
//
// [Decode] expands the raw mux fields into symbolic [Operand] values.
// [SimplifyCycle] reduces each cycle to a short list of [Op] values,
// removing zero terms, identity multiplies and recognizing linear
// interpolation. [MergeStages] fuses the two cycles of a channel into one
// stage when the dependency on Combined allows it. A [Compiler] (see the
// backend sub-packages) lowers the resulting [Combiner] to a [Program].
//
// # Render context
//
// [RenderContext] owns the compiler, the program cache and the dynamic
// [State]. Draw-call code asks it for a program per descriptor:
//
//	rc := combiner.NewRenderContext(compiler)
//	defer rc.Close()
//
//	p := rc.SetCombine(desc)
//	if p.Usage().UsesTile(1) {
//	    // bind the second texture
//	}
//	rc.State().PrimColor = combiner.Color{R: 1, G: 1, B: 1, A: 1}
//	rc.UpdateDynamicValues()
//
// Programs are compiled once per distinct descriptor and cached until
// [RenderContext.Reset] or [RenderContext.Close].
//
// # Backends
//
// Backends live in sub-packages of backend/ and register themselves by
// name. backend.Select picks the most capable one at startup:
//
//	import (
//	    "github.com/gogpu/combiner/backend"
//	    _ "github.com/gogpu/combiner/backend/fixedblend"
//	    _ "github.com/gogpu/combiner/backend/shader"
//	)
//
//	c, err := backend.Select(caps)
//
// # Logging
//
// The package is silent by default. Use [SetLogger] to route compile and
// fallback diagnostics to a [log/slog] logger.
package combiner
