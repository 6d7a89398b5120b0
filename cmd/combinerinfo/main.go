// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command combinerinfo decodes a SetCombine mux and shows every step of
// its compilation: decoded cycles, simplified and merged stages, the
// backend program and optionally the generated WGSL. With -preview it
// renders the combiner over procedural textures on a CPU backend.
//
// Usage:
//
//	combinerinfo -mux fc121624ff2fffff -2cycle -backend genericblend
//	combinerinfo -mux 12fe04ff -wgsl
//	combinerinfo -mux fc26a0041f1093fb -preview out.png -size 256
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/gogpu/combiner"
	"github.com/gogpu/combiner/backend"
	_ "github.com/gogpu/combiner/backend/fixedblend"
	_ "github.com/gogpu/combiner/backend/genericblend"
	_ "github.com/gogpu/combiner/backend/regcombiner"
	"github.com/gogpu/combiner/backend/shader"
)

type config struct {
	mux     uint64
	cycles  combiner.CycleType
	backend string
	noMerge bool
	wgsl    bool
	preview string
	size    int
}

func main() {
	var (
		mux      = flag.String("mux", fmt.Sprintf("%x", combiner.ModeShadeTexel0.Mux()), "SetCombine mux in hex")
		twoCycle = flag.Bool("2cycle", false, "evaluate both cycles")
		name     = flag.String("backend", backend.NameRegisterCombiner, "backend to compile with")
		noMerge  = flag.Bool("nomerge", false, "do not fuse the two cycles")
		wgsl     = flag.Bool("wgsl", false, "print the generated WGSL")
		preview  = flag.String("preview", "", "render a preview PNG to this file")
		size     = flag.Int("size", 128, "preview width and height")
		verbose  = flag.Bool("v", false, "log compiler activity")
	)
	flag.Parse()

	if *verbose {
		combiner.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	raw, err := strconv.ParseUint(strings.TrimPrefix(*mux, "0x"), 16, 64)
	if err != nil {
		log.Fatalf("Invalid mux %q: %v", *mux, err)
	}
	cfg := config{
		mux:     raw,
		cycles:  combiner.OneCycle,
		backend: *name,
		noMerge: *noMerge,
		wgsl:    *wgsl,
		preview: *preview,
		size:    *size,
	}
	if *twoCycle {
		cfg.cycles = combiner.TwoCycle
	}
	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

// run compiles the descriptor and optionally renders the preview. The
// render context is closed on every path.
func run(cfg config) error {
	d := combiner.NewDescriptor(cfg.mux, cfg.cycles)
	describe(d, !cfg.noMerge)

	if cfg.wgsl {
		c := combiner.Build(d, false)
		fmt.Println()
		fmt.Print(shader.Generate(&c, backend.DefaultFeatures()))
	}

	compiler, err := backend.Get(cfg.backend, backend.DefaultCapabilities())
	if err != nil {
		return fmt.Errorf("failed to start backend %s: %w", cfg.backend, err)
	}
	var opts []combiner.Option
	if cfg.noMerge {
		opts = append(opts, combiner.WithoutMerge())
	}
	rc := combiner.NewRenderContext(compiler, opts...)
	defer rc.Close()

	p := rc.SetCombine(d)
	fmt.Printf("\nbackend %s: ", compiler.Name())
	if p == compiler.Fallback() && d != combiner.ModeShadeTexel0 {
		fmt.Println("unsupported, serving the fallback program")
	} else {
		fmt.Println("compiled")
	}
	if sp, ok := p.(*backend.SoftwareProgram); ok {
		fmt.Printf("  %v\n", sp.Kernel())
	}

	if cfg.preview == "" {
		return nil
	}
	sc, ok := compiler.(*backend.SoftwareCompiler)
	if !ok {
		return fmt.Errorf("backend %s has no CPU evaluator", compiler.Name())
	}
	if err := renderPreview(rc, sc, cfg.size, cfg.preview); err != nil {
		return fmt.Errorf("failed to render preview: %w", err)
	}
	log.Printf("Preview saved to %s (%dx%d)\n", cfg.preview, cfg.size, cfg.size)
	return nil
}

// describe prints the decoded cycles and the stage pipelines before and
// after merging.
func describe(d combiner.Descriptor, merge bool) {
	m := combiner.Decode(d)
	fmt.Printf("descriptor %v\n", d)
	for i := range d.Cycles().NumCycles() {
		fmt.Printf("  cycle %d color: %v\n", i, m.Color[i])
		fmt.Printf("  cycle %d alpha: %v\n", i, m.Alpha[i])
	}

	c := combiner.Build(d, false)
	fmt.Printf("\nsimplified:\n%v", &c)
	fmt.Printf("usage: %v\n", c.Usage())
	if merge && d.Cycles() == combiner.TwoCycle {
		merged := combiner.Build(d, true)
		fmt.Printf("\nmerged:\n%v", &merged)
	}
}
