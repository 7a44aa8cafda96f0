package compiler

import (
	"github.com/venusdb/sdl/pkg/ast"
	"github.com/venusdb/sdl/pkg/loader"
	"github.com/venusdb/sdl/pkg/resolve"
)

// Options tunes compiler behavior (spec.md §4.3/§7).
type Options struct {
	// Strict causes any warning-severity diagnostic to abort the
	// pipeline between phases, the same as an error would.
	Strict bool
	// TypeMap is consulted by phase 8 to resolve each realized field's
	// logical type against a vendor. A nil TypeMap skips phase 8
	// entirely (useful for compiling without committing to a vendor).
	TypeMap TypeMap

	// mainSources is populated by Compile before phase 5 runs: the
	// DefIDs of the schemas passed directly to the loader (as opposed
	// to pulled in transitively), the realization seed (spec.md §4.3
	// phase 5 "start with the top-level source schemas as realized").
	mainSources []ast.DefID
}

// Result is the compiled output: the loader's arena/universe plus the
// accumulated diagnostics. Ok reports whether compilation ran to
// completion without aborting early.
type Result struct {
	Load        *loader.Result
	Universe    *resolve.Universe
	Diagnostics Diagnostics
	Ok          bool
}

// phase is one compiler pass; it appends to diags and may read/write
// arena state. Phases run in Compile's fixed order.
type phase struct {
	name string
	run  func(u *resolve.Universe, opts Options, diags *Diagnostics)
}

// Compile runs the semantic compiler's eight phases, in order, over a
// loader.Result (spec.md §4.3). A phase that appends any diagnostic of
// severity >= error (or >= warning in strict mode) stops the pipeline
// before the next phase runs; Result.Ok reports whether every phase
// ran to completion.
func Compile(load *loader.Result, opts Options) *Result {
	u := &resolve.Universe{Arena: load.Arena, ByPackage: load.ByPackage}
	res := &Result{Load: load, Universe: u}

	for _, src := range load.MainSources {
		if id, ok := load.BySource[src]; ok {
			opts.mainSources = append(opts.mainSources, id)
		}
	}

	phases := []phase{
		{"1-lexical", phase1},
		{"2-implementation", phase2},
		{"3-inheritance", phase3},
		{"4-binding", phase4},
		{"5-realization", phase5},
		{"6-required", phase6},
		{"7-shape", phase7},
		{"8-vendor", phase8},
	}

	for _, p := range phases {
		if p.name == "8-vendor" && opts.TypeMap == nil {
			continue
		}
		p.run(u, opts, &res.Diagnostics)
		if abortsAfter(res.Diagnostics, opts) {
			res.Ok = false
			return res
		}
	}
	res.Ok = true
	return res
}

func abortsAfter(diags Diagnostics, opts Options) bool {
	if diags.HasErrors() {
		return true
	}
	return opts.Strict && diags.HasWarnings()
}

// allDefs returns every definition in declaration order, used by
// phases that scan the whole arena.
func allDefs(u *resolve.Universe) []*ast.Definition {
	ids := u.Arena.All()
	out := make([]*ast.Definition, 0, len(ids))
	for _, id := range ids {
		out = append(out, u.Arena.Get(id))
	}
	return out
}
