package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/venusdb/sdl/pkg/compiler"
	"github.com/venusdb/sdl/pkg/config"
	"github.com/venusdb/sdl/pkg/ddlproc"
	"github.com/venusdb/sdl/pkg/loader"
	"github.com/venusdb/sdl/pkg/vendor"
	"github.com/venusdb/sdl/pkg/vendor/postgres"
)

// dialVendor constructs and connects the adapter named by
// cfg.Vendor.Driver. Only "postgres" is implemented (SPEC_FULL.md's
// Vendor Adapter module); any other driver name is a structural
// failure, not a silently-ignored default.
func dialVendor(ctx context.Context, cfg *config.Config) (vendor.Adapter, error) {
	switch cfg.Vendor.Driver {
	case "", "postgres":
		a := postgres.New()
		if err := a.Connect(ctx, cfg.Vendor.DSN); err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, errors.Errorf("unsupported vendor driver %q (only \"postgres\" is implemented)", cfg.Vendor.Driver)
	}
}

// compileProject runs the Parse Aggregator and Semantic Compiler over
// the configured entrypoint and search path (spec.md §4.1/§4.3).
// typeMap is nil unless the caller wants phase 8's vendor type checks
// to run (compile needs none; create/drop/upgrade do).
func compileProject(cfg *config.Config, typeMap compiler.TypeMap) (*compiler.Result, error) {
	load, err := loader.Load([]string{cfg.Entrypoint}, cfg.SearchPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load schema from %s", cfg.Entrypoint)
	}

	res := compiler.Compile(load, compiler.Options{TypeMap: typeMap})
	return res, nil
}

// printDiagnostics writes every accumulated diagnostic, sorted by
// position, to w in spec.md §6's GNU-style format.
func printDiagnostics(w io.Writer, diags compiler.Diagnostics) {
	for _, d := range diags.Sorted() {
		fmt.Fprintln(w, d.String())
	}
}

func requireProject(cmd interface{ String(string) string }) error {
	if currentConfig == nil {
		return errors.Errorf("not an sdlc project (dir=%s): %s not found", cmd.String("dir"), configFile)
	}
	return nil
}

// runStatements feeds each statement in order through a ddlproc
// Processor one at a time (spec.md §5's "serial, one statement at a
// time" discipline). dryRun writes formatted statements to w instead
// of executing them against adapter.
func runStatements(ctx context.Context, w io.Writer, adapter vendor.Adapter, statements []string, ignoreExceptions, dryRun bool) error {
	var backend ddlproc.Backend
	if dryRun {
		backend = ddlproc.StreamBackend{Writer: w}
	} else {
		backend = ddlproc.DirectBackend{Adapter: adapter}
	}

	logger := slog.Default()
	proc := ddlproc.New(backend, logger)
	for _, stmt := range statements {
		proc.AddLine(stmt)
		if err := proc.ProcessBuffer(ctx, ignoreExceptions); err != nil {
			return err
		}
	}
	return nil
}
