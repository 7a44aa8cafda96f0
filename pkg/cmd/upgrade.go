package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/venusdb/sdl/pkg/instance"
	"github.com/venusdb/sdl/pkg/persist"
	"github.com/venusdb/sdl/pkg/resolve"
	"github.com/venusdb/sdl/pkg/upgrade"
)

// upgradeCmd returns the "upgrade" command: diff the instance
// persisted in venus_core.sys_parameter against a fresh compile of the
// project and execute the Upgrade Engine's ordered plan (spec.md
// §4.6). On success (and unless --dry-run), the newly compiled schema
// replaces the persisted snapshot so the next upgrade diffs against
// this one.
func upgradeCmd() *cli.Command {
	return &cli.Command{
		Name:  "upgrade",
		Usage: "Diff the persisted schema against the compiled project and apply the upgrade plan",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "print the upgrade plan instead of executing it",
			},
			&cli.BoolFlag{
				Name:  "ignore-exceptions",
				Usage: "log and skip statements that fail instead of aborting",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, requireProject(cmd)
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			adapter, err := dialVendor(ctx, currentConfig)
			if err != nil {
				return err
			}
			defer func() { _ = adapter.Disconnect(ctx) }()

			oldSnap, err := persist.Load(ctx, adapter)
			if err != nil {
				return err
			}
			oldLoad := oldSnap.Result()
			oldUniverse := &resolve.Universe{Arena: oldLoad.Arena, ByPackage: oldLoad.ByPackage}
			oldInstance := instance.New(oldUniverse, adapter)

			newRes, err := compileProject(currentConfig, adapter.TypeMap())
			if err != nil {
				return err
			}
			printDiagnostics(cmd.Writer, newRes.Diagnostics)
			if !newRes.Ok {
				return cli.Exit("compilation failed", 1)
			}
			newInstance := instance.New(newRes.Universe, adapter)

			diff, err := upgrade.Compute(oldInstance.Names(), newInstance.Names())
			if err != nil {
				return err
			}
			plan, err := upgrade.Build(diff, oldInstance, newInstance)
			if err != nil {
				return err
			}

			dryRun := cmd.Bool("dry-run")
			if err := runStatements(ctx, cmd.Writer, adapter, plan.Order(), cmd.Bool("ignore-exceptions"), dryRun); err != nil {
				return err
			}

			if dryRun {
				return nil
			}
			if err := persist.Store(ctx, adapter, persist.FromResult(newRes.Load)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.Writer, "upgrade plan applied")
			return nil
		},
	}
}
