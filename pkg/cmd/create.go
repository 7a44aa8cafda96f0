package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/venusdb/sdl/pkg/instance"
)

// createCmd returns the "create" command: compile the project,
// connect to the configured vendor, and emit/execute the ordered
// CREATE plan the Instance Engine computes (spec.md §4.5).
func createCmd() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create the database objects for the compiled schema",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "print the DDL instead of executing it",
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

			res, err := compileProject(currentConfig, adapter.TypeMap())
			if err != nil {
				return err
			}
			printDiagnostics(cmd.Writer, res.Diagnostics)
			if !res.Ok {
				return cli.Exit("compilation failed", 1)
			}

			inst := instance.New(res.Universe, adapter)
			plan, err := inst.Create(ctx)
			if err != nil {
				return err
			}

			if err := runStatements(ctx, cmd.Writer, adapter, plan.CreateOrder(), cmd.Bool("ignore-exceptions"), cmd.Bool("dry-run")); err != nil {
				return err
			}
			if !cmd.Bool("dry-run") {
				fmt.Fprintln(cmd.Writer, "create plan applied")
			}
			return nil
		},
	}
}
