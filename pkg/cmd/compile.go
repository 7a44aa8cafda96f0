package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// compileCmd returns the "compile" command: run the Parse Aggregator
// and Semantic Compiler over the project's entrypoint and report
// every accumulated diagnostic (spec.md §4.1/§4.3). Exits non-zero
// when compilation didn't run to completion.
func compileCmd() *cli.Command {
	return &cli.Command{
		Name:  "compile",
		Usage: "Compile the project's schema and report diagnostics",
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, requireProject(cmd)
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			res, err := compileProject(currentConfig, nil)
			if err != nil {
				return err
			}

			printDiagnostics(cmd.Writer, res.Diagnostics)
			if !res.Ok {
				return cli.Exit("compilation failed", 1)
			}
			fmt.Fprintln(cmd.Writer, "compilation succeeded")
			return nil
		},
	}
}
