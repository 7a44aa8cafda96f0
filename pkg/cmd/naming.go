package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/venusdb/sdl/pkg/naming"
)

// namingCmd returns the "naming" command: a debug helper that mangles
// a dot-separated logical path into its physical identifier the way
// pkg/naming.Make would, without requiring a compiled project
// (spec.md §4.4).
func namingCmd() *cli.Command {
	return &cli.Command{
		Name:      "naming",
		Usage:     "Print the mangled physical name for a dotted logical path",
		ArgsUsage: "<dotted.path>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "max-len",
				Usage: "vendor maximum identifier length",
				Value: int64(63),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return cli.Exit("usage: sdlc naming <dotted.path>", 1)
			}
			parts := strings.Split(path, ".")
			fmt.Fprintln(cmd.Writer, naming.Make(int(cmd.Int("max-len")), parts...))
			return nil
		},
	}
}
