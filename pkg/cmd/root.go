package cmd

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/venusdb/sdl/pkg/config"
)

// configFile is the project config housekeeper.yaml's SDL counterpart
// (spec.md §6, "sdl.yaml" per SPEC_FULL.md's CLI module).
const configFile = "sdl.yaml"

// currentConfig is populated by Run's Before hook the same way
// housekeeper's cmd/housekeeper/cmd/root.go sets a package-level
// currentProject: subcommands read it directly instead of threading it
// through every Action signature.
var currentConfig *config.Config

// Run builds and executes the sdlc CLI application.
//
// Global flags:
//   - --dir, -d: project directory (defaults to the current directory)
//
// Run changes into --dir, then auto-detects a project by the presence
// of sdl.yaml there; if found, currentConfig is populated for every
// subcommand's Before hook to check.
func Run(ctx context.Context, version string, args []string) error {
	app := &cli.Command{
		Name:    "sdlc",
		Usage:   "Schema-definition-language compiler and database instantiation tool",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "dir",
				Aliases:     []string{"d"},
				Usage:       "the project directory",
				Value:       ".",
				DefaultText: "Current directory",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if err := os.Chdir(cmd.String("dir")); err != nil {
				return ctx, err
			}

			if _, err := os.Stat(configFile); os.IsNotExist(err) {
				return ctx, nil
			} else if err != nil {
				return ctx, err
			}

			cfg, err := config.LoadConfigFile(configFile)
			if err != nil {
				return ctx, err
			}
			currentConfig = cfg
			return ctx, nil
		},
		Commands: []*cli.Command{
			compileCmd(),
			createCmd(),
			dropCmd(),
			upgradeCmd(),
			namingCmd(),
		},
	}

	return app.Run(ctx, args)
}
