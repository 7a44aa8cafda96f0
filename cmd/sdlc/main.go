// Command sdlc compiles SDL schema sets and drives the instance and
// upgrade engines against a configured vendor database.
//
// Usage:
//
//	# Report compiler diagnostics for the project's entrypoint schema
//	sdlc compile
//
//	# Create the tables/indexes/constraints for every realized object
//	sdlc create
//
//	# Diff the persisted schema against a fresh compile and apply it
//	sdlc upgrade --dry-run
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/venusdb/sdl/pkg/cmd"
)

// Build-time variables set by the release process.
var (
	version string = "local"
	commit  string = "local"
	date    string = time.Now().UTC().Format(time.RFC3339)
)

func main() {
	cli.VersionPrinter = func(c *cli.Command) {
		log.Println("Version:", version)
		log.Println("Commit:", commit)
		log.Println("Date:", date)
	}

	if err := cmd.Run(context.Background(), version, os.Args); err != nil {
		log.Fatal(err)
	}
}
