// Package cli provides the command-line interface for the navigation engine.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "config",
		Usage: "Path to workspace config.yaml",
	},
	&cli.StringFlag{
		Name:    "graph",
		Aliases: []string{"g"},
		Usage:   "Navigation graph definition file",
		EnvVars: []string{"NAVENGINE_GRAPH"},
	},
	&cli.StringFlag{
		Name:    "fleet",
		Aliases: []string{"f"},
		Usage:   "Device fleet file",
		EnvVars: []string{"NAVENGINE_FLEET"},
	},
	&cli.StringFlag{
		Name:    "device",
		Aliases: []string{"d"},
		Usage:   "Device ID to navigate",
		EnvVars: []string{"NAVENGINE_DEVICE"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging",
		EnvVars: []string{"NAVENGINE_VERBOSE"},
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// Execute runs the CLI.
func Execute() {
	app := &cli.App{
		Name:    "navengine",
		Usage:   "Navigation engine for automated UI testing of consumer devices",
		Version: Version,
		Description: `Navengine models an application's UI as a navigation graph and drives
devices along it: it resolves a path between two screens, performs the
actions on each edge, and verifies every screen it lands on.

Examples:
  navengine validate tvapp.yaml
  navengine plan -g tvapp.yaml -f fleet.yaml -d living-room-tv home wifi
  navengine run -g tvapp.yaml -f fleet.yaml -d living-room-tv home wifi`,
		Flags: GlobalFlags,
		Commands: []*cli.Command{
			validateCommand,
			planCommand,
			runCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
