package cli

import (
	"context"
	"os"

	"github.com/gabapcia/hosewatch/internal/fleet"

	"github.com/urfave/cli/v3"
)

// FleetFactory builds the watcher fleet. It is only invoked by commands that
// run watchers, so commands like `check` never open external connections.
type FleetFactory func(ctx context.Context) (fleet.Service, error)

// Run initializes and executes the hosewatch CLI application.
//
// It registers all available commands, including:
//
//   - `start`: Runs every configured network watcher until interrupted.
//   - `check`: Validates the settings file and lists the configured networks.
func Run(ctx context.Context, settingsPath string, newFleet FleetFactory) error {
	return newApp(settingsPath, newFleet).Run(ctx, os.Args)
}

func newApp(settingsPath string, newFleet FleetFactory) *cli.Command {
	return &cli.Command{
		EnableShellCompletion: true,
		Name:                  "hosewatch",
		Description:           "Watches blockchain addresses and posts a Discord notification for every new transaction.",
		Usage:                 "hosewatch [command] [flags]",
		Commands: []*cli.Command{
			startWatchersCommand(newFleet),
			checkSettingsCommand(settingsPath),
		},
	}
}
