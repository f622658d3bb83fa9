package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

// startWatchersCommand returns a CLI command that starts one watcher per
// configured network.
//
// Usage example:
//
//	hosewatch start
//
// The process runs until it receives an interrupt (SIGINT or SIGTERM) or ctx ends.
func startWatchersCommand(newFleet FleetFactory) *cli.Command {
	return &cli.Command{
		Name:        "start",
		Description: "Starts the address watchers of every configured network.",
		Usage:       "Runs all network watchers. Terminates gracefully on Ctrl+C or termination signals.",
		Action: func(ctx context.Context, c *cli.Command) error {
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			f, err := newFleet(ctx)
			if err != nil {
				return err
			}

			if err := f.Start(ctx); err != nil {
				return err
			}
			defer f.Close()

			select {
			case <-quit:
			case <-ctx.Done():
			}
			return nil
		},
	}
}
