package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/gabapcia/hosewatch/internal/config"

	"github.com/urfave/cli/v3"
)

// checkSettingsCommand returns a CLI command that loads and validates the
// settings file, then prints the networks it configures.
//
// Usage example:
//
//	hosewatch check --settings ./settings.json
func checkSettingsCommand(defaultPath string) *cli.Command {
	return &cli.Command{
		Name:        "check",
		Description: "Validates the settings file and lists the configured networks.",
		Usage:       "Checks the settings file without connecting to any feed.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "settings",
				Usage: "Path to the settings file (JSON or YAML)",
				Value: defaultPath,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			settings, err := config.LoadSettings(c.String("settings"))
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(c.Root().Writer, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NETWORK\tSYMBOL\tADDRESS\tFEED\tPING\tRETRY")
			for _, n := range settings.Networks {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					n.Name, n.Symbol, n.Address, n.APIURL,
					n.PingInterval.Duration(), n.RetryInterval.Duration(),
				)
			}
			return w.Flush()
		},
	}
}
