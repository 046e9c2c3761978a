// Command drivepay merges PDFs and renders driver salary receipts and book
// order summaries from the command line. It can also run the HTTP API and
// the MCP server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lvillar/drivepay"
	"github.com/lvillar/drivepay/config"
)

var version = "dev"

type app struct {
	cfg      *config.Config
	defaults *config.Defaults
}

func main() {
	a := &app{}
	root := &cobra.Command{
		Use:           "drivepay",
		Short:         "Merge PDFs and render salary receipts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.cfg = config.Load()
			if path, _ := cmd.Flags().GetString("defaults"); path != "" {
				a.cfg.DefaultsFile = path
			}
			d, err := config.LoadDefaults(a.cfg.DefaultsFile)
			if err != nil {
				return err
			}
			a.defaults = d
			return nil
		},
	}
	root.Version = version
	root.SetVersionTemplate("drivepay v{{.Version}}\n")
	root.PersistentFlags().String("defaults", "", "YAML file with default form values (overrides DEFAULTS_FILE)")

	root.AddCommand(
		a.mergeCmd(),
		a.infoCmd(),
		a.slipCmd(),
		a.layoutCmd(),
		a.billCmd(),
		a.serveCmd(),
		a.mcpCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "drivepay:", drivepay.Describe(err))
		os.Exit(1)
	}
}
