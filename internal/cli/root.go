package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Format     string // "json" | "text"
	Version    string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command. Without a subcommand it starts
// the storefront TUI.
func NewRootCommand(version string) *cobra.Command {
	opts := &RootOptions{Version: version}
	run := NewRunCommand(opts)

	cmd := &cobra.Command{
		Use:           "shopfront",
		Short:         "shopfront - a terminal storefront",
		Long:          "Browse the catalog, keep favorites and a cart, and check out from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return WrapExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats), nil)
			}
			return nil
		},
		RunE: run.RunE,
	}
	cmd.Flags().AddFlagSet(run.Flags())

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default ~/.config/shopfront/config.toml)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(run)
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewCartCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}
