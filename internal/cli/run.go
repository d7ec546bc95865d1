package cli

import (
	"github.com/spf13/cobra"

	"github.com/five82/shopfront/internal/app"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	PrefsPath  string
	TickMillis int
}

// NewRunCommand creates the run command, which starts the TUI.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the storefront TUI",
		Long: `Start the terminal storefront.

The backend, identity provider and payment gateway come from the config
file. Logs go to the configured log file because the TUI owns the terminal.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), app.Options{
				ConfigPath: rootOpts.ConfigPath,
				PrefsPath:  opts.PrefsPath,
				TickMillis: opts.TickMillis,
				Version:    rootOpts.Version,
			})
		},
	}

	cmd.Flags().StringVar(&opts.PrefsPath, "prefs", "", "preferences file (default ~/.config/shopfront/prefs.toml)")
	cmd.Flags().IntVar(&opts.TickMillis, "tick", 0, "UI refresh interval in milliseconds (default 500)")

	return cmd
}
