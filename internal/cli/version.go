package cli

import (
	"runtime"

	"github.com/spf13/cobra"
)

// VersionResult is the output of the version command.
type VersionResult struct {
	Version string `json:"version"`
	Go      string `json:"go"`
}

// Text implements textRenderer.
func (v VersionResult) Text() string {
	return "shopfront " + v.Version + " (" + v.Go + ")\n"
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "version",
		Short:         "Print the version",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return formatter.Success(VersionResult{Version: rootOpts.Version, Go: runtime.Version()})
		},
	}
}
