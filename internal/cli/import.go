package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/shopfront/internal/app"
	"github.com/five82/shopfront/internal/catalog"
	"github.com/five82/shopfront/internal/config"
)

// ImportResult is the output of the import command.
type ImportResult struct {
	Backend  string `json:"backend"`
	Source   string `json:"source"`
	Imported int    `json:"imported"`
}

// Text implements textRenderer.
func (r ImportResult) Text() string {
	return fmt.Sprintf("Imported %d products from %s into the %s backend\n", r.Imported, r.Source, r.Backend)
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import the public catalog into the products collection",
		Long: `Fetch the product catalog from the source URL and write every product
to products/{id}, overwriting existing documents.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}

			cfg, err := config.Load(rootOpts.ConfigPath)
			if err != nil {
				return formatter.Error(WrapExitError(ExitCommandError, "load config", err))
			}
			if source != "" {
				cfg.CatalogSource = source
			}

			log, closer, err := app.NewLogger(cfg)
			if err != nil {
				return formatter.Error(WrapExitError(ExitCommandError, "open log", err))
			}
			defer func() { _ = closer.Close() }()

			ctx := cmd.Context()
			store, _, err := app.OpenStore(ctx, cfg)
			if err != nil {
				return formatter.Error(WrapExitError(ExitFailure, "open store", err))
			}
			defer func() { _ = store.Close() }()

			imp, err := catalog.NewImporter(cfg.CatalogSource, store, log.WithField("component", "import"))
			if err != nil {
				return formatter.Error(WrapExitError(ExitCommandError, "invalid source", err))
			}
			n, err := imp.Import(ctx)
			if err != nil {
				return formatter.Error(WrapExitError(ExitFailure, "import catalog", err))
			}
			return formatter.Success(ImportResult{Backend: string(cfg.Backend), Source: cfg.CatalogSource, Imported: n})
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "catalog URL (default from config)")

	return cmd
}
