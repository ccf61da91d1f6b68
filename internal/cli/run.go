package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/chromatag/internal/catalog"
	"github.com/jmylchreest/chromatag/internal/config"
	"github.com/jmylchreest/chromatag/internal/pipeline"
)

var (
	// Run command flags
	runDryRun bool
	runOutput string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Classify every unclassified product in the catalog",
	Long: `Classify every unclassified product in the catalog.

Each catalog row without a colour identifier is classified in three
steps, cheapest first:

  1. the colour-name hint in the product name is checked against the
     category synonyms in the settings file;
  2. the hint is looked up in the curated colour-mapping ledger;
  3. failing both, the product image is downloaded and its dominant
     colour is matched against the category palette.

Colour names seen for the first time are appended to the ledger with an
empty identifier so they can be curated by hand. Rows that cannot be
classified are marked N/A for manual review.

Examples:
  # Classify the catalog named in the settings file
  chromatag run

  # See what would change without writing anything
  chromatag run --dry-run

  # Write the updated catalog somewhere else
  chromatag run --output classified.csv`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVarP(&runDryRun, "dry-run", "n", false, "classify but do not write the catalog or ledger")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "write the updated catalog to this path instead of in place")
}

// runRun executes the run command.
func runRun(cmd *cobra.Command, args []string) error {
	log := newLogger()

	cfg, err := config.Load(globalConfig)
	if err != nil {
		return err
	}
	if cfg.Catalog.Path == "" {
		return fmt.Errorf("no catalog path configured (set catalog.path or %s)", config.EnvCatalogPath)
	}
	if cfg.Catalog.MappingPath == "" {
		return fmt.Errorf("no colour mapping path configured (set catalog.mapping_path or %s)", config.EnvMappingPath)
	}

	cat, err := catalog.Open(cfg.Catalog.Path, catalog.Columns{
		ProductName: cfg.Catalog.Columns.ProductName,
		ImageURL:    cfg.Catalog.Columns.ImageURL,
		ColourID:    cfg.Catalog.Columns.ColourID,
	})
	if err != nil {
		return err
	}
	mapping, err := catalog.OpenMapping(cfg.Catalog.MappingPath)
	if err != nil {
		return err
	}

	classifier, err := pipeline.New(cfg, log)
	if err != nil {
		return err
	}

	log.Info("classifying catalog", "path", cfg.Catalog.Path, "rows", cat.Len())

	stats, err := classifier.Run(cmd.Context(), cat, mapping)
	if err != nil {
		return err
	}

	log.Info("catalog classified",
		"kept", stats.Kept,
		"from_name", stats.FromName,
		"from_image", stats.FromImage,
		"unknown", stats.Unknown,
		"new_names", stats.NewNames,
	)

	if runDryRun {
		log.Info("dry run, nothing written")
		return nil
	}

	if err := cat.Save(runOutput); err != nil {
		return err
	}
	if stats.NewNames > 0 {
		if err := mapping.Save(); err != nil {
			return err
		}
		log.Info("colour mapping updated", "path", cfg.Catalog.MappingPath, "new_names", stats.NewNames)
	}

	return nil
}
