package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/bedindex/internal/duckdb"
)

func (a *app) newExportCmd() *cobra.Command {
	var (
		output string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "export <src.bed>",
		Short: "Export BED features to a DuckDB database",
		Long: `Load every feature of a BED file into the "features" table of a DuckDB
database for ad-hoc SQL. Columns are chrom, start, end_, file_pointer and
extra (the remaining columns joined by tabs).

The export is skipped when the database already holds the same, unchanged
source file. Use --force to reload it anyway.`,
		Example: `  bedindex export genes.bed -o genes.duckdb
  duckdb genes.duckdb "SELECT chrom, count(*) FROM features GROUP BY chrom"`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExport(cmd, args[0], output, force)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output DuckDB file (required)")
	cmd.Flags().BoolVar(&force, "force", false, "reload even if the export is up to date")

	return cmd
}

func (a *app) runExport(cmd *cobra.Command, sourcePath, outputPath string, force bool) error {
	if outputPath == "" {
		return usageErrorf("--output is required")
	}

	// Ensure output has .duckdb extension
	if ext := filepath.Ext(outputPath); ext != ".duckdb" && ext != ".db" {
		outputPath += ".duckdb"
	}

	store, err := duckdb.Open(outputPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if !force {
		upToDate, err := store.UpToDate(sourcePath)
		if err != nil {
			return fmt.Errorf("check export: %w", err)
		}
		if upToDate {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is up to date\n", outputPath)
			return nil
		}
	}

	began := time.Now()
	n, err := store.LoadBED(sourcePath, a.cfg.GetStringSlice("index.header_markers"))
	if err != nil {
		return err
	}
	a.logger.Info("export complete",
		zap.String("source", sourcePath),
		zap.String("output", outputPath),
		zap.Int("features", n),
		zap.Duration("elapsed", time.Since(began)))

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d features to %s\n", n, outputPath)
	return nil
}
