package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/inodb/bedindex/internal/index"
)

func (a *app) newIndexCmd() *cobra.Command {
	var (
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "index <src.bed>",
		Short: "Build an index for a BED file",
		Long: `Build a binary index for a BED file.

The file format keeps only a chromosome directory in memory and binary
searches the partitions on disk. The memory format is loaded whole and
searched in RAM. An existing index is replaced atomically.`,
		Example: `  bedindex index genes.bed
  bedindex index genes.bed -o /data/genes.idx --format memory`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runIndex(cmd, args[0], output, format)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "index path (default: <src.bed> + index.suffix)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "index format: file or memory (default: index.format)")

	return cmd
}

func (a *app) runIndex(cmd *cobra.Command, sourcePath, output, formatFlag string) error {
	format, err := a.format(formatFlag)
	if err != nil {
		return err
	}
	indexPath := a.indexPath(sourcePath, output)

	b := index.NewBuilder()
	b.SetHeaderMarkers(a.cfg.GetStringSlice("index.header_markers"))
	b.SetLogger(a.logger)

	if err := b.CreateIndex(sourcePath, indexPath, format); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w (check that the file path is correct)", err)
		}
		return err
	}

	info, err := os.Stat(indexPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s index %s (%s)\n", format, indexPath, formatSize(info.Size()))
	return nil
}
