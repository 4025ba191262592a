package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/inodb/bedindex/internal/index"
)

func (a *app) newStatsCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "stats <index>",
		Short: "Summarize an index",
		Long:  "Print the size of an index and the feature count of each chromosome partition.",
		Example: `  bedindex stats genes.bed.bidx
  bedindex stats genes.idx --format memory`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStats(cmd, args[0], format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "index format: file or memory (default: index.format)")

	return cmd
}

func (a *app) runStats(cmd *cobra.Command, indexPath, formatFlag string) error {
	format, err := a.format(formatFlag)
	if err != nil {
		return err
	}

	info, err := os.Stat(indexPath)
	if err != nil {
		return fmt.Errorf("stat index: %w", err)
	}
	idx, err := index.LoadIndex(indexPath, format)
	if err != nil {
		return err
	}

	chroms := idx.Chromosomes()
	total := 0
	for _, c := range chroms {
		total += idx.Len(c)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Index:       %s\n", indexPath)
	fmt.Fprintf(out, "Format:      %s\n", format)
	fmt.Fprintf(out, "Size:        %s\n", formatSize(info.Size()))
	fmt.Fprintf(out, "Chromosomes: %d\n", len(chroms))
	fmt.Fprintf(out, "Features:    %d\n", total)
	if len(chroms) == 0 {
		return nil
	}

	fmt.Fprintln(out)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CHROM\tFEATURES")
	for _, c := range chroms {
		fmt.Fprintf(tw, "%s\t%d\n", c, idx.Len(c))
	}
	return tw.Flush()
}
