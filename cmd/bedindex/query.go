package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/bedindex/internal/bed"
	"github.com/inodb/bedindex/internal/index"
	"github.com/inodb/bedindex/internal/output"
)

type queryOptions struct {
	indexPath string
	format    string
	regions   string
	workers   int
	header    bool
}

func (a *app) newQueryCmd() *cobra.Command {
	var opts queryOptions

	cmd := &cobra.Command{
		Use:   "query <src.bed> [<chrom> <start> <end>]",
		Short: "Print features contained in a region",
		Long: `Print the BED lines of every feature lying entirely within
[start, end) on chrom, ordered by start.

With --regions, every line of a BED file is a query. Regions run in
parallel and results are printed in input order, each preceded by a
"# chrom:start-end" comment.`,
		Example: `  bedindex query genes.bed chr7 127471196 127495720
  bedindex query genes.bed --index genes.idx --format memory chr1 0 1000000
  bedindex query genes.bed --regions targets.bed --workers 8`,
		Args: usageArgs(func(cmd *cobra.Command, args []string) error {
			if opts.regions != "" {
				return cobra.ExactArgs(1)(cmd, args)
			}
			return cobra.ExactArgs(4)(cmd, args)
		}),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.indexPath, "index", "i", "", "index path (default: <src.bed> + index.suffix)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "index format: file or memory (default: index.format)")
	cmd.Flags().StringVarP(&opts.regions, "regions", "r", "", "BED file of query regions")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "parallel workers for --regions (default: query.workers)")
	cmd.Flags().BoolVar(&opts.header, "header", false, "write a column header line")

	return cmd
}

func (a *app) runQuery(cmd *cobra.Command, args []string, opts queryOptions) error {
	sourcePath := args[0]

	format, err := a.format(opts.format)
	if err != nil {
		return err
	}
	indexPath := a.indexPath(sourcePath, opts.indexPath)

	idx, err := index.LoadIndex(indexPath, format)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w (build it with: bedindex index %s)", err, sourcePath)
		}
		return err
	}
	a.logger.Debug("index loaded",
		zap.String("index", indexPath),
		zap.Stringer("format", format),
		zap.Int("chromosomes", len(idx.Chromosomes())))

	w := output.NewBEDWriter(cmd.OutOrStdout())
	if opts.header {
		if err := w.WriteHeader(); err != nil {
			return err
		}
	}

	if opts.regions != "" {
		err = a.queryRegions(w, idx, sourcePath, opts)
	} else {
		err = a.queryOne(w, idx, sourcePath, args[1:])
	}
	if flushErr := w.Flush(); err == nil {
		err = flushErr
	}
	return err
}

func (a *app) queryOne(w *output.BEDWriter, idx index.Index, sourcePath string, args []string) error {
	chrom := args[0]
	start, err := parseCoord("start", args[1])
	if err != nil {
		return err
	}
	end, err := parseCoord("end", args[2])
	if err != nil {
		return err
	}

	records, err := index.FindContained(idx, sourcePath, chrom, start, end)
	if err != nil {
		if errors.Is(err, index.ErrInvalidRange) {
			return &usageError{err: err}
		}
		return err
	}
	return w.WriteAll(records)
}

func parseCoord(name, s string) (int32, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, usageErrorf("invalid %s %q: must be an integer in int32 range", name, s)
	}
	return int32(v), nil
}

func (a *app) queryRegions(w *output.BEDWriter, idx index.Index, sourcePath string, opts queryOptions) error {
	regions, err := readRegions(opts.regions)
	if err != nil {
		return err
	}

	workers := opts.workers
	if workers <= 0 {
		workers = a.cfg.GetInt("query.workers")
	}
	a.logger.Info("querying regions",
		zap.String("regions", opts.regions),
		zap.Int("count", len(regions)),
		zap.Int("workers", workers))

	failed := 0
	err = index.QueryBatch(idx, sourcePath, regions, workers, func(r index.QueryResult) error {
		if r.Err != nil {
			failed++
			a.logger.Warn("region query failed",
				zap.Int("region", r.Seq+1),
				zap.Stringer("span", r.Region),
				zap.Error(r.Err))
			return nil
		}
		if err := w.WriteComment(r.Region.String()); err != nil {
			return err
		}
		return w.WriteAll(r.Records)
	})
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d regions failed", failed, len(regions))
	}
	return nil
}

// readRegions reads query regions from the first three columns of a BED file.
func readRegions(path string) ([]index.Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open regions file: %w", err)
	}
	defer f.Close()

	var regions []index.Region
	scanner := bed.NewScanner(f)
	for {
		line, err := scanner.Next()
		if err != nil {
			return nil, fmt.Errorf("read regions %s: %w", path, err)
		}
		if line == nil {
			return regions, nil
		}
		regions = append(regions, index.Region{
			Chrom: line.Record.Chrom,
			Start: line.Record.Start,
			End:   line.Record.End,
		})
	}
}
