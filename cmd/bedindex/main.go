// Package main provides the bedindex command-line tool.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/inodb/bedindex/internal/bed"
	"github.com/inodb/bedindex/internal/index"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const configName = ".bedindex.yaml"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// usageError marks errors caused by bad invocation rather than bad input.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// usageArgs wraps a positional argument validator so failures exit with ExitUsage.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

// app carries state shared by all subcommands of one invocation.
type app struct {
	cfg     *viper.Viper
	cfgFile string
	verbose bool
	logger  *zap.Logger
}

func run(args []string, stdout, stderr io.Writer) int {
	a := &app{cfg: viper.New(), logger: zap.NewNop()}
	defer func() { _ = a.logger.Sync() }()

	root := a.newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		var uerr *usageError
		if errors.As(err, &uerr) {
			fmt.Fprintf(stderr, "Run '%s --help' for usage.\n", root.Name())
			return ExitUsage
		}
		return ExitError
	}
	return ExitSuccess
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bedindex",
		Short: "Index BED files for fast containment queries",
		Long: `bedindex builds a compact binary index over a BED file and answers
"which features lie entirely within chrom:start-end" without rescanning
the source.`,
		Example: `  bedindex index genes.bed                       # writes genes.bed.bidx
  bedindex query genes.bed chr7 127471196 127495720
  bedindex query genes.bed --regions targets.bed --workers 8
  bedindex stats genes.bed.bidx`,
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.initConfig(); err != nil {
				return err
			}
			return a.initLogger()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: ~/"+configName+")")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	root.AddCommand(a.newIndexCmd())
	root.AddCommand(a.newQueryCmd())
	root.AddCommand(a.newStatsCmd())
	root.AddCommand(a.newExportCmd())
	root.AddCommand(a.newConfigCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// initConfig loads the config file and environment overrides.
func (a *app) initConfig() error {
	a.cfg.SetDefault("index.format", index.FormatFile.String())
	a.cfg.SetDefault("index.suffix", ".bidx")
	a.cfg.SetDefault("index.header_markers", bed.DefaultHeaderMarkers)
	a.cfg.SetDefault("query.workers", runtime.NumCPU())
	a.cfg.SetDefault("log.level", "warn")

	a.cfg.SetEnvPrefix("BEDINDEX")
	a.cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.cfg.AutomaticEnv()

	cfgFile := a.cfgFile
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		cfgFile = filepath.Join(home, configName)
	}
	a.cfg.SetConfigFile(cfgFile)
	a.cfg.SetConfigType("yaml")

	if _, err := os.Stat(cfgFile); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := a.cfg.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", cfgFile, err)
	}
	return nil
}

func (a *app) initLogger() error {
	level := a.cfg.GetString("log.level")
	if a.verbose {
		level = "debug"
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log.level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableCaller = !a.verbose

	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	a.logger = logger
	return nil
}

// format returns the index format from the flag, falling back to config.
func (a *app) format(flagValue string) (index.Format, error) {
	if flagValue == "" {
		flagValue = a.cfg.GetString("index.format")
	}
	f, err := index.ParseFormat(flagValue)
	if err != nil {
		return 0, &usageError{err: err}
	}
	return f, nil
}

// indexPath returns the explicit index path or the default next to the source.
func (a *app) indexPath(sourcePath, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return sourcePath + a.cfg.GetString("index.suffix")
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  usageArgs(cobra.NoArgs),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bedindex version %s (%s) built %s\n", version, commit, date)
		},
	}
}

// formatSize formats a byte count as a human-readable string.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
