package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/viant/i3smerge/config"
	"github.com/viant/i3smerge/i3s"
	"github.com/viant/i3smerge/merger"
)

var (
	configURL     string
	reportPath    string
	verbose       bool
	offset        int
	dynamicOffset bool
	nodesPerPage  int
	rootPolicy    string
	lenient       bool
	force         bool
	workers       int
	scratchDir    string
	keepScratch   bool
)

var rootCmd = &cobra.Command{
	Use:   "i3smerge <a.slpk> <b.slpk> <output.slpk>",
	Short: "Merge two I3S scene layer packages",
	Long: `Merge two I3S scene layer packages of the same layout into one.

Node and resource ids of the second package are shifted by an offset so
both id spaces coexist. The root of the second package is attached under the
root of the first, or both roots are kept with --root-policy forest.
The output archive is written only when the merge succeeds.`,
	Args:          cobra.ExactArgs(3),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runMerge,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&configURL, "config", "", "YAML config URL")
	flags.StringVar(&reportPath, "report", "", "Write JSON report to path")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	flags.IntVar(&offset, "offset", config.DefaultOffset, "Id offset of the second package")
	flags.BoolVar(&dynamicOffset, "dynamic-offset", false, "Use max id of the first package plus one as offset")
	flags.IntVar(&nodesPerPage, "nodes-per-page", config.DefaultNodesPerPage, "Nodes per page of a paged output")
	flags.StringVar(&rootPolicy, "root-policy", config.DefaultRootPolicy, "Root policy: attach or forest")
	flags.BoolVar(&lenient, "lenient", false, "Load node folders without index document as leaves")
	flags.BoolVar(&force, "force", false, "Merge packages with differing versions")
	flags.IntVar(&workers, "workers", 0, "Asset copy workers (defaults to CPU count)")
	flags.StringVar(&scratchDir, "scratch-dir", "", "Scratch directory (defaults to a temp dir)")
	flags.BoolVar(&keepScratch, "keep-scratch", false, "Keep scratch directory after a successful merge")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func runMerge(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg, err := loadConfig(ctx, cmd)
	if err != nil {
		return err
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	service, err := merger.New(cfg, merger.WithLogger(logger))
	if err != nil {
		return err
	}
	report, err := service.Merge(ctx, args[0], args[1], args[2])
	if err != nil {
		return err
	}
	if reportPath != "" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		if err = os.WriteFile(reportPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	report.Print(cmd.OutOrStdout())
	return nil
}

// loadConfig reads the optional config file, explicitly set flags take precedence
func loadConfig(ctx context.Context, cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configURL != "" {
		var err error
		if cfg, err = config.Load(ctx, configURL); err != nil {
			return nil, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("offset") {
		cfg.Offset = offset
	}
	if flags.Changed("dynamic-offset") {
		cfg.DynamicOffset = dynamicOffset
	}
	if flags.Changed("nodes-per-page") {
		cfg.NodesPerPage = nodesPerPage
	}
	if flags.Changed("root-policy") {
		cfg.RootPolicy = rootPolicy
	}
	if flags.Changed("lenient") {
		cfg.Lenient = lenient
	}
	if flags.Changed("force") {
		cfg.Force = force
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("scratch-dir") {
		cfg.ScratchDir = scratchDir
	}
	if flags.Changed("keep-scratch") {
		cfg.KeepScratch = keepScratch
	}
	cfg.Init()
	return cfg, cfg.Validate()
}

// exitCode maps input problems to 2 and everything else to 1
func exitCode(err error) int {
	for _, kind := range []error{i3s.ErrUnrecognizedLayout, i3s.ErrVersionMismatch, i3s.ErrLayoutMismatch, i3s.ErrNamespaceOverflow} {
		if errors.Is(err, kind) {
			return 2
		}
	}
	return 1
}
