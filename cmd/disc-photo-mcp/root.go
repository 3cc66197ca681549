package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/disc-photo-mcp/internal/catalog"
	"github.com/ironsheep/disc-photo-mcp/internal/config"
	"github.com/ironsheep/disc-photo-mcp/internal/imaging"
	applog "github.com/ironsheep/disc-photo-mcp/internal/log"
	"github.com/ironsheep/disc-photo-mcp/internal/pipeline"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disc-photo-mcp",
		Short: "Disc photo cropping and color tools for disc golf bags",
		Long: `disc-photo-mcp crops photos of disc golf discs tightly to the disc,
picks a representative color for each, and reads and writes shareable bag URLs.

Run "disc-photo-mcp serve" from an MCP client to expose the tools over stdio,
or use the process and catalog commands directly.

Configuration is read from $XDG_CONFIG_HOME/disc-photo-mcp/config.yaml
unless --config is given. Create one with "disc-photo-mcp init".`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Configuration file path")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewProcessCmd())
	cmd.AddCommand(NewCatalogCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the file named by --config, or the default file. A
// missing default file is not an error; a missing explicit file is.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(path)
	switch {
	case errors.Is(err, config.ErrConfigNotFound) && path != "":
		return nil, fmt.Errorf("%w: %s", err, path)
	case err != nil && !errors.Is(err, config.ErrConfigNotFound):
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the stderr logger. --verbose forces debug level.
func newLogger(cmd *cobra.Command, cfg *config.Config, w io.Writer) *slog.Logger {
	level, _ := cfg.LogLevel()
	if verbose, err := cmd.Flags().GetBool("verbose"); err == nil && verbose {
		level = slog.LevelDebug
	}
	return applog.NewLogger(w, level, cfg.Log.JSON)
}

// loadCatalog returns the configured catalog or the embedded one.
func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.Stamp.Catalog == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(cfg.Stamp.Catalog)
}

// newPipeline wires the pipeline and batch processor from cfg.
func newPipeline(cfg *config.Config, logger *slog.Logger, cache *imaging.ImageCache) (*pipeline.Pipeline, *pipeline.BatchProcessor) {
	p := pipeline.New(
		pipeline.WithLogger(logger),
		pipeline.WithLoadOptions(cfg.LoadOptions(cache)),
		pipeline.WithRenderOptions(cfg.RenderOptions()),
	)
	bp := pipeline.NewBatchProcessor(p,
		pipeline.WithBatchLogger(logger),
		pipeline.WithConcurrency(cfg.Batch.Concurrency),
	)
	return p, bp
}
