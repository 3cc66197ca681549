package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ironsheep/disc-photo-mcp/internal/imaging"
	"github.com/ironsheep/disc-photo-mcp/internal/server"
	"github.com/ironsheep/disc-photo-mcp/internal/stamp"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdio",
		Long: `Serve speaks MCP (JSON-RPC 2.0, one message per line) on stdin and stdout.
Logs go to stderr. Configure it in your MCP client, for example:

  {"command": "disc-photo-mcp", "args": ["serve"]}`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg, cmd.ErrOrStderr())

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	cache := imaging.NewImageCache()
	p, bp := newPipeline(cfg, logger, cache)

	srv := server.New(
		server.WithLogger(logger),
		server.WithCache(cache),
		server.WithPipeline(p),
		server.WithBatchProcessor(bp),
		server.WithCatalog(cat),
		server.WithStampReader(stamp.NewReader(
			stamp.WithLanguage(cfg.Stamp.Language),
			stamp.WithTessdataPrefix(cfg.Stamp.TessdataPrefix),
		)),
		server.WithVersion(getVersion()),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Debug("starting server", "tesseract", stamp.Version())
	if err := srv.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
