package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ironsheep/disc-photo-mcp/internal/imaging"
	"github.com/ironsheep/disc-photo-mcp/internal/pipeline"
)

// NewProcessCmd creates the process command.
func NewProcessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process <path|url>...",
		Short: "Crop disc photos and pick their colors",
		Long: `Process runs each photo through the disc pipeline: background sampling,
rim detection, square crop around the disc, and dominant color.

A photo that cannot be cropped is reported with the placeholder color and
the reason; it is never an error.

Examples:
  # Print the color of each photo
  disc-photo-mcp process ace.jpg putter.png

  # Save cropped icons as PNG next to each other in ./icons
  disc-photo-mcp process --format png --output-dir icons *.jpg

  # Full results as JSON
  disc-photo-mcp process --json https://example.com/disc.jpg`,
		Args: cobra.MinimumNArgs(1),
		RunE: runProcessCmd,
	}

	cmd.Flags().Bool("json", false, "Print results as JSON")
	cmd.Flags().StringP("output-dir", "o", "", "Write cropped icons to this directory")
	cmd.Flags().String("format", "", "Output format: jpeg, png or webp (default from config)")
	cmd.Flags().Int("quality", 0, "Lossy encoder quality 1-100 (default from config)")

	return cmd
}

func runProcessCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if format, _ := cmd.Flags().GetString("format"); format != "" {
		cfg.Output.Format = format
	}
	if quality, _ := cmd.Flags().GetInt("quality"); quality != 0 {
		cfg.Output.Quality = quality
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	asJSON, _ := cmd.Flags().GetBool("json")
	outDir, _ := cmd.Flags().GetString("output-dir")

	logger := newLogger(cmd, cfg, cmd.ErrOrStderr())
	_, bp := newPipeline(cfg, logger, nil)

	sources := make([]imaging.Source, len(args))
	for i, ref := range args {
		sources[i] = imaging.ParseSource(ref)
	}
	results, err := bp.ProcessBatch(cmd.Context(), sources)
	if err != nil {
		return err
	}

	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		for i, r := range results {
			if _, err := writeIcon(outDir, args[i], r); err != nil {
				return err
			}
		}
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	printResults(cmd.OutOrStdout(), args, results)
	return nil
}

// writeIcon saves a cropped result as <dir>/<name>-disc.<ext>. Results that
// were not cropped are skipped and return "".
func writeIcon(dir, ref string, r *pipeline.Result) (string, error) {
	if !r.Cropped {
		return "", nil
	}
	data, mime, err := imaging.DecodeDataURI(r.CroppedImageData)
	if err != nil {
		return "", err
	}

	name := iconName(ref)
	ext := strings.TrimPrefix(mime, "image/")
	if ext == "jpeg" {
		ext = "jpg"
	}
	path := filepath.Join(dir, name+"-disc."+ext)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// iconName derives a file stem from a path or URL.
func iconName(ref string) string {
	if strings.HasPrefix(ref, "data:") {
		return "upload"
	}
	base := ref
	if i := strings.IndexAny(base, "?#"); i >= 0 && !filepath.IsAbs(ref) {
		base = base[:i]
	}
	base = filepath.Base(strings.TrimRight(base, "/"))
	if stem := strings.TrimSuffix(base, filepath.Ext(base)); stem != "" && stem != "." && stem != string(filepath.Separator) {
		return stem
	}
	return "disc"
}

func printResults(w io.Writer, refs []string, results []*pipeline.Result) {
	for i, r := range results {
		status := "cropped"
		if !r.Cropped {
			status = "original (" + string(r.Fallback) + ")"
		}
		line := fmt.Sprintf("%s\t%s\t%s", r.DominantColorHex, status, refs[i])
		if r.Analysis != nil && r.Cropped {
			line += fmt.Sprintf("\tradius=%.1f crop=%d", r.Analysis.DiscRadius, r.Analysis.Crop.Size)
		}
		fmt.Fprintln(w, line)
	}
}
