package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ironsheep/disc-photo-mcp/internal/config"
)

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default settings",
		Long: `Init writes the default configuration to
$XDG_CONFIG_HOME/disc-photo-mcp/config.yaml, or to the path given by -o.

Examples:
  # Create the default config file
  disc-photo-mcp init

  # Create a config file at a specific path
  disc-photo-mcp init -o ./disc.yaml

  # Force overwrite an existing file
  disc-photo-mcp init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", "", "Output file path (default: XDG config file)")
	cmd.Flags().BoolP("force", "f", false, "Overwrite existing configuration file")

	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	target := outputPath
	if target == "" {
		target = config.DefaultPath()
	}
	if !force {
		if _, err := os.Stat(target); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", target)
		}
	}

	if outputPath != "" {
		if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
		}
	}

	written, err := config.Default().Save(outputPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created configuration file: %s\n", written)
	return nil
}
