package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ironsheep/disc-photo-mcp/internal/catalog"
)

// NewCatalogCmd creates the catalog command.
func NewCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Search the disc catalog",
		Long: `Catalog lists molds from the disc catalog, sorted by name.

Examples:
  # Every putter
  disc-photo-mcp catalog --type Putter

  # Innova discs whose name contains "roc"
  disc-photo-mcp catalog --manufacturer Innova --search roc

  # List manufacturers
  disc-photo-mcp catalog --manufacturers`,
		Args: cobra.NoArgs,
		RunE: runCatalogCmd,
	}

	cmd.Flags().StringP("search", "s", "", "Case-insensitive name or manufacturer substring")
	cmd.Flags().StringP("manufacturer", "m", catalog.AllValues, "Manufacturer to show")
	cmd.Flags().StringP("type", "t", catalog.AllValues, "Disc type to show")
	cmd.Flags().Bool("manufacturers", false, "List manufacturers instead of discs")
	cmd.Flags().Bool("json", false, "Print as JSON")

	return cmd
}

func runCatalogCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()

	if list, _ := cmd.Flags().GetBool("manufacturers"); list {
		names := cat.Manufacturers()
		if asJSON {
			return json.NewEncoder(out).Encode(names)
		}
		for _, n := range names {
			fmt.Fprintln(out, n)
		}
		return nil
	}

	var f catalog.Filter
	f.Search, _ = cmd.Flags().GetString("search")
	f.Manufacturer, _ = cmd.Flags().GetString("manufacturer")
	f.Type, _ = cmd.Flags().GetString("type")
	discs := cat.Filter(f)

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(discs)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tMANUFACTURER\tTYPE\tFLIGHT")
	for _, d := range discs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%g/%g/%g/%g\n", d.ID, d.Name, d.Manufacturer, d.Type, d.Speed, d.Glide, d.Turn, d.Fade)
	}
	return tw.Flush()
}
