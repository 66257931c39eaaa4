package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/annel0/brick-sandbox/internal/app"
	"github.com/annel0/brick-sandbox/internal/config"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Показать типы кирпичей и палитру",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cat, err := app.LoadCatalog(cfg.Build.CatalogPath)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSIZE\tTYPE\tHEIGHT")
		for _, bt := range cat.Types() {
			fmt.Fprintf(w, "%s\t%s\t%dx%d\t%s\t%.1f\n", bt.ID, bt.Name, bt.Width, bt.Length, bt.Category, bt.Height())
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "COLOR\tHEX")
		for _, nc := range cat.Palette() {
			fmt.Fprintf(w, "%s\t%s\n", nc.Name, nc.Color)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
