package main

import (
	"errors"
	"fmt"

	"github.com/annel0/brick-sandbox/internal/app"
	"github.com/annel0/brick-sandbox/internal/config"
	"github.com/annel0/brick-sandbox/internal/scenario"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <scenario.yaml>...",
	Short: "Прогнать сценарии",
	Long:  `Исполняет шаги каждого сценария на чистой сцене и останавливается на первой несработавшей проверке.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cat, err := app.LoadCatalog(cfg.Build.CatalogPath)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		var failed int
		for _, path := range args {
			sc, err := scenario.Load(path)
			if err != nil {
				return err
			}

			// Каждый сценарий на своей сцене
			coord, err := app.NewCoordinator(cfg.Build, cat, nil, nil)
			if err != nil {
				return err
			}

			report, err := scenario.NewRunner(coord).Run(cmd.Context(), sc)
			if err != nil {
				var expErr *scenario.ExpectationError
				if !errors.As(err, &expErr) {
					return fmt.Errorf("%s: %w", sc.Name, err)
				}
				failed++
				fmt.Fprintf(out, "❌ %s: %v\n", sc.Name, err)
				continue
			}
			fmt.Fprintf(out, "✅ %s: %d шагов, %d мутаций, %d кирпичей\n", report.Name, report.Steps, report.Mutations, report.Bricks)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d scenarios failed", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
