package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "brickctl",
	Short: "brickctl - утилита песочницы кирпичей",
	Long: `brickctl прогоняет YAML-сценарии против координатора в процессе,
печатает каталог типов и выпускает токены для REST API.`,
	SilenceUsage:      true,
	DisableAutoGenTag: true,
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "путь к YAML конфигурации")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
