package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alderglen/lookout/internal/ui"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "lookout",
	Short: "Bridge camera-analytics bus traffic into PostgreSQL",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("LOOKOUT_CONFIG"),
		"path to TOML config file (overrides environment)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(busTestCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if !ui.ShouldUseColor(os.Stdout) {
		ui.ForceNoColor()
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
