package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alderglen/lookout/internal/bus"
	"github.com/alderglen/lookout/internal/config"
	"github.com/alderglen/lookout/internal/ui"
)

var busTestCmd = &cobra.Command{
	Use:   "bustest",
	Short: "Validate the configured bus credentials",
	Long: `Runs a synchronous connect-subscribe-disconnect cycle against the
configured broker without persisting anything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		logs, err := bus.Diagnose(cfg.BusURL(), cfg.BusUser, cfg.BusPass)
		for _, l := range logs {
			line := fmt.Sprintf("%s %-7s %s",
				l.Timestamp.Format(time.RFC3339), l.Level, l.Message)
			if l.Topic != "" {
				line += " [" + l.Topic + "]"
			}
			switch l.Level {
			case "error":
				fmt.Println(ui.RenderAlert(line))
			case "success":
				fmt.Println(ui.RenderAccent(line))
			default:
				fmt.Println(ui.RenderMuted(line))
			}
		}
		return err
	},
}
