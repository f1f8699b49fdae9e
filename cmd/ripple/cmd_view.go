package main

import (
	"github.com/spf13/cobra"

	"github.com/Tap30/ripple-ui-go/internal/viewer"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Tail the bridge's live event stream",
	RunE: func(cmd *cobra.Command, args []string) error {
		url := cfg.Viewer.StreamURL
		if v, _ := cmd.Flags().GetString("url"); v != "" {
			url = v
		}
		history := cfg.Viewer.History
		if v, _ := cmd.Flags().GetInt("history"); v > 0 {
			history = v
		}
		return viewer.Run(url, history)
	},
}

func init() {
	viewCmd.Flags().String("url", "", "Websocket URL of the bridge stream (overrides config)")
	viewCmd.Flags().Int("history", 0, "Number of events to keep on screen (overrides config)")
}
