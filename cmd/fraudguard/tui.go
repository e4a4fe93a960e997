package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/mikey/fraudguard/internal/ui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the terminal user interface",
	Long: `Start the full screen interface with the login, registration and
analysis screens. Logs go to --log-file, or nowhere when it is not set.`,
	PreRun: func(cmd *cobra.Command, args []string) {
		if flags.LogFile == "" {
			flags.LogFile = os.DevNull
		}
	},
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	return withClient(cmd, false, func(ctx context.Context, c client) error {
		view := ui.NewTviewView()
		controller := ui.NewController(view, c.Requester, c.Sessions, c.Store, c.Extractor, c.Logger, c.Config.GetUI().Theme)
		view.Bind(ctx, controller)
		return view.Run(ctx, controller)
	})
}
