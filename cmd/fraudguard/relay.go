package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Serve actions from the bus until interrupted",
	Long: `Run only the relay: actions published on the configured bus are sent to
the classification service and answered on the results topic. Useful with
bus.type=redis when the interface runs in another process. The
fraudguard-relay daemon does the same and can also run the SMTP intake.`,
	RunE: runRelay,
}

func init() {
	rootCmd.AddCommand(relayCmd)
}

func runRelay(cmd *cobra.Command, args []string) error {
	return withClient(cmd, true, func(ctx context.Context, c client) error {
		c.Logger.Info("Relay running, press Ctrl-C to stop",
			zap.Bool("local_bus", c.BusFactory.IsLocal()))
		<-ctx.Done()
		return nil
	})
}
