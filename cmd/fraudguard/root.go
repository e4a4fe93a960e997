package main

import (
	"github.com/spf13/cobra"

	"github.com/mikey/fraudguard/internal/di"
)

var flags di.CLIFlags

var rootCmd = &cobra.Command{
	Use:   "fraudguard",
	Short: "Check emails for fraud with the remote classifier",
	Long: `fraudguard extracts the content of an email, sends it to the remote
classification service and reports whether it looks fraudulent.

Example usage:
  fraudguard login --email me@example.com   # Log in (password read from stdin)
  fraudguard analyze message.eml            # Analyze a raw message
  fraudguard analyze page.html inbox.mbox   # Analyze a saved webmail page and a mailbox
  fraudguard tui                            # Start the terminal UI
  fraudguard relay                          # Serve actions from a shared bus`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flags.ConfigFile, "config", "", "config file (default: search standard locations)")
	rootCmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVar(&flags.JSONLog, "json-log", false, "output logs in JSON format")
	rootCmd.PersistentFlags().StringVar(&flags.LogFile, "log-file", "", "write logs to this file instead of stderr")
	rootCmd.PersistentFlags().StringVar(&flags.APIURL, "api-url", "", "override api.base_url")
	rootCmd.PersistentFlags().StringVar(&flags.StoreType, "store", "", "override store.type (memory, sqlite, mysql, redis)")
	rootCmd.PersistentFlags().StringVar(&flags.BusType, "bus", "", "override bus.type (memory, redis)")
}
