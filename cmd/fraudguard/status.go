package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mikey/fraudguard/internal/core"
	"github.com/mikey/fraudguard/internal/ports"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored session",
	Long: `Show who is logged in. JWT access tokens are decoded without
verification to report their subject and expiry.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	return invoke(func(sessions *core.SessionStore, store ports.Store) error {
		defer store.Close()

		out := cmd.OutOrStdout()
		session, err := sessions.Load(cmd.Context())
		if errors.Is(err, core.ErrNoSession) {
			fmt.Fprintln(out, "Not logged in.")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Logged in as %s\n", displayEmail(session.User.Email))
		printToken(cmd, session.Token, time.Now())
		return nil
	})
}

func displayEmail(email string) string {
	if email == "" {
		return "(unknown)"
	}
	return email
}

func printToken(cmd *cobra.Command, token string, now time.Time) {
	out := cmd.OutOrStdout()
	info := core.InspectToken(token)

	if !info.IsJWT {
		fmt.Fprintf(out, "Token:   opaque, %d bytes\n", info.Length)
		return
	}

	fmt.Fprintf(out, "Token:   JWT, %d bytes\n", info.Length)
	if info.Subject != "" {
		fmt.Fprintf(out, "Subject: %s\n", info.Subject)
	}
	switch {
	case info.ExpiresAt.IsZero():
		fmt.Fprintln(out, "Expires: never")
	case info.Expired(now):
		fmt.Fprintf(out, "Expires: %s (expired, log in again)\n", info.ExpiresAt.Local().Format(time.RFC3339))
	default:
		fmt.Fprintf(out, "Expires: %s (in %s)\n", info.ExpiresAt.Local().Format(time.RFC3339), info.ExpiresAt.Sub(now).Round(time.Second))
	}
}
