package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mikey/fraudguard/internal/ui"
)

var authFlags struct {
	email         string
	passwordStdin bool
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session",
	Long: `Log in to the classification service. The password is read from the
FRAUDGUARD_PASSWORD environment variable or from the first line of stdin.`,
	RunE: runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and store the session",
	Long: `Create an account on the classification service. The password and its
confirmation are read from the first two lines of stdin, or both from
FRAUDGUARD_PASSWORD.`,
	RunE: runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE:  runLogout,
}

func init() {
	for _, cmd := range []*cobra.Command{loginCmd, registerCmd} {
		cmd.Flags().StringVarP(&authFlags.email, "email", "e", "", "account email")
	}
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	passwords, err := readPasswords(cmd.InOrStdin(), 1)
	if err != nil {
		return err
	}

	return withController(cmd, func(ctx context.Context, c *ui.Controller) {
		c.Login(ctx, authFlags.email, passwords[0])
	})
}

func runRegister(cmd *cobra.Command, args []string) error {
	passwords, err := readPasswords(cmd.InOrStdin(), 2)
	if err != nil {
		return err
	}

	return withController(cmd, func(ctx context.Context, c *ui.Controller) {
		c.Register(ctx, authFlags.email, passwords[0], passwords[1])
	})
}

func runLogout(cmd *cobra.Command, args []string) error {
	return withController(cmd, func(ctx context.Context, c *ui.Controller) {
		c.Logout(ctx)
	})
}

// withController drives the shared controller with a console view and
// turns its last error notification into the command error
func withController(cmd *cobra.Command, fn func(ctx context.Context, c *ui.Controller)) error {
	view := newConsoleView(cmd.OutOrStdout(), cmd.ErrOrStderr())

	return withClient(cmd, false, func(ctx context.Context, cl client) error {
		controller := ui.NewController(view, cl.Requester, cl.Sessions, cl.Store, cl.Extractor, cl.Logger, cl.Config.GetUI().Theme)
		fn(ctx, controller)
		return view.Err()
	})
}

// readPasswords returns n passwords, from the environment when set,
// otherwise one per line of r
func readPasswords(r io.Reader, n int) ([]string, error) {
	passwords := make([]string, n)

	if env := os.Getenv("FRAUDGUARD_PASSWORD"); env != "" {
		for i := range passwords {
			passwords[i] = env
		}
		return passwords, nil
	}

	scanner := bufio.NewScanner(r)
	for i := range passwords {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, fmt.Errorf("failed to read password: %w", err)
			}
			return nil, errors.New(ui.MsgFillAllFields)
		}
		passwords[i] = strings.TrimRight(scanner.Text(), "\r")
	}
	return passwords, nil
}
