package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/matricula/matricula/internal/client"
)

func newLoginCmd(a *app) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(a.in)

			if username == "" {
				fmt.Fprint(a.out, "Usuário: ")
				line, err := reader.ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return fmt.Errorf("read username: %w", err)
				}
				username = strings.TrimSpace(line)
			}
			if username == "" {
				return errors.New("username is required")
			}

			fmt.Fprint(a.out, "Senha: ")
			password, err := readPassword(a.in, reader)
			fmt.Fprintln(a.out)
			if err != nil {
				return err
			}

			token, err := a.api.Login(cmd.Context(), username, password)
			if errors.Is(err, client.ErrUnauthorized) {
				return errors.New("invalid credentials")
			}
			if err != nil {
				return a.fail(err, "login failed")
			}
			if err := a.tokens.Save(token); err != nil {
				return err
			}

			a.log.Debug().Str("path", a.tokens.path).Msg("Token saved")
			fmt.Fprintf(a.out, "Logged in as %s\n", username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "operator username")
	return cmd
}

// readPassword hides input on a terminal and falls back to reading a line
// when stdin is piped.
func readPassword(in io.Reader, reader *bufio.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		raw, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}

	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session token and forget it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := a.token()
			if errors.Is(err, errNotLoggedIn) {
				fmt.Fprintln(a.out, "Not logged in")
				return nil
			}
			if err != nil {
				return err
			}

			if err := a.api.Logout(cmd.Context(), token); err != nil && !errors.Is(err, client.ErrUnauthorized) {
				a.log.Warn().Err(err).Msg("API logout failed")
			}
			if err := a.tokens.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}
