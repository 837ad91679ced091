package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/matricula/matricula/internal/client"
	"github.com/matricula/matricula/internal/config"
	"github.com/matricula/matricula/internal/logger"
)

// app is the state shared by every subcommand.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	apiURL    string
	timeout   time.Duration
	tokenPath string
	verbose   bool

	api    *client.Client
	tokens tokenFile
	log    zerolog.Logger
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	cfg := config.Load()
	a := &app{in: in, out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "enrollctl",
		Short:         "Manage students and payments through the enrollment API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := "warn"
			if a.verbose {
				level = "debug"
			}
			a.log = logger.SetupWriter(level, "pretty", a.errOut)
			a.api = client.New(a.apiURL, a.timeout)
			a.tokens = tokenFile{path: a.tokenPath}
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.apiURL, "api", cfg.APIBaseURL, "enrollment API base URL")
	flags.DurationVar(&a.timeout, "timeout", cfg.APITimeout, "request timeout")
	flags.StringVar(&a.tokenPath, "token-file", defaultTokenPath(), "where the session token is kept")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newStudentsCmd(a),
		newPaymentsCmd(a),
	)

	return root
}

// token returns the stored token or errNotLoggedIn.
func (a *app) token() (string, error) {
	return a.tokens.Load()
}

// fail turns an API error into the message shown to the operator.
// A rejected token is dropped so the next command asks for a fresh login.
func (a *app) fail(err error, fallback string) error {
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		if clearErr := a.tokens.Clear(); clearErr != nil {
			a.log.Warn().Err(clearErr).Msg("Clear token failed")
		}
		return errors.New("session expired, run `enrollctl login` again")
	case errors.Is(err, client.ErrUnavailable):
		a.log.Debug().Err(err).Msg("API unreachable")
		return fmt.Errorf("cannot reach %s", a.apiURL)
	default:
		a.log.Debug().Err(err).Msg("API error")
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			msg := client.MessageOr(err, fallback)
			for field, reason := range apiErr.Fields {
				msg += fmt.Sprintf("\n  %s: %s", field, reason)
			}
			return errors.New(msg)
		}
		return fmt.Errorf("%s: %w", fallback, err)
	}
}
