// Package main implements adminctl, the command-line admin console for the
// rfpdesk API.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rfpdesk/rfpdesk/internal/console"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	baseURL    string
	session    string
	cookieName string
	redisAddr  string
	timeout    time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "adminctl",
		Short: "Admin console for rfpdesk",
		Long: `adminctl manages roles, billing plans, API quota and IP access rules
through the rfpdesk admin API.

Sign in once and export the printed session:
  eval "$(adminctl login --email admin@example.com)"
  adminctl roles list`,
		Version:      version,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.baseURL, "base-url", envOr("ADMINCTL_BASE_URL", "http://localhost:8080"), "admin API base URL")
	flags.StringVar(&opts.session, "session", os.Getenv("ADMINCTL_SESSION"), "session cookie value printed by login")
	flags.StringVar(&opts.cookieName, "cookie-name", envOr("ADMINCTL_SESSION_COOKIE", "rfpdesk_session"), "session cookie name")
	flags.StringVar(&opts.redisAddr, "redis-addr", envOr("ADMINCTL_REDIS_ADDR", "127.0.0.1:6379"), "redis address used by jobs commands")
	flags.DurationVar(&opts.timeout, "timeout", console.DefaultTimeout, "per-request timeout")

	root.AddCommand(
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newRolesCmd(opts),
		newPlansCmd(opts),
		newQuotaCmd(opts),
		newSecurityCmd(opts),
		newUsersCmd(opts),
		newJobsCmd(opts),
	)
	return root
}

// session is an authenticated console bound to one command invocation.
type session struct {
	*console.Console
	info console.SessionInfo
}

func (o *globalOptions) client() (*console.Client, error) {
	return console.NewClient(o.baseURL, console.WithTimeout(o.timeout))
}

// connect restores the saved session and returns a console that reports
// toasts on stderr.
func (o *globalOptions) connect(cmd *cobra.Command) (*session, error) {
	if o.session == "" {
		return nil, errors.New("not signed in: run adminctl login and export ADMINCTL_SESSION")
	}
	client, err := o.client()
	if err != nil {
		return nil, err
	}
	info, err := client.UseSession(cmd.Context(), o.cookieName, o.session)
	if err != nil {
		if console.IsStatus(err, http.StatusUnauthorized) {
			return nil, errors.New("session expired: run adminctl login again")
		}
		return nil, fmt.Errorf("restore session: %w", err)
	}
	c := console.New(client, console.NewQueryCache(nil), console.WriterToaster{W: cmd.ErrOrStderr()})
	return &session{Console: c, info: info}, nil
}

// confirmation returns a Confirm that accepts immediately when yes is set and
// otherwise asks on stdin.
func confirmation(cmd *cobra.Command, prompt string, yes bool) console.Confirm {
	return func() bool {
		if yes {
			return true
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N] ", prompt)
		line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func newLoginCmd(opts *globalOptions) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and print the session to export",
		Long: `Sign in with email and password. The password is read from
--password, ADMINCTL_PASSWORD or the first line of stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("ADMINCTL_PASSWORD")
			}
			if password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			client, err := opts.client()
			if err != nil {
				return err
			}
			info, err := client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			value := client.Session(opts.cookieName)
			if value == "" {
				return fmt.Errorf("login succeeded but no %s cookie was set", opts.cookieName)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "signed in as user %d (%s)\n", info.UserID, info.Role)
			fmt.Fprintf(cmd.OutOrStdout(), "export ADMINCTL_SESSION=%s\n", value)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			return s.Client.Logout(cmd.Context())
		},
	}
}
