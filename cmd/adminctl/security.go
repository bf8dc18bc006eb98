package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rfpdesk/rfpdesk/internal/console"
)

func newSecurityCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "security",
		Short: "Manage IP restriction and the allow/deny lists",
		Long: `Manage IP restriction. An entry is an IPv4 address, a CIDR range or
localhost. When an address matches both lists the denylist wins.`,
	}

	get := &cobra.Command{
		Use:   "get",
		Short: "Show the IP access configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			cfg, err := s.Security.Load(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "restriction enabled: %t\n", cfg.IPRestrictionEnabled)
			fmt.Fprintf(out, "allowlist: %s\n", joinOrNone(cfg.IPAllowlist))
			fmt.Fprintf(out, "denylist:  %s\n", joinOrNone(cfg.IPDenylist))
			return nil
		},
	}

	cmd.AddCommand(
		get,
		editSecurity(opts, "allow <entry>", "Add an entry to the allowlist", 1, func(f *console.SecurityForm, args []string) error {
			return f.Add(console.Allowlist, args[0])
		}),
		editSecurity(opts, "deny <entry>", "Add an entry to the denylist", 1, func(f *console.SecurityForm, args []string) error {
			return f.Add(console.Denylist, args[0])
		}),
		editSecurity(opts, "remove <allow|deny> <entry>", "Remove an entry from a list", 2, func(f *console.SecurityForm, args []string) error {
			list, err := parseList(args[0])
			if err != nil {
				return err
			}
			f.Remove(list, args[1])
			return nil
		}),
		editSecurity(opts, "enable", "Turn IP restriction on", 0, func(f *console.SecurityForm, args []string) error {
			f.SetEnabled(true)
			return nil
		}),
		editSecurity(opts, "disable", "Turn IP restriction off", 0, func(f *console.SecurityForm, args []string) error {
			f.SetEnabled(false)
			return nil
		}),
	)
	return cmd
}

// editSecurity builds a command that loads the configuration, applies edit
// locally and saves the whole configuration.
func editSecurity(opts *globalOptions, use, short string, nargs int, edit func(*console.SecurityForm, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			if _, err := s.Security.Load(cmd.Context()); err != nil {
				return err
			}
			if err := edit(s.Security, args); err != nil {
				return err
			}
			_, err = s.Security.Save(cmd.Context())
			return err
		},
	}
}

func parseList(raw string) (console.AccessList, error) {
	switch strings.ToLower(raw) {
	case "allow", "allowlist":
		return console.Allowlist, nil
	case "deny", "denylist":
		return console.Denylist, nil
	}
	return 0, fmt.Errorf("unknown list %q: use allow or deny", raw)
}

func joinOrNone(entries []string) string {
	if len(entries) == 0 {
		return "(none)"
	}
	return strings.Join(entries, ", ")
}
