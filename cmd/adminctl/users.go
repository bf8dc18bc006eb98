package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newUsersCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Browse users, credits and notifications",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List users with their role and plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			users, err := s.Users.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tROLE\tPLAN\tACTIVE")
			for _, u := range users {
				plan := "-"
				if u.PlanID != nil {
					plan = *u.PlanID
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%t\n", u.ID, u.Email, u.Name, u.RoleID, plan, u.IsActive)
			}
			return tw.Flush()
		},
	}

	credits := &cobra.Command{
		Use:   "credits <user-id>",
		Short: "Show a user's plan, credit balance and API quota",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			s, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			c, err := s.Users.Credits(cmd.Context(), id)
			if err != nil {
				return err
			}
			plan := "-"
			if c.PlanID != nil {
				plan = *c.PlanID
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "plan:      %s\n", plan)
			fmt.Fprintf(out, "balance:   %d\n", c.Balance)
			fmt.Fprintf(out, "api quota: %s\n", optional(c.APIQuotaPerMonth))
			return nil
		},
	}

	notifications := &cobra.Command{
		Use:   "notifications",
		Short: "Show recent notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			items, err := s.Users.Notifications(cmd.Context())
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tUSER\tKIND\tTITLE\tCREATED")
			for _, n := range items {
				fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", n.ID, n.UserID, n.Kind, n.Title, n.CreatedAt.Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(list, credits, notifications)
	return cmd
}
