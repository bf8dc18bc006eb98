package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rfpdesk/rfpdesk/internal/console"
)

func newPlansCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Manage billing plans and plan assignment",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List billing plans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			plans, err := s.Plans.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tPRICE\tINTERVAL\tCREDITS\tAPI QUOTA\tPOPULAR")
			for _, p := range plans {
				fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\t%s\t%s\t%t\n",
					p.ID, p.Name, p.Price, p.Interval, optional(p.CreditsIncluded), optional(p.APIQuotaPerMonth), p.Popular)
			}
			return tw.Flush()
		},
	}

	var createForm console.PlanForm
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a billing plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			plan, err := s.Plans.CreatePlan(cmd.Context(), createForm)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), plan.ID)
			return nil
		},
	}
	planFlags(create.Flags(), &createForm)

	var updateForm console.PlanForm
	update := &cobra.Command{
		Use:   "update <plan-id>",
		Short: "Replace the fields of a billing plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			_, err = s.Plans.UpdatePlan(cmd.Context(), args[0], updateForm)
			return err
		},
	}
	planFlags(update.Flags(), &updateForm)

	var yes bool
	del := &cobra.Command{
		Use:   "delete <plan-id>",
		Short: "Delete a plan no user is on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			_, err = s.Plans.DeletePlan(cmd.Context(), args[0], confirmation(cmd, "Delete plan "+args[0]+"?", yes))
			return err
		},
	}
	del.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")

	assign := &cobra.Command{
		Use:   "assign <user-id> <plan-id>",
		Short: "Move a user onto a plan",
		Long: `Move a user onto a plan. Their credit balance and API quota are reset
from the plan and they receive an in-app notification.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			_, err = s.Plans.AssignPlan(cmd.Context(), args[0], args[1])
			return err
		},
	}

	cmd.AddCommand(list, create, update, del, assign)
	return cmd
}

func planFlags(fs *pflag.FlagSet, form *console.PlanForm) {
	fs.StringVar(&form.Name, "name", "", "plan name")
	fs.StringVar(&form.Price, "price", "", "price per interval; blank means 0")
	fs.StringVar(&form.Interval, "interval", "month", "month or year")
	fs.StringVar(&form.CreditsIncluded, "credits", "", "credits included; blank leaves balances unchanged")
	fs.StringVar(&form.APIQuotaPerMonth, "api-quota", "", "monthly API calls; blank means unlimited")
	fs.BoolVar(&form.Popular, "popular", false, "highlight the plan")
}

func optional(v *int64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatInt(*v, 10)
}
