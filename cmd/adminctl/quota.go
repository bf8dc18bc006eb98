package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newQuotaCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quota",
		Short: "Show or change the monthly API quota",
	}
	get := &cobra.Command{
		Use:   "get",
		Short: "Show the limit and this month's usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			cfg, err := s.Quota.Load(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "limit: %d\nused:  %d\n", cfg.LimitPerMonth, cfg.UsedThisMonth)
			return nil
		},
	}
	set := &cobra.Command{
		Use:   "set <limit>",
		Short: "Set the monthly limit; 0 blocks every call",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			_, err = s.Quota.Save(cmd.Context(), args[0])
			return err
		},
	}
	cmd.AddCommand(get, set)
	return cmd
}
