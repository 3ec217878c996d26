package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func auditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Check that every task belongs to a category of its own project",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := context.WithTimeout(cmd.Context(), auditTimeout)
			defer cancel()
			report, err := a.audit.Run(ctx)
			if err != nil {
				return fmt.Errorf("audit: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.Summary())
			if !report.OK() {
				return fmt.Errorf("audit found %d violation(s)", len(report.Violations))
			}
			return nil
		},
	}
}
