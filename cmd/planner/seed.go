package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"project-planner/internal/repository"
)

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the example project with two categories and one task",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			ex, err := repository.SeedExample(cmd.Context(), a.graph)
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			a.log.WithField("project_id", ex.ProjectID).Info("example project seeded")
			fmt.Fprintf(cmd.OutOrStdout(), "project %d, categories %v, task %d\n", ex.ProjectID, ex.CategoryIDs, ex.TaskID)
			return nil
		},
	}
}
