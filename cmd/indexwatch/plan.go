package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/indexwatch/backend"
)

// plan generation runs a model over the retrieved context and is slow
const planTimeout = 3 * time.Minute

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate and inspect implementation plans",
}

var planGenerateCmd = &cobra.Command{
	Use:   "generate <project-id> <task>",
	Short: "Generate an implementation plan for a task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClientWithTimeout(cmd, planTimeout)
		if err != nil {
			return err
		}
		defer client.Close()

		plan, err := client.GeneratePlan(cmd.Context(), backend.GeneratePlanRequest{
			ProjectID: args[0],
			Task:      args[1],
		})
		if err != nil {
			return fmt.Errorf("failed to generate plan: %w", err)
		}

		if wantJSON(cmd) {
			return printJSON(cmd.OutOrStdout(), plan)
		}
		printPlan(cmd.OutOrStdout(), plan)
		return nil
	},
}

var planGetCmd = &cobra.Command{
	Use:   "get <plan-id>",
	Short: "Show a stored plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		plan, err := client.GetPlan(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get plan: %w", err)
		}

		if wantJSON(cmd) {
			return printJSON(cmd.OutOrStdout(), plan)
		}
		printPlan(cmd.OutOrStdout(), plan)
		return nil
	},
}

var planListCmd = &cobra.Command{
	Use:   "list <project-id>",
	Short: "List plans generated for a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		plans, err := client.ListPlans(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to list plans: %w", err)
		}

		if wantJSON(cmd) {
			return printJSON(cmd.OutOrStdout(), plans)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCONFIDENCE\tCREATED\tTASK")
		for _, p := range plans {
			fmt.Fprintf(tw, "%s\t%.0f%%\t%s\t%s\n", p.ID, p.Confidence*100,
				p.CreatedAt.Local().Format(time.DateTime), p.TaskDescription)
		}
		return tw.Flush()
	},
}

func printPlan(w io.Writer, p backend.Plan) {
	fmt.Fprintf(w, "Plan %s (confidence %.0f%%)\n", p.ID, p.Confidence*100)
	fmt.Fprintf(w, "Task: %s\n\n", p.TaskDescription)
	fmt.Fprintf(w, "%s\n", p.Plan.Summary)

	if len(p.Plan.AffectedFiles) > 0 {
		fmt.Fprintln(w, "\nAffected files:")
		for _, f := range p.Plan.AffectedFiles {
			fmt.Fprintf(w, "  [%s] %s\n", f.Action, f.Path)
		}
	}

	if len(p.Plan.Steps) > 0 {
		fmt.Fprintln(w, "\nSteps:")
		for _, s := range p.Plan.Steps {
			if s.File != nil {
				fmt.Fprintf(w, "  %d. %s (%s)\n", s.Order, s.Description, *s.File)
			} else {
				fmt.Fprintf(w, "  %d. %s\n", s.Order, s.Description)
			}
		}
	}

	if len(p.Plan.ReusableComponents) > 0 {
		fmt.Fprintln(w, "\nReuse:")
		for _, c := range p.Plan.ReusableComponents {
			fmt.Fprintf(w, "  %s at %s\n", c.Name, c.Location)
		}
	}
}

func init() {
	addJSONFlag(planGenerateCmd)
	addJSONFlag(planGetCmd)
	addJSONFlag(planListCmd)

	planCmd.AddCommand(planGenerateCmd, planGetCmd, planListCmd)
	rootCmd.AddCommand(planCmd)
}
