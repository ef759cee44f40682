package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/indexwatch/backend"
)

var projectsCmd = &cobra.Command{
	Use:     "projects",
	Aliases: []string{"project", "p"},
	Short:   "Manage backend projects",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		projects, err := client.ListProjects(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list projects: %w", err)
		}

		if wantJSON(cmd) {
			return printJSON(cmd.OutOrStdout(), projects)
		}
		return printProjects(cmd.OutOrStdout(), projects)
	},
}

var projectsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		p, err := client.GetProject(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get project: %w", err)
		}

		if wantJSON(cmd) {
			return printJSON(cmd.OutOrStdout(), p)
		}
		printProject(cmd.OutOrStdout(), p)
		return nil
	},
}

var projectsCreateCmd = &cobra.Command{
	Use:   "create <name> <path>",
	Short: "Register a codebase",
	Long: `Register a codebase with the backend. The project starts as pending;
run "indexwatch index <id>" to index it.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		req := backend.CreateProjectRequest{Name: args[0], Path: args[1]}
		if cmd.Flags().Changed("description") {
			d, _ := cmd.Flags().GetString("description")
			req.Description = &d
		}

		p, err := client.CreateProject(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}

		if wantJSON(cmd) {
			return printJSON(cmd.OutOrStdout(), p)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (%s)\n", p.ID, p.Name)
		return nil
	},
}

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a project and its embeddings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		if err := client.DeleteProject(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", args[0])
		return nil
	},
}

func init() {
	addJSONFlag(projectsListCmd)
	addJSONFlag(projectsGetCmd)
	addJSONFlag(projectsCreateCmd)
	projectsCreateCmd.Flags().String("description", "", "optional project description")

	projectsCmd.AddCommand(projectsListCmd, projectsGetCmd, projectsCreateCmd, projectsDeleteCmd)
	rootCmd.AddCommand(projectsCmd)
}
