package project

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buildbeaver/connections/server/api/rest/documents"
	"github.com/buildbeaver/connections/server/cmd/conn-tools/cli"
	"github.com/buildbeaver/connections/server/cmd/conn-tools/commands"
)

func init() {
	projectGetOrCreateCmd.Flags().StringVar(
		&projectCmdConfig.displayName,
		"display-name",
		"",
		"Display name for the project, used only if the project is created")
	projectGetOrCreateCmd.Flags().StringToStringVar(
		&projectCmdConfig.metadata,
		"metadata",
		nil,
		"Metadata for the project as key=value pairs, used only if the project is created")

	commands.RootCmd.AddCommand(projectRootCmd)
	projectRootCmd.AddCommand(projectGetOrCreateCmd)
	projectRootCmd.AddCommand(projectFindCmd)
}

var projectCmdConfig = struct {
	displayName string
	metadata    map[string]string
}{}

var projectRootCmd = &cobra.Command{
	Use:   "project get-or-create|find",
	Short: "Manage the projects connections are attached to",
}

var projectGetOrCreateCmd = &cobra.Command{
	Use:           "get-or-create external-id",
	Short:         "Returns the project with the specified external id, creating it if it does not exist",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		apiClient, err := commands.MakeAPIClient()
		if err != nil {
			return err
		}
		project, created, err := apiClient.GetOrCreateProject(context.Background(), &documents.CreateProjectRequest{
			ExternalID:  args[0],
			DisplayName: projectCmdConfig.displayName,
			Metadata:    projectCmdConfig.metadata,
		})
		if err != nil {
			return fmt.Errorf("error getting or creating project: %w", err)
		}
		if created {
			cli.Stderr.Printf("Created project %s", project.ID)
		} else {
			cli.Stderr.Printf("Project %s already exists", project.ID)
		}
		return cli.PrintJSON(project)
	},
}

var projectFindCmd = &cobra.Command{
	Use:           "find external-id",
	Short:         "Finds the project with the specified external id",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		apiClient, err := commands.MakeAPIClient()
		if err != nil {
			return err
		}
		project, err := apiClient.FindProjectByExternalID(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("error finding project: %w", err)
		}
		return cli.PrintJSON(project)
	},
}
