package provision

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buildbeaver/connections/common/gerror"
	"github.com/buildbeaver/connections/common/models"
	"github.com/buildbeaver/connections/server/api/rest/client"
	"github.com/buildbeaver/connections/server/api/rest/documents"
	"github.com/buildbeaver/connections/server/cmd/conn-tools/cli"
	"github.com/buildbeaver/connections/server/cmd/conn-tools/commands"
)

func init() {
	provisionCmd.Flags().StringVarP(
		&provisionCmdConfig.manifestFile,
		"file",
		"f",
		"",
		"Path to the YAML provisioning manifest")
	_ = provisionCmd.MarkFlagRequired("file")

	commands.RootCmd.AddCommand(provisionCmd)
}

var provisionCmdConfig = struct {
	manifestFile string
}{}

var provisionCmd = &cobra.Command{
	Use:   "provision -f manifest.yaml",
	Short: "Gets or creates every project in a manifest and creates its connections",
	Long: `Gets or creates every project in a manifest and creates its connections.
Connections that already exist are left unchanged, so a manifest can be applied repeatedly.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		manifest, err := LoadManifest(provisionCmdConfig.manifestFile)
		if err != nil {
			return err
		}
		apiClient, err := commands.MakeAPIClient()
		if err != nil {
			return err
		}
		summary, err := Provision(context.Background(), apiClient, manifest)
		cli.Stdout.Printf("Projects created: %d, existing: %d; connections created: %d, existing: %d",
			summary.ProjectsCreated, summary.ProjectsExisting, summary.ConnectionsCreated, summary.ConnectionsExisting)
		return err
	},
}

// Summary counts what a provisioning run did.
type Summary struct {
	ProjectsCreated     int
	ProjectsExisting    int
	ConnectionsCreated  int
	ConnectionsExisting int
}

// Provision applies the manifest through the REST API. Connections that already exist are counted
// but not modified. Stops at the first other error.
func Provision(ctx context.Context, apiClient *client.APIClient, manifest *Manifest) (*Summary, error) {
	summary := &Summary{}
	for _, mp := range manifest.Projects {
		project, created, err := apiClient.GetOrCreateProject(ctx, &documents.CreateProjectRequest{
			ExternalID:  mp.ExternalID,
			DisplayName: mp.DisplayName,
			Metadata:    mp.Metadata,
		})
		if err != nil {
			return summary, fmt.Errorf("error getting or creating project %q: %w", mp.ExternalID, err)
		}
		if created {
			summary.ProjectsCreated++
		} else {
			summary.ProjectsExisting++
		}
		for _, mc := range mp.Connections {
			externalID := mc.ConnectionExternalID(project.ExternalID)
			_, err := apiClient.CreateConnection(ctx, &documents.CreateConnectionRequest{
				DisplayName: mc.DisplayName,
				PieceName:   mc.PieceName,
				Type:        mc.Type,
				Value:       mc.Value(),
				Scope:       models.ConnectionScopePlatform,
				ProjectIDs:  []models.ProjectID{project.ID},
				ExternalID:  externalID,
			})
			if gerror.IsAlreadyExists(err) {
				summary.ConnectionsExisting++
				continue
			}
			if err != nil {
				return summary, fmt.Errorf("error creating connection %q: %w", externalID, err)
			}
			summary.ConnectionsCreated++
		}
	}
	return summary, nil
}
