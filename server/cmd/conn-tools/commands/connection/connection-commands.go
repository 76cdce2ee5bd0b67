package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/buildbeaver/connections/common/models"
	"github.com/buildbeaver/connections/server/api/rest/client"
	"github.com/buildbeaver/connections/server/api/rest/documents"
	"github.com/buildbeaver/connections/server/cmd/conn-tools/cli"
	"github.com/buildbeaver/connections/server/cmd/conn-tools/commands"
)

func init() {
	flags := connectionCreateCmd.Flags()
	flags.StringVar(&connectionCmdConfig.externalID, "external-id", "",
		"External id for the connection. May be omitted if the piece has a naming convention and one project is specified")
	flags.StringVar(&connectionCmdConfig.displayName, "display-name", "", "Display name for the connection")
	flags.StringVar(&connectionCmdConfig.pieceName, "piece", "", "Name of the piece the connection authenticates")
	flags.StringVar(&connectionCmdConfig.authType, "type", string(models.AuthTypeSecretText), "The auth type of the connection value")
	flags.StringVar(&connectionCmdConfig.scope, "scope", string(models.ConnectionScopePlatform), "The connection scope (PLATFORM|PROJECT)")
	flags.StringSliceVar(&connectionCmdConfig.projects, "project", nil, "External id of a project to attach the connection to; may be repeated")
	flags.StringVar(&connectionCmdConfig.secretText, "secret-text", "", "Secret text value, for SECRET_TEXT connections")
	flags.StringVar(&connectionCmdConfig.propsFile, "props-file", "", "Path to a JSON file holding the value props, or - for stdin")
	_ = connectionCreateCmd.MarkFlagRequired("piece")
	_ = connectionCreateCmd.MarkFlagRequired("project")

	connectionLookupCmd.Flags().StringVar(&connectionCmdConfig.lookupProject, "project", "",
		"External id of the project the lookup is made on behalf of")
	connectionLookupCmd.Flags().BoolVar(&connectionCmdConfig.showValue, "show-value", false,
		"Print the connection value; by default only the auth type and prop names are printed")
	_ = connectionLookupCmd.MarkFlagRequired("project")

	commands.RootCmd.AddCommand(connectionRootCmd)
	connectionRootCmd.AddCommand(connectionCreateCmd)
	connectionRootCmd.AddCommand(connectionLookupCmd)
	connectionRootCmd.AddCommand(connectionDeleteCmd)
}

var connectionCmdConfig = struct {
	externalID    string
	displayName   string
	pieceName     string
	authType      string
	scope         string
	projects      []string
	secretText    string
	propsFile     string
	lookupProject string
	showValue     bool
}{}

var connectionRootCmd = &cobra.Command{
	Use:   "connection create|lookup|delete",
	Short: "Provision, inspect and remove predefined connections",
}

var connectionCreateCmd = &cobra.Command{
	Use:           "create",
	Short:         "Creates a connection attached to one or more projects",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		value, err := readValue(models.AuthType(connectionCmdConfig.authType))
		if err != nil {
			return err
		}
		apiClient, err := commands.MakeAPIClient()
		if err != nil {
			return err
		}
		projectIDs, err := findProjectIDs(ctx, apiClient, connectionCmdConfig.projects)
		if err != nil {
			return err
		}
		connection, err := apiClient.CreateConnection(ctx, &documents.CreateConnectionRequest{
			DisplayName: connectionCmdConfig.displayName,
			PieceName:   connectionCmdConfig.pieceName,
			Type:        value.Type,
			Value:       value,
			Scope:       models.ConnectionScope(connectionCmdConfig.scope),
			ProjectIDs:  projectIDs,
			ExternalID:  connectionCmdConfig.externalID,
		})
		if err != nil {
			return fmt.Errorf("error creating connection: %w", err)
		}
		return cli.PrintJSON(connection)
	},
}

var connectionLookupCmd = &cobra.Command{
	Use:           "lookup external-id",
	Short:         "Reads a connection the way the runtime does, on behalf of a project",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		apiClient, err := commands.MakeAPIClient(client.WithRetryMax(0))
		if err != nil {
			return err
		}
		connection, err := apiClient.GetRuntimeConnection(context.Background(), args[0], connectionCmdConfig.lookupProject)
		if err != nil {
			return fmt.Errorf("error looking up connection: %w", err)
		}
		if !connectionCmdConfig.showValue {
			return cli.PrintJSON(connection.Connection)
		}
		return cli.PrintJSON(connection)
	},
}

var connectionDeleteCmd = &cobra.Command{
	Use:           "delete connection-id",
	Short:         "Permanently deletes a connection",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		connectionID, err := models.ParseConnectionID(args[0])
		if err != nil {
			return fmt.Errorf("error parsing connection id: %w", err)
		}
		apiClient, err := commands.MakeAPIClient()
		if err != nil {
			return err
		}
		err = apiClient.DeleteConnection(context.Background(), connectionID)
		if err != nil {
			return fmt.Errorf("error deleting connection: %w", err)
		}
		cli.Stdout.Printf("Deleted connection %s", connectionID)
		return nil
	},
}

// readValue builds the connection value from the --secret-text or --props-file flags.
func readValue(authType models.AuthType) (*models.ConnectionValue, error) {
	if connectionCmdConfig.secretText != "" {
		if authType != models.AuthTypeSecretText {
			return nil, fmt.Errorf("error --secret-text can only be used with --type %s", models.AuthTypeSecretText)
		}
		return models.NewConnectionValueFromStruct(authType, models.SecretTextCredential{SecretText: connectionCmdConfig.secretText}), nil
	}
	if connectionCmdConfig.propsFile == "" {
		return nil, fmt.Errorf("error one of --secret-text or --props-file must be set")
	}
	var (
		buf []byte
		err error
	)
	if connectionCmdConfig.propsFile == "-" {
		buf, err = io.ReadAll(os.Stdin)
	} else {
		buf, err = os.ReadFile(connectionCmdConfig.propsFile)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading props: %w", err)
	}
	props := map[string]interface{}{}
	err = json.Unmarshal(buf, &props)
	if err != nil {
		return nil, fmt.Errorf("error parsing props as a JSON object: %w", err)
	}
	value := models.NewConnectionValue(authType, props)
	if err := value.Validate(); err != nil {
		return nil, err
	}
	return value, nil
}

func findProjectIDs(ctx context.Context, apiClient *client.APIClient, externalIDs []string) ([]models.ProjectID, error) {
	projectIDs := make([]models.ProjectID, 0, len(externalIDs))
	for _, externalID := range externalIDs {
		project, err := apiClient.FindProjectByExternalID(ctx, externalID)
		if err != nil {
			return nil, fmt.Errorf("error finding project %q: %w", externalID, err)
		}
		projectIDs = append(projectIDs, project.ID)
	}
	return projectIDs, nil
}
