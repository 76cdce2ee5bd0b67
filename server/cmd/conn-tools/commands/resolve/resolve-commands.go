package resolve

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/buildbeaver/connections/common/models"
	"github.com/buildbeaver/connections/common/resolution"
	"github.com/buildbeaver/connections/server/api/rest/client"
	"github.com/buildbeaver/connections/server/cmd/conn-tools/cli"
	"github.com/buildbeaver/connections/server/cmd/conn-tools/commands"
)

func init() {
	flags := resolveCmd.Flags()
	flags.StringVar(&resolveCmdConfig.prefix, "prefix", "", "The naming prefix of the connection to resolve")
	flags.StringVar(&resolveCmdConfig.pieceName, "piece", "",
		"Resolve using the naming convention registered for this piece, in place of --prefix")
	flags.StringVar(&resolveCmdConfig.conventionsFile, "conventions-file", "",
		"Path to the YAML naming conventions file, required with --piece")
	flags.StringVar(&resolveCmdConfig.project, "project", "", "External id of the project to resolve for")
	flags.BoolVar(&resolveCmdConfig.showValue, "show-value", false,
		"Print the resolved value; by default only the auth type and prop names are printed")

	commands.RootCmd.AddCommand(resolveCmd)
}

var resolveCmdConfig = struct {
	prefix          string
	pieceName       string
	conventionsFile string
	project         string
	showValue       bool
}{}

var resolveCmd = &cobra.Command{
	Use:           "resolve --prefix prefix --project external-id",
	Short:         "Resolves a predefined connection for a project the way a piece invocation does",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		logFactory, err := commands.MakeLogFactory()
		if err != nil {
			return err
		}
		apiClient, err := commands.MakeAPIClient(client.WithRetryMax(0))
		if err != nil {
			return err
		}
		identity := resolution.StaticProjectIdentity(resolveCmdConfig.project)
		resolver := resolution.NewResolver(client.NewRuntimeCapability(apiClient, identity), logFactory)

		var value *models.ConnectionValue
		switch {
		case resolveCmdConfig.pieceName != "":
			conventions, err := models.LoadNamingConventions(resolveCmdConfig.conventionsFile)
			if err != nil {
				return err
			}
			convention, ok := conventions.ForPiece(resolveCmdConfig.pieceName)
			if !ok {
				return fmt.Errorf("error no naming convention registered for piece %q", resolveCmdConfig.pieceName)
			}
			value, err = resolver.ResolveAs(ctx, convention, identity)
			if err != nil {
				return err
			}
		case resolveCmdConfig.prefix != "":
			value, err = resolver.Resolve(ctx, models.NamingPrefix(resolveCmdConfig.prefix), identity)
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("error one of --prefix or --piece must be set")
		}

		if resolveCmdConfig.showValue {
			return cli.PrintJSON(value)
		}
		propNames := make([]string, 0, len(value.Props))
		for name := range value.Props {
			propNames = append(propNames, name)
		}
		sort.Strings(propNames)
		return cli.PrintJSON(map[string]interface{}{
			"type":  value.Type,
			"props": propNames,
		})
	},
}
