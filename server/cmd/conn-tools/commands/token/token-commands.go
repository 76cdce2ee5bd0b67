package token

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/buildbeaver/connections/common/models"
	"github.com/buildbeaver/connections/server/cmd/conn-tools/cli"
	"github.com/buildbeaver/connections/server/cmd/conn-tools/commands"
	"github.com/buildbeaver/connections/server/services/credential"
)

const (
	signingKeyKey = "signing-key"
	issuerKey     = "issuer"
)

func init() {
	flags := tokenIssueCmd.Flags()
	flags.String(signingKeyKey, "",
		fmt.Sprintf("The key the server verifies API tokens with (at least %d bytes)", credential.MinSigningKeyLength))
	flags.String(issuerKey, credential.DefaultJWTIssuer, "The issuer the server expects API tokens to name")
	flags.StringVar(&tokenCmdConfig.platformID, "platform", string(models.DefaultPlatformID), "The platform to issue the token for")
	flags.DurationVar(&tokenCmdConfig.expiry, "expiry", credential.DefaultJWTExpiryDuration, "How long the token is valid for")
	for _, key := range []string{signingKeyKey, issuerKey} {
		err := viper.BindPFlag(key, flags.Lookup(key))
		if err != nil {
			panic(err)
		}
	}

	commands.RootCmd.AddCommand(tokenRootCmd)
	tokenRootCmd.AddCommand(tokenIssueCmd)
}

var tokenCmdConfig = struct {
	platformID string
	expiry     time.Duration
}{}

var tokenRootCmd = &cobra.Command{
	Use:   "token issue",
	Short: "Manage API tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:           "issue",
	Short:         "Issues an API token for a platform, signed with the server's signing key",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		signingKey := viper.GetString(signingKeyKey)
		if signingKey == "" {
			return fmt.Errorf("error --%s must be set", signingKeyKey)
		}
		logFactory, err := commands.MakeLogFactory()
		if err != nil {
			return err
		}
		credentialService, err := credential.NewCredentialService(credential.JWTConfig{
			SigningKey:     []byte(signingKey),
			Issuer:         viper.GetString(issuerKey),
			ExpiryDuration: tokenCmdConfig.expiry,
		}, clock.New(), logFactory)
		if err != nil {
			return err
		}
		token, err := credentialService.CreatePlatformJWT(models.PlatformID(tokenCmdConfig.platformID))
		if err != nil {
			return err
		}
		cli.Stdout.Println(token)
		return nil
	},
}
